package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"callcoach-backend/internal/shared/server"
	"callcoach-backend/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

// Serve runs the HTTP server until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App) error {
	addr := server.Addr(app.Config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": addr, "providers": app.Chain.IDs()})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	telemetry.Info("server.stop", map[string]any{"addr": addr})
	return err
}
