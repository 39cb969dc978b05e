package coaching

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"callcoach-backend/internal/llm"
	"callcoach-backend/internal/shared/apperr"
	"callcoach-backend/internal/shared/server/middleware"
	"callcoach-backend/internal/shared/server/respond"
)

const (
	MessageMissing          = "Transcript is required."
	MessageTooShort         = "Transcript too short (min 100 characters)."
	MessageInvalidContext   = "Unknown analysis context option."
	MessageRateLimited      = "The analysis service is busy right now. Please try again in a minute."
	MessageFailed           = "Analysis failed. Please try again."
	MessageMethodNotAllowed = "Method not allowed"
	MessageTooLarge         = "Request body too large."
)

// maxRequestBodyBytes caps the analyze request body.
const maxRequestBodyBytes = 5 << 20

// AnalyzePaths are the routes serving the analysis operation.
var AnalyzePaths = []string{"/analyze", "/api/analyze"}

// Handler wires HTTP requests to the coaching service.
type Handler struct {
	Svc         *Service
	ExposeDebug bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, exposeDebug bool) *Handler {
	return &Handler{Svc: svc, ExposeDebug: exposeDebug}
}

type analyzeBody struct {
	Transcript any             `json:"transcript"`
	Context    json.RawMessage `json:"context"`
}

// RegisterRoutes attaches the analyze routes. mw runs before the POST handler only.
func (h *Handler) RegisterRoutes(r gin.IRoutes, mw ...gin.HandlerFunc) {
	for _, path := range AnalyzePaths {
		r.POST(path, append(append([]gin.HandlerFunc{}, mw...), h.analyze)...)
		r.OPTIONS(path, respond.NoContent)
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead} {
			r.Handle(method, path, methodNotAllowed)
		}
	}
}

func methodNotAllowed(c *gin.Context) {
	c.Header("Allow", "POST, OPTIONS")
	respond.Error(c, http.StatusMethodNotAllowed, MessageMethodNotAllowed, "")
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyBytes)

	var body analyzeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, &apperr.Error{Kind: apperr.KindValidation, Message: ReasonTooLarge, Err: err})
			return
		}
		h.fail(c, apperr.Validation(ReasonMissing))
		return
	}

	analysisCtx, ctxErr := parseContext(body.Context)
	if ctxErr != nil {
		if _, err := ValidateTranscript(body.Transcript); err != nil {
			h.fail(c, err)
			return
		}
		h.fail(c, ctxErr)
		return
	}

	ctx := llm.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.Analyze(ctx, body.Transcript, analysisCtx)
	if err != nil {
		h.fail(c, err)
		return
	}
	if result.Meta != nil {
		c.Set("provider", result.Meta.Provider)
	}
	respond.OK(c, result)
}

func parseContext(raw json.RawMessage) (*AnalysisContext, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var out AnalysisContext
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Message: ReasonInvalidContext, Err: err}
	}
	return &out, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, message := StatusFor(err)
	debug := ""
	if h.ExposeDebug && status != http.StatusBadRequest {
		debug = err.Error()
	}
	respond.Error(c, status, message, debug)
}

// StatusFor maps a classified failure to an HTTP status and user-facing message.
func StatusFor(err error) (int, string) {
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, MessageFailed
	}
	switch e.Kind {
	case apperr.KindValidation:
		switch e.Message {
		case ReasonTooShort:
			return http.StatusBadRequest, MessageTooShort
		case ReasonInvalidContext:
			return http.StatusBadRequest, MessageInvalidContext
		case ReasonTooLarge:
			return http.StatusBadRequest, MessageTooLarge
		default:
			return http.StatusBadRequest, MessageMissing
		}
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests, MessageRateLimited
	default:
		return http.StatusInternalServerError, MessageFailed
	}
}
