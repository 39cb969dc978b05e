package health

// Status is the /health payload.
type Status struct {
	OK        bool     `json:"ok"`
	Providers []string `json:"providers"`
}

// Service reports liveness and the configured provider chain.
type Service struct {
	providers []string
}

// NewService constructs a health service for the given provider chain.
func NewService(providers ...string) *Service {
	return &Service{providers: append([]string{}, providers...)}
}

// Status returns the health payload. Providers is never nil.
func (s *Service) Status() Status {
	providers := []string{}
	if s != nil {
		providers = append(providers, s.providers...)
	}
	return Status{OK: true, Providers: providers}
}
