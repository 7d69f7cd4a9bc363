package llm

import (
	"context"
	"sync"
)

// Static is a Provider returning canned responses in order. It exists for
// tests and offline runs; once the queue is exhausted the last response is
// repeated.
type Static struct {
	mu        sync.Mutex
	responses []string
	index     int
	// Err, when set, is returned from every Generate call
	Err error
	// Prompts records every prompt passed to Generate
	Prompts []string
}

// NewStatic creates a static provider with the given response queue
func NewStatic(responses ...string) *Static {
	return &Static{responses: responses}
}

// Generate returns the next canned response
func (s *Static) Generate(ctx context.Context, prompt string, options Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, prompt)

	if s.Err != nil {
		return "", &ProviderError{Provider: s.Name(), Err: s.Err}
	}
	if len(s.responses) == 0 {
		return "", nil
	}

	response := s.responses[s.index]
	if s.index < len(s.responses)-1 {
		s.index++
	}
	return response, nil
}

// Name returns the provider name
func (s *Static) Name() string {
	return "static"
}
