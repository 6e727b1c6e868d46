// Package health tracks upstream provider health. All state is in-memory
// and resets on application restart.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Checker is the surface every upstream client exposes for health checks.
type Checker interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
}

// Status is the last known health of one provider.
type Status struct {
	Name       string    `json:"name"`
	Configured bool      `json:"configured"`
	Healthy    bool      `json:"healthy"`
	Message    string    `json:"message,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Service runs connectivity checks against registered providers and keeps
// their latest status.
type Service struct {
	mu       sync.RWMutex
	checkers []Checker
	statuses map[string]Status
	logger   zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		statuses: make(map[string]Status),
		logger:   logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a provider to the check rotation.
func (s *Service) Register(c Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, c)
	s.statuses[c.Name()] = Status{
		Name:       c.Name(),
		Configured: c.IsConfigured(),
	}
}

// CheckAll tests every registered provider and records the outcome.
// Unconfigured providers are recorded as such, not as failures.
func (s *Service) CheckAll(ctx context.Context) error {
	s.mu.RLock()
	checkers := make([]Checker, len(s.checkers))
	copy(checkers, s.checkers)
	s.mu.RUnlock()

	for _, c := range checkers {
		status := Status{
			Name:       c.Name(),
			Configured: c.IsConfigured(),
			CheckedAt:  time.Now().UTC(),
		}

		if !status.Configured {
			status.Message = "not configured"
		} else if err := c.Test(ctx); err != nil {
			status.Message = err.Error()
			s.logger.Warn().Str("provider", c.Name()).Err(err).Msg("provider health check failed")
		} else {
			status.Healthy = true
		}

		s.mu.Lock()
		s.statuses[c.Name()] = status
		s.mu.Unlock()
	}

	return nil
}

// Statuses returns the latest status of every registered provider.
func (s *Service) Statuses() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]Status, 0, len(s.checkers))
	for _, c := range s.checkers {
		statuses = append(statuses, s.statuses[c.Name()])
	}
	return statuses
}
