package health

import (
	"context"
	"database/sql"
	"fmt"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB Pinger
}

// NewService constructs a health service. A nil database means memory-backed repositories.
func NewService(db *sql.DB) *Service {
	if db == nil {
		return &Service{}
	}
	return &Service{DB: db}
}

// Status is the health payload.
type Status struct {
	OK    bool   `json:"ok"`
	Store string `json:"store"`
}

// Status reports which store backs the repositories and whether it answers.
func (s *Service) Status(ctx context.Context) (Status, error) {
	if s == nil || s.DB == nil {
		return Status{OK: true, Store: "memory"}, nil
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return Status{OK: false, Store: "postgres"}, fmt.Errorf("ping database: %w", err)
	}
	return Status{OK: true, Store: "postgres"}, nil
}
