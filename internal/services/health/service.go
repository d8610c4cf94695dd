package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service reports liveness and database reachability.
type Service struct {
	DB *sql.DB
}

// NewService constructs a health service. A nil db means in-memory storage.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns the health payload and whether every dependency is up.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	if s == nil || s.DB == nil {
		return map[string]any{"ok": true, "database": "memory"}, true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return map[string]any{"ok": false, "database": "down"}, false
	}
	return map[string]any{"ok": true, "database": "up"}, true
}
