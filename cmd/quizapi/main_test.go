package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/eversols/autismquiz/internal/config"
	"github.com/eversols/autismquiz/internal/database"
)

func TestHealthChecks(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	checks, closeChecks, err := healthChecks(ctx, &config.Config{}, db, logger)
	if err != nil {
		t.Fatalf("healthChecks: %v", err)
	}
	defer closeChecks()
	if len(checks) != 1 || checks["sqlite"] == nil {
		t.Fatalf("checks = %v, want sqlite only", checks)
	}
	if err := checks["sqlite"].Check(ctx); err != nil {
		t.Errorf("sqlite check: %v", err)
	}

	tests := []struct {
		name string
		url  string
	}{
		{"unparseable url", "not-a-url://"},
		{"unreachable", "redis://localhost:1/0?dial_timeout=10ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := healthChecks(ctx, &config.Config{RedisURL: tt.url}, db, logger); err == nil {
				t.Error("expected error")
			}
		})
	}
}
