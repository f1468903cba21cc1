package cron

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/domain/dose"
)

func TestNewRunner_RejectsBadSpec(t *testing.T) {
	if _, err := NewRunner(&dose.Service{}, "not a cron spec", 7, zerolog.Nop()); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestNewRunner_AcceptsStandardSpec(t *testing.T) {
	r, err := NewRunner(&dose.Service{}, "0 */6 * * *", 7, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Start()
	r.Stop()
}
