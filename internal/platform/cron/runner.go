// Package cron runs the dose generation engine on a fixed cadence inside the
// server process, replacing an external scheduler for single-node deployments.
// External schedulers can still hit the generation endpoint with the shared
// secret; overlapping runs are safe either way.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/domain/dose"
)

type Runner struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewRunner schedules a full-scope generation run (all users, the configured
// horizon) on the given cron spec. The spec uses standard five-field syntax.
func NewRunner(svc *dose.Service, spec string, horizonDays int, log zerolog.Logger) (*Runner, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		summary, err := svc.Run(ctx, nil, horizonDays)
		if err != nil {
			log.Error().Err(err).Msg("scheduled dose generation failed")
			return
		}
		log.Info().
			Int("generated", summary.Generated).
			Int("schedules_processed", summary.SchedulesProcessed).
			Msg("scheduled dose generation complete")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return &Runner{cron: c, log: log}, nil
}

func (r *Runner) Start() {
	r.log.Info().Msg("starting in-process generation scheduler")
	r.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
