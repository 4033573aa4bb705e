package worker

// maintenance_cron.go
// Periodic housekeeping: lock windows that already ended are reset to the
// active state and reset tokens older than their lifetime are cleared. Both
// rules are also enforced lazily on read; the sweep keeps the admin "locked
// accounts" list and the token index small.

import (
	"context"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"

	"github.com/rs/zerolog/log"
)

// AccountSweeper is the slice of the account repository the sweep needs.
type AccountSweeper interface {
	ClearLapsedLockouts(ctx context.Context, now time.Time) (int64, error)
	ClearResetTokensIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type MaintenanceConfig struct {
	Accounts      AccountSweeper
	Interval      time.Duration
	ResetTokenTTL time.Duration
	// Catalog is optional; its state is logged when not closed.
	Catalog *infra.CircuitBreaker
	Now     func() time.Time
}

// StartMaintenanceCron ticks every cfg.Interval until ctx is cancelled.
func StartMaintenanceCron(ctx context.Context, cfg MaintenanceConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		log.Info().Dur("interval", cfg.Interval).Msg("maintenance_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("maintenance_cron: shutting down")
				return
			case <-ticker.C:
				RunMaintenance(ctx, cfg)
			}
		}
	}()
}

// RunMaintenance performs one sweep.
func RunMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	now := cfg.Now()

	unlocked, err := cfg.Accounts.ClearLapsedLockouts(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("maintenance_cron: clearing lapsed lockouts failed")
	} else if unlocked > 0 {
		log.Info().Int64("accounts", unlocked).Msg("maintenance_cron: lapsed lockouts cleared")
	}

	if cfg.ResetTokenTTL > 0 {
		cleared, err := cfg.Accounts.ClearResetTokensIssuedBefore(ctx, now.Add(-cfg.ResetTokenTTL))
		if err != nil {
			log.Error().Err(err).Msg("maintenance_cron: clearing expired reset tokens failed")
		} else if cleared > 0 {
			log.Info().Int64("tokens", cleared).Msg("maintenance_cron: expired reset tokens cleared")
		}
	}

	if cfg.Catalog != nil && cfg.Catalog.State() != infra.CBClosed {
		log.Warn().Str("state", cfg.Catalog.State().String()).Msg("maintenance_cron: catalog circuit breaker not closed")
	}
}
