package worker

// Background goroutine that periodically clears expired password-reset tokens,
// so a token that was never used does not linger in the users table past its
// expiry. ResetPassword checks the expiry itself; the sweep is hygiene.

import (
	"context"
	"time"

	"github.com/Jorgegzze/marbleworldinventory/internal/repository"

	"github.com/rs/zerolog/log"
)

const sweepInterval = 15 * time.Minute

// StartTokenSweeper launches the sweep goroutine. It respects the context for
// graceful shutdown.
func StartTokenSweeper(ctx context.Context, users repository.UserRepository) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		log.Info().Msg("token_sweeper: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("token_sweeper: shutting down")
				return
			case <-ticker.C:
				cleared, err := users.ClearExpiredResetTokens(ctx, time.Now())
				if err != nil {
					log.Error().Err(err).Msg("token_sweeper: sweep failed")
					continue
				}
				if cleared > 0 {
					log.Info().Int64("cleared", cleared).Msg("token_sweeper: expired reset tokens cleared")
				}
			}
		}
	}()
}
