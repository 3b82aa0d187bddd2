// Package sweeper drives periodic reclamation of expired holds. The actual
// transition lives in the reservation service; this is only the scheduler.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/fairwaybook/teetime-service/internal/service"
)

const batchSize = 100

type Sweeper struct {
	svc      service.ReservationService
	interval time.Duration
}

func New(svc service.ReservationService, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Sweeper] stopping")
				return
			case <-ticker.C:
				reclaimed, err := s.svc.SweepExpired(ctx, batchSize)
				if err != nil {
					log.Printf("[Sweeper] sweep failed: %v", err)
					continue
				}
				if reclaimed > 0 {
					log.Printf("[Sweeper] reclaimed %d expired holds", reclaimed)
				}
			}
		}
	}()
}
