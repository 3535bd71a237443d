package session

import (
	"context"
	"time"

	"github.com/pennypilot/auth/internal/observability/logger"
)

const DefaultSweepInterval = time.Hour

// Sweeper borra periódicamente refresh tokens vencidos. Corre dentro de
// serve y se frena cancelando el contexto.
type Sweeper struct {
	ledger   *Ledger
	interval time.Duration
}

func NewSweeper(ledger *Ledger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{ledger: ledger, interval: interval}
}

// Run bloquea hasta que el contexto se cancele.
func (s *Sweeper) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("session.sweeper"))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.ledger.SweepExpired(ctx)
			if err != nil {
				log.Warn("sweep failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Info("expired refresh tokens swept", logger.Int("deleted", int(n)))
			}
		}
	}
}
