package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/bluesumk/mjjf/internal/repository"
)

// Pruner periodically collects invite side-table entries whose session has
// been deleted. Short codes are lookup keys into live sessions; orphaned
// entries only add collision candidates.
type Pruner struct {
	invites  repository.InviteRepo
	sessions repository.SessionRepo
	maxAge   time.Duration
	log      *zap.Logger

	scheduler gocron.Scheduler
}

// NewPruner creates a new side-table pruner.
func NewPruner(invites repository.InviteRepo, sessions repository.SessionRepo, maxAge time.Duration, log *zap.Logger) *Pruner {
	return &Pruner{
		invites:  invites,
		sessions: sessions,
		maxAge:   maxAge,
		log:      log.Named("pruner"),
	}
}

// Start schedules the hourly prune job.
func (p *Pruner) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(p.run),
	)
	if err != nil {
		return err
	}

	sched.Start()
	p.scheduler = sched
	return nil
}

// Stop shuts the scheduler down.
func (p *Pruner) Stop() {
	if p.scheduler != nil {
		_ = p.scheduler.Shutdown()
	}
}

func (p *Pruner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-p.maxAge)
	lookups, err := p.invites.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		p.log.Warn("listing stale invite entries failed", zap.Error(err))
		return
	}

	pruned := 0
	for _, l := range lookups {
		session, err := p.sessions.GetByID(ctx, l.SessionID)
		if err != nil {
			p.log.Warn("session lookup failed", zap.String("sid", l.SessionID), zap.Error(err))
			continue
		}
		// Entries stay resolvable as long as their session (and its current
		// token) exist.
		if session != nil && session.InviteToken == l.Token {
			continue
		}
		if err := p.invites.DeleteBySession(ctx, l.SessionID); err != nil {
			p.log.Warn("pruning invite entry failed", zap.String("sid", l.SessionID), zap.Error(err))
			continue
		}
		pruned++
	}

	if pruned > 0 {
		p.log.Info("pruned orphaned invite entries", zap.Int("count", pruned))
	}
}
