package history

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// DefaultPruneSchedule runs the pruner once a day at 03:00 UTC.
const DefaultPruneSchedule = "0 3 * * *"

var scheduleParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// Pruner deletes records older than a retention window on a schedule.
type Pruner struct {
	store     Store
	retention time.Duration
	log       *slog.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// StartPruner starts pruning store on a five-field cron schedule, or a
// descriptor such as "@daily", interpreted in UTC. Each run deletes records
// older than retention. Stop the returned Pruner to stop pruning.
func StartPruner(store Store, schedule string, retention time.Duration, log *slog.Logger) (*Pruner, error) {
	if retention <= 0 {
		return nil, errors.Errorf("history: retention must be positive, not %v", retention)
	}
	clean := strings.TrimSpace(schedule)
	if clean == "" {
		clean = DefaultPruneSchedule
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p := &Pruner{
		store:     store,
		retention: retention,
		log:       log,
		cron:      cron.New(cron.WithParser(scheduleParser), cron.WithLocation(time.UTC)),
		now:       time.Now,
	}
	if _, err := p.cron.AddFunc(clean, p.run); err != nil {
		return nil, errors.Wrapf(err, "history: invalid prune schedule %q", clean)
	}
	p.cron.Start()
	log.Info("history pruner started", slog.String("schedule", clean), slog.Duration("retention", retention))
	return p, nil
}

// Prune deletes expired records immediately.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	return p.store.Prune(ctx, p.now().Add(-p.retention))
}

func (p *Pruner) run() {
	n, err := p.Prune(context.Background())
	if err != nil {
		p.log.Error("history prune failed", slog.Any("err", err))
		return
	}
	p.log.Debug("history pruned", slog.Int("deleted", n))
}

// Stop stops the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}
