package archive

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes old archives on a cron schedule (six fields, with seconds).
type Pruner struct {
	cron   *cron.Cron
	store  *Store
	maxAge time.Duration
}

// NewPruner registers the prune task; call Start to run it.
func NewPruner(store *Store, spec string, maxAge time.Duration) (*Pruner, error) {
	p := &Pruner{
		cron:   cron.New(cron.WithSeconds()),
		store:  store,
		maxAge: maxAge,
	}
	if _, err := p.cron.AddFunc(spec, p.RunNow); err != nil {
		return nil, fmt.Errorf("register archive prune task: %w", err)
	}
	return p, nil
}

// RunNow prunes immediately.
func (p *Pruner) RunNow() {
	n, err := p.store.Prune(p.maxAge)
	if err != nil {
		slog.Error("archive prune failed", "error", err)
		return
	}
	slog.Info("archive prune finished", "deleted", n, "max_age", p.maxAge.String())
}

func (p *Pruner) Start() {
	p.cron.Start()
	slog.Info("archive pruner started")
}

// Stop waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
	slog.Info("archive pruner stopped")
}
