package trigger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/notify"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/relay"
)

// Reporter fans outcomes out to the event broker, the journal and the
// failure notifier. Nil members are skipped. Notifications are sent in the
// background; Wait blocks until they are done. A Reporter must not be copied.
type Reporter struct {
	SessionID string
	Broker    *relay.Broker
	Journal   journal.Journal
	Notifier  *notify.Notifier
	Now       func() time.Time

	inflight sync.WaitGroup
}

func (r *Reporter) Observe(ctx context.Context, out Outcome) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	at := now().UTC()

	if r.Broker != nil {
		r.Broker.Publish(relay.Event{Session: r.SessionID, Kind: out.Status, At: at, Data: out})
	}

	if r.Journal != nil {
		entry := journal.Entry{At: at, SessionID: r.SessionID, Outcome: out.Status, Chart: string(out.Chart), Error: out.Error}
		if p := out.Payload; p != nil {
			entry.Symbol = p.Symbol
			entry.Timeframe = p.Timeframe
			entry.Price = p.Price
			entry.Volume = p.Volume
			entry.Timestamp = p.Timestamp
			entry.TrendlineColor = p.TrendlineColor
		}
		if err := r.Journal.Record(entry); err != nil {
			slog.Warn("journal record failed", "session_id", r.SessionID, "outcome", out.Status, "error", err)
		}
	}

	if out.Status == StatusForwardFailed && r.Notifier.Enabled() {
		var symbol, timeframe, price string
		if p := out.Payload; p != nil {
			symbol, timeframe, price = p.Symbol, p.Timeframe, p.Price
		}
		cause := errors.New(out.Error)
		ctx = context.WithoutCancel(ctx)
		r.inflight.Add(1)
		go func() {
			defer r.inflight.Done()
			r.Notifier.ForwardFailed(ctx, symbol, timeframe, price, cause)
		}()
	}
}

// Wait blocks until background notifications have finished.
func (r *Reporter) Wait() {
	r.inflight.Wait()
}
