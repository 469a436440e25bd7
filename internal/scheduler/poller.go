package scheduler

import (
	"context"
	"time"

	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/storage"
)

// DefaultCatchUpWindow is how old a missed slot may be and still be delivered.
const DefaultCatchUpWindow = 6 * time.Hour

// lateAfter marks deliveries that arrive this long after their slot as catch-up.
const lateAfter = time.Minute

// DeliverFunc handles one due registration. source is SourceScheduled for
// on-time deliveries and SourceCatchUp for slots missed while no process
// was polling.
type DeliverFunc func(ctx context.Context, payload model.Payload, source model.TriggerSource) error

// TickResult summarizes one poll.
type TickResult struct {
	Since     time.Time
	Now       time.Time
	Delivered int
	Dropped   int
	Failed    int
}

// Poller delivers due registrations and keeps the delivery bookmark.
type Poller struct {
	notifier      *StoreNotifier
	state         *storage.StateRepo
	deliver       DeliverFunc
	catchUpWindow time.Duration
	now           func() time.Time
}

// NewPoller creates a poller over an open store.
func NewPoller(store storage.Store, notifier *StoreNotifier, deliver DeliverFunc) *Poller {
	return &Poller{
		notifier:      notifier,
		state:         storage.NewStateRepo(store),
		deliver:       deliver,
		catchUpWindow: DefaultCatchUpWindow,
		now:           time.Now,
	}
}

// WithCatchUpWindow overrides the catch-up window.
func (p *Poller) WithCatchUpWindow(d time.Duration) *Poller {
	if d > 0 {
		p.catchUpWindow = d
	}
	return p
}

// WithClock replaces the poller's clock.
func (p *Poller) WithClock(now func() time.Time) *Poller {
	p.now = now
	return p
}

// Tick delivers everything that came due since the last tick. Delivery
// failures are logged and counted; the slot is still consumed so a broken
// alarm cannot wedge the loop.
func (p *Poller) Tick(ctx context.Context) (TickResult, error) {
	now := p.now()
	st, err := p.state.Get(ctx)
	if err != nil {
		return TickResult{}, err
	}

	res := TickResult{Since: st.LastCheck, Now: now}
	due, err := p.notifier.Due(ctx, st.LastCheck, now)
	if err != nil {
		return res, err
	}

	for _, d := range due {
		p.handle(ctx, d, now, &res)
		if err := p.notifier.Ack(ctx, d); err != nil {
			return res, err
		}
	}

	st.LastCheck = now
	if res.Delivered > 0 {
		st.LastDelivery = now
	}
	st.Delivered += int64(res.Delivered)
	st.Dropped += int64(res.Dropped)
	if err := p.state.Save(ctx, st); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Poller) handle(ctx context.Context, d Delivery, now time.Time, res *TickResult) {
	late := now.Sub(d.Slot)
	payload := d.Payload()
	if late > p.catchUpWindow {
		res.Dropped++
		logging.Warn("delivery dropped",
			logging.KeyRegistrationID, d.Registration.ID,
			logging.KeyAlarmID, payload.AlarmID,
			logging.KeyAction, string(payload.Action),
			logging.KeyFireAt, d.Slot,
			logging.KeyReason, "stale delivery",
		)
		return
	}

	source := model.SourceScheduled
	if late > lateAfter {
		source = model.SourceCatchUp
	}
	if err := p.deliver(ctx, payload, source); err != nil {
		res.Failed++
		logging.Error("delivery failed",
			logging.KeyRegistrationID, d.Registration.ID,
			logging.KeyAlarmID, payload.AlarmID,
			logging.KeyAction, string(payload.Action),
			logging.KeyError, err,
		)
		return
	}
	res.Delivered++
	logging.DebugLog("delivered",
		logging.KeyRegistrationID, d.Registration.ID,
		logging.KeyAlarmID, payload.AlarmID,
		logging.KeyAction, string(payload.Action),
		logging.KeySource, string(source),
	)
}
