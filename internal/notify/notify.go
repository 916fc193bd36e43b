// Package notify persists notification drafts one recipient at a time.
package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"taskflex/internal/policy"
)

// Store writes a single notification. database.Service satisfies it.
type Store interface {
	CreateNotification(ctx context.Context, d policy.Draft) error
}

// Failure records a draft that could not be persisted.
type Failure struct {
	Draft policy.Draft
	Err   error
}

// Report is the outcome of one Deliver call.
type Report struct {
	Delivered int
	Failed    []Failure
}

// OK reports whether every draft was persisted.
func (r Report) OK() bool { return len(r.Failed) == 0 }

type Dispatcher struct {
	store     Store
	log       zerolog.Logger
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewDispatcher builds a dispatcher. A nil registerer keeps the counters
// unregistered, which is what tests want.
func NewDispatcher(store Store, log zerolog.Logger, reg prometheus.Registerer) *Dispatcher {
	factory := promauto.With(reg)
	return &Dispatcher{
		store: store,
		log:   log.With().Str("component", "notify").Logger(),
		delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflex_notifications_delivered_total",
			Help: "Notifications persisted, by type",
		}, []string{"type"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflex_notifications_failed_total",
			Help: "Notifications that failed to persist, by type",
		}, []string{"type"}),
	}
}

// Deliver writes each draft independently. A failed write is logged and
// skipped; it never stops the remaining drafts and is never retried.
func (d *Dispatcher) Deliver(ctx context.Context, drafts []policy.Draft) Report {
	var rep Report
	for _, draft := range drafts {
		if err := d.store.CreateNotification(ctx, draft); err != nil {
			d.failed.WithLabelValues(string(draft.Type)).Inc()
			d.log.Warn().
				Err(err).
				Str("recipient_id", draft.RecipientID.String()).
				Str("type", string(draft.Type)).
				Msg("notification not persisted")
			rep.Failed = append(rep.Failed, Failure{Draft: draft, Err: err})
			continue
		}
		d.delivered.WithLabelValues(string(draft.Type)).Inc()
		rep.Delivered++
	}
	return rep
}

// Publish computes the drafts for e and delivers them.
func (d *Dispatcher) Publish(ctx context.Context, e policy.Event) Report {
	rep := d.Deliver(ctx, policy.Fanout(e))
	if !rep.OK() {
		zerolog.Ctx(ctx).Debug().
			Int("delivered", rep.Delivered).
			Int("failed", len(rep.Failed)).
			Msg("notification fanout degraded")
	}
	return rep
}
