package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/logging"
	"github.com/alekspetrov/weeekbot/internal/metrics"
)

// DefaultSweepSchedule is how often idle dialogs are looked for.
const DefaultSweepSchedule = "@every 5m"

// Janitor periodically discards dialogs the user walked away from.
type Janitor struct {
	store    *Store
	idle     time.Duration
	schedule string
	sink     comms.Sink
	metrics  *metrics.Metrics
	now      func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	entryID cron.EntryID
	logger  *slog.Logger
}

// NewJanitor creates a janitor that removes dialogs idle for longer than
// idle. A nil sink skips the expiry notice.
func NewJanitor(store *Store, idle time.Duration, schedule string, sink comms.Sink, m *metrics.Metrics) *Janitor {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Janitor{
		store:    store,
		idle:     idle,
		schedule: schedule,
		sink:     sink,
		metrics:  m,
		now:      time.Now,
		cron:     cron.New(),
		logger:   logging.WithComponent("janitor"),
	}
}

// Start schedules the sweep. A zero idle duration disables the janitor.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil
	}
	if j.idle <= 0 {
		j.logger.Info("dialog janitor disabled")
		return nil
	}

	entryID, err := j.cron.AddFunc(j.schedule, func() {
		j.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}

	j.entryID = entryID
	j.cron.Start()
	j.running = true

	j.logger.Info("dialog janitor started",
		"schedule", j.schedule,
		"idle_ttl", j.idle,
		"next_run", j.cron.Entry(j.entryID).Next,
	)
	return nil
}

// Stop stops the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.running = false
	j.logger.Info("dialog janitor stopped")
}

// RunNow sweeps once and returns how many dialogs were removed.
func (j *Janitor) RunNow(ctx context.Context) int {
	removed := j.store.Sweep(j.idle, j.now())
	for _, d := range removed {
		j.logger.Info("idle dialog expired",
			"conversation_id", d.ConversationID,
			"dialog_id", d.ID.String(),
			"phase", d.Phase.String(),
			"idle_since", d.UpdatedAt,
		)
		j.metrics.DialogFinished(metrics.OutcomeExpired)
		if j.sink != nil {
			p := comms.Prompt{Text: fmt.Sprintf(msgExpired, d.Slots.Title)}
			if err := j.sink.Send(ctx, d.ConversationID, p); err != nil {
				j.logger.Warn("failed to send expiry notice", "conversation_id", d.ConversationID, "error", err)
			}
		}
	}
	if len(removed) > 0 {
		j.metrics.SetActive(j.store.Active())
	}
	return len(removed)
}
