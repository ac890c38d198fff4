package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sapliy/teamdesk/internal/directory"
	"github.com/sapliy/teamdesk/internal/mail"
	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/internal/store"
	"github.com/sapliy/teamdesk/pkg/metrics"
)

const lastSentKey = "teamdesk.report_last_sent"

// Runner is the polling scheduler: once a minute (plus once eagerly on
// startup) it checks whether the configured send time has been reached
// and whether a report already went out today. Polling is a deliberate
// simplicity-over-precision choice; the same-day guard is an atomic
// check-and-set so two ticks landing on the same minute cannot both
// fire.
type Runner struct {
	kv       store.Store
	settings *mail.SettingsStore
	mailer   *mail.Client
	center   *notify.Center
	dir      *directory.Directory
	rdb      *redis.Client // optional cross-process send guard
	log      *slog.Logger

	mu       sync.Mutex
	schedule Schedule
	lastSend string // calendar date "2006-01-02" of the last confirmed send
	inFlight bool
}

func NewRunner(kv store.Store, settings *mail.SettingsStore, mailer *mail.Client, center *notify.Center, dir *directory.Directory, rdb *redis.Client, log *slog.Logger) (*Runner, error) {
	sched, err := LoadSchedule(kv)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		kv:       kv,
		settings: settings,
		mailer:   mailer,
		center:   center,
		dir:      dir,
		rdb:      rdb,
		log:      log,
		schedule: sched,
	}
	if last, ok := kv.Get(lastSentKey); ok {
		r.lastSend = last
	}
	return r, nil
}

// Reload re-reads the schedule and the last-send date from the store,
// for use after a restore replaces the persisted state.
func (r *Runner) Reload() error {
	sched, err := LoadSchedule(r.kv)
	if err != nil {
		return err
	}
	last, _ := r.kv.Get(lastSentKey)

	r.mu.Lock()
	r.schedule = sched
	r.lastSend = last
	r.mu.Unlock()
	return nil
}

func (r *Runner) Schedule() Schedule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schedule
}

// UpdateSchedule validates, persists and swaps in a new schedule.
func (r *Runner) UpdateSchedule(s Schedule) error {
	if err := SaveSchedule(r.kv, s); err != nil {
		return err
	}
	r.mu.Lock()
	r.schedule = s
	r.mu.Unlock()
	return nil
}

// Run polls until the context is cancelled, with one eager tick first.
func (r *Runner) Run(ctx context.Context) {
	r.log.Info("scheduled report runner started")
	r.Tick(ctx, time.Now())

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("scheduled report runner stopped")
			return
		case now := <-ticker.C:
			r.Tick(ctx, now)
		}
	}
}

// Tick is one scheduler check. Skips are silent no-ops, not errors.
func (r *Runner) Tick(ctx context.Context, now time.Time) {
	metrics.SchedulerTicks.Inc()

	sched := r.Schedule()
	if !sched.Enabled || !r.settings.Get().Enabled {
		return
	}
	if now.Format("15:04") != sched.SendTime {
		return
	}
	switch sched.Frequency {
	case FrequencyWeekly:
		if now.Weekday() != time.Monday {
			return
		}
	case FrequencyMonthly:
		if now.Day() != 1 {
			return
		}
	}

	today := now.Format("2006-01-02")
	if !r.acquire(ctx, today) {
		return
	}
	defer r.release()

	if err := r.send(ctx, sched, now, today); err != nil {
		r.log.Error("scheduled report failed", "error", err)
		r.center.Add("Scheduled report failed", err.Error(), notify.CategoryReport)
	}
}

// acquire is the double-send guard: one atomic check of the same-day
// date and the in-flight flag. With Redis configured the day key is
// also claimed via SETNX, which extends the guard across processes.
func (r *Runner) acquire(ctx context.Context, today string) bool {
	r.mu.Lock()
	if r.inFlight || r.lastSend == today {
		r.mu.Unlock()
		return false
	}
	r.inFlight = true
	r.mu.Unlock()

	if r.rdb != nil {
		ok, err := r.rdb.SetNX(ctx, "teamdesk:report:sent:"+today, "1", 48*time.Hour).Result()
		if err != nil {
			// Redis being down must not stop reports; the local guard holds.
			r.log.Warn("redis send guard unavailable", "error", err)
			return true
		}
		if !ok {
			r.log.Info("report already claimed for today, skipping", "date", today)
			r.release()
			return false
		}
	}
	return true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()
}

func (r *Runner) send(ctx context.Context, sched Schedule, now time.Time, today string) error {
	if err := validateRecipients(sched.Recipients); err != nil {
		r.releaseClaim(ctx, today)
		return err
	}

	payload, err := BuildPayload(sched.ReportType, r.dir, now)
	if err != nil {
		r.releaseClaim(ctx, today)
		return err
	}

	// One transport call with the joined recipient list, not one per
	// recipient: the produced email structure is part of the contract.
	res := r.mailer.Send(ctx, r.settings.Get(), mail.Message{
		To:      sched.Recipients,
		Subject: payload.Subject,
		Text:    payload.Text,
		HTML:    payload.HTML,
	})
	if !res.Success {
		r.releaseClaim(ctx, today)
		return fmt.Errorf("%s", res.Error)
	}

	r.mu.Lock()
	r.lastSend = today
	r.mu.Unlock()
	if err := r.kv.Set(lastSentKey, today); err != nil {
		r.log.Error("failed to persist last-sent date", "error", err)
	}

	metrics.ScheduledReportsSent.Inc()
	r.center.Add(
		"Scheduled report sent",
		fmt.Sprintf("%s report delivered to %d recipient(s)", sched.ReportType, len(sched.Recipients)),
		notify.CategoryReport,
	)
	r.log.Info("scheduled report sent", "type", sched.ReportType, "recipients", len(sched.Recipients))
	return nil
}

// releaseClaim frees the Redis day key after a failed attempt so a
// later tick (or SendNow) can retry the same day.
func (r *Runner) releaseClaim(ctx context.Context, today string) {
	if r.rdb != nil {
		r.rdb.Del(ctx, "teamdesk:report:sent:"+today)
	}
}

// SendNow fires the report immediately, bypassing the time-of-day,
// frequency and same-day checks. Enablement and recipient validation
// still apply, and a send already in flight is not doubled.
func (r *Runner) SendNow(ctx context.Context) error {
	sched := r.Schedule()
	if !sched.Enabled {
		return fmt.Errorf("scheduled reports are disabled")
	}
	if !r.settings.Get().Enabled {
		return fmt.Errorf("email sending is disabled")
	}

	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return fmt.Errorf("a report send is already in progress")
	}
	r.inFlight = true
	r.mu.Unlock()
	defer r.release()

	now := time.Now()
	return r.send(ctx, sched, now, now.Format("2006-01-02"))
}

func validateRecipients(recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	var bad []string
	for _, rcpt := range recipients {
		if !mail.ValidEmail(rcpt) {
			bad = append(bad, rcpt)
		}
	}
	if len(bad) > 0 {
		// Reject the whole batch; a partial send would hide the problem.
		return fmt.Errorf("invalid recipient address(es): %s", strings.Join(bad, ", "))
	}
	return nil
}
