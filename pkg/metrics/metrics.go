package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamdesk_emails_sent_total",
		Help: "Emails transmitted successfully.",
	})

	EmailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdesk_emails_failed_total",
		Help: "Email attempts that failed, by stage (verify or send).",
	}, []string{"stage"})

	SchedulerTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamdesk_scheduler_ticks_total",
		Help: "Scheduled report runner ticks.",
	})

	ScheduledReportsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamdesk_scheduled_reports_sent_total",
		Help: "Scheduled reports delivered.",
	})

	BackupsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdesk_backups_created_total",
		Help: "Backups created, by snapshot kind.",
	}, []string{"kind"})

	BackupsRestored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdesk_backups_restored_total",
		Help: "Backups restored, by snapshot kind.",
	}, []string{"kind"})
)
