package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Postback outcome labels
const (
	OutcomeCredited   = "credited"
	OutcomeDuplicate  = "duplicate"
	OutcomeRejected   = "rejected"
	OutcomeUnresolved = "unresolved"
	OutcomeIgnored    = "ignored"
	OutcomeError      = "error"
)

var (
	PostbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashloop_postbacks_total",
		Help: "Postbacks received, by processing outcome",
	}, []string{"outcome"})

	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashloop_attribution_matches_total",
		Help: "Successful attributions, by matcher tier",
	}, []string{"tier"})

	ClicksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cashloop_clicks_recorded_total",
		Help: "Clicks recorded at redirect time",
	})

	ClickRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cashloop_click_record_failures_total",
		Help: "Click store writes that failed (redirect proceeded anyway)",
	})

	ResyncResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashloop_resync_results_total",
		Help: "Clicks examined by the resync job, by result",
	}, []string{"result"})

	WalletReversals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cashloop_wallet_reversals_total",
		Help: "Payout reversals applied by operators",
	})
)
