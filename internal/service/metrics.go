package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_auth_events_total",
		Help: "Authentication gateway operations by outcome.",
	}, []string{"event", "outcome"})

	tagMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myblog_tag_mutations_total",
		Help: "Tag relation engine mutations by outcome.",
	}, []string{"op", "outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
