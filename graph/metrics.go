package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postql",
		Name:      "auth_failures_total",
		Help:      "Operations rejected because the token did not resolve to a user.",
	}, []string{"operation"})

	ownershipDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postql",
		Name:      "ownership_denials_total",
		Help:      "Post mutations rejected because the caller does not own the post.",
	}, []string{"operation"})
)
