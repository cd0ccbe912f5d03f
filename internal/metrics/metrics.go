package metrics

import (
	"strconv"

	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const OutcomeOK = "ok"

var (
	friendOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "friendgraph",
		Name:      "friend_operations_total",
		Help:      "Relationship engine operations by outcome code.",
	}, []string{"operation", "outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "friendgraph",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
)

// ObserveFriendOperation counts one engine call. err == nil counts as "ok",
// otherwise the error code is the outcome label.
func ObserveFriendOperation(operation string, err error) {
	friendOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

func ObserveHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return errors.CodeOf(err)
}
