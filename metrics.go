package res

import "time"

// Metrics receives instrumentation callbacks from a Service. It is
// satisfied by resmetrics.Collectors, but the core package never imports
// resmetrics: a Service only depends on this interface, so applications
// that don't care about metrics pay nothing for it.
type Metrics interface {
	// ObserveRequest is called once a request has been fully handled, with
	// its type ("access", "get", "call", "auth"), method (empty for access
	// and get), and the time spent from receipt to reply.
	ObserveRequest(rtype, method string, dur time.Duration)

	// IncQueryEvent is called each time a query event buffer is opened.
	IncQueryEvent()

	// SetQueueDepth reports the number of distinct serialization groups
	// currently holding queued work.
	SetQueueDepth(n int)
}

// SetMetrics sets the Metrics sink. Panics if the service is already
// started.
func (s *Service) SetMetrics(m Metrics) *Service {
	if s.nc != nil {
		panic("res: service already started")
	}
	s.metrics = m
	return s
}
