package res

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/rs/xid"
)

// defaultQueryEventDuration is how long a query event buffer stays open for
// incoming query requests once Resource.QueryEvent publishes it, unless
// overridden with Service.SetQueryEventDuration.
const defaultQueryEventDuration = 3 * time.Second

// QueryRequest has methods for responding to a single query request
// received on a query event's transient reply subject.
type QueryRequest interface {
	Resource
	NotFound()
	Error(err *Error)
	Timeout(d time.Duration)
}

// queryRequest is the concrete QueryRequest passed to a query event
// callback for every request arriving on the transient subject.
type queryRequest struct {
	resource
	msg     *nats.Msg
	events  []resEvent
	replied bool
}

// queryEvent is a single open query event buffer: the subscription on its
// transient subject, and the callback invoked once per incoming request
// and once more, with a nil QueryRequest, on expiration.
type queryEvent struct {
	r       resource
	subject string
	sub     *nats.Subscription
	ch      chan *nats.Msg
	done    chan struct{}
	cb      func(QueryRequest)
}

// startQueryEvent publishes a query event referencing a freshly minted
// transient subject, subscribes to it, and schedules its expiration on the
// service's query-event timer queue.
func (s *Service) startQueryEvent(r *resource, cb func(QueryRequest)) {
	subject := s.queryEventSubjectPrefix + "." + xid.New().String()

	ch := make(chan *nats.Msg, queryEventChannelSize)
	sub, err := s.nc.ChanSubscribe(subject, ch)
	if err != nil {
		s.errorf("error subscribing to query event subject %s: %s", subject, err)
		return
	}

	qe := &queryEvent{r: *r, subject: subject, sub: sub, ch: ch, done: make(chan struct{}), cb: cb}

	s.mu.Lock()
	s.qevs[subject] = qe
	s.mu.Unlock()

	go qe.listen(s)

	s.event("event."+r.rname+".query", resQueryEvent{Subject: subject})
	s.queryTQ.Add(qe)
	if s.metrics != nil {
		s.metrics.IncQueryEvent()
	}
}

const queryEventChannelSize = 10

// listen drains incoming query requests off the transient subject,
// dispatching each through the owning resource's serialization group so it
// never overlaps the resource's other handlers, until the buffer expires.
func (qe *queryEvent) listen(s *Service) {
	for {
		select {
		case m := <-qe.ch:
			s.enqueue(qe.r.Group(), func() {
				qe.handleQueryRequest(s, m)
			})
		case <-qe.done:
			return
		}
	}
}

// handleQueryRequest is run on the resource's worker for one incoming
// message on a query event subject.
func (qe *queryEvent) handleQueryRequest(s *Service, m *nats.Msg) {
	qr := &queryRequest{resource: qe.r, msg: m}

	var rqr resQueryRequest
	if err := json.Unmarshal(m.Data, &rqr); err != nil {
		qr.error(ToError(err))
		return
	}
	if rqr.Query == "" {
		qr.reply(responseMissingQuery)
		return
	}
	qr.query = rqr.Query

	qr.executeCallback(qe.cb)
	if qr.replied {
		return
	}

	var data []byte
	var err error
	if len(qr.events) == 0 {
		data = responseNoQueryEvents
	} else {
		data, err = json.Marshal(successResponse{Result: queryResponse{Events: qr.events}})
		if err != nil {
			data = responseInternalError
		}
	}
	qr.reply(data)
}

// queryEventExpire is called by the service's timer queue once a query
// event buffer's duration has elapsed. It drains the subscription and
// delivers a final nil QueryRequest to the callback so it can clean up.
func (s *Service) queryEventExpire(v interface{}) {
	qe := v.(*queryEvent)

	s.mu.Lock()
	delete(s.qevs, qe.subject)
	s.mu.Unlock()

	qe.sub.Drain()
	close(qe.done)

	s.enqueue(qe.r.Group(), func() {
		qe.cb(nil)
	})
}

// ChangeEvent adds a change event to the query response. If ev is empty, no
// event is added.
func (qr *queryRequest) ChangeEvent(ev map[string]interface{}) {
	if len(ev) == 0 {
		return
	}
	qr.events = append(qr.events, resEvent{Event: "change", Data: changeEvent{Values: ev}})
}

// AddEvent adds an add event to the query response, inserting v at index
// idx.
func (qr *queryRequest) AddEvent(v interface{}, idx int) {
	if idx < 0 {
		panic("res: add event idx less than zero")
	}
	qr.events = append(qr.events, resEvent{Event: "add", Data: addEvent{Value: v, Idx: idx}})
}

// RemoveEvent adds a remove event to the query response, removing the value
// at index idx.
func (qr *queryRequest) RemoveEvent(idx int) {
	if idx < 0 {
		panic("res: remove event idx less than zero")
	}
	qr.events = append(qr.events, resEvent{Event: "remove", Data: removeEvent{Idx: idx}})
}

// NotFound sends a system.notFound response for the query request.
func (qr *queryRequest) NotFound() {
	qr.reply(responseNotFound)
}

// Error sends a custom error response for the query request.
func (qr *queryRequest) Error(err *Error) {
	qr.error(err)
}

// Timeout attempts to set the timeout duration the requester should apply
// while waiting for this query request's reply. Has no effect once the
// requester has already timed out.
func (qr *queryRequest) Timeout(d time.Duration) {
	if d < 0 {
		panic("res: negative timeout duration")
	}
	out := []byte(`timeout:"` + strconv.FormatInt(int64(d/time.Millisecond), 10) + `"`)
	qr.s.rawEvent(qr.msg.Reply, out)
}

func (qr *queryRequest) executeCallback(cb func(QueryRequest)) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}

		var str string
		switch e := v.(type) {
		case *Error:
			if !qr.replied {
				qr.error(e)
				return
			}
			str = e.Message
		case error:
			str = e.Error()
			if !qr.replied {
				qr.error(ToError(e))
			}
		case string:
			str = e
			if !qr.replied {
				qr.error(ToError(errors.New(e)))
			}
		default:
			str = fmt.Sprintf("%v", e)
			if !qr.replied {
				qr.error(ToError(errors.New(str)))
			}
		}

		qr.s.errorf("error handling query request %s: %s", qr.rname, str)
	}()

	cb(qr)
}

func (qr *queryRequest) error(e *Error) {
	data, err := json.Marshal(errorResponse{Error: e})
	if err != nil {
		data = responseInternalError
	}
	qr.reply(data)
}

func (qr *queryRequest) reply(payload []byte) {
	if qr.replied {
		qr.s.errorf("response already sent on query request %s", qr.rname)
		return
	}
	qr.replied = true
	if err := qr.s.nc.Publish(qr.msg.Reply, payload); err != nil {
		qr.s.errorf("error sending query reply %s: %s", qr.rname, err)
	}
}
