package res

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hadronres/res/logger"
	"github.com/jirenius/timerqueue"
	nats "github.com/nats-io/nats.go"
)

// protocolVersion is the RES protocol version this package implements.
const protocolVersion = "1.2.0"

// inChannelSize is the size of the channel receiving messages from NATS.
const inChannelSize = 256

// workerCount is the number of worker goroutines processing resource work
// queues. Work for any single serialization group always runs on whichever
// worker happens to be free when that group's queue is first created, but
// never on more than one worker concurrently.
const workerCount = 32

var (
	errNotStopped = errors.New("res: service is not stopped")
	errNotStarted = errors.New("res: service is not started")
)

const (
	stateStopped int32 = iota
	stateStarting
	stateStarted
	stateStopping
)

// Service handles incoming requests from a NATS connection, routing them
// through its Mux to the registered Handler for each resource and
// serializing same-resource work onto a shared worker pool.
type Service struct {
	*Mux
	state int32

	nc   Conn
	inCh chan *nats.Msg

	rwork  map[string]*work
	workCh chan *work
	wg     sync.WaitGroup
	mu     sync.Mutex

	logger  logger.Logger
	metrics Metrics

	resetResources []string
	resetAccess    []string

	qevs                     map[string]*queryEvent
	queryTQ                  *timerqueue.Queue
	queryDuration            time.Duration
	queryEventSubjectPrefix  string

	onServe      func(*Service)
	onDisconnect func(*Service)
	onReconnect  func(*Service)
	onError      func(*Service, string)
}

// NewService creates a new Service. name is the service name prefixed to
// every resource it handles; it must be an alphanumeric string with no
// embedded whitespace, or empty. An empty name makes the service the
// default handler for all namespaces, unless scoped down with
// SetOwnedResources.
func NewService(name string) *Service {
	s := &Service{
		state:                   stateStopped,
		logger:                  logger.NewStdLogger(),
		queryDuration:           defaultQueryEventDuration,
		queryEventSubjectPrefix: "_qevent",
	}
	s.Mux = NewMux(name)
	return s
}

// SetLogger sets the logger. Panics if the service is already started.
func (s *Service) SetLogger(l logger.Logger) *Service {
	if s.nc != nil {
		panic("res: service already started")
	}
	s.logger = l
	return s
}

// SetQueryEventDuration sets how long the service listens for query
// requests sent on a query event buffer. Default is 3 seconds. Panics if
// the service is already started.
func (s *Service) SetQueryEventDuration(d time.Duration) *Service {
	if s.nc != nil {
		panic("res: service already started")
	}
	s.queryDuration = d
	return s
}

// SetOnServe sets a function called once the service has started and sent
// its initial system.reset event.
func (s *Service) SetOnServe(f func(*Service)) { s.onServe = f }

// SetOnDisconnect sets a function called when the service loses its NATS
// connection.
func (s *Service) SetOnDisconnect(f func(*Service)) { s.onDisconnect = f }

// SetOnReconnect sets a function called after the service has reconnected
// to NATS and sent a system.reset event.
func (s *Service) SetOnReconnect(f func(*Service)) { s.onReconnect = f }

// SetOnError sets a function called on internal errors and on incoming
// messages that don't comply with the protocol.
func (s *Service) SetOnError(f func(*Service, string)) { s.onError = f }

// Logger returns the service's logger.
func (s *Service) Logger() logger.Logger { return s.logger }

// ProtocolVersion returns the RES protocol version this package implements.
func (s *Service) ProtocolVersion() string { return protocolVersion }

func (s *Service) infof(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Infof(format, v...)
	}
}

func (s *Service) errorf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Errorf(format, v...)
	}
	if s.onError != nil {
		s.onError(s, fmt.Sprintf(format, v...))
	}
}

func (s *Service) tracef(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Tracef(format, v...)
	}
}

// SetOwnedResources sets the patterns the service owns. resources is
// listened to for get, call, and auth requests; access is listened to for
// access requests. Both are used on ResetAll.
//
// If left unset (nil), the service defaults to owning every resource
// prefixed by its own service name (or every resource, if given no name)
// for which it has at least one registered Get, Call, or Auth handler, and
// likewise for access.
func (s *Service) SetOwnedResources(resources, access []string) *Service {
	s.resetResources = resources
	s.resetAccess = access
	return s
}

// ListenAndServe connects to the NATS server at url and serves incoming
// requests until Shutdown is called or the connection is closed. It
// reconnects automatically on disconnect, sending a system.reset once
// reconnected.
func (s *Service) ListenAndServe(url string, options ...nats.Option) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateStopped, stateStarting) {
		return errNotStopped
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(s.handleReconnect),
		nats.DisconnectHandler(s.handleDisconnect),
		nats.ClosedHandler(s.handleClosed),
	}
	if s.Mux.path != "" {
		opts = append(opts, nats.Name(s.Mux.path))
	}
	opts = append(opts, options...)

	s.infof("connecting to NATS server")
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		s.errorf("failed to connect to NATS server: %s", err)
		atomic.StoreInt32(&s.state, stateStopped)
		return err
	}

	return s.serve(nc)
}

// Serve serves incoming requests on an already-established connection nc,
// until Shutdown is called or the connection is closed.
func (s *Service) Serve(nc Conn) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateStopped, stateStarting) {
		return errNotStopped
	}
	return s.serve(nc)
}

func (s *Service) serve(nc Conn) error {
	s.infof("starting service")

	inCh := make(chan *nats.Msg, inChannelSize)
	workCh := make(chan *work, 1)
	s.nc = nc
	s.inCh = inCh
	s.workCh = workCh
	s.rwork = make(map[string]*work)
	s.qevs = make(map[string]*queryEvent)
	s.queryTQ = timerqueue.New(s.queryEventExpire, s.queryDuration)

	s.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go s.startWorker(s.workCh)
	}

	atomic.StoreInt32(&s.state, stateStarted)

	if err := s.subscribe(); err != nil {
		s.errorf("failed to subscribe: %s", err)
		go s.Shutdown()
	} else {
		s.ResetAll()
		if s.onServe != nil {
			s.onServe(s)
		}

		s.infof("listening for requests")
		s.startListener(inCh)
	}

	close(workCh)
	s.wg.Wait()
	return nil
}

// Shutdown stops the service: it tears down the NATS subscriptions and lets
// every in-flight per-resource work queue drain. Open query event buffers
// are not expired here; they stay registered until their own timers fire.
// Returns an error if the service isn't started.
func (s *Service) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&s.state, stateStarted, stateStopping) {
		return errNotStarted
	}

	s.infof("stopping service")
	s.nc.Close()
	close(s.inCh)

	s.wg.Wait()

	s.inCh = nil
	s.nc = nil
	s.workCh = nil

	atomic.StoreInt32(&s.state, stateStopped)
	s.infof("stopped")
	return nil
}

// Reset sends a system.reset event naming the given resource and access
// patterns. A no-op for an empty pair of lists.
func (s *Service) Reset(resources []string, access []string) {
	if atomic.LoadInt32(&s.state) != stateStarted {
		s.errorf("failed to reset: service not started")
		return
	}
	s.reset(resources, access)
}

func (s *Service) reset(resources []string, access []string) {
	if len(resources) == 0 && len(access) == 0 {
		return
	}
	if len(resources) == 0 {
		resources = nil
	}
	if len(access) == 0 {
		access = nil
	}
	s.event("system.reset", resetEvent{Resources: resources, Access: access})
}

// ResetAll sends a system.reset naming every resource pattern the service
// owns, so that any gateway updates its cache. Called automatically on
// start and on reconnect.
func (s *Service) ResetAll() {
	if atomic.LoadInt32(&s.state) != stateStarted {
		s.errorf("failed to reset: service not started")
		return
	}
	s.setDefaultOwnership()
	s.reset(s.resetResources, s.resetAccess)
}

// TokenEvent sends a connection token event, setting cid's access token and
// discarding any previous one. A nil token clears it.
func (s *Service) TokenEvent(cid string, token interface{}) {
	if atomic.LoadInt32(&s.state) != stateStarted {
		s.errorf("failed to send token event: service not started")
		return
	}
	if !isValidPart(cid) {
		panic("res: invalid connection ID")
	}
	s.event("conn."+cid+".token", tokenEvent{Token: token})
}

func (s *Service) setDefaultOwnership() {
	owned := []string{mergePattern(s.Mux.path, ">")}
	if s.Mux.path != "" {
		owned = []string{s.Mux.path, owned[0]}
	}
	if s.resetResources == nil {
		if s.Mux.Contains(Handler.hasGet) {
			s.resetResources = owned
		} else {
			s.resetResources = []string{}
		}
	}
	if s.resetAccess == nil {
		if s.Mux.Contains(Handler.hasAccess) {
			s.resetAccess = owned
		} else {
			s.resetAccess = []string{}
		}
	}
}

// subscribe opens a NATS subscription for each request-type/pattern
// combination implied by the service's owned resources.
func (s *Service) subscribe() error {
	s.setDefaultOwnership()
	if len(s.resetResources) == 0 && len(s.resetAccess) == 0 {
		return errors.New("res: no resources to serve")
	}

	var patterns []string
	for _, t := range []string{RequestTypeGet, RequestTypeCall, RequestTypeAuth} {
		for _, p := range s.resetResources {
			pattern := t + "." + p
			if pattern[len(pattern)-1] != '>' && t != RequestTypeGet {
				pattern += ".*"
			}
			patterns = append(patterns, pattern)
		}
	}

	for _, p := range s.resetAccess {
		pattern := RequestTypeAccess + "." + p
		s.tracef("sub %s", pattern)
		if _, err := s.nc.ChanSubscribe(pattern, s.inCh); err != nil {
			return err
		}
	}

next:
	for i, pattern := range patterns {
		for j, other := range patterns {
			if i != j && Pattern(other).Matches(pattern) {
				continue next
			}
		}
		s.tracef("sub %s", pattern)
		if _, err := s.nc.ChanSubscribe(pattern, s.inCh); err != nil {
			return err
		}
	}
	return nil
}

// startListener listens for NATS messages and dispatches each to a worker.
func (s *Service) startListener(ch chan *nats.Msg) {
	for m := range ch {
		s.handleRequest(m)
	}
}

// handleRequest parses the request type, resource name, and method out of
// the subject, resolves the handler, and enqueues processing onto the
// resource's serialization group.
func (s *Service) handleRequest(m *nats.Msg) {
	subj := m.Subject
	s.tracef("==> %s: %s", subj, m.Data)

	if m.Reply == "" {
		s.errorf("missing reply subject on request: %s", subj)
		return
	}

	idx := strings.IndexByte(subj, '.')
	if idx < 0 {
		s.errorf("invalid request subject: %s", subj)
		return
	}

	var method string
	rtype := subj[:idx]
	rname := subj[idx+1:]

	if rtype == RequestTypeCall || rtype == RequestTypeAuth {
		idx = strings.LastIndexByte(rname, '.')
		if idx < 0 {
			s.errorf("invalid request subject: %s", subj)
			return
		}
		method = rname[idx+1:]
		rname = rname[:idx]
	}

	group := rname
	mh := s.GetHandler(rname)
	if mh != nil {
		group = mh.Group
	}

	start := time.Now()
	s.enqueue(group, func() {
		s.processRequest(m, rtype, rname, method, mh)
		if s.metrics != nil {
			s.metrics.ObserveRequest(rtype, method, time.Since(start))
		}
	})
}

// With resolves rid to its registered handler and invokes cb with the
// matching Resource on that resource's serialization group. Returns an
// error without calling cb if no handler matches.
func (s *Service) With(rid string, cb func(r Resource)) error {
	r, err := s.Resource(rid)
	if err != nil {
		return err
	}
	s.WithResource(r, func() { cb(r) })
	return nil
}

// WithResource enqueues cb to run on r's serialization group.
func (s *Service) WithResource(r Resource, cb func()) {
	s.enqueue(r.Group(), cb)
}

// WithGroup enqueues cb to run on group's serialization group.
func (s *Service) WithGroup(group string, cb func(s *Service)) {
	s.enqueue(group, func() { cb(s) })
}

// Resource resolves rid to its registered handler and returns the matching
// Resource, or an error if nothing matches. Should only be used from
// within the resource's own serialization group; using the result from
// another goroutine risks races.
func (s *Service) Resource(rid string) (Resource, error) {
	rname, q := parseRID(rid)
	mh := s.GetHandler(rname)
	if mh == nil {
		return nil, fmt.Errorf("res: no matching handler for %q", rid)
	}
	return &resource{
		rname:      rname,
		pathParams: mh.Params,
		query:      q,
		group:      mh.Group,
		s:          s,
		h:          mh.Handler,
	}, nil
}

// event marshals data and publishes it on subj.
func (s *Service) event(subj string, data interface{}) {
	if data == nil {
		s.rawEvent(subj, nil)
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		s.errorf("error marshaling event %s: %s", subj, err)
		return
	}
	s.rawEvent(subj, payload)
}

// rawEvent publishes payload on subj.
func (s *Service) rawEvent(subj string, payload []byte) {
	s.tracef("<-- %s: %s", subj, payload)
	if err := s.nc.Publish(subj, payload); err != nil {
		s.errorf("error sending event %s: %s", subj, err)
	}
}

func (s *Service) handleReconnect(_ *nats.Conn) {
	s.infof("reconnected to NATS, sending reset event")
	s.ResetAll()
	if s.onReconnect != nil {
		s.onReconnect(s)
	}
}

func (s *Service) handleDisconnect(_ *nats.Conn) {
	s.infof("disconnected from NATS")
	if s.onDisconnect != nil {
		s.onDisconnect(s)
	}
}

func (s *Service) handleClosed(_ *nats.Conn) {
	s.Shutdown()
}

// parseRID splits a resource ID into its resource name and query, if any.
// The question-mark separator is excluded from the returned query string.
func parseRID(rid string) (rname string, q string) {
	i := strings.IndexByte(rid, '?')
	if i == -1 {
		return rid, ""
	}
	return rid[:i], rid[i+1:]
}

// processRequest runs on the resource's worker to decode and dispatch one
// incoming request message.
func (s *Service) processRequest(m *nats.Msg, rtype, rname, method string, mh *Match) {
	if mh == nil {
		r := &Request{resource: resource{s: s}, msg: m}
		r.reply(responseNotFound)
		return
	}

	var rc resRequest
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &rc); err != nil {
			r := &Request{resource: resource{s: s}, msg: m}
			s.errorf("error unmarshaling incoming request: %s", err)
			r.error(ToError(err))
			return
		}
	}

	r := &Request{
		resource: resource{
			rname:      rname,
			pathParams: mh.Params,
			group:      mh.Group,
			query:      rc.Query,
			s:          s,
			h:          mh.Handler,
		},
		rtype:  rtype,
		method: method,
		msg:    m,
		cid:    rc.CID,
		params: rc.Params,
		token:  rc.Token,
	}

	r.executeHandler()
}
