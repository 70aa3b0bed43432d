package res

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	nats "github.com/nats-io/nats.go"
)

// Request types.
const (
	RequestTypeAccess = "access"
	RequestTypeGet    = "get"
	RequestTypeCall   = "call"
	RequestTypeAuth   = "auth"
)

// Request is an incoming RES request. It embeds the resource it targets,
// so handlers can call ChangeEvent/AddEvent/etc. on it directly, in
// addition to its own response methods.
type Request struct {
	resource
	rtype   string
	method  string
	msg     *nats.Msg
	replied bool

	cid    string
	params json.RawMessage
	token  json.RawMessage
}

// AccessRequest has methods for responding to access requests.
type AccessRequest interface {
	Resource
	CID() string
	RawToken() json.RawMessage
	ParseToken(interface{})
	Access(get bool, call string)
	AccessDenied()
	AccessGranted()
	NotFound()
	Error(err error)
	Timeout(d time.Duration)
}

// ModelRequest has methods for responding to model get requests.
type ModelRequest interface {
	Resource
	Model(model interface{})
	NotFound()
	Error(err error)
	Timeout(d time.Duration)
}

// CollectionRequest has methods for responding to collection get requests.
type CollectionRequest interface {
	Resource
	Collection(collection interface{})
	NotFound()
	Error(err error)
	Timeout(d time.Duration)
}

// GetRequest has methods for responding to untyped get requests, letting
// the handler decide for itself whether to respond with a model or a
// collection.
type GetRequest interface {
	Resource
	Model(model interface{})
	Collection(collection interface{})
	NotFound()
	Error(err error)
	Timeout(d time.Duration)
}

// CallRequest has methods for responding to call requests, including the
// "new" method used by clients to create a resource through an RPC call.
type CallRequest interface {
	Resource
	Method() string
	CID() string
	RawParams() json.RawMessage
	RawToken() json.RawMessage
	ParseParams(interface{})
	ParseToken(interface{})
	OK(result interface{})
	Resource(rid string)
	NotFound()
	MethodNotFound()
	InvalidParams(message string)
	InvalidQuery(message string)
	Error(err error)
	Timeout(d time.Duration)
}

// AuthRequest has methods for responding to auth requests.
type AuthRequest interface {
	Resource
	Method() string
	CID() string
	RawParams() json.RawMessage
	RawToken() json.RawMessage
	ParseParams(interface{})
	ParseToken(interface{})
	OK(result interface{})
	Resource(rid string)
	NotFound()
	MethodNotFound()
	InvalidParams(message string)
	InvalidQuery(message string)
	Error(err error)
	Timeout(d time.Duration)
	TokenEvent(t interface{})
}

// Static responses used whenever a reply needs no per-request data.
var (
	responseAccessDenied    = []byte(`{"error":{"code":"system.accessDenied","message":"Access denied"}}`)
	responseInternalError   = []byte(`{"error":{"code":"system.internalError","message":"Internal error"}}`)
	responseNotFound        = []byte(`{"error":{"code":"system.notFound","message":"Not found"}}`)
	responseMethodNotFound  = []byte(`{"error":{"code":"system.methodNotFound","message":"Method not found"}}`)
	responseInvalidParams   = []byte(`{"error":{"code":"system.invalidParams","message":"Invalid parameters"}}`)
	responseInvalidQuery    = []byte(`{"error":{"code":"system.invalidQuery","message":"Invalid query"}}`)
	responseMissingResponse = []byte(`{"error":{"code":"system.internalError","message":"Internal error: missing response"}}`)
	responseMissingQuery    = []byte(`{"error":{"code":"system.internalError","message":"Internal error: missing query"}}`)
	responseAccessGranted   = []byte(`{"result":{"get":true,"call":"*"}}`)
	responseNoQueryEvents   = []byte(`{"result":{"events":[]}}`)
	responseSuccess         = []byte(`{"result":null}`)
)

// Predefined access handlers.
var (
	// AccessGranted is an access handler that grants full get and call access.
	AccessGranted AccessHandler = func(r AccessRequest) { r.AccessGranted() }

	// AccessDenied is an access handler that denies all access.
	AccessDenied AccessHandler = func(r AccessRequest) { r.AccessDenied() }
)

// Type returns the request type: "access", "get", "call", or "auth".
func (r *Request) Type() string { return r.rtype }

// Method returns the resource method. Empty for access and get requests.
func (r *Request) Method() string { return r.method }

// CID returns the connection ID of the requesting client. Empty for get
// requests.
func (r *Request) CID() string { return r.cid }

// RawParams returns the JSON-encoded method parameters, or nil if the
// request had none. Always nil for access and get requests.
func (r *Request) RawParams() json.RawMessage { return r.params }

// RawToken returns the JSON-encoded access token, or nil if the request
// had none. Always nil for get requests.
func (r *Request) RawToken() json.RawMessage { return r.token }

// OK sends a successful result response. The result may be nil.
func (r *Request) OK(result interface{}) {
	if result == nil {
		r.reply(responseSuccess)
		return
	}
	r.success(result)
}

// Resource sends a successful resource reference response. rid must be a
// valid resource ID.
func (r *Request) Resource(rid string) {
	ref := Ref(rid)
	if !ref.IsValid() {
		panic("res: invalid resource ID: " + rid)
	}
	data, err := json.Marshal(resourceResponse{Resource: ref})
	if err != nil {
		r.error(ToError(err))
		return
	}
	r.reply(data)
}

// Error sends a custom error response.
func (r *Request) Error(err error) {
	r.error(ToError(err))
}

// NotFound sends a system.notFound response.
func (r *Request) NotFound() {
	r.reply(responseNotFound)
}

// MethodNotFound sends a system.methodNotFound response. Only valid for
// call and auth requests.
func (r *Request) MethodNotFound() {
	r.reply(responseMethodNotFound)
}

// InvalidParams sends a system.invalidParams response. An empty message
// defaults to "Invalid parameters". Only valid for call and auth requests.
func (r *Request) InvalidParams(message string) {
	if message == "" {
		r.reply(responseInvalidParams)
		return
	}
	r.error(&Error{Code: CodeInvalidParams, Message: message})
}

// InvalidQuery sends a system.invalidQuery response. An empty message
// defaults to "Invalid query".
func (r *Request) InvalidQuery(message string) {
	if message == "" {
		r.reply(responseInvalidQuery)
		return
	}
	r.error(&Error{Code: CodeInvalidQuery, Message: message})
}

// Access sends a successful access response. get tells whether the client
// may read the resource; call is a comma-separated list of callable
// methods, or "*" for any method, or "" for none. Only valid for access
// requests.
func (r *Request) Access(get bool, call string) {
	if !get && call == "" {
		r.AccessDenied()
		return
	}
	r.success(accessResponse{Get: get, Call: call})
}

// AccessDenied sends a system.accessDenied response. Only valid for access
// requests.
func (r *Request) AccessDenied() {
	r.reply(responseAccessDenied)
}

// AccessGranted sends a successful response granting full access. Shorthand
// for Access(true, "*"). Only valid for access requests.
func (r *Request) AccessGranted() {
	r.reply(responseAccessGranted)
}

// Model sends a successful model response. model must marshal to a JSON
// object. Only valid for get requests on a model resource.
func (r *Request) Model(model interface{}) {
	r.success(modelResponse{Model: model})
}

// Collection sends a successful collection response. collection must
// marshal to a JSON array. Only valid for get requests on a collection
// resource.
func (r *Request) Collection(collection interface{}) {
	r.success(collectionResponse{Collection: collection})
}

// ParseParams unmarshals the JSON-encoded parameters into p. Does nothing
// if the request carried no parameters. Panics with a system.invalidParams
// *Error on failure. Only valid for call and auth requests.
func (r *Request) ParseParams(p interface{}) {
	if len(r.params) > 0 {
		if err := json.Unmarshal(r.params, p); err != nil {
			panic(&Error{Code: CodeInvalidParams, Message: err.Error()})
		}
	}
}

// ParseToken unmarshals the JSON-encoded token into t. Does nothing if the
// request carried no token. Panics with a system.internalError *Error on
// failure. Not valid for get requests.
func (r *Request) ParseToken(t interface{}) {
	if len(r.token) > 0 {
		if err := json.Unmarshal(r.token, t); err != nil {
			panic(InternalError(err))
		}
	}
}

// Timeout advises the gateway to extend its wait for a reply by d. Has no
// effect once the requester has already timed out.
func (r *Request) Timeout(d time.Duration) {
	if d < 0 {
		panic("res: negative timeout duration")
	}
	out := []byte(`timeout:"` + strconv.FormatInt(int64(d/time.Millisecond), 10) + `"`)
	r.s.rawEvent(r.msg.Reply, out)
}

// TokenEvent sends a connection token event, setting the requesting
// connection's access token and discarding any previous one. A nil token
// clears it. Only valid for auth requests.
func (r *Request) TokenEvent(token interface{}) {
	r.s.event("conn."+r.cid+".token", tokenEvent{Token: token})
}

func (r *Request) success(result interface{}) {
	data, err := json.Marshal(successResponse{Result: result})
	if err != nil {
		r.error(ToError(err))
		return
	}
	r.reply(data)
}

func (r *Request) error(e *Error) {
	data, err := json.Marshal(errorResponse{Error: e})
	if err != nil {
		data = responseInternalError
	}
	r.reply(data)
}

// reply sends an encoded payload as the single, terminal response to this
// request. A second call panics: exactly one reply per request is a
// protocol invariant the caller must not violate.
func (r *Request) reply(payload []byte) {
	if r.replied {
		panic("res: response already sent on request")
	}
	r.replied = true
	r.s.tracef("<== %s: %s", r.msg.Subject, payload)
	if err := r.s.nc.Publish(r.msg.Reply, payload); err != nil {
		r.s.errorf("error sending reply %s: %s", r.msg.Subject, err)
	}
}

// executeHandler dispatches the request to the capability recorded on
// r.h matching r.rtype/r.method, recovering from panics raised inside
// handler code and turning them into either a response (unless one was
// already sent) or a logged internal error.
func (r *Request) executeHandler() {
	defer func() {
		v := recover()
		if v == nil {
			return
		}

		var str string
		switch e := v.(type) {
		case *Error:
			if !r.replied {
				r.error(e)
				return
			}
			str = e.Message
		case error:
			str = e.Error()
			if !r.replied {
				r.error(ToError(e))
			}
		case string:
			str = e
			if !r.replied {
				r.error(ToError(errors.New(e)))
			}
		default:
			str = fmt.Sprintf("%v", e)
			if !r.replied {
				r.error(ToError(errors.New(str)))
			}
		}

		r.s.errorf("error handling request %s: %s\n%s", r.msg.Subject, str, debug.Stack())
	}()

	hs := r.h

	switch r.rtype {
	case RequestTypeAccess:
		if hs.Access == nil {
			return
		}
		hs.Access(r)
	case RequestTypeGet:
		if hs.Get == nil {
			r.reply(responseNotFound)
			return
		}
		hs.Get(r)
	case RequestTypeCall:
		h := hs.Call[r.method]
		if h == nil {
			h = hs.Call["*"]
		}
		if h == nil {
			r.reply(responseMethodNotFound)
			return
		}
		h(r)
	case RequestTypeAuth:
		h := hs.Auth[r.method]
		if h == nil {
			h = hs.Auth["*"]
		}
		if h == nil {
			r.reply(responseMethodNotFound)
			return
		}
		h(r)
	default:
		r.s.errorf("unknown request type: %s", r.rtype)
		return
	}

	if !r.replied {
		r.reply(responseMissingResponse)
	}
}
