package res

import "net/url"

// Resource is the common set of event emitters available both on an
// incoming Request and on a resource reference obtained out of band
// through Service.With, Service.Resource, or the query-event buffer. It
// carries no response methods of its own.
type Resource interface {
	// ResourceName returns the resource name, without any query part.
	ResourceName() string

	// PathParam returns the path parameter captured for the given
	// placeholder name, or an empty string if not set.
	PathParam(name string) string

	// PathParams returns all path parameters captured from the resource
	// name.
	PathParams() map[string]string

	// RawQuery returns the query part of the resource ID, without the
	// leading question mark.
	RawQuery() string

	// ParseQuery parses RawQuery and returns the corresponding values. It
	// silently discards malformed value pairs; use url.ParseQuery to
	// detect errors.
	ParseQuery() url.Values

	// Group returns the serialization key this resource is dispatched
	// on: the handler's resolved Group, or the resource name if none was
	// set.
	Group() string

	// ChangeEvent sends a change event. If changes is empty, no event is
	// sent. Panics if the handler's resource type is set to something
	// other than model; untyped resources are allowed.
	ChangeEvent(changes map[string]interface{})

	// AddEvent sends an add event, inserting value at the zero-based
	// index idx. Panics if the handler's resource type is set to something
	// other than collection; untyped resources are allowed.
	AddEvent(value interface{}, idx int)

	// RemoveEvent sends a remove event, removing the value previously at
	// the zero-based index idx. Panics if the handler's resource type is
	// set to something other than collection; untyped resources are
	// allowed.
	RemoveEvent(idx int)

	// CreateEvent sends a create event, announcing that the resource now
	// exists with the given data. Mutually exclusive with DeleteEvent for
	// a single resource's lifecycle.
	CreateEvent(data interface{})

	// DeleteEvent sends a delete event, announcing that the resource no
	// longer exists.
	DeleteEvent()

	// CustomEvent sends an arbitrarily named event. Panics if name is one
	// of the reserved event names (change, add, remove, create, delete,
	// query).
	CustomEvent(name string, payload interface{})

	// QueryEvent opens a query event buffer: it publishes a query event
	// referencing a transient subject, and calls cb with any query
	// request arriving on that subject within the service's query event
	// duration. cb receives a nil QueryRequest once the buffer has
	// expired.
	QueryEvent(cb func(QueryRequest))
}

// reserved event names that must be sent through their dedicated method
// rather than CustomEvent.
var reservedEventNames = map[string]bool{
	"change": true,
	"add":    true,
	"remove": true,
	"create": true,
	"delete": true,
	"query":  true,
}

// resource is the concrete implementation of Resource, embedded by Request
// and returned standalone by Service.With/Resource.
type resource struct {
	rname      string
	query      string
	pathParams map[string]string
	group      string
	s          *Service
	h          *Handler

	// lifecycle tracks whether CreateEvent/DeleteEvent has already been
	// called during this resource's current event-emitting sequence.
	lifecycle uint8
}

const (
	lifecycleNone uint8 = iota
	lifecycleCreated
	lifecycleDeleted
)

func (r *resource) ResourceName() string { return r.rname }

func (r *resource) PathParam(name string) string { return r.pathParams[name] }

func (r *resource) PathParams() map[string]string { return r.pathParams }

func (r *resource) RawQuery() string { return r.query }

func (r *resource) ParseQuery() url.Values {
	v, _ := url.ParseQuery(r.query)
	return v
}

func (r *resource) Group() string {
	if r.group == "" {
		return r.rname
	}
	return r.group
}

func (r *resource) ChangeEvent(changes map[string]interface{}) {
	if r.h.Type != TypeUnset && r.h.Type != TypeModel {
		panic("res: change event only allowed on models")
	}
	if len(changes) == 0 {
		return
	}
	r.s.event("event."+r.rname+".change", changeEvent{Values: changes})
}

func (r *resource) AddEvent(value interface{}, idx int) {
	if r.h.Type != TypeUnset && r.h.Type != TypeCollection {
		panic("res: add event only allowed on collections")
	}
	if idx < 0 {
		panic("res: add event idx less than zero")
	}
	r.s.event("event."+r.rname+".add", addEvent{Value: value, Idx: idx})
}

func (r *resource) RemoveEvent(idx int) {
	if r.h.Type != TypeUnset && r.h.Type != TypeCollection {
		panic("res: remove event only allowed on collections")
	}
	if idx < 0 {
		panic("res: remove event idx less than zero")
	}
	r.s.event("event."+r.rname+".remove", removeEvent{Idx: idx})
}

func (r *resource) CreateEvent(data interface{}) {
	if r.lifecycle != lifecycleNone {
		panic("res: create/delete event already sent for this resource")
	}
	r.lifecycle = lifecycleCreated
	r.s.event("event."+r.rname+".create", createEvent{Data: data})
}

func (r *resource) DeleteEvent() {
	if r.lifecycle != lifecycleNone {
		panic("res: create/delete event already sent for this resource")
	}
	r.lifecycle = lifecycleDeleted
	r.s.event("event."+r.rname+".delete", nil)
}

func (r *resource) CustomEvent(name string, payload interface{}) {
	if reservedEventNames[name] {
		panic("res: \"" + name + "\" is a reserved event name; use its dedicated method")
	}
	r.s.event("event."+r.rname+"."+name, payload)
}

func (r *resource) QueryEvent(cb func(QueryRequest)) {
	r.s.startQueryEvent(r, cb)
}
