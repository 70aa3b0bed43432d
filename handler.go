package res

// ResourceType enum
type ResourceType byte

// Resource type enum values
const (
	TypeUnset ResourceType = iota
	TypeModel
	TypeCollection
)

// AccessHandler is a function called on resource access requests.
type AccessHandler func(AccessRequest)

// GetHandler is a function called on untyped get requests.
type GetHandler func(GetRequest)

// ModelHandler is a function called on model get requests.
type ModelHandler func(ModelRequest)

// CollectionHandler is a function called on collection get requests.
type CollectionHandler func(CollectionRequest)

// CallHandler is a function called on resource call requests.
type CallHandler func(CallRequest)

// AuthHandler is a function called on resource auth requests.
type AuthHandler func(AuthRequest)

// ApplyChangeHandler applies a model change event out of band (for a
// resource reached through With/WithResource rather than an incoming
// request). Must return a map with the values to apply to revert the
// change, or an error.
type ApplyChangeHandler func(r Resource, changes map[string]interface{}) (map[string]interface{}, error)

// ApplyAddHandler applies a collection add event out of band. Must return
// an error if the value couldn't be inserted.
type ApplyAddHandler func(r Resource, value interface{}, idx int) error

// ApplyRemoveHandler applies a collection remove event out of band. Must
// return the removed value, or an error.
type ApplyRemoveHandler func(r Resource, idx int) (interface{}, error)

// ApplyCreateHandler applies a create event out of band. Must return an
// error if the resource couldn't be created.
type ApplyCreateHandler func(r Resource, data interface{}) error

// ApplyDeleteHandler applies a delete event out of band. Must return the
// deleted resource data, or an error.
type ApplyDeleteHandler func(r Resource) (interface{}, error)

// Handler is the explicit capability record for a single resource pattern:
// the union of request kinds the pattern's owner can serve, plus the
// callbacks that serve them. There is no reflection or inheritance involved
// in dispatch; the dispatcher in Request.executeHandler reads these fields
// directly.
type Handler struct {
	// Type is the resource type, used to validate which event methods are
	// legal on a Resource obtained through this handler.
	Type ResourceType

	// Access handles access requests.
	Access AccessHandler

	// Get handles get requests.
	Get GetHandler

	// Call handles call requests, keyed by method name. A "*" entry
	// handles any method without its own entry.
	Call map[string]CallHandler

	// Auth handles auth requests, keyed by method name. A "*" entry
	// handles any method without its own entry.
	Auth map[string]AuthHandler

	// ApplyChange applies change event mutations for out-of-band events.
	ApplyChange ApplyChangeHandler

	// ApplyAdd applies add event mutations for out-of-band events.
	ApplyAdd ApplyAddHandler

	// ApplyRemove applies remove event mutations for out-of-band events.
	ApplyRemove ApplyRemoveHandler

	// ApplyCreate applies a create event for out-of-band events.
	ApplyCreate ApplyCreateHandler

	// ApplyDelete applies a delete event for out-of-band events.
	ApplyDelete ApplyDeleteHandler

	// Group is the serialization key for the resource. All resources
	// sharing the same group are guaranteed to execute one task at a time,
	// in order, on the shared worker pool. Group may reference path parameters
	// with ${tagName}. If empty, the resource name is used as the key.
	Group string
}

// hasNewCapability reports whether the handler accepts "call.new" requests.
// RES protocol v1.2.0 deprecated a standalone New request type in favor of
// a plain call method named "new"; this module takes that side of the
// open question explicitly (see DESIGN.md) rather than carrying both a
// dedicated New handler and a call route for the same thing.
func (h Handler) hasNewCapability() bool {
	if h.Call == nil {
		return false
	}
	_, ok := h.Call["new"]
	return ok
}

// hasGet reports whether the pattern should be included in the resources
// reset list.
func (h Handler) hasGet() bool {
	return h.Get != nil || len(h.Call) > 0 || len(h.Auth) > 0
}

// hasAccess reports whether the pattern should be included in the access
// reset list.
func (h Handler) hasAccess() bool {
	return h.Access != nil
}

// Option sets one or more fields of a Handler.
type Option interface{ SetOption(*Handler) }

// OptionFunc adapts an ordinary function to the Option interface.
type OptionFunc func(*Handler)

// SetOption calls f(h).
func (f OptionFunc) SetOption(h *Handler) { f(h) }

// Model sets the handler's resource type to model.
var Model = OptionFunc(func(h *Handler) {
	if h.Type != TypeUnset {
		panic("res: resource type set multiple times")
	}
	h.Type = TypeModel
})

// Collection sets the handler's resource type to collection.
var Collection = OptionFunc(func(h *Handler) {
	if h.Type != TypeUnset {
		panic("res: resource type set multiple times")
	}
	h.Type = TypeCollection
})

// Access sets a handler for resource access requests.
func Access(cb AccessHandler) Option {
	return OptionFunc(func(h *Handler) {
		if h.Access != nil {
			panic("res: multiple access handlers")
		}
		h.Access = cb
	})
}

// GetModel sets a handler for model get requests.
func GetModel(cb ModelHandler) Option {
	return OptionFunc(func(h *Handler) {
		Model.SetOption(h)
		validateGetHandler(*h)
		h.Get = func(r GetRequest) { cb(ModelRequest(r)) }
	})
}

// GetCollection sets a handler for collection get requests.
func GetCollection(cb CollectionHandler) Option {
	return OptionFunc(func(h *Handler) {
		Collection.SetOption(h)
		validateGetHandler(*h)
		h.Get = func(r GetRequest) { cb(CollectionRequest(r)) }
	})
}

// GetResource sets a handler for untyped get requests, one that decides for
// itself whether to respond with a model or a collection.
func GetResource(cb GetHandler) Option {
	return OptionFunc(func(h *Handler) {
		validateGetHandler(*h)
		h.Get = cb
	})
}

func validateGetHandler(h Handler) {
	if h.Get != nil {
		panic("res: multiple get handlers")
	}
}

// Call sets a handler for a named call method.
func Call(method string, cb CallHandler) Option {
	if !isValidPart(method) {
		panic("res: invalid method name: " + method)
	}
	return OptionFunc(func(h *Handler) {
		if h.Call == nil {
			h.Call = make(map[string]CallHandler)
		}
		if _, ok := h.Call[method]; ok {
			panic("res: multiple call handlers for method " + method)
		}
		h.Call[method] = cb
	})
}

// Set is an alias for Call("set", cb).
func Set(cb CallHandler) Option {
	return Call("set", cb)
}

// New sets a handler for the "new" call method, used by clients to create a
// resource through an RPC call. See Handler.hasNewCapability for how this
// module routes new-resource requests.
func New(cb CallHandler) Option {
	return Call("new", cb)
}

// Auth sets a handler for a named auth method.
func Auth(method string, cb AuthHandler) Option {
	if !isValidPart(method) {
		panic("res: invalid method name: " + method)
	}
	return OptionFunc(func(h *Handler) {
		if h.Auth == nil {
			h.Auth = make(map[string]AuthHandler)
		}
		if _, ok := h.Auth[method]; ok {
			panic("res: multiple auth handlers for method " + method)
		}
		h.Auth[method] = cb
	})
}

// ApplyChange sets a handler for applying change event mutations.
func ApplyChange(cb ApplyChangeHandler) Option {
	return OptionFunc(func(h *Handler) {
		if h.ApplyChange != nil {
			panic("res: multiple apply change handlers")
		}
		h.ApplyChange = cb
	})
}

// ApplyAdd sets a handler for applying add event mutations.
func ApplyAdd(cb ApplyAddHandler) Option {
	return OptionFunc(func(h *Handler) {
		if h.ApplyAdd != nil {
			panic("res: multiple apply add handlers")
		}
		h.ApplyAdd = cb
	})
}

// ApplyRemove sets a handler for applying remove event mutations.
func ApplyRemove(cb ApplyRemoveHandler) Option {
	return OptionFunc(func(h *Handler) {
		if h.ApplyRemove != nil {
			panic("res: multiple apply remove handlers")
		}
		h.ApplyRemove = cb
	})
}

// ApplyCreate sets a handler for applying create events.
func ApplyCreate(cb ApplyCreateHandler) Option {
	return OptionFunc(func(h *Handler) {
		if h.ApplyCreate != nil {
			panic("res: multiple apply create handlers")
		}
		h.ApplyCreate = cb
	})
}

// ApplyDelete sets a handler for applying delete events.
func ApplyDelete(cb ApplyDeleteHandler) Option {
	return OptionFunc(func(h *Handler) {
		if h.ApplyDelete != nil {
			panic("res: multiple apply delete handlers")
		}
		h.ApplyDelete = cb
	})
}

// Group sets the serialization group for the handler. All resources with
// the same group are guaranteed to run one task at a time, in order, on the
// shared worker pool. Group may reference path parameters with ${tagName}.
func Group(group string) Option {
	return OptionFunc(func(h *Handler) {
		h.Group = group
	})
}
