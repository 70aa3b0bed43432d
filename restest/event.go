package restest

import (
	"encoding/json"
)

// Event represents an event.
type Event struct {
	// Name of the event.
	Name string

	// Index position where the resource is added or removed from the query
	// result.
	//
	// Only valid for "add" and "remove" events.
	Idx int

	// ID of resource being added or removed from the query result.
	//
	// Only valid for "add" events.
	Value interface{}

	// Changed property values for the model emitting the event.
	//
	// Only valid for "change" events, and should marshal into a json object
	// with changed key/value properties.
	Changed interface{}

	// Payload of a custom event, or the data of a "create" event.
	Payload interface{}
}

// MarshalJSON marshals the event into json.
func (ev Event) MarshalJSON() ([]byte, error) {
	switch ev.Name {
	case "change":
		return json.Marshal(struct {
			Values interface{} `json:"values"`
		}{ev.Changed})
	case "add":
		return json.Marshal(struct {
			Value interface{} `json:"value"`
			Idx   int         `json:"idx"`
		}{ev.Value, ev.Idx})
	case "remove":
		return json.Marshal(struct {
			Idx int `json:"idx"`
		}{ev.Idx})
	case "create":
		return json.Marshal(struct {
			Data interface{} `json:"data"`
		}{ev.Payload})
	case "delete":
		fallthrough
	case "reaccess":
		return []byte("null"), nil
	default:
		return json.Marshal(ev.Payload)
	}
}
