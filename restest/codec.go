package restest

import (
	"encoding/json"
)

// Request represents a request payload.
type Request struct {
	CID    string          `json:"cid,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Token  json.RawMessage `json:"token,omitempty"`
	Query  string          `json:"query,omitempty"`
}

// DefaultCallRequest returns a default call request.
func DefaultCallRequest() *Request {
	return &Request{CID: "testcid"}
}

// DefaultAccessRequest returns a default access request.
func DefaultAccessRequest() *Request {
	return &Request{CID: "testcid"}
}

// DefaultAuthRequest returns a default auth request.
func DefaultAuthRequest() *Request {
	return &Request{CID: "testcid"}
}
