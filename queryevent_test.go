package res_test

import (
	"testing"

	res "github.com/hadronres/res"
	"github.com/hadronres/res/restest"
)

// TestQueryEvent_OpensBuffer_AndRepliesWithAddedEvents exercises the full
// query-event round trip: a resource opens a query event buffer, a query
// request arrives on the transient subject, and the callback's emitted
// events are returned as the query response.
func TestQueryEvent_OpensBuffer_AndRepliesWithAddedEvents(t *testing.T) {
	s := res.NewService("test")
	s.Handle("collection",
		res.Access(res.AccessGranted),
		res.GetCollection(func(r res.CollectionRequest) {
			r.Collection([]string{"a", "b"})
			r.QueryEvent(func(qr res.QueryRequest) {
				if qr == nil {
					return
				}
				qr.AddEvent("c", 2)
			})
		}),
	)

	c := restest.NewSession(t, s, restest.WithGnatsd)
	defer c.Close()

	c.Get("test.collection").Response().AssertCollection([]string{"a", "b"})

	var subject string
	c.GetMsg().AssertQueryEvent("test.collection", &subject)

	c.QueryRequest(subject, "foo").
		Response().
		AssertEvents(restest.Event{Name: "add", Value: "c", Idx: 2})
}

// TestQueryEvent_MissingQuery_RespondsWithInternalError covers a query
// request arriving on the transient subject without a query string.
func TestQueryEvent_MissingQuery_RespondsWithInternalError(t *testing.T) {
	s := res.NewService("test")
	s.Handle("collection",
		res.Access(res.AccessGranted),
		res.GetCollection(func(r res.CollectionRequest) {
			r.Collection([]string{})
			r.QueryEvent(func(qr res.QueryRequest) {})
		}),
	)

	c := restest.NewSession(t, s, restest.WithGnatsd)
	defer c.Close()

	c.Get("test.collection").Response().AssertCollection([]string{})

	var subject string
	c.GetMsg().AssertQueryEvent("test.collection", &subject)

	c.Request(subject, struct{}{}).
		Response().
		AssertErrorCode("system.internalError")
}
