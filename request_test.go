package res_test

import (
	"testing"

	res "github.com/hadronres/res"
	"github.com/hadronres/res/restest"
)

func TestRequest_GetModel_RespondsWithModel(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) {
			r.Model(map[string]string{"foo": "bar"})
		}),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Get("test.model").
		Response().
		AssertModel(map[string]string{"foo": "bar"})
}

func TestRequest_GetCollection_RespondsWithCollection(t *testing.T) {
	s := res.NewService("test")
	s.Handle("collection",
		res.Access(res.AccessGranted),
		res.GetCollection(func(r res.CollectionRequest) {
			r.Collection([]string{"a", "b"})
		}),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Get("test.collection").
		Response().
		AssertCollection([]string{"a", "b"})
}

func TestRequest_NotFound_RespondsWithSystemNotFound(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model.$id",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) {
			r.NotFound()
		}),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Get("test.model.42").
		Response().
		AssertErrorCode("system.notFound")
}

func TestRequest_Call_New_CreatesResourceViaCallMethod(t *testing.T) {
	s := res.NewService("test")
	s.Handle("collection",
		res.Access(res.AccessGranted),
		res.GetCollection(func(r res.CollectionRequest) { r.Collection([]string{}) }),
		res.New(func(r res.CallRequest) {
			r.Resource("test.collection.new")
		}),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Call("test.collection", "new", nil).
		Response().
		AssertResource("test.collection.new")
}

func TestRequest_DoubleReply_Panics(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) {
			r.Model(map[string]string{})
			restest.AssertPanic(t, func() {
				r.NotFound()
			})
		}),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Get("test.model").
		Response().
		AssertModel(map[string]string{})
}

func TestRequest_AccessGranted_RespondsWithFullAccess(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model", res.Access(res.AccessGranted), res.GetModel(func(r res.ModelRequest) {}))

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Access("test.model", nil).
		Response().
		AssertAccess(true, "*")
}

func TestRequest_AccessDenied_RespondsWithAccessDeniedError(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model", res.Access(res.AccessDenied), res.GetModel(func(r res.ModelRequest) {}))

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Access("test.model", nil).
		Response().
		AssertErrorCode("system.accessDenied")
}

func TestRequest_InvalidParams_RespondsWithSystemInvalidParams(t *testing.T) {
	s := res.NewService("test")
	s.Handle("math",
		res.Access(res.AccessGranted),
		res.Call("double", func(r res.CallRequest) {
			var p struct {
				Value int `json:"value"`
			}
			r.ParseParams(&p)
			r.OK(p.Value * 2)
		}),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	req := restest.DefaultCallRequest()
	req.Params = []byte(`{"value":"not a number"}`)
	c.Call("test.math", "double", req).
		Response().
		AssertErrorCode("system.invalidParams")
}

func TestRequest_MethodNotFound_RespondsWithSystemMethodNotFound(t *testing.T) {
	s := res.NewService("test")
	s.Handle("math",
		res.Access(res.AccessGranted),
		res.Call("double", func(r res.CallRequest) { r.OK(nil) }),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	c.Call("test.math", "triple", nil).
		Response().
		AssertErrorCode("system.methodNotFound")
}
