package res_test

import (
	"testing"

	res "github.com/hadronres/res"
	"github.com/hadronres/res/restest"
)

func TestService_Serve_SendsSystemResetOnStart(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model", res.Access(res.AccessGranted), res.GetModel(func(r res.ModelRequest) {}))

	c := restest.NewSession(t, s, restest.WithoutReset)
	defer c.Close()

	c.GetMsg().AssertSystemReset([]string{"test", "test.>"}, []string{"test", "test.>"})
}

func TestService_Serve_SubscribesToOwnedPatterns(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model", res.Access(res.AccessGranted), res.GetModel(func(r res.ModelRequest) {}))

	c := restest.NewSession(t, s)
	defer c.Close()

	c.AssertSubscription("get.test")
	c.AssertSubscription("get.test.>")
	c.AssertSubscription("access.test")
	c.AssertSubscription("access.test.>")
}

func TestService_Shutdown_ClosesConnection(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model", res.Access(res.AccessGranted), res.GetModel(func(r res.ModelRequest) {}))

	c := restest.NewSession(t, s)
	if err := c.Close(); err != nil {
		t.Fatalf("expected clean shutdown, got: %s", err)
	}
	if !c.IsClosed() {
		t.Error("expected the connection to be closed after shutdown")
	}
}

func TestService_With_SendsChangeEventOutOfBand(t *testing.T) {
	s := res.NewService("test")
	model := map[string]interface{}{"foo": "bar"}
	s.Handle("model",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) { r.Model(model) }),
	)

	c := restest.NewSession(t, s)
	defer c.Close()

	done := make(chan struct{})
	err := s.With("test.model", func(r res.Resource) {
		r.ChangeEvent(map[string]interface{}{"foo": "baz"})
		close(done)
	})
	if err != nil {
		t.Fatalf("expected no error, got: %s", err)
	}
	<-done

	c.GetMsg().AssertChangeEvent("test.model", map[string]interface{}{"foo": "baz"})
}

func TestService_TokenEvent_PublishesConnToken(t *testing.T) {
	s := res.NewService("test")
	s.Handle("model", res.Access(res.AccessGranted), res.GetModel(func(r res.ModelRequest) {}))

	c := restest.NewSession(t, s)
	defer c.Close()

	s.TokenEvent("conn42", map[string]string{"user": "admin"})

	c.GetMsg().AssertTokenEvent("conn42", map[string]string{"user": "admin"})
}
