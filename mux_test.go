package res

import "testing"

func TestMux_GetHandler_LiteralPrecedesParamPrecedesWildcard(t *testing.T) {
	m := NewMux("test")

	var which string
	m.Handle("model.foo", Access(AccessGranted), GetModel(func(r ModelRequest) { which = "literal" }))
	m.Handle("model.$id", Access(AccessGranted), GetModel(func(r ModelRequest) { which = "param" }))
	m.Handle("model.>", Access(AccessGranted), GetModel(func(r ModelRequest) { which = "wild" }))

	tbl := []struct {
		rname string
		want  string
	}{
		{"test.model.foo", "literal"},
		{"test.model.bar", "param"},
		{"test.model.bar.baz", "wild"},
	}

	for _, l := range tbl {
		match := m.GetHandler(l.rname)
		if match == nil {
			t.Fatalf("expected a match for %q, got none", l.rname)
		}
		match.Handler.Get(nil)
		if which != l.want {
			t.Errorf("for %q: expected %q handler to match, got %q", l.rname, l.want, which)
		}
	}
}

func TestMux_GetHandler_CapturesPathParams(t *testing.T) {
	m := NewMux("test")
	m.Handle("article.$id.comment.$cid", Access(AccessGranted), GetModel(func(r ModelRequest) {}))

	match := m.GetHandler("test.article.42.comment.7")
	if match == nil {
		t.Fatal("expected a match, got none")
	}
	if match.Params["id"] != "42" {
		t.Errorf("expected id param %q, got %q", "42", match.Params["id"])
	}
	if match.Params["cid"] != "7" {
		t.Errorf("expected cid param %q, got %q", "7", match.Params["cid"])
	}
}

func TestMux_GetHandler_NoMatch_ReturnsNil(t *testing.T) {
	m := NewMux("test")
	m.Handle("model", Access(AccessGranted), GetModel(func(r ModelRequest) {}))

	if match := m.GetHandler("test.other"); match != nil {
		t.Errorf("expected no match, got one")
	}
}

func TestMux_AddHandler_ConflictingPattern_Panics(t *testing.T) {
	m := NewMux("test")
	m.Handle("model.$id", Access(AccessGranted), GetModel(func(r ModelRequest) {}))

	defer func() {
		if recover() == nil {
			t.Error("expected registering a conflicting pattern to panic")
		}
	}()
	m.Handle("model.$other", Access(AccessGranted), GetModel(func(r ModelRequest) {}))
}

func TestMux_Contains_FindsMatchingHandler(t *testing.T) {
	m := NewMux("test")
	m.Handle("model", Access(AccessGranted), GetModel(func(r ModelRequest) {}))
	m.Handle("collection", GetCollection(func(r CollectionRequest) {}))

	if !m.Contains(Handler.hasGet) {
		t.Error("expected Contains(hasGet) to find the registered get handlers")
	}
	if !m.Contains(Handler.hasAccess) {
		t.Error("expected Contains(hasAccess) to find the registered access handler")
	}
}

func TestMux_OwnedPatterns_ReconstructsRegisteredPatterns(t *testing.T) {
	m := NewMux("test")
	m.Handle("model", Access(AccessGranted), GetModel(func(r ModelRequest) {}))
	m.Handle("model.$id", Access(AccessGranted), GetModel(func(r ModelRequest) {}))

	patterns := m.OwnedPatterns(Handler.hasAccess)
	if len(patterns) != 2 {
		t.Fatalf("expected 2 owned patterns, got %d: %v", len(patterns), patterns)
	}
}
