/*
Package res provides a server-side runtime for the RES (REaltime API
Specification) service protocol, used by services behind a Resgate
gateway:

https://resgate.io

The implementation provides low-level methods to listen to and handle
incoming requests, and to send events over NATS.

Concurrency

Requests are handled concurrently across resources, but the package
guarantees that only one goroutine at a time executes handlers for any
given resource or resource group. This lets handlers mutate models and
collections without additional synchronization.

Usage

Create a new service:

	s := res.NewService("myservice")

Add handlers for a single model resource:

	mymodel := map[string]interface{}{"name": "foo", "value": 42}
	s.Handle("mymodel",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) {
			r.Model(mymodel)
		}),
	)

Add handlers for a single collection resource:

	mycollection := []string{"first", "second", "third"}
	s.Handle("mycollection",
		res.Access(res.AccessGranted),
		res.GetCollection(func(r res.CollectionRequest) {
			r.Collection(mycollection)
		}),
	)

Add handlers for parameterized resources:

	s.Handle("article.$id",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) {
			article := getArticle(r.PathParam("id"))
			if article == nil {
				r.NotFound()
			} else {
				r.Model(article)
			}
		}),
	)

Add handlers for method calls (resource creation is a call to the "new"
method, registered the same way with res.New):

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

Send a change event on a model update, from within a handler that already
owns the resource's serialization group:

	mymodel["name"] = "bar"
	r.ChangeEvent(map[string]interface{}{"name": "bar"})

Send a change event from outside a request, using With to obtain the
resource's serialization group first:

	s.With("myservice.mymodel", func(r res.Resource) {
		mymodel["name"] = "bar"
		r.ChangeEvent(map[string]interface{}{"name": "bar"})
	})

Start the service:

	s.ListenAndServe("nats://localhost:4222")
*/
package res
