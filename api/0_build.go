package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/tabledb/api/apitablev1"
	"github.com/fulldump/tabledb/service"
	"github.com/fulldump/tabledb/statics"
)

func Build(s service.Servicer, staticsDir, version string, apiKey, apiSecret string, requireAuth bool) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		Authenticate(apiKey, apiSecret, requireAuth),
	)

	apitablev1.BuildV1Tables(v1, s).
		WithInterceptors(
			injectServicer(s),
		)

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check the documentation",
			}
		}))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}))

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "TableDB"
	spec.Info.Description = "A durable in-memory table of JSON documents addressed by opaque 128-bit keys."
	spec.Info.Version = version
	spec.Info.Contact = &boxopenapi.Contact{
		Url: "https://github.com/fulldump/tabledb/issues/new",
	}
	b.Handle("GET", "/openapi.json", func(r *http.Request) any {

		spec.Servers = []boxopenapi.Server{
			{
				Url: "https://" + r.Host,
			},
			{
				Url: "http://" + r.Host,
			},
		}

		return spec
	})

	// Mount statics
	b.Resource("/*").
		WithActions(
			box.Get(statics.ServeStatics(staticsDir)).WithName("serveStatics"),
		)

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apitablev1.SetServicer(ctx, s))
		}
	}
}
