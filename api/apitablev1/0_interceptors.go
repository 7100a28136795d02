package apitablev1

import (
	"context"

	"github.com/fulldump/tabledb/service"
)

const ContextServicerKey = "b41972f6-31d8-11f0-8c52-73a9ab85fc2d"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}
