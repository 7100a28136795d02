package api

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/fulldump/box"
)

var ErrUnauthorized = errors.New("unauthorized")

// Authenticate checks the credentials sent in the X-Api-Key and X-Api-Secret
// headers. With empty credentials the api is open, unless require forces
// authentication anyway.
func Authenticate(apiKey, apiSecret string, require bool) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			if apiKey == "" && apiSecret == "" && !require {
				next(ctx)
				return
			}

			r := box.GetRequest(ctx)
			keyOk := subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Api-Key")), []byte(apiKey)) == 1
			secretOk := subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Api-Secret")), []byte(apiSecret)) == 1
			if !keyOk || !secretOk {
				box.SetError(ctx, ErrUnauthorized)
				return
			}

			next(ctx)
		}
	}
}
