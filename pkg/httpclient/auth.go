// Package httpclient builds HTTP clients that authenticate with a bearer
// token.
package httpclient

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// New returns a client that sends "Authorization: Bearer <token>" on every
// request. The transport is taken from an *http.Client stored in ctx under
// oauth2.HTTPClient, if any.
func New(ctx context.Context, token string) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(ctx, ts)
}
