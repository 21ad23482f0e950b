package middleware

import (
	"context"
	"strings"

	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/router"
	"github.com/pacelog/backend/pkg/xcontext"
)

// Authenticate resolves the caller's identity from the access token and
// attaches it to the context. It accepts the Authorization header, the token
// cookie, or the token query parameter; the last one exists for websocket
// clients which cannot set headers.
func Authenticate() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		token := extractToken(ctx)
		if token == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		info, err := xcontext.TokenEngine(ctx).Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Access token is not valid")
		}

		return xcontext.WithRequestUserID(ctx, info.ID), nil
	}
}

func extractToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	if auth := req.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	tokenName := xcontext.Configs(ctx).Auth.AccessToken.Name
	if cookie, err := req.Cookie(tokenName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return req.URL.Query().Get(tokenName)
}
