package middleware

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/pacelog/backend/internal/model"
	"github.com/pacelog/backend/pkg/errorx"
	"github.com/pacelog/backend/pkg/testutil"
	"github.com/pacelog/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	ctx := testutil.MockContext()

	token, err := xcontext.TokenEngine(ctx).Generate("user1", model.AccessToken{ID: "user1", Name: "user1"})
	require.NoError(t, err)

	req := &http.Request{Header: http.Header{}, URL: &url.URL{}}
	req.Header.Set("Authorization", "Bearer "+token)

	newCtx, err := Authenticate()(xcontext.WithHTTPRequest(ctx, req))
	require.NoError(t, err)
	require.Equal(t, "user1", xcontext.RequestUserID(newCtx))
}

func TestAuthenticate_query_token(t *testing.T) {
	ctx := testutil.MockContext()

	token, err := xcontext.TokenEngine(ctx).Generate("user1", model.AccessToken{ID: "user1"})
	require.NoError(t, err)

	tokenName := xcontext.Configs(ctx).Auth.AccessToken.Name
	req := &http.Request{
		Header: http.Header{},
		URL:    &url.URL{RawQuery: url.Values{tokenName: []string{token}}.Encode()},
	}

	newCtx, err := Authenticate()(xcontext.WithHTTPRequest(ctx, req))
	require.NoError(t, err)
	require.Equal(t, "user1", xcontext.RequestUserID(newCtx))
}

func TestAuthenticate_rejects(t *testing.T) {
	ctx := testutil.MockContext()

	req := &http.Request{Header: http.Header{}, URL: &url.URL{}}
	_, err := Authenticate()(xcontext.WithHTTPRequest(ctx, req))
	require.Error(t, err)
	require.Equal(t, errorx.Unauthenticated, err.(errorx.Error).Code)

	req.Header.Set("Authorization", "Bearer not-a-token")
	_, err = Authenticate()(xcontext.WithHTTPRequest(ctx, req))
	require.Error(t, err)
	require.Equal(t, errorx.Unauthenticated, err.(errorx.Error).Code)
}
