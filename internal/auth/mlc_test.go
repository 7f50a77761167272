package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testBearerToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "mlc-access-token", TokenType: "Bearer"}
}

func TestGetAuthURL_ContainsStateAndScope(t *testing.T) {
	p := NewMLCProvider(MLCProviderConfig{
		AuthorizationEndpoint: DefaultMLCAuthorizationEndpoint,
		TokenEndpoint:         DefaultMLCTokenEndpoint,
		APIEndpoint:           DefaultMLCAPIEndpoint,
		ClientID:              "client-id",
		ClientSecret:          "client-secret",
	}, nil)

	authURL := p.GetAuthURL("nonce-abc")
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "nonce-abc", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "profile", q.Get("scope"))
}

func TestGetAuthURL_TeamsModeScope(t *testing.T) {
	p := NewMLCProvider(MLCProviderConfig{
		AuthorizationEndpoint: DefaultMLCAuthorizationEndpoint,
		TokenEndpoint:         DefaultMLCTokenEndpoint,
		APIEndpoint:           DefaultMLCAPIEndpoint,
		ClientID:              "client-id",
		TeamsMode:             true,
	}, nil)

	parsed, err := url.Parse(p.GetAuthURL("nonce"))
	require.NoError(t, err)
	assert.Equal(t, "profile team", parsed.Query().Get("scope"))
}

func TestExchangeCode_FormEncodedPost(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "mlc-access-token",
			"token_type":   "Bearer",
		})
	}))
	defer srv.Close()

	p := NewMLCProvider(MLCProviderConfig{
		AuthorizationEndpoint: srv.URL + "/oauth/authorize",
		TokenEndpoint:         srv.URL + "/oauth/token",
		APIEndpoint:           srv.URL + "/user",
		ClientID:              "client-id",
		ClientSecret:          "client-secret",
	}, srv.Client())

	tok, err := p.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "mlc-access-token", tok.AccessToken)

	assert.Equal(t, "auth-code", gotForm.Get("code"))
	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "client-id", gotForm.Get("client_id"))
	assert.Equal(t, "client-secret", gotForm.Get("client_secret"))
}

func TestExchangeCode_NonOKResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad code", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewMLCProvider(MLCProviderConfig{
		AuthorizationEndpoint: srv.URL + "/oauth/authorize",
		TokenEndpoint:         srv.URL + "/oauth/token",
		APIEndpoint:           srv.URL + "/user",
		ClientID:              "client-id",
	}, srv.Client())

	_, err := p.ExchangeCode(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrOAuthExchange)
}

func TestGetUserInfo_BearerGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			http.NotFound(w, r)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    42,
			"name":  "player1",
			"email": "player1@example.com",
			"team":  map[string]any{"id": 7, "name": "red-team"},
		})
	}))
	defer srv.Close()

	p := NewMLCProvider(MLCProviderConfig{
		AuthorizationEndpoint: srv.URL + "/oauth/authorize",
		TokenEndpoint:         srv.URL + "/oauth/token",
		APIEndpoint:           srv.URL + "/user",
		ClientID:              "client-id",
	}, srv.Client())

	info, err := p.GetUserInfo(context.Background(), testBearerToken())
	require.NoError(t, err)
	assert.Equal(t, int64(42), info.ID)
	assert.Equal(t, "player1", info.Name)
	assert.Equal(t, "player1@example.com", info.Email)
	assert.Equal(t, int64(7), info.Team.ID)
	assert.Equal(t, "red-team", info.Team.Name)
}

func TestGetUserInfo_MissingEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "name": "player1"})
	}))
	defer srv.Close()

	p := NewMLCProvider(MLCProviderConfig{
		AuthorizationEndpoint: srv.URL + "/oauth/authorize",
		TokenEndpoint:         srv.URL + "/oauth/token",
		APIEndpoint:           srv.URL + "/user",
		ClientID:              "client-id",
	}, srv.Client())

	_, err := p.GetUserInfo(context.Background(), testBearerToken())
	assert.ErrorIs(t, err, ErrOAuthUserInfo)
}
