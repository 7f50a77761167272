package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// Default MajorLeagueCyber endpoints. Each is overridable by app config,
// with a config-store fallback (see services.Settings).
const (
	DefaultMLCAuthorizationEndpoint = "https://auth.majorleaguecyber.org/oauth/authorize"
	DefaultMLCTokenEndpoint         = "https://auth.majorleaguecyber.org/oauth/token"
	DefaultMLCAPIEndpoint           = "https://api.majorleaguecyber.org/user"
)

// MLCProviderConfig contains the resolved OAuth settings for a request.
type MLCProviderConfig struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	APIEndpoint           string
	ClientID              string
	ClientSecret          string
	RedirectURL           string
	TeamsMode             bool
}

// MLCUserInfo is the profile returned by the MLC user-info endpoint.
type MLCUserInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Team  struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

// MLCProvider runs the authorization-code flow against MajorLeagueCyber.
type MLCProvider struct {
	config      *oauth2.Config
	apiEndpoint string
	httpClient  *http.Client
}

// NewMLCProvider creates a provider from resolved settings. Scope depends
// on whether teams mode is active.
func NewMLCProvider(cfg MLCProviderConfig, httpClient *http.Client) *MLCProvider {
	scopes := []string{"profile"}
	if cfg.TeamsMode {
		scopes = []string{"profile", "team"}
	}

	return &MLCProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationEndpoint,
				TokenURL:  cfg.TokenEndpoint,
				AuthStyle: oauth2.AuthStyleInParams, // form-encoded POST
			},
		},
		apiEndpoint: cfg.APIEndpoint,
		httpClient:  httpClient,
	}
}

// GetAuthURL returns the provider authorization URL with the session nonce
// as the anti-CSRF state parameter.
func (p *MLCProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token.
func (p *MLCProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}
	return tok, nil
}

// GetUserInfo fetches the user profile with a bearer-token GET.
func (p *MLCProvider) GetUserInfo(ctx context.Context, tok *oauth2.Token) (*MLCUserInfo, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	client := p.config.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthUserInfo, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf("%w: %s - %s", ErrOAuthUserInfo, resp.Status, preview)
	}

	var info MLCUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthUserInfo, err)
	}

	if info.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email address", ErrOAuthUserInfo)
	}

	return &info, nil
}
