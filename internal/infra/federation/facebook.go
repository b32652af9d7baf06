package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
)

const defaultGraphURL = "https://graph.facebook.com"

// FacebookVerifier validates Facebook access tokens through the Graph
// API debug_token endpoint, then fetches the holder's profile.
type FacebookVerifier struct {
	appID      string
	appSecret  string
	graphURL   string
	httpClient *http.Client
}

// NewFacebookVerifier constructs a verifier for the configured Facebook app.
func NewFacebookVerifier(appID, appSecret string) *FacebookVerifier {
	return &FacebookVerifier{
		appID:     appID,
		appSecret: appSecret,
		graphURL:  defaultGraphURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithGraphURL overrides the Graph API base URL. Used by tests.
func (v *FacebookVerifier) WithGraphURL(base string) *FacebookVerifier {
	v.graphURL = base
	return v
}

// WithHTTPClient overrides the HTTP client. Used by tests.
func (v *FacebookVerifier) WithHTTPClient(client *http.Client) *FacebookVerifier {
	v.httpClient = client
	return v
}

type debugTokenResponse struct {
	Data struct {
		AppID   string `json:"app_id"`
		IsValid bool   `json:"is_valid"`
		UserID  string `json:"user_id"`
	} `json:"data"`
}

type graphProfileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Verify inspects the access token with debug_token, confirming it is
// valid and issued for this app, then loads the user's profile.
func (v *FacebookVerifier) Verify(ctx context.Context, accessToken string) (domain.ExternalProfile, error) {
	if accessToken == "" {
		return domain.ExternalProfile{}, port.ErrIdentityTokenInvalid
	}

	debug, err := v.debugToken(ctx, accessToken)
	if err != nil {
		return domain.ExternalProfile{}, err
	}
	if !debug.Data.IsValid || debug.Data.AppID != v.appID {
		return domain.ExternalProfile{}, port.ErrIdentityTokenInvalid
	}

	profile, err := v.fetchProfile(ctx, accessToken)
	if err != nil {
		return domain.ExternalProfile{}, err
	}
	if profile.ID == "" {
		return domain.ExternalProfile{}, port.ErrIdentityTokenInvalid
	}

	first, last := profile.FirstName, profile.LastName
	if first == "" && last == "" {
		first, last = splitFullName(profile.Name)
	}

	return domain.ExternalProfile{
		ProviderUserID: profile.ID,
		Email:          domain.NormalizeEmail(profile.Email),
		FirstName:      first,
		LastName:       last,
		PictureURL:     profile.Picture.Data.URL,
	}, nil
}

func (v *FacebookVerifier) debugToken(ctx context.Context, accessToken string) (*debugTokenResponse, error) {
	query := url.Values{}
	query.Set("input_token", accessToken)
	query.Set("access_token", v.appID+"|"+v.appSecret)

	var out debugTokenResponse
	if err := v.getJSON(ctx, v.graphURL+"/debug_token?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (v *FacebookVerifier) fetchProfile(ctx context.Context, accessToken string) (*graphProfileResponse, error) {
	query := url.Values{}
	query.Set("fields", "id,email,first_name,last_name,name,picture.type(large)")
	query.Set("access_token", accessToken)

	var out graphProfileResponse
	if err := v.getJSON(ctx, v.graphURL+"/me?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (v *FacebookVerifier) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call graph api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return port.ErrIdentityTokenInvalid
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}

var _ port.IdentityVerifier = (*FacebookVerifier)(nil)
