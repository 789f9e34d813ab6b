package google

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/scimind/portal-api/internal/models"
)

// Config carries the OAuth client credentials and the scopes each platform
// client requests.
type Config struct {
	ClientID        string
	ClientSecret    string
	ClassroomScopes []string
	YouTubeScopes   []string
}

// httpClient builds an authenticated client for an integration account. The
// stored access token is treated as expired so the transport refreshes it on
// first use via the refresh token.
func httpClient(ctx context.Context, cfg Config, account *models.IntegrationAccount, scopes []string) *http.Client {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       scopes,
	}
	token := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	return conf.Client(ctx, token)
}
