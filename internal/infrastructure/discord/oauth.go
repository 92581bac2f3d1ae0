package discord

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OAuth implements the Discord authorization code flow for the login page.
type OAuth struct {
	conf   *oauth2.Config
	client *client
}

func NewOAuth(cfg *config.DiscordConfig, logger *zap.Logger) repository.DiscordAuthenticator {
	api := strings.TrimSuffix(cfg.APIURL, "/")
	c := NewClient(cfg, logger).(*client)

	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   api + "/oauth2/authorize",
				TokenURL:  api + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: c,
	}
}

func (o *OAuth) AuthCodeURL(state string) string {
	return o.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange trades the callback code for a token and loads the user behind it.
func (o *OAuth) Exchange(ctx context.Context, code string) (*domain.DiscordProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.client.httpClient)

	token, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.client.apiURL+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)

	var u apiUser
	if err := o.client.do(req, &u); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return o.client.toProfile(u, ""), nil
}
