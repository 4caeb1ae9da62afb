package main

import (
	"context"
	"fmt"
	"time"

	"github.com/arvkevi/walkup/internal/server"
	"github.com/arvkevi/walkup/internal/services"
	"github.com/arvkevi/walkup/internal/shared"
	"github.com/urfave/cli/v3"
)

// Auth performs the interactive Spotify authorization-code flow.
//
// The pipeline only needs client credentials; this flow obtains the
// user-scoped tokens that downstream playlist tooling requires, via the
// configured redirect URI and a temporary local callback server.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)
	spotify := config.Credentials.Spotify

	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	catalog, err := services.NewSpotifyCatalog(spotify.Map())
	if err != nil {
		return err
	}

	oauthConfig := catalog.OAuthConfig()
	state := shared.GenerateID()

	r.writePlainln("Open this URL in your browser to authorize:")
	r.writePlain("%s\n\n", oauthConfig.AuthCodeURL(state))
	r.writePlain("Waiting for callback on %s ...\n", oauthConfig.RedirectURL)

	token, err := server.Callback(ctx, oauthConfig, state, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("Refresh token (store it somewhere safe):\n%s\n", token.RefreshToken)
	return nil
}
