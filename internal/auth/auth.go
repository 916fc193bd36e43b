package auth

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	"taskflex/internal/config"
)

const gothSessionMaxAge = 60 * 10

// InitGothProviders registers the OAuth providers that have credentials
// configured and returns their names.
func InitGothProviders(cfg *config.Config) []string {
	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.MaxAge(gothSessionMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.IsProduction()
	store.Options.SameSite = http.SameSiteLaxMode
	gothic.Store = store

	base := strings.TrimRight(cfg.OAuth.CallbackBase, "/")

	var providers []goth.Provider
	if cfg.OAuth.GoogleClientID != "" {
		providers = append(providers, google.New(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			base+"/auth/google/callback",
			"email", "profile",
		))
	}
	if cfg.OAuth.GithubClientID != "" {
		providers = append(providers, github.New(
			cfg.OAuth.GithubClientID,
			cfg.OAuth.GithubClientSecret,
			base+"/auth/github/callback",
			"user:email",
		))
	}
	goth.UseProviders(providers...)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}
