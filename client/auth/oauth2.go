package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/task"
)

// ErrNoRefreshToken is returned when re-authorization is attempted
// without a stored refresh token.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// OAuth2Delegate re-authorizes with an OAuth2 refresh token. The token,
// serialized as JSON, lives in a Store.
type OAuth2Delegate struct {
	cfg    *oauth2.Config
	store  Store
	logger *slog.Logger
}

// NewOAuth2Delegate returns a delegate refreshing through cfg's token
// endpoint. A nil logger uses slog.Default.
func NewOAuth2Delegate(cfg *oauth2.Config, store Store, logger *slog.Logger) *OAuth2Delegate {
	if logger == nil {
		logger = slog.Default()
	}

	return &OAuth2Delegate{cfg: cfg, store: store, logger: logger}
}

// SaveToken stores tok, typically after the initial authorization.
func (d *OAuth2Delegate) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	return d.store.SetToken(ctx, string(b))
}

// Signature returns the Authorization header for the stored token.
func (d *OAuth2Delegate) Signature(ctx context.Context) (*endpoint.Signature, error) {
	tok, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	return signature(tok), nil
}

// OnUnauthorized exchanges the stored refresh token for a new access
// token. The task fails if no refresh token is stored.
func (d *OAuth2Delegate) OnUnauthorized(ctx context.Context, path string) *task.Task[*endpoint.Signature] {
	return task.Run(ctx, nil, func(ctx context.Context) (*endpoint.Signature, error) {
		stored, err := d.load(ctx)
		if err != nil {
			return nil, err
		}
		if stored.RefreshToken == "" {
			return nil, ErrNoRefreshToken
		}

		// A token without an access token is never valid, forcing a refresh.
		src := d.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
		fresh, err := src.Token()
		if err != nil {
			return nil, fmt.Errorf("refreshing token: %w", err)
		}

		if err := d.SaveToken(ctx, fresh); err != nil {
			return nil, err
		}

		d.logger.Info("access token refreshed", "path", path)

		return signature(fresh), nil
	})
}

// OnError logs err.
func (d *OAuth2Delegate) OnError(_ context.Context, err error, path string) {
	d.logger.Error("request failed", "error", err, "path", path)
}

func (d *OAuth2Delegate) load(ctx context.Context) (*oauth2.Token, error) {
	raw, err := d.store.Token(ctx)
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decoding stored token: %w", err)
	}

	return &tok, nil
}

func signature(tok *oauth2.Token) *endpoint.Signature {
	return &endpoint.Signature{Name: "Authorization", Value: tok.Type() + " " + tok.AccessToken}
}
