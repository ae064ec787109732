package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99designs/keyring"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"

	"github.com/adamwoolhether/apiclient/client/auth"
	"github.com/adamwoolhether/apiclient/client/endpoint"
)

func TestKeyringStore(t *testing.T) {
	ctx := t.Context()
	store := auth.NewKeyringStore(keyring.NewArrayKeyring(nil), "token")

	if _, err := store.Token(ctx); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("exp %v; got: %v", auth.ErrNoToken, err)
	}

	if err := store.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Token(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "abc" {
		t.Errorf("exp abc; got %q", got)
	}

	if err := store.DeleteToken(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteToken(ctx); err != nil {
		t.Fatalf("deleting twice: %v", err)
	}
	if _, err := store.Token(ctx); !errors.Is(err, auth.ErrNoToken) {
		t.Errorf("exp token removed; got: %v", err)
	}
}

func TestOAuth2Delegate_OnUnauthorized(t *testing.T) {
	var gotRefresh string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotRefresh = r.PostForm.Get("refresh_token")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh",
			"token_type":    "bearer",
			"refresh_token": "r2",
			"expires_in":    3600,
		})
	}))
	defer ts.Close()

	store := auth.NewKeyringStore(keyring.NewArrayKeyring(nil), "oauth")
	cfg := &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{TokenURL: ts.URL, AuthStyle: oauth2.AuthStyleInParams}}
	d := auth.NewOAuth2Delegate(cfg, store, nil)

	if err := d.SaveToken(t.Context(), &oauth2.Token{AccessToken: "stale", TokenType: "Bearer", RefreshToken: "r1"}); err != nil {
		t.Fatal(err)
	}

	sig, err := d.OnUnauthorized(t.Context(), "/me").Result()
	if err != nil {
		t.Fatalf("re-authorize: %v", err)
	}

	if gotRefresh != "r1" {
		t.Errorf("exp refresh with r1; got %q", gotRefresh)
	}
	if diff := cmp.Diff(&endpoint.Signature{Name: "Authorization", Value: "Bearer fresh"}, sig); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}

	stored, err := d.Signature(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if stored.Value != "Bearer fresh" {
		t.Errorf("exp refreshed token persisted; got %q", stored.Value)
	}
}

func TestOAuth2Delegate_NoRefreshToken(t *testing.T) {
	store := auth.NewKeyringStore(keyring.NewArrayKeyring(nil), "oauth")
	d := auth.NewOAuth2Delegate(&oauth2.Config{}, store, nil)

	if err := d.OnUnauthorized(t.Context(), "/me").Err(); !errors.Is(err, auth.ErrNoToken) {
		t.Errorf("exp %v; got: %v", auth.ErrNoToken, err)
	}

	if err := d.SaveToken(context.Background(), &oauth2.Token{AccessToken: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := d.OnUnauthorized(t.Context(), "/me").Err(); !errors.Is(err, auth.ErrNoRefreshToken) {
		t.Errorf("exp %v; got: %v", auth.ErrNoRefreshToken, err)
	}
}
