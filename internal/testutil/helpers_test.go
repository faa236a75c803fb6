package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/TimurManjosov/odegate/internal/store"
)

func TestNewTestServer(t *testing.T) {
	env := NewTestServer(t)

	if env.Server == nil || env.Handler == nil {
		t.Fatal("Expected non-nil server and handler")
	}
	if env.Store == nil || env.Hub == nil || env.Sessions == nil {
		t.Fatal("Expected wired collaborators")
	}
}

func TestHTTPRequest_Do(t *testing.T) {
	env := NewTestServer(t)

	rr := (&HTTPRequest{Method: http.MethodGet, Path: "/healthz"}).Do(t, env.Handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rr.Body.String())
	}
}

func TestToken_ResolvesToUser(t *testing.T) {
	env := NewTestServer(t)

	rr := (&HTTPRequest{
		Method:  http.MethodGet,
		Path:    "/v1/me/progress",
		Headers: Bearer(env.Token(t, "alice")),
	}).Do(t, env.Handler)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var p store.Progress
	DecodeJSON(t, rr, &p)
	if p.UserID != "alice" {
		t.Errorf("Expected progress for alice, got %+v", p)
	}
}

func TestSeedItems(t *testing.T) {
	env := NewTestServer(t)
	ctx := context.Background()

	err := SeedItems(ctx, env.Store, []store.UpsertParams{
		{ID: "b1", Kind: store.KindButton, ChapterID: "c1", Title: "One", Env: Env},
		{ID: "b2", Kind: store.KindButton, ChapterID: "c1", Title: "Two", Env: Env, Position: 1},
	})
	if err != nil {
		t.Fatalf("SeedItems() error = %v", err)
	}

	items, err := env.Store.ListItems(ctx, Env, "c1", store.KindButton)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(items))
	}
}
