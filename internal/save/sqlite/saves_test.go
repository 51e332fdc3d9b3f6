package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pokestate/internal/apperr"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema (idempotent): %v", err)
	}
	return c
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)

	doc := []byte(`{"id":"save_1","players":[]}`)
	if err := c.Put(ctx, "save_1", doc); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := c.Get(ctx, "save_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(doc) {
		t.Fatalf("got %s, want %s", got, doc)
	}

	updated := []byte(`{"id":"save_1","players":[{}]}`)
	if err := c.Put(ctx, "save_1", updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = c.Get(ctx, "save_1")
	if string(got) != string(updated) {
		t.Fatalf("upsert not applied: %s", got)
	}
}

func TestMissingSave(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)

	if _, err := c.Get(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if err := c.Delete(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
	ok, err := c.Exists(ctx, "nope")
	if err != nil || ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)

	for _, id := range []string{"save_c", "save_a", "save_b"} {
		if err := c.Put(ctx, id, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Delete(ctx, "save_b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ids, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"save_a", "save_c"}) {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestSplitStatements(t *testing.T) {
	ddl := `
	-- comment
	CREATE TABLE a (id INTEGER);
	CREATE INDEX idx ON a (id);
	`
	var stmts []string
	for _, stmt := range splitStatements(ddl) {
		if strings.TrimSpace(stmt) != "" {
			stmts = append(stmts, strings.TrimSpace(stmt))
		}
	}
	want := []string{"CREATE TABLE a (id INTEGER);", "CREATE INDEX idx ON a (id);"}
	if !reflect.DeepEqual(stmts, want) {
		t.Fatalf("got %q, want %q", stmts, want)
	}
}
