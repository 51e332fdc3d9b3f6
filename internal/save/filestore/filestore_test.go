package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pokestate/internal/apperr"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "saves"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return c
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)

	if err := c.Put(ctx, "save_1", []byte(`{"id":"save_1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := c.Get(ctx, "save_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"id":"save_1"}` {
		t.Fatalf("unexpected document %s", got)
	}

	if err := c.Put(ctx, "save_1", []byte(`{"id":"save_1","v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = c.Get(ctx, "save_1")
	if string(got) != `{"id":"save_1","v":2}` {
		t.Fatalf("overwrite not visible: %s", got)
	}

	ok, err := c.Exists(ctx, "save_1")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
	if err := c.Delete(ctx, "save_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "save_1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := c.Delete(ctx, "save_1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListSkipsTempAndForeignFiles(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)

	for _, id := range []string{"save_b", "save_a"} {
		if err := c.Put(ctx, id, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(c.Dir(), ".save_c.123.tmp"), []byte("partial"), 0o644)
	os.WriteFile(filepath.Join(c.Dir(), "notes.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(c.Dir(), "nested.json"), 0o755)

	ids, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"save_a", "save_b"}) {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestListMissingDirectory(t *testing.T) {
	c, _ := New(filepath.Join(t.TempDir(), "absent"))
	ids, err := c.List(context.Background())
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected empty list, got %v, %v", ids, err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)
	for _, id := range []string{"../escape", "a/b", "", ".hidden"} {
		if _, err := c.Get(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("id %q: expected not found, got %v", id, err)
		}
		if err := c.Put(ctx, id, []byte(`{}`)); err == nil {
			t.Errorf("id %q: expected put to fail", id)
		}
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	c := testClient(t)
	c.Put(ctx, "save_1", []byte(`{}`))

	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 1 || entries[0].Name() != "save_1.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents %v", names)
	}
}
