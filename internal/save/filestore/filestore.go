// Package filestore keeps each save as <id>.json in one directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pokestate/internal/apperr"
	"pokestate/internal/save"
)

var _ save.Store = (*Client)(nil)

const ext = ".json"

type Client struct {
	dir string
}

func New(dir string) (*Client, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("saves directory is required")
	}
	return &Client{dir: dir}, nil
}

func (c *Client) Dir() string {
	return c.dir
}

func (c *Client) Close(ctx context.Context) error {
	return nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating saves directory: %w", err)
	}
	return nil
}

// Put writes doc to a temp file in the same directory and renames it over
// the target, so readers never observe a partial document.
func (c *Client) Put(ctx context.Context, id string, doc []byte) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating saves directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	path, err := c.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	path, err := c.path(id)
	if err != nil {
		return false, nil
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", filepath.Base(path), err)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(id)
		}
		return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// List returns the ids of all *.json files, sorted. A missing directory is
// an empty listing.
func (c *Client) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading saves directory: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// path rejects ids that would escape the saves directory.
func (c *Client) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", notFound(id)
	}
	return filepath.Join(c.dir, id+ext), nil
}

func notFound(id string) error {
	return apperr.New(apperr.CodeNotFound, fmt.Sprintf("save with ID %s not found", id))
}
