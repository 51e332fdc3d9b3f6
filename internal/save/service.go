package save

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pokestate/internal/apperr"
	"pokestate/internal/logger"
	"pokestate/internal/metrics"
	"pokestate/internal/player"
)

const idTimeLayout = "20060102150405"

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// Service implements snapshot and restore on top of a Store backend.
type Service struct {
	mu      sync.Mutex
	store   Store
	clock   func() time.Time
	log     *logger.Logger
	metrics *metrics.Collector
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Round(0)
}

// Create snapshots players under a fresh id. The save owns deep copies so
// later changes to the live store do not reach it.
func (s *Service) Create(ctx context.Context, name, gameVersion string, players []*player.Player) (*File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeValidation, "save name is required")
	}
	if strings.TrimSpace(gameVersion) == "" {
		gameVersion = DefaultGameVersion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	f := &File{
		ID:          newID(now),
		Name:        name,
		GameVersion: gameVersion,
		CreatedAt:   now,
		LastUpdated: now,
		Players:     player.CloneAll(players),
	}
	if err := s.write(ctx, f); err != nil {
		return nil, err
	}
	s.log.Event("save_created", f.ID, fmt.Sprintf("%s (%d players)", f.Name, len(f.Players)))
	return f.Clone(), nil
}

// List returns summaries of every readable save, most recently updated
// first. Documents that fail to parse are skipped.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "listing saves", err)
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		f, err := s.read(ctx, id)
		if err != nil {
			s.log.Warnf("skipping save %s: %v", id, err)
			continue
		}
		out = append(out, f.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, id)
}

// Update overwrites the players of an existing save.
func (s *Service) Update(ctx context.Context, id string, players []*player.Player) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Players = player.CloneAll(players)
	now := s.now()
	if now.Before(f.CreatedAt) {
		now = f.CreatedAt
	}
	f.LastUpdated = now
	if err := s.write(ctx, f); err != nil {
		return nil, err
	}
	s.log.Event("save_updated", f.ID, fmt.Sprintf("%d players", len(f.Players)))
	return f.Clone(), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return err
		}
		return apperr.Wrap(apperr.CodeStorage, fmt.Sprintf("deleting save %s", id), err)
	}
	s.log.Event("save_deleted", id, "")
	return nil
}

// Load returns the players stored in a save. Callers replace the live store
// with the result.
func (s *Service) Load(ctx context.Context, id string) ([]*player.Player, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.Players, nil
}

// Backup copies a save byte for byte to <id>_backup_<timestamp>_<suffix>.
// Only the embedded id is rewritten so the backup is a self-consistent save.
func (s *Service) Backup(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, id)
	s.metrics.RecordSaveRead(err)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return "", err
		}
		return "", apperr.Wrap(apperr.CodeStorage, fmt.Sprintf("reading save %s", id), err)
	}

	backupID := fmt.Sprintf("%s_backup_%s_%s", id, s.now().Format(idTimeLayout), uuid.NewString()[:8])
	doc, err := rewriteID(raw, backupID)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUnparsable, fmt.Sprintf("save %s is not a valid document", id), err)
	}
	err = s.store.Put(ctx, backupID, doc)
	s.metrics.RecordSaveWrite(err)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeStorage, fmt.Sprintf("writing backup %s", backupID), err)
	}
	s.log.Event("save_backed_up", id, backupID)
	return backupID, nil
}

func (s *Service) read(ctx context.Context, id string) (*File, error) {
	raw, err := s.store.Get(ctx, id)
	s.metrics.RecordSaveRead(err)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CodeStorage, fmt.Sprintf("reading save %s", id), err)
	}
	f, err := Decode(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnparsable, fmt.Sprintf("save %s could not be parsed", id), err)
	}
	f.ID = id
	return f, nil
}

func (s *Service) write(ctx context.Context, f *File) error {
	doc, err := Encode(f)
	if err != nil {
		return apperr.Wrap(apperr.CodeStorage, fmt.Sprintf("encoding save %s", f.ID), err)
	}
	err = s.store.Put(ctx, f.ID, doc)
	s.metrics.RecordSaveWrite(err)
	if err != nil {
		return apperr.Wrap(apperr.CodeStorage, fmt.Sprintf("writing save %s", f.ID), err)
	}
	return nil
}

// Encode renders a save as its persisted JSON document.
func Encode(f *File) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Decode parses a persisted document and fills collections older documents
// may omit.
func Decode(doc []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(doc, &f); err != nil {
		return nil, err
	}
	if f.Players == nil {
		f.Players = []*player.Player{}
	}
	if f.GameVersion == "" {
		f.GameVersion = DefaultGameVersion
	}
	return &f, nil
}

func newID(now time.Time) string {
	return fmt.Sprintf("save_%s_%s", now.Format(idTimeLayout), uuid.NewString()[:8])
}

func rewriteID(raw []byte, id string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	doc["id"] = encoded
	return json.MarshalIndent(doc, "", "  ")
}
