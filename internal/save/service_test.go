package save_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"pokestate/internal/apperr"
	"pokestate/internal/player"
	"pokestate/internal/pokemon"
	"pokestate/internal/save"
	"pokestate/internal/save/filestore"
)

type mockStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	putErr error
}

func newMockStore() *mockStore {
	return &mockStore{docs: map[string][]byte{}}
}

func (m *mockStore) Close(ctx context.Context) error        { return nil }
func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *mockStore) Put(ctx context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.docs[id] = append([]byte(nil), doc...)
	return nil
}

func (m *mockStore) Get(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "save with ID "+id+" not found")
	}
	return append([]byte(nil), doc...), nil
}

func (m *mockStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	return ok, nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return apperr.New(apperr.CodeNotFound, "save with ID "+id+" not found")
	}
	delete(m.docs, id)
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newClock() *tickClock {
	return &tickClock{now: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
}

// populatedStore builds Ash with a team, a thought, a concluded battle and a
// matchup record.
func populatedStore(t *testing.T) *player.Store {
	t.Helper()
	clock := newClock()
	ps := player.NewStore(player.WithClock(clock.Now))
	desc := "Starting town"
	ash, err := ps.Create(player.Spec{
		Name:     "Ash",
		Location: player.Location{Path: []string{"Kanto", "Pallet Town"}, Description: &desc, Accessible: [][]string{{"Kanto", "Route 1"}}},
		Items:    []string{"Potion"},
		Badges:   []string{"Boulder"},
	})
	if err != nil {
		t.Fatal(err)
	}
	item := "Oran Berry"
	if _, err := ps.AddTeamMember(ash.ID, pokemon.Spec{
		Name: "Squirtle", Level: 5, Types: []string{"water"}, HeldItem: &item,
		Abilities: []pokemon.Ability{{Name: "Torrent"}},
		BaseStats: pokemon.BaseStats{HP: 44, Attack: 48, Defense: 65, SpecialAttack: 50, SpecialDefense: 64, Speed: 43},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := ps.AppendThought(ash.ID, "Brock uses rock types", "strategy", map[string]any{"gym": "Pewter"}); err != nil {
		t.Fatal(err)
	}
	b, err := ps.StartBattle(ash.ID, "npc_1", "Gary")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ps.ConcludeBattle(ash.ID, b.ID, "loss"); err != nil {
		t.Fatal(err)
	}
	if _, err := ps.StartBattle(ash.ID, "npc_2", "Brock"); err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Create(player.Spec{Name: "Misty"}); err != nil {
		t.Fatal(err)
	}
	return ps
}

func TestCreateLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	ps := populatedStore(t)

	backends := map[string]func(t *testing.T) save.Store{
		"mock": func(t *testing.T) save.Store { return newMockStore() },
		"filestore": func(t *testing.T) save.Store {
			fs, err := filestore.New(filepath.Join(t.TempDir(), "saves"))
			if err != nil {
				t.Fatal(err)
			}
			return fs
		},
	}
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			svc := save.NewService(newStore(t), save.WithClock(newClock().Now))
			players := ps.All()

			f, err := svc.Create(ctx, "Route 1", "", players)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if f.GameVersion != save.DefaultGameVersion {
				t.Fatalf("expected default game version, got %q", f.GameVersion)
			}

			loaded, err := svc.Load(ctx, f.ID)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(loaded, players) {
				a, _ := json.Marshal(players)
				b, _ := json.Marshal(loaded)
				t.Fatalf("loaded players differ\nwant %s\ngot  %s", a, b)
			}
		})
	}
}

func TestSaveIsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	ps := populatedStore(t)
	svc := save.NewService(newMockStore(), save.WithClock(newClock().Now))

	f, err := svc.Create(ctx, "Before Brock", "", ps.All())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ps.AddTeamMember("player_1", pokemon.Spec{Name: "Pikachu", Level: 5, Types: []string{"electric"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Delete("player_2"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Players) != 2 || len(got.Players[0].Team) != 1 {
		t.Fatalf("save followed live store: %d players, team %d", len(got.Players), len(got.Players[0].Team))
	}
}

func TestCreateValidation(t *testing.T) {
	svc := save.NewService(newMockStore())
	if _, err := svc.Create(context.Background(), "  ", "", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIDFormat(t *testing.T) {
	svc := save.NewService(newMockStore(), save.WithClock(func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC)
	}))
	a, _ := svc.Create(context.Background(), "a", "", nil)
	b, _ := svc.Create(context.Background(), "b", "", nil)

	if !strings.HasPrefix(a.ID, "save_20240301093005_") || len(a.ID) != len("save_20240301093005_")+8 {
		t.Fatalf("unexpected id %s", a.ID)
	}
	if a.ID == b.ID {
		t.Fatalf("same-second saves collided: %s", a.ID)
	}
}

func TestListOrderAndUnparsable(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := save.NewService(store, save.WithClock(newClock().Now))

	first, _ := svc.Create(ctx, "first", "", nil)
	second, _ := svc.Create(ctx, "second", "", nil)
	store.Put(ctx, "broken", []byte("{not json"))

	if _, err := svc.Update(ctx, first.ID, nil); err != nil {
		t.Fatal(err)
	}

	summaries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected broken save to be skipped, got %d", len(summaries))
	}
	if summaries[0].ID != first.ID || summaries[1].ID != second.ID {
		t.Fatalf("expected most recently updated first, got %s, %s", summaries[0].ID, summaries[1].ID)
	}

	_, err = svc.Get(ctx, "broken")
	if apperr.CodeOf(err) != apperr.CodeUnparsable || !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected unparsable, got %v", err)
	}
}

func TestMissingSave(t *testing.T) {
	ctx := context.Background()
	svc := save.NewService(newMockStore())

	tests := []struct {
		name string
		fn   func() error
	}{
		{"get", func() error { _, err := svc.Get(ctx, "nope"); return err }},
		{"update", func() error { _, err := svc.Update(ctx, "nope", nil); return err }},
		{"delete", func() error { return svc.Delete(ctx, "nope") }},
		{"load", func() error { _, err := svc.Load(ctx, "nope"); return err }},
		{"backup", func() error { _, err := svc.Backup(ctx, "nope"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestUpdateRefreshesLastUpdated(t *testing.T) {
	ctx := context.Background()
	ps := populatedStore(t)
	svc := save.NewService(newMockStore(), save.WithClock(newClock().Now))

	f, _ := svc.Create(ctx, "slot", "", nil)
	updated, err := svc.Update(ctx, f.ID, ps.All())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Players) != 2 {
		t.Fatalf("players not replaced")
	}
	if !updated.LastUpdated.After(f.LastUpdated) || !updated.CreatedAt.Equal(f.CreatedAt) {
		t.Fatalf("timestamps wrong: created %v/%v updated %v/%v", f.CreatedAt, updated.CreatedAt, f.LastUpdated, updated.LastUpdated)
	}
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	ps := populatedStore(t)
	store := newMockStore()
	svc := save.NewService(store, save.WithClock(newClock().Now))

	f, _ := svc.Create(ctx, "main", "", ps.All())
	backupID, err := svc.Backup(ctx, f.ID)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !strings.HasPrefix(backupID, f.ID+"_backup_") {
		t.Fatalf("unexpected backup id %s", backupID)
	}

	backup, err := svc.Get(ctx, backupID)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if backup.ID != backupID || backup.Name != f.Name {
		t.Fatalf("unexpected backup header %+v", backup.Summary())
	}
	if !reflect.DeepEqual(backup.Players, f.Players) {
		t.Fatalf("backup players differ from original")
	}

	if err := svc.Delete(ctx, f.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, backupID); err != nil {
		t.Fatalf("backup depends on original: %v", err)
	}
}

func TestBackupSameSecond(t *testing.T) {
	ctx := context.Background()
	svc := save.NewService(newMockStore(), save.WithClock(func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC)
	}))

	f, err := svc.Create(ctx, "main", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := svc.Backup(ctx, f.ID)
	if err != nil {
		t.Fatalf("first backup: %v", err)
	}
	second, err := svc.Backup(ctx, f.ID)
	if err != nil {
		t.Fatalf("second backup: %v", err)
	}
	if first == second {
		t.Fatalf("same-second backups collided: %s", first)
	}
	for _, id := range []string{first, second} {
		if !strings.HasPrefix(id, f.ID+"_backup_20240301093005_") {
			t.Fatalf("unexpected backup id %s", id)
		}
		if _, err := svc.Get(ctx, id); err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
	}
}

func TestLoadRestoresRenamedPlayer(t *testing.T) {
	ctx := context.Background()
	ps := populatedStore(t)
	svc := save.NewService(newMockStore(), save.WithClock(newClock().Now))

	f, err := svc.Create(ctx, "before rename", "", ps.All())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Update("player_1", player.UpdateSpec{Name: "Red"}); err != nil {
		t.Fatal(err)
	}

	loaded, err := svc.Load(ctx, f.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ps.Replace(loaded)

	p, err := ps.Get("player_1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Ash" {
		t.Fatalf("expected restored name Ash, got %q", p.Name)
	}
}

func TestStorageFailure(t *testing.T) {
	store := newMockStore()
	store.putErr = fmt.Errorf("disk full")
	svc := save.NewService(store)

	_, err := svc.Create(context.Background(), "x", "", nil)
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
