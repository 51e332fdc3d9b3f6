package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pokestate/internal/player"
	"pokestate/internal/save"
)

type mockSaver struct {
	calls       int
	lastName    string
	lastVersion string
	lastPlayers []*player.Player
	err         error
}

func (m *mockSaver) Create(ctx context.Context, name, gameVersion string, players []*player.Player) (*save.File, error) {
	m.calls++
	m.lastName = name
	m.lastVersion = gameVersion
	m.lastPlayers = players
	if m.err != nil {
		return nil, m.err
	}
	return &save.File{ID: "save_1", Name: name, GameVersion: gameVersion, Players: players}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_kanto.yaml"), `players:
  - name: Ash
    team:
      - {name: Pikachu, level: 5, types: [electric]}
  - name: Misty
`)
	writeFile(t, filepath.Join(dir, "b_johto.yml"), "name: Gold\n")
	writeFile(t, filepath.Join(dir, "notes.md"), "not a roster")
	writeFile(t, filepath.Join(dir, "drafts", "c.yaml"), "name: Draft\n")

	saver := &mockSaver{}
	result, err := Run(context.Background(), saver, []string{dir}, Options{
		Name:        "League",
		GameVersion: "HGSS",
		Exclude:     []string{filepath.Join(dir, "drafts")},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.FilesRead != 2 || result.PlayersCreated != 3 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if saver.lastName != "League" || saver.lastVersion != "HGSS" {
		t.Errorf("unexpected save header %q %q", saver.lastName, saver.lastVersion)
	}

	var names, ids []string
	for _, p := range saver.lastPlayers {
		names = append(names, p.Name)
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(names, []string{"Ash", "Misty", "Gold"}) {
		t.Errorf("unexpected player order %v", names)
	}
	if !reflect.DeepEqual(ids, []string{"player_1", "player_2", "player_3"}) {
		t.Errorf("unexpected player ids %v", ids)
	}
	if len(saver.lastPlayers[0].Team) != 1 || saver.lastPlayers[0].Team[0].ID != 1 {
		t.Errorf("expected Pikachu with id 1, got %+v", saver.lastPlayers[0].Team)
	}
	if result.Save == nil || result.Save.ID != "save_1" {
		t.Errorf("expected save in result")
	}
}

func TestRun_ExplicitFileAnyExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.txt")
	writeFile(t, path, "name: Ash\n")

	saver := &mockSaver{}
	result, err := Run(context.Background(), saver, []string{path}, Options{Name: "x"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.PlayersCreated != 1 {
		t.Fatalf("expected 1 player, got %d", result.PlayersCreated)
	}
}

func TestRun_PartialFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.yaml"), "name: Ash\n")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "players: [\n")
	writeFile(t, filepath.Join(dir, "empty.yaml"), "")

	saver := &mockSaver{}
	result, err := Run(context.Background(), saver, []string{dir}, Options{Name: "x"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.PlayersCreated != 1 || result.FilesSkipped != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRun_NoPlayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "players: [\n")

	saver := &mockSaver{}
	_, err := Run(context.Background(), saver, []string{dir}, Options{Name: "x"})
	if !errors.Is(err, ErrNoPlayers) {
		t.Fatalf("expected ErrNoPlayers, got %v", err)
	}
	if saver.calls != 0 {
		t.Fatalf("expected no save to be written")
	}
}

func TestRun_Validation(t *testing.T) {
	if _, err := Run(context.Background(), &mockSaver{}, nil, Options{}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := Run(context.Background(), &mockSaver{}, []string{filepath.Join(t.TempDir(), "missing")}, Options{Name: "x"}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestRun_SaveFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.yaml")
	writeFile(t, path, "name: Ash\n")

	saver := &mockSaver{err: errors.New("disk full")}
	result, err := Run(context.Background(), saver, []string{path}, Options{Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if result == nil || result.PlayersCreated != 1 {
		t.Fatalf("expected partial result, got %+v", result)
	}
}
