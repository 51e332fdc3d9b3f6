package validate

import (
	"context"
	"errors"
	"testing"
	"time"

	"pokestate/internal/apperr"
	"pokestate/internal/player"
	"pokestate/internal/pokemon"
	"pokestate/internal/save"
)

type mockReader struct {
	files map[string]*save.File
}

func (m *mockReader) Get(ctx context.Context, id string) (*save.File, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "save with ID "+id+" not found")
	}
	return f.Clone(), nil
}

func cleanSave(t *testing.T) *save.File {
	t.Helper()
	ps := player.NewStore()
	ash, err := ps.Create(player.Spec{Name: "Ash"})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Pikachu", "Bulbasaur"} {
		if _, err := ps.AddTeamMember(ash.ID, pokemon.Spec{Name: name, Level: 5, Types: []string{"normal"}, BaseStats: pokemon.BaseStats{HP: 40}}); err != nil {
			t.Fatal(err)
		}
	}
	b, _ := ps.StartBattle(ash.ID, "npc_1", "Gary")
	if _, err := ps.ConcludeBattle(ash.ID, b.ID, "win"); err != nil {
		t.Fatal(err)
	}
	b, _ = ps.StartBattle(ash.ID, "npc_1", "Gary")
	if _, err := ps.ConcludeBattle(ash.ID, b.ID, "draw"); err != nil {
		t.Fatal(err)
	}
	ps.StartBattle(ash.ID, "npc_2", "Brock")
	ps.Create(player.Spec{Name: "Misty"})

	now := time.Now().UTC()
	return &save.File{ID: "save_1", Name: "test", CreatedAt: now, LastUpdated: now, Players: ps.All()}
}

func codes(r *Report) []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.Code)
	}
	return out
}

func TestCheck_CleanSave(t *testing.T) {
	report := Check(cleanSave(t))
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatal("expected HasErrors false")
	}
}

func TestCheck_Violations(t *testing.T) {
	tests := []struct {
		name     string
		corrupt  func(f *save.File)
		wantCode string
		severity Severity
	}{
		{
			name:     "duplicate player id",
			corrupt:  func(f *save.File) { f.Players[1].ID = f.Players[0].ID },
			wantCode: codeDuplicatePlayer,
			severity: SeverityError,
		},
		{
			name: "team too large",
			corrupt: func(f *save.File) {
				p := f.Players[0]
				for i := 0; i < 5; i++ {
					p.Team = append(p.Team, &pokemon.Pokemon{ID: 10 + i, Name: "Rattata", MaxHP: 30, CurrentHP: 30})
				}
				p.NextPokemonID = 20
			},
			wantCode: codeTeamTooLarge,
			severity: SeverityError,
		},
		{
			name:     "duplicate pokemon id",
			corrupt:  func(f *save.File) { f.Players[0].Team[1].ID = f.Players[0].Team[0].ID },
			wantCode: codeDuplicatePokemon,
			severity: SeverityError,
		},
		{
			name:     "stale next pokemon id",
			corrupt:  func(f *save.File) { f.Players[0].NextPokemonID = 2 },
			wantCode: codeStalePokemonID,
			severity: SeverityError,
		},
		{
			name: "invalid result",
			corrupt: func(f *save.File) {
				r := player.Result("tie")
				f.Players[0].BattleHistory[0].Result = &r
				f.Players[0].MatchupRecords["npc_1"].Wins = 0
			},
			wantCode: codeInvalidResult,
			severity: SeverityError,
		},
		{
			name:     "concluded without end time",
			corrupt:  func(f *save.File) { f.Players[0].BattleHistory[0].EndTime = nil },
			wantCode: codeEndTimeMismatch,
			severity: SeverityError,
		},
		{
			name:     "matchup count off",
			corrupt:  func(f *save.File) { f.Players[0].MatchupRecords["npc_1"].Wins = 3 },
			wantCode: codeMatchupMismatch,
			severity: SeverityError,
		},
		{
			name: "matchup without battles",
			corrupt: func(f *save.File) {
				misty := f.Players[1]
				if misty.MatchupRecords == nil {
					misty.MatchupRecords = map[string]*player.MatchupRecord{}
				}
				misty.MatchupRecords["npc_9"] = &player.MatchupRecord{OpponentID: "npc_9", Losses: 1}
			},
			wantCode: codeMatchupMismatch,
			severity: SeverityError,
		},
		{
			name:     "player timestamps",
			corrupt:  func(f *save.File) { f.Players[0].LastUpdated = f.Players[0].CreatedAt.Add(-time.Hour) },
			wantCode: codeTimestampOrder,
			severity: SeverityWarn,
		},
		{
			name:     "hp above max",
			corrupt:  func(f *save.File) { f.Players[0].Team[0].CurrentHP = 999 },
			wantCode: codeHPOutOfRange,
			severity: SeverityWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cleanSave(t)
			tt.corrupt(f)
			report := Check(f)
			if len(report.Issues) != 1 {
				t.Fatalf("expected exactly one issue, got %v", codes(report))
			}
			issue := report.Issues[0]
			if issue.Code != tt.wantCode || issue.Severity != tt.severity {
				t.Fatalf("expected %s/%s, got %s/%s", tt.wantCode, tt.severity, issue.Code, issue.Severity)
			}
			if issue.PlayerID == "" {
				t.Fatal("expected issue to name the player")
			}
			if report.HasErrors() != (tt.severity == SeverityError) {
				t.Fatalf("HasErrors mismatch for %s", tt.severity)
			}
		})
	}
}

func TestCheck_SaveTimestamps(t *testing.T) {
	f := cleanSave(t)
	f.LastUpdated = f.CreatedAt.Add(-time.Minute)
	report := Check(f)
	if report.Count(SeverityWarn) != 1 || report.Issues[0].PlayerID != "" {
		t.Fatalf("expected one save-level warning, got %v", report.Issues)
	}
}

func TestRun(t *testing.T) {
	reader := &mockReader{files: map[string]*save.File{"save_1": cleanSave(t)}}

	report, err := Run(context.Background(), reader, "save_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.SaveID != "save_1" || len(report.Issues) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	_, err = Run(context.Background(), reader, "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := Run(context.Background(), nil, "save_1"); err == nil {
		t.Fatal("expected error for nil reader")
	}
}
