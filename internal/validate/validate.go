// Package validate checks a save file against the invariants the player
// store maintains, so hand-edited or legacy saves can be vetted before load.
package validate

import (
	"context"
	"fmt"
	"sort"

	"pokestate/internal/player"
	"pokestate/internal/save"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDuplicatePlayer  = "duplicate_player_id"
	codeTeamTooLarge     = "team_too_large"
	codeDuplicatePokemon = "duplicate_pokemon_id"
	codeStalePokemonID   = "next_pokemon_id_stale"
	codeInvalidResult    = "invalid_battle_result"
	codeEndTimeMismatch  = "end_time_mismatch"
	codeMatchupMismatch  = "matchup_mismatch"
	codeTimestampOrder   = "timestamp_order"
	codeHPOutOfRange     = "hp_out_of_range"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	PlayerID string
}

type Report struct {
	SaveID string
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// SaveReader is the part of save.Service needed to fetch a save.
type SaveReader interface {
	Get(ctx context.Context, id string) (*save.File, error)
}

func Run(ctx context.Context, saves SaveReader, id string) (*Report, error) {
	if saves == nil {
		return nil, fmt.Errorf("save reader is required")
	}
	f, err := saves.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get save %s: %w", id, err)
	}
	return Check(f), nil
}

func Check(f *save.File) *Report {
	report := &Report{SaveID: f.ID, Issues: make([]Issue, 0)}
	if f.LastUpdated.Before(f.CreatedAt) {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarn,
			Code:     codeTimestampOrder,
			Message:  "save last_updated is before created_at",
		})
	}

	seen := make(map[string]bool, len(f.Players))
	for _, p := range f.Players {
		if p == nil {
			continue
		}
		if seen[p.ID] {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicatePlayer,
				Message:  fmt.Sprintf("player id %s appears more than once", p.ID),
				PlayerID: p.ID,
			})
		}
		seen[p.ID] = true

		report.Issues = append(report.Issues, validateTeam(p)...)
		report.Issues = append(report.Issues, validateBattles(p)...)
		report.Issues = append(report.Issues, validateMatchups(p)...)
		if p.LastUpdated.Before(p.CreatedAt) {
			report.Issues = append(report.Issues, issue(p, SeverityWarn, codeTimestampOrder, "last_updated is before created_at"))
		}
	}
	return report
}

func validateTeam(p *player.Player) []Issue {
	var issues []Issue
	if len(p.Team) > player.MaxTeamSize {
		issues = append(issues, issue(p, SeverityError, codeTeamTooLarge,
			fmt.Sprintf("team has %d members, limit is %d", len(p.Team), player.MaxTeamSize)))
	}
	ids := make(map[int]bool, len(p.Team))
	for _, member := range p.Team {
		if ids[member.ID] {
			issues = append(issues, issue(p, SeverityError, codeDuplicatePokemon,
				fmt.Sprintf("pokemon id %d is used more than once", member.ID)))
		}
		ids[member.ID] = true
		if member.ID >= p.NextPokemonID {
			issues = append(issues, issue(p, SeverityError, codeStalePokemonID,
				fmt.Sprintf("pokemon id %d is not below next_pokemon_id %d", member.ID, p.NextPokemonID)))
		}
		if member.CurrentHP < 0 || member.CurrentHP > member.MaxHP {
			issues = append(issues, issue(p, SeverityWarn, codeHPOutOfRange,
				fmt.Sprintf("%s has current_hp %d outside 0..%d", member.Name, member.CurrentHP, member.MaxHP)))
		}
	}
	return issues
}

func validateBattles(p *player.Player) []Issue {
	var issues []Issue
	for _, b := range p.BattleHistory {
		if b.Result != nil {
			if _, err := player.ParseResult(string(*b.Result)); err != nil {
				issues = append(issues, issue(p, SeverityError, codeInvalidResult,
					fmt.Sprintf("battle %s has invalid result %q", b.ID, *b.Result)))
			}
		}
		if (b.Result == nil) != (b.EndTime == nil) {
			issues = append(issues, issue(p, SeverityError, codeEndTimeMismatch,
				fmt.Sprintf("battle %s must have end_time exactly when it has a result", b.ID)))
		}
	}
	return issues
}

type tally struct {
	wins, losses, draws int
}

// validateMatchups recomputes per-opponent records from concluded battles
// and compares them with the stored records.
func validateMatchups(p *player.Player) []Issue {
	expected := make(map[string]*tally)
	for _, b := range p.BattleHistory {
		if b.Result == nil {
			continue
		}
		t := expected[b.OpponentID]
		if t == nil {
			t = &tally{}
			expected[b.OpponentID] = t
		}
		switch *b.Result {
		case player.ResultWin:
			t.wins++
		case player.ResultLoss:
			t.losses++
		case player.ResultDraw:
			t.draws++
		}
	}

	opponents := make(map[string]bool, len(expected)+len(p.MatchupRecords))
	for id := range expected {
		opponents[id] = true
	}
	for id := range p.MatchupRecords {
		opponents[id] = true
	}
	keys := make([]string, 0, len(opponents))
	for id := range opponents {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	var issues []Issue
	for _, id := range keys {
		want := tally{}
		if t := expected[id]; t != nil {
			want = *t
		}
		got := tally{}
		if r := p.MatchupRecords[id]; r != nil {
			got = tally{wins: r.Wins, losses: r.Losses, draws: r.Draws}
		}
		if got != want {
			issues = append(issues, issue(p, SeverityError, codeMatchupMismatch,
				fmt.Sprintf("matchup against %s is %d/%d/%d but battles give %d/%d/%d",
					id, got.wins, got.losses, got.draws, want.wins, want.losses, want.draws)))
		}
	}
	return issues
}

func issue(p *player.Player, severity Severity, code, message string) Issue {
	return Issue{Severity: severity, Code: code, Message: message, PlayerID: p.ID}
}
