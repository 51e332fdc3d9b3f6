package player

import (
	"fmt"
	"time"

	"pokestate/internal/apperr"
	"pokestate/internal/pokemon"
)

// Result is the outcome of a concluded battle.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// ParseResult accepts exactly win, loss or draw.
func ParseResult(s string) (Result, error) {
	switch r := Result(s); r {
	case ResultWin, ResultLoss, ResultDraw:
		return r, nil
	default:
		return "", apperr.New(apperr.CodeInvalidResult, fmt.Sprintf("invalid battle result %q: must be one of win, loss, draw", s))
	}
}

// Battle is one entry of a player's battle history. It is in progress while
// Result is nil and concluded once Result is set; it never goes back.
type Battle struct {
	ID           string             `json:"id"`
	OpponentID   string             `json:"opponent_id"`
	OpponentName string             `json:"opponent_name"`
	PlayerTeam   []*pokemon.Pokemon `json:"player_team"`
	OpponentTeam []*pokemon.Pokemon `json:"opponent_team"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      *time.Time         `json:"end_time"`
	Result       *Result            `json:"result"`
	Turns        []map[string]any   `json:"turns"`
}

func (b *Battle) InProgress() bool {
	return b.Result == nil
}

func (b *Battle) Clone() *Battle {
	if b == nil {
		return nil
	}
	c := *b
	c.PlayerTeam = pokemon.CloneTeam(b.PlayerTeam)
	c.OpponentTeam = pokemon.CloneTeam(b.OpponentTeam)
	if b.EndTime != nil {
		end := *b.EndTime
		c.EndTime = &end
	}
	if b.Result != nil {
		r := *b.Result
		c.Result = &r
	}
	c.Turns = make([]map[string]any, 0, len(b.Turns))
	for _, turn := range b.Turns {
		c.Turns = append(c.Turns, cloneMap(turn))
	}
	return &c
}

// conclude moves the battle into its terminal state.
func (b *Battle) conclude(result Result, at time.Time) error {
	if !b.InProgress() {
		return apperr.New(apperr.CodeAlreadyConcluded, fmt.Sprintf("battle %s already concluded with result %s", b.ID, *b.Result))
	}
	end := at
	b.Result = &result
	b.EndTime = &end
	return nil
}

// record applies one concluded battle to the tally.
func (m *MatchupRecord) record(result Result, at time.Time) {
	switch result {
	case ResultWin:
		m.Wins++
	case ResultLoss:
		m.Losses++
	case ResultDraw:
		m.Draws++
	}
	last := at
	m.LastBattle = &last
}

// BattleFilter narrows a battle history listing.
type BattleFilter struct {
	OpponentID string
}

// ThoughtFilter narrows a thought log listing.
type ThoughtFilter struct {
	Category string
}
