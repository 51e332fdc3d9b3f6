// Package player holds the player entity graph (team, location, thoughts,
// battles, matchup records) and the in-process store that owns it.
package player

import (
	"sort"
	"strings"
	"time"

	"pokestate/internal/pokemon"
)

// MaxTeamSize is the hard cap on a player's active roster.
const MaxTeamSize = 6

const DefaultThoughtCategory = "general"

// Location is a hierarchical place such as region, city, sub-area. Accessible
// paths are free-form and not validated against each other.
type Location struct {
	Path        []string   `json:"location_tuple" yaml:"location_tuple"`
	Description *string    `json:"description" yaml:"description"`
	Accessible  [][]string `json:"accessible_locations" yaml:"accessible_locations"`
}

func (l Location) Clone() Location {
	out := Location{
		Path:       append([]string{}, l.Path...),
		Accessible: make([][]string, 0, len(l.Accessible)),
	}
	if l.Description != nil {
		d := *l.Description
		out.Description = &d
	}
	for _, path := range l.Accessible {
		out.Accessible = append(out.Accessible, append([]string{}, path...))
	}
	return out
}

// Thought is one immutable entry in a player's thought log.
type Thought struct {
	Content   string         `json:"content"`
	Category  string         `json:"category"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context"`
}

func (t Thought) Clone() Thought {
	t.Context = cloneMap(t.Context)
	return t
}

// MatchupRecord is the running tally against one opponent.
type MatchupRecord struct {
	OpponentID   string     `json:"opponent_id"`
	OpponentName string     `json:"opponent_name"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Draws        int        `json:"draws"`
	LastBattle   *time.Time `json:"last_battle"`
}

func (m *MatchupRecord) Total() int {
	return m.Wins + m.Losses + m.Draws
}

func (m *MatchupRecord) Clone() *MatchupRecord {
	if m == nil {
		return nil
	}
	c := *m
	if m.LastBattle != nil {
		lb := *m.LastBattle
		c.LastBattle = &lb
	}
	return &c
}

// Player is the central entity. Everything it references is owned by it and
// is deleted with it.
type Player struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Team           []*pokemon.Pokemon        `json:"team"`
	Location       Location                  `json:"location"`
	ThoughtHistory []Thought                 `json:"thought_history"`
	BattleHistory  []*Battle                 `json:"battle_history"`
	MatchupRecords map[string]*MatchupRecord `json:"matchup_records"`
	Items          []string                  `json:"items"`
	Badges         []string                  `json:"badges"`
	NextPokemonID  int                       `json:"next_pokemon_id"`
	CreatedAt      time.Time                 `json:"created_at"`
	LastUpdated    time.Time                 `json:"last_updated"`
}

// Clone returns a deep copy sharing no memory with p.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.Team = pokemon.CloneTeam(p.Team)
	c.Location = p.Location.Clone()
	c.ThoughtHistory = make([]Thought, 0, len(p.ThoughtHistory))
	for _, t := range p.ThoughtHistory {
		c.ThoughtHistory = append(c.ThoughtHistory, t.Clone())
	}
	c.BattleHistory = make([]*Battle, 0, len(p.BattleHistory))
	for _, b := range p.BattleHistory {
		c.BattleHistory = append(c.BattleHistory, b.Clone())
	}
	c.MatchupRecords = make(map[string]*MatchupRecord, len(p.MatchupRecords))
	for k, v := range p.MatchupRecords {
		c.MatchupRecords[k] = v.Clone()
	}
	c.Items = append([]string{}, p.Items...)
	c.Badges = append([]string{}, p.Badges...)
	return &c
}

// CloneAll deep-copies a player list, preserving order.
func CloneAll(players []*Player) []*Player {
	out := make([]*Player, 0, len(players))
	for _, p := range players {
		out = append(out, p.Clone())
	}
	return out
}

// Spec holds the creation fields for a player.
type Spec struct {
	Name     string         `json:"name" yaml:"name"`
	Team     []pokemon.Spec `json:"team" yaml:"team"`
	Location Location       `json:"location" yaml:"location"`
	Items    []string       `json:"items" yaml:"items"`
	Badges   []string       `json:"badges" yaml:"badges"`
}

// UpdateSpec is a full replacement of a player's mutable fields.
type UpdateSpec struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
	Items    []string `json:"items"`
	Badges   []string `json:"badges"`
}

// badgeSet returns badges as a sorted set.
func badgeSet(badges []string) []string {
	seen := make(map[string]struct{}, len(badges))
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
