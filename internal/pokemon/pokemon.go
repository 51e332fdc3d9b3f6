package pokemon

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pokestate/internal/apperr"
)

const (
	DefaultNature = "Hardy"
	DefaultGender = "Unknown"
	DefaultForm   = "Normal"
)

type BaseStats struct {
	HP             int `json:"hp" yaml:"hp"`
	Attack         int `json:"attack" yaml:"attack"`
	Defense        int `json:"defense" yaml:"defense"`
	SpecialAttack  int `json:"special_attack" yaml:"special_attack"`
	SpecialDefense int `json:"special_defense" yaml:"special_defense"`
	Speed          int `json:"speed" yaml:"speed"`
}

type Ability struct {
	Name     string `json:"name" yaml:"name"`
	IsHidden bool   `json:"is_hidden" yaml:"is_hidden"`
}

// Pokemon is one team member. It is owned by exactly one player's team.
type Pokemon struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Types     []string  `json:"types"`
	Abilities []Ability `json:"abilities"`
	Nature    string    `json:"nature"`
	HeldItem  *string   `json:"held_item"`
	BaseStats BaseStats `json:"base_stats"`
	CurrentHP int       `json:"current_hp"`
	MaxHP     int       `json:"max_hp"`
	Gender    string    `json:"gender"`
	IsShiny   bool      `json:"is_shiny"`
	Form      string    `json:"form"`
}

// Spec holds the client-supplied fields for a new or replaced team member.
type Spec struct {
	Name      string    `json:"name" yaml:"name"`
	Level     int       `json:"level" yaml:"level"`
	Types     []string  `json:"types" yaml:"types"`
	Abilities []Ability `json:"abilities" yaml:"abilities"`
	Nature    string    `json:"nature" yaml:"nature"`
	HeldItem  *string   `json:"held_item" yaml:"held_item"`
	BaseStats BaseStats `json:"base_stats" yaml:"base_stats"`
	Gender    string    `json:"gender" yaml:"gender"`
	IsShiny   bool      `json:"is_shiny" yaml:"is_shiny"`
	Form      string    `json:"form" yaml:"form"`
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperr.New(apperr.CodeValidation, "pokemon name is required")
	}
	if s.Level <= 0 {
		return apperr.New(apperr.CodeValidation, fmt.Sprintf("pokemon %s: level must be positive, got %d", s.Name, s.Level))
	}
	stats := []struct {
		name  string
		value int
	}{
		{"hp", s.BaseStats.HP},
		{"attack", s.BaseStats.Attack},
		{"defense", s.BaseStats.Defense},
		{"special_attack", s.BaseStats.SpecialAttack},
		{"special_defense", s.BaseStats.SpecialDefense},
		{"speed", s.BaseStats.Speed},
	}
	for _, stat := range stats {
		if stat.value < 0 {
			return apperr.New(apperr.CodeValidation, fmt.Sprintf("pokemon %s: %s must not be negative", s.Name, stat.name))
		}
	}
	return nil
}

// New builds a team member from a validated spec. Current and max HP both
// start at the base HP stat.
func New(id int, s Spec) *Pokemon {
	p := &Pokemon{
		ID:        id,
		Name:      strings.TrimSpace(s.Name),
		Level:     s.Level,
		Types:     normalizeTypes(s.Types),
		Abilities: append([]Ability{}, s.Abilities...),
		Nature:    withDefault(s.Nature, DefaultNature),
		BaseStats: s.BaseStats,
		CurrentHP: s.BaseStats.HP,
		MaxHP:     s.BaseStats.HP,
		Gender:    withDefault(s.Gender, DefaultGender),
		IsShiny:   s.IsShiny,
		Form:      withDefault(s.Form, DefaultForm),
	}
	if s.HeldItem != nil {
		item := *s.HeldItem
		p.HeldItem = &item
	}
	return p
}

// Clone returns a deep copy.
func (p *Pokemon) Clone() *Pokemon {
	if p == nil {
		return nil
	}
	c := *p
	c.Types = append([]string{}, p.Types...)
	c.Abilities = append([]Ability{}, p.Abilities...)
	if p.HeldItem != nil {
		item := *p.HeldItem
		c.HeldItem = &item
	}
	return &c
}

// CloneTeam deep-copies a team, preserving order.
func CloneTeam(team []*Pokemon) []*Pokemon {
	out := make([]*Pokemon, 0, len(team))
	for _, member := range team {
		out = append(out, member.Clone())
	}
	return out
}

// normalizeTypes title-cases type tags and drops blanks and duplicates while
// keeping first-seen order.
func normalizeTypes(types []string) []string {
	caser := cases.Title(language.English)
	out := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		t = caser.String(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
