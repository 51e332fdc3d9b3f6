// Package roster reads player definitions from YAML files.
package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pokestate/internal/player"
)

// Roster is one parsed file. A file holds either a `players:` list or a
// single player at the top level.
type Roster struct {
	Players    []player.Spec
	SourceFile string
}

var (
	ErrEmpty        = errors.New("roster defines no players")
	ErrInvalidYAML  = errors.New("invalid YAML in roster")
	ErrMissingName  = errors.New("player missing required 'name' field")
	ErrTeamTooLarge = fmt.Errorf("team exceeds %d members", player.MaxTeamSize)
)

type document struct {
	Players []player.Spec `yaml:"players"`
}

func ParseFile(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.SourceFile = path
	return r, nil
}

func Parse(content []byte) (*Roster, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}

	var probe map[string]any
	if err := yaml.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	var specs []player.Spec
	if _, ok := probe["players"]; ok {
		var doc document
		if err := decodeStrict(trimmed, &doc); err != nil {
			return nil, err
		}
		specs = doc.Players
	} else {
		var single player.Spec
		if err := decodeStrict(trimmed, &single); err != nil {
			return nil, err
		}
		specs = []player.Spec{single}
	}

	if len(specs) == 0 {
		return nil, ErrEmpty
	}
	for i := range specs {
		if err := checkSpec(&specs[i]); err != nil {
			return nil, fmt.Errorf("player %d: %w", i+1, err)
		}
	}
	return &Roster{Players: specs}, nil
}

// decodeStrict rejects unknown keys so a misspelled field is reported
// instead of silently dropped.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func checkSpec(spec *player.Spec) error {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return ErrMissingName
	}
	if len(spec.Team) > player.MaxTeamSize {
		return fmt.Errorf("%s: %w", spec.Name, ErrTeamTooLarge)
	}
	for i, member := range spec.Team {
		if err := member.Validate(); err != nil {
			return fmt.Errorf("%s team member %d: %w", spec.Name, i+1, err)
		}
	}
	return nil
}
