// Package importer builds a save file from YAML roster files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pokestate/internal/logger"
	"pokestate/internal/player"
	"pokestate/internal/roster"
	"pokestate/internal/save"
)

// Saver is the part of save.Service the importer writes through.
type Saver interface {
	Create(ctx context.Context, name, gameVersion string, players []*player.Player) (*save.File, error)
}

type Options struct {
	Name        string
	GameVersion string
	Exclude     []string
	Logger      *logger.Logger
}

type Result struct {
	Save           *save.File
	FilesRead      int
	FilesSkipped   int
	PlayersCreated int
	Errors         []error
}

var ErrNoPlayers = errors.New("no players imported")

// Run parses every roster under paths into a fresh player store and writes
// the result as one new save. Files or players that fail are reported in
// Result.Errors and skipped; the save is written as long as one player was
// created.
func Run(ctx context.Context, saver Saver, paths []string, options Options) (*Result, error) {
	if strings.TrimSpace(options.Name) == "" {
		return nil, fmt.Errorf("save name is required")
	}

	files, err := walkRosterFiles(paths, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking roster files: %w", err)
	}

	result := &Result{}
	players := player.NewStore(player.WithLogger(options.Logger))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := roster.ParseFile(path)
		if err != nil {
			if errors.Is(err, roster.ErrEmpty) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, err)
			continue
		}
		result.FilesRead++

		for _, spec := range r.Players {
			p, err := players.Create(spec)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("creating %s from %s: %w", spec.Name, path, err))
				continue
			}
			options.Logger.Debugf("imported %s as %s from %s", p.Name, p.ID, path)
			result.PlayersCreated++
		}
	}

	if result.PlayersCreated == 0 {
		return result, ErrNoPlayers
	}

	f, err := saver.Create(ctx, options.Name, options.GameVersion, players.All())
	if err != nil {
		return result, fmt.Errorf("creating save: %w", err)
	}
	result.Save = f
	return result, nil
}

func walkRosterFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			// Explicitly named files are taken regardless of extension.
			if path != root && !isRosterFile(d.Name()) {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isRosterFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
