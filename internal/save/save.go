// Package save persists named snapshots of the player store. A Service
// serializes whole documents and hands them to a Store backend that only
// knows ids and bytes.
package save

import (
	"context"
	"time"

	"pokestate/internal/player"
)

const DefaultGameVersion = "Black2White2"

// Store is the backend contract. Get and Delete return an apperr NOT_FOUND
// error for unknown ids.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	Put(ctx context.Context, id string, doc []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// File is one persisted snapshot. It owns independent copies of its players.
type File struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	GameVersion string           `json:"game_version"`
	CreatedAt   time.Time        `json:"created_at"`
	LastUpdated time.Time        `json:"last_updated"`
	Players     []*player.Player `json:"players"`
}

type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GameVersion string    `json:"game_version"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	PlayerCount int       `json:"player_count"`
}

func (f *File) Summary() Summary {
	return Summary{
		ID:          f.ID,
		Name:        f.Name,
		GameVersion: f.GameVersion,
		CreatedAt:   f.CreatedAt,
		LastUpdated: f.LastUpdated,
		PlayerCount: len(f.Players),
	}
}

func (f *File) Clone() *File {
	if f == nil {
		return nil
	}
	c := *f
	c.Players = player.CloneAll(f.Players)
	return &c
}
