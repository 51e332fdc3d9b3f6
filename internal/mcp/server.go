package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pokestate/internal/player"
	"pokestate/internal/save"
)

// SaveService is the part of save.Service the tools use.
type SaveService interface {
	List(ctx context.Context) ([]save.Summary, error)
	Create(ctx context.Context, name, gameVersion string, players []*player.Player) (*save.File, error)
	Load(ctx context.Context, id string) ([]*player.Player, error)
}

type Server struct {
	players     *player.Store
	saves       SaveService
	gameVersion string
	mcp         *sdk.Server
}

func NewServer(players *player.Store, saves SaveService, gameVersion, version string) *Server {
	s := &Server{
		players:     players,
		saves:       saves,
		gameVersion: gameVersion,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "pokestate",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
