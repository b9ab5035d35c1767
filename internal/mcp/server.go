package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/cardboard/internal/api"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
)

// Backend is the part of the API client the tools use.
type Backend interface {
	Me(ctx context.Context) (*models.User, error)
	ListCards(ctx context.Context, q api.CardQuery) (*pagination.Envelope[models.Card], error)
	GetCard(ctx context.Context, id uint) (*models.Card, error)
	CreateCard(ctx context.Context, in api.CardInput) (*models.Card, error)
	UpdateCard(ctx context.Context, id uint, data map[string]interface{}) (*models.Card, error)
	DeleteCard(ctx context.Context, id uint) error
	ListTaxonomy(ctx context.Context, kind api.Kind) ([]models.Term, error)
	CreateTaxonomy(ctx context.Context, kind api.Kind, name string) (*models.Term, error)
}

const instructions = `cardboard - kanban cards

Cards belong to the logged in user. Each card has a title, a markdown text
and exactly one category, color and status, referenced by id.

1. Call list_taxonomy for "category", "color" and "status" to learn the ids.
2. Use list_cards with category/status/color filters to find cards.
3. Move a card between columns with update_card(status: <id>).

Only staff users can create taxonomy terms.`

// NewServer builds an MCP server exposing the card tools over backend.
func NewServer(backend Backend, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cardboard",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: instructions,
		},
	)

	t := &toolset{backend: backend}
	t.register(server)
	return server
}

// ServeStdio runs the MCP server over stdio until ctx is done or the
// client disconnects.
func ServeStdio(ctx context.Context, backend Backend, version string) error {
	if backend == nil {
		return errors.New("api client is required")
	}
	return NewServer(backend, version).Run(ctx, &mcp.StdioTransport{})
}

// Tools lists the tools a server over backend advertises, by asking it
// through an in-memory session.
func Tools(ctx context.Context, backend Backend, version string) ([]*mcp.Tool, error) {
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := NewServer(backend, version).Connect(ctx, serverTransport, nil)
	if err != nil {
		return nil, err
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "cardboard-tools", Version: version}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	return res.Tools, nil
}

// toObject converts any value to a JSON object. Lists are wrapped as
// {"items": [...], "count": n} since tool results must be objects.
func toObject(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if len(b) > 0 && b[0] == '[' {
		var items []interface{}
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, err
		}
		return map[string]interface{}{"items": items, "count": len(items)}, nil
	}

	obj := map[string]interface{}{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func boolPtr(b bool) *bool { return &b }
