package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/cardboard/internal/api"
)

type toolset struct {
	backend Backend
}

func (t *toolset) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "whoami",
		Description: "Show the logged in user.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Who Am I",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.whoami)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_cards",
		Description: "List your cards, optionally filtered by category, status or color id, or by creation date (search: YYYY-MM-DD).",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Cards",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.listCards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_card",
		Description: "Get a card by id.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Card",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.getCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_card",
		Description: "Create a card. title, text, category, status and color are required.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Create Card",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.createCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_card",
		Description: "Change the given fields of a card. Omitted fields are kept.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Update Card",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.updateCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_card",
		Description: "Delete a card permanently.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Card",
			DestructiveHint: boolPtr(true),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.deleteCard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_taxonomy",
		Description: `List every term of a taxonomy. kind is "category", "color" or "status".`,
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Taxonomy",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.listTaxonomy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_taxonomy",
		Description: `Create a taxonomy term (staff only). kind is "category", "color" or "status".`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Create Taxonomy Term",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.createTaxonomy)
}

type EmptyInput struct{}

func (t *toolset) whoami(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	user, err := t.backend.Me(ctx)
	if err != nil {
		return nil, nil, err
	}
	out, err := toObject(user)
	return nil, out, err
}

type ListCardsInput struct {
	Category uint   `json:"category,omitempty" jsonschema:"category id to filter by"`
	Status   uint   `json:"status,omitempty" jsonschema:"status id to filter by"`
	Color    uint   `json:"color,omitempty" jsonschema:"color id to filter by"`
	Search   string `json:"search,omitempty" jsonschema:"creation date prefix, YYYY-MM-DD"`
	Page     int    `json:"page,omitempty" jsonschema:"1-based page number"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"results per page, at most 1000"`
}

func (t *toolset) listCards(ctx context.Context, req *mcp.CallToolRequest, input ListCardsInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	page, err := t.backend.ListCards(ctx, api.CardQuery{
		Category: input.Category,
		Status:   input.Status,
		Color:    input.Color,
		Search:   strings.TrimSpace(input.Search),
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, nil, err
	}

	return nil, map[string]interface{}{
		"items":    page.Results,
		"count":    len(page.Results),
		"total":    page.Count,
		"has_more": page.Links.Next != nil,
	}, nil
}

type CardIDInput struct {
	ID uint `json:"id" jsonschema:"card id"`
}

func (t *toolset) getCard(ctx context.Context, req *mcp.CallToolRequest, input CardIDInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}
	card, err := t.backend.GetCard(ctx, input.ID)
	if err != nil {
		return nil, nil, err
	}
	out, err := toObject(card)
	return nil, out, err
}

type CreateCardInput struct {
	Title        string `json:"title"`
	Text         string `json:"text" jsonschema:"card body, markdown"`
	Category     uint   `json:"category" jsonschema:"category id"`
	Status       uint   `json:"status" jsonschema:"status id"`
	Color        uint   `json:"color" jsonschema:"color id"`
	CreationDate string `json:"creation_date,omitempty" jsonschema:"RFC 3339 timestamp, defaults to now"`
}

func (t *toolset) createCard(ctx context.Context, req *mcp.CallToolRequest, input CreateCardInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	in := api.CardInput{
		Title:    input.Title,
		Text:     input.Text,
		Category: input.Category,
		Status:   input.Status,
		Color:    input.Color,
	}
	if input.CreationDate != "" {
		ts, err := time.Parse(time.RFC3339, input.CreationDate)
		if err != nil {
			return nil, nil, errors.New("creation_date must be an RFC 3339 timestamp")
		}
		in.CreationDate = &ts
	}

	card, err := t.backend.CreateCard(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	out, err := toObject(card)
	return nil, out, err
}

type UpdateCardInput struct {
	ID       uint    `json:"id" jsonschema:"card id"`
	Title    *string `json:"title,omitempty"`
	Text     *string `json:"text,omitempty"`
	Category *uint   `json:"category,omitempty"`
	Status   *uint   `json:"status,omitempty"`
	Color    *uint   `json:"color,omitempty"`
}

func (t *toolset) updateCard(ctx context.Context, req *mcp.CallToolRequest, input UpdateCardInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}

	data := map[string]interface{}{}
	if input.Title != nil {
		data["title"] = *input.Title
	}
	if input.Text != nil {
		data["text"] = *input.Text
	}
	if input.Category != nil {
		data["category"] = *input.Category
	}
	if input.Status != nil {
		data["status"] = *input.Status
	}
	if input.Color != nil {
		data["color"] = *input.Color
	}
	if len(data) == 0 {
		return nil, nil, errors.New("nothing to update")
	}

	card, err := t.backend.UpdateCard(ctx, input.ID, data)
	if err != nil {
		return nil, nil, err
	}
	out, err := toObject(card)
	return nil, out, err
}

func (t *toolset) deleteCard(ctx context.Context, req *mcp.CallToolRequest, input CardIDInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}
	if err := t.backend.DeleteCard(ctx, input.ID); err != nil {
		return nil, nil, err
	}
	return nil, map[string]interface{}{"deleted": input.ID}, nil
}

type TaxonomyInput struct {
	Kind string `json:"kind" jsonschema:"category, color or status"`
}

func (t *toolset) listTaxonomy(ctx context.Context, req *mcp.CallToolRequest, input TaxonomyInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	kind, err := api.ParseKind(input.Kind)
	if err != nil {
		return nil, nil, err
	}
	terms, err := t.backend.ListTaxonomy(ctx, kind)
	if err != nil {
		return nil, nil, err
	}
	out, err := toObject(terms)
	return nil, out, err
}

type CreateTaxonomyInput struct {
	Kind string `json:"kind" jsonschema:"category, color or status"`
	Name string `json:"name"`
}

func (t *toolset) createTaxonomy(ctx context.Context, req *mcp.CallToolRequest, input CreateTaxonomyInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	kind, err := api.ParseKind(input.Kind)
	if err != nil {
		return nil, nil, err
	}
	term, err := t.backend.CreateTaxonomy(ctx, kind, input.Name)
	if err != nil {
		return nil, nil, err
	}
	out, err := toObject(term)
	return nil, out, err
}
