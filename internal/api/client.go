package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
)

// Kind names a taxonomy collection.
type Kind string

const (
	Categories Kind = "categories"
	Colors     Kind = "colors"
	Statuses   Kind = "status"
)

// Kinds lists every taxonomy collection.
var Kinds = []Kind{Categories, Colors, Statuses}

// ParseKind accepts a collection name or its singular.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "categories", "category":
		return Categories, nil
	case "colors", "color":
		return Colors, nil
	case "status", "statuses":
		return Statuses, nil
	}
	return "", fmt.Errorf("unknown taxonomy %q (want category, color or status)", s)
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Detail)
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, strings.Join(parts, "; "))
}

// IsStatus reports whether err is an APIError with code.
func IsStatus(err error, code int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == code
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Creds      config.Credentials

	// OnRefresh is called after the access token was renewed, so callers
	// can persist it.
	OnRefresh func(config.Credentials)
}

// New creates a client for the API at baseURL.
func New(baseURL string, creds config.Credentials) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Creds:   creds,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClient creates a client from the stored CLI configuration. Missing
// credentials are not an error; requests then go out anonymously.
func NewClient() (*Client, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := config.LoadCredentials()
	if err != nil && err != config.ErrNoCredentials {
		return nil, err
	}

	c := New(cfg.BaseURL, creds)
	c.OnRefresh = func(creds config.Credentials) {
		_ = config.SaveCredentials(creds)
	}
	return c, nil
}

// makeRequest sends body as JSON and decodes the response into out. An
// expired access token is refreshed once and the request retried.
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	status, respBody, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.Creds.Refresh != "" {
		if err := c.RefreshAccess(ctx); err == nil {
			status, respBody, err = c.do(ctx, method, endpoint, body)
			if err != nil {
				return err
			}
		}
	}

	if status >= 400 {
		return newAPIError(status, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) (int, []byte, error) {
	target := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		target = c.BaseURL + endpoint
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Creds.Access != "" {
		req.Header.Set("Authorization", "Bearer "+c.Creds.Access)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		apiErr.Detail = detail.Detail
		return apiErr
	}

	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		apiErr.Fields = fields
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(body))
	return apiErr
}

// Auth API methods

// Login exchanges credentials for a token pair and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (config.Credentials, error) {
	reqBody := map[string]string{
		"email":    email,
		"password": password,
	}

	var pair config.Credentials
	if err := c.makeRequest(ctx, http.MethodPost, "/auth/token", reqBody, &pair); err != nil {
		return config.Credentials{}, err
	}

	c.Creds = pair
	return pair, nil
}

// RefreshAccess renews the access token with the refresh token.
func (c *Client) RefreshAccess(ctx context.Context) error {
	status, respBody, err := c.do(ctx, http.MethodPost, "/auth/token/refresh", map[string]string{"refresh": c.Creds.Refresh})
	if err != nil {
		return err
	}
	if status >= 400 {
		return newAPIError(status, respBody)
	}

	var response struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.Creds.Access = response.Access
	if c.OnRefresh != nil {
		c.OnRefresh(c.Creds)
	}
	return nil
}

// Me returns the logged in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.makeRequest(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Card API methods

// CardQuery narrows a card listing. Zero fields are not sent.
type CardQuery struct {
	Category uint
	Status   uint
	Color    uint
	Search   string
	Page     int
	PageSize int
}

func (q CardQuery) encode() string {
	v := url.Values{}
	set := func(key string, n uint) {
		if n != 0 {
			v.Set(key, strconv.FormatUint(uint64(n), 10))
		}
	}
	set("category", q.Category)
	set("status", q.Status)
	set("color", q.Color)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set(pagination.PageQueryParam, strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set(pagination.PageSizeQueryParam, strconv.Itoa(q.PageSize))
	}

	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListCards returns one page of the caller's cards.
func (c *Client) ListCards(ctx context.Context, q CardQuery) (*pagination.Envelope[models.Card], error) {
	var page pagination.Envelope[models.Card]
	if err := c.makeRequest(ctx, http.MethodGet, "/cards"+q.encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllCards follows next links until every matching card is loaded.
func (c *Client) ListAllCards(ctx context.Context, q CardQuery) ([]models.Card, error) {
	return collect[models.Card](ctx, c, "/cards"+q.encode())
}

func (c *Client) GetCard(ctx context.Context, id uint) (*models.Card, error) {
	var card models.Card
	if err := c.makeRequest(ctx, http.MethodGet, cardEndpoint(id), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CardInput is the writable part of a card.
type CardInput struct {
	Title        string     `json:"title"`
	Text         string     `json:"text"`
	Category     uint       `json:"category"`
	Status       uint       `json:"status"`
	Color        uint       `json:"color"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
}

func (c *Client) CreateCard(ctx context.Context, in CardInput) (*models.Card, error) {
	var card models.Card
	if err := c.makeRequest(ctx, http.MethodPost, "/cards", in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// ReplaceCard overwrites every writable field of the card.
func (c *Client) ReplaceCard(ctx context.Context, id uint, in CardInput) (*models.Card, error) {
	var card models.Card
	if err := c.makeRequest(ctx, http.MethodPut, cardEndpoint(id), in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard changes only the fields present in data.
func (c *Client) UpdateCard(ctx context.Context, id uint, data map[string]interface{}) (*models.Card, error) {
	var card models.Card
	if err := c.makeRequest(ctx, http.MethodPatch, cardEndpoint(id), data, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) DeleteCard(ctx context.Context, id uint) error {
	return c.makeRequest(ctx, http.MethodDelete, cardEndpoint(id), nil, nil)
}

func cardEndpoint(id uint) string {
	return "/cards/" + strconv.FormatUint(uint64(id), 10)
}

// Taxonomy API methods

// ListTaxonomy loads every term of kind.
func (c *Client) ListTaxonomy(ctx context.Context, kind Kind) ([]models.Term, error) {
	return collect[models.Term](ctx, c, "/"+string(kind))
}

func (c *Client) CreateTaxonomy(ctx context.Context, kind Kind, name string) (*models.Term, error) {
	var term models.Term
	if err := c.makeRequest(ctx, http.MethodPost, "/"+string(kind), map[string]string{"name": name}, &term); err != nil {
		return nil, err
	}
	return &term, nil
}

func (c *Client) DeleteTaxonomy(ctx context.Context, kind Kind, id uint) error {
	return c.makeRequest(ctx, http.MethodDelete, "/"+string(kind)+"/"+strconv.FormatUint(uint64(id), 10), nil, nil)
}

// collect walks the pages starting at endpoint.
func collect[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	var all []T
	for endpoint != "" {
		var page pagination.Envelope[T]
		if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		endpoint = ""
		if page.Links.Next != nil {
			endpoint = *page.Links.Next
		}
	}
	return all, nil
}
