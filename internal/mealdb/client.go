// Package mealdb is the query service for TheMealDB JSON API. Every read
// goes through a Getter, normally the fetch cache.
package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/multierr"

	"recipefinder/internal/utils"
)

// Defaults for the public API.
const (
	DefaultBaseURL = "https://www.themealdb.com/api/json/v1/"
	DefaultAPIKey  = "1"
	FeaturedLetter = "a"
)

// Getter reads JSON payloads. Get may answer from a cache; Fetch always
// goes to the network.
type Getter interface {
	Get(ctx context.Context, url string) (json.RawMessage, error)
	Fetch(ctx context.Context, url string) (json.RawMessage, error)
}

// Client issues the read operations of TheMealDB.
type Client struct {
	getter  Getter
	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (the part before the key segment).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithAPIKey sets the key path segment.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key = strings.TrimSpace(key); key != "" {
			c.apiKey = key
		}
	}
}

// NewClient creates a query client reading through g.
func NewClient(g Getter, opts ...Option) *Client {
	c := &Client{
		getter:  g,
		baseURL: DefaultBaseURL,
		apiKey:  DefaultAPIKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	return c
}

// Endpoint builds the URL for op with the given query parameters.
func (c *Client) Endpoint(op string, params url.Values) string {
	u := c.baseURL + url.PathEscape(c.apiKey) + "/" + op + ".php"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// mealsResponse is the envelope of every endpoint. Meals is null when
// nothing matched.
type mealsResponse struct {
	Meals []rawMeal `json:"meals"`
}

func (c *Client) meals(ctx context.Context, u string, cached bool) ([]rawMeal, error) {
	var (
		payload json.RawMessage
		err     error
	)
	if cached {
		payload, err = c.getter.Get(ctx, u)
	} else {
		payload, err = c.getter.Fetch(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	var resp mealsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &utils.NetworkError{URL: u, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	return resp.Meals, nil
}

func (c *Client) recipes(ctx context.Context, u string) ([]Recipe, error) {
	raw, err := c.meals(ctx, u, true)
	if err != nil {
		return nil, err
	}
	out := make([]Recipe, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.toRecipe())
	}
	return out, nil
}

// Search finds recipes whose name matches term. A blank term is rejected
// without a network call.
func (c *Client) Search(ctx context.Context, term string) ([]Recipe, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, utils.ErrEmptySearch()
	}
	return c.recipes(ctx, c.Endpoint("search", url.Values{"s": {term}}))
}

// SearchByLetter lists recipes whose name starts with letter.
func (c *Client) SearchByLetter(ctx context.Context, letter string) ([]Recipe, error) {
	letter = strings.TrimSpace(letter)
	if utf8.RuneCountInString(letter) != 1 {
		return nil, fmt.Errorf("search by letter needs exactly one letter, got %q", letter)
	}
	return c.recipes(ctx, c.Endpoint("search", url.Values{"f": {strings.ToLower(letter)}}))
}

// Featured is the default listing shown when no search or filter is active.
func (c *Client) Featured(ctx context.Context) ([]Recipe, error) {
	return c.SearchByLetter(ctx, FeaturedLetter)
}

// FilterByCategory lists recipes in category. The upstream filter payload
// omits the category, so it is filled in from the request.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]Recipe, error) {
	out, err := c.recipes(ctx, c.Endpoint("filter", url.Values{"c": {category}}))
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Category == "" {
			out[i].Category = category
		}
	}
	return out, nil
}

// FilterByArea lists recipes from area.
func (c *Client) FilterByArea(ctx context.Context, area string) ([]Recipe, error) {
	out, err := c.recipes(ctx, c.Endpoint("filter", url.Values{"a": {area}}))
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Area == "" {
			out[i].Area = area
		}
	}
	return out, nil
}

// Lookup returns the full recipe for id, or a NotFoundError.
func (c *Client) Lookup(ctx context.Context, id string) (*Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, utils.ErrRecipeNotFound(id)
	}
	out, err := c.recipes(ctx, c.Endpoint("lookup", url.Values{"i": {id}}))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, utils.ErrRecipeNotFound(id)
	}
	return &out[0], nil
}

// LookupAll looks ids up one after another, in order. Ids that fail or no
// longer exist are skipped; the error aggregates every failure.
func (c *Client) LookupAll(ctx context.Context, ids []string) ([]Recipe, error) {
	var (
		out  []Recipe
		errs error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, multierr.Append(errs, err)
		}
		r, err := c.Lookup(ctx, id)
		if err != nil {
			utils.Debugf("favorite %s skipped: %v", id, err)
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, *r)
	}
	return out, errs
}

// Random returns one random recipe. It always goes to the network.
func (c *Client) Random(ctx context.Context) (*Recipe, error) {
	u := c.Endpoint("random", nil)
	raw, err := c.meals(ctx, u, false)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, &utils.NetworkError{URL: u, Err: fmt.Errorf("random returned no recipe")}
	}
	r := raw[0].toRecipe()
	return &r, nil
}

// RandomBatch issues n Random calls in parallel. It returns every success in
// call order; the error aggregates the failures, so a non-nil error with a
// non-empty result is a partial success.
func (c *Client) RandomBatch(ctx context.Context, n int) ([]Recipe, error) {
	if n <= 0 {
		return nil, nil
	}

	results := make([]*Recipe, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Random(ctx)
		}(i)
	}
	wg.Wait()

	out := make([]Recipe, 0, n)
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, multierr.Combine(errs...)
}

// labels reads a list.php payload and returns the distinct values of field.
func (c *Client) labels(ctx context.Context, kind, field string) ([]string, error) {
	raw, err := c.meals(ctx, c.Endpoint("list", url.Values{kind: {"list"}}), true)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		v := m.str(field)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// ListCategories returns the category labels used by the filter.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	return c.labels(ctx, "c", "strCategory")
}

// ListAreas returns the area labels used by the filter.
func (c *Client) ListAreas(ctx context.Context) ([]string, error) {
	return c.labels(ctx, "a", "strArea")
}
