package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/sekia-ai/actionkit/pkg/core"
	"github.com/sekia-ai/actionkit/pkg/httpclient"
)

const maxGraphQLResponseSize = 10 << 20 // 10 MB

// Client bundles the REST client and an authenticated HTTP client for
// GraphQL queries against the same server.
type Client struct {
	REST *gh.Client
	HTTP *http.Client

	graphQLURL string
}

// ResolveToken picks the API token: the explicit token, then GITHUB_TOKEN,
// then the "github-token" input, then the "token" input.
func ResolveToken(a *core.Action, token string) string {
	if token != "" {
		return token
	}
	if v, ok := a.Env().LookupEnv("GITHUB_TOKEN"); ok && v != "" {
		return v
	}
	if v, _ := a.GetInput("github-token", core.InputOptions{}); v != "" {
		return v
	}
	v, _ := a.GetInput("token", core.InputOptions{})
	return v
}

// NewClient creates a client for the API server named in c. An empty token
// yields an unauthenticated client.
func NewClient(ctx context.Context, c *Context, token string) (*Client, error) {
	httpClient := http.DefaultClient
	if token != "" {
		httpClient = httpclient.New(ctx, token)
	}

	rest := gh.NewClient(httpClient)
	if c.APIURL != defaultAPIURL {
		base, err := url.Parse(strings.TrimSuffix(c.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse api url: %w", err)
		}
		rest.BaseURL = base
	}

	return &Client{REST: rest, HTTP: httpClient, graphQLURL: c.GraphQLURL}, nil
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLErrors is returned when the response carries errors.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// GraphQL runs query with variables and decodes the "data" member of the
// response into out.
func (c *Client) GraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphQLURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphQLResponseSize))
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request: status %d: %s", resp.StatusCode, respBody)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors GraphQLErrors   `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return envelope.Errors
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}
