package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sekia-ai/actionkit/pkg/httpclient"
)

const (
	envIDTokenRequestToken = "ACTIONS_ID_TOKEN_REQUEST_TOKEN"
	envIDTokenRequestURL   = "ACTIONS_ID_TOKEN_REQUEST_URL"

	maxIDTokenResponseSize = 1 << 20
)

// GetIDToken requests an OIDC id token from the runner. The token is
// registered as a secret before it is returned.
func (a *Action) GetIDToken(ctx context.Context, audience string) (string, error) {
	token, err := a.getIDToken(ctx, audience)
	if err != nil {
		return "", fmt.Errorf("get id token: %w", err)
	}
	if err := a.SetSecret(token); err != nil {
		return "", err
	}
	return token, nil
}

func GetIDToken(ctx context.Context, audience string) (string, error) {
	return defaultAction.GetIDToken(ctx, audience)
}

func (a *Action) getIDToken(ctx context.Context, audience string) (string, error) {
	requestToken := getenv(a.env, envIDTokenRequestToken)
	if requestToken == "" {
		return "", fmt.Errorf("%w: unable to get %s env variable", ErrConfiguration, envIDTokenRequestToken)
	}
	idTokenURL := getenv(a.env, envIDTokenRequestURL)
	if idTokenURL == "" {
		return "", fmt.Errorf("%w: unable to get %s env variable", ErrConfiguration, envIDTokenRequestURL)
	}
	if audience != "" {
		idTokenURL += "&audience=" + url.QueryEscape(audience)
	}

	if err := a.Debug("ID token url is " + idTokenURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, idTokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := httpclient.New(ctx, requestToken).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get ID token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIDTokenResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to get ID token: error code %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Value == "" {
		return "", fmt.Errorf("response json body does not have an ID token field")
	}
	return result.Value, nil
}
