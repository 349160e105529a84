package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultCallTimeout = 30 * time.Second

// completionRequest is the JSON body sent to a provider endpoint.
type completionRequest struct {
	Model  string         `json:"model"`
	Prompt string         `json:"prompt"`
	Params map[string]any `json:"params,omitempty"`
}

// HTTPClient posts completion requests to a single provider endpoint. It is
// the default call capability wired up from configuration; any transport
// error or non-2xx status is reported as a plain error so the dispatcher
// treats it as a provider failure.
type HTTPClient struct {
	endpoint *url.URL
	model    string
	client   *http.Client
}

// NewHTTPClient creates a client for the given endpoint and model. A zero
// timeout falls back to the default of 30 seconds.
func NewHTTPClient(endpoint *url.URL, model string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &HTTPClient{
		endpoint: endpoint,
		model:    model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CallContext implements CallContextFunc against the provider endpoint.
func (c *HTTPClient) CallContext(ctx context.Context, name, prompt string, params map[string]any) (Response, error) {
	body, err := json.Marshal(completionRequest{
		Model:  c.model,
		Prompt: prompt,
		Params: params,
	})
	if err != nil {
		return nil, fmt.Errorf("provider %s: encode request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("provider %s: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Read and discard so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("provider %s: unexpected status %d", name, res.StatusCode)
	}

	var response Response
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("provider %s: decode response: %w", name, err)
	}

	return response, nil
}

// Call implements CallFunc for blocking dispatch.
func (c *HTTPClient) Call(name, prompt string, params map[string]any) (Response, error) {
	return c.CallContext(context.Background(), name, prompt, params)
}
