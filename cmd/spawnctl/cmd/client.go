package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"slurmspawn/pkg/api"
)

// SessionClient handles API calls to the spawner daemon.
type SessionClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewSessionClient creates a new client with the given base URL and token.
func NewSessionClient(baseURL, token string) *SessionClient {
	return &SessionClient{
		BaseURL: baseURL,
		Token:   token,
		// Starts block while the scheduler queues the job, so the client
		// timeout must outlast the daemon's submission wait.
		HTTPClient: &http.Client{
			Timeout: 15 * time.Minute,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *SessionClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// StartSession sends POST /sessions/{owner}/{name}.
func (c *SessionClient) StartSession(owner, name string, req api.StartSessionRequest) (*api.StartSessionResponse, error) {
	var result api.StartSessionResponse
	path := fmt.Sprintf("/sessions/%s/%s", owner, name)
	if err := c.do(http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PollSession sends GET /sessions/{owner}/{name}.
func (c *SessionClient) PollSession(owner, name string) (*api.PollSessionResponse, error) {
	var result api.PollSessionResponse
	path := fmt.Sprintf("/sessions/%s/%s", owner, name)
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSession sends GET /sessions/{owner}/{name}/identity.
func (c *SessionClient) GetSession(owner, name string) (*api.SessionResponse, error) {
	var result api.SessionResponse
	path := fmt.Sprintf("/sessions/%s/%s/identity", owner, name)
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StopSession sends DELETE /sessions/{owner}/{name}.
func (c *SessionClient) StopSession(owner, name string, graceful bool) error {
	path := fmt.Sprintf("/sessions/%s/%s", owner, name)
	if !graceful {
		path += "?graceful=false"
	}
	return c.do(http.MethodDelete, path, nil, nil)
}
