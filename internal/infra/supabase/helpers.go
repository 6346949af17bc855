package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// writeRequest issues a mutating PostgREST request with the service
// role key. Mutations always ask for the updated representation so the
// stores can return what the database actually persisted.
func (c *Client) writeRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonBody)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodDelete {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("postgrest: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("postgrest: non-2xx",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, fmt.Errorf("postgrest %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	c.logger.Debug("postgrest: ok",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	return c.writeRequest(ctx, http.MethodPost, table, data)
}

func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) ([]byte, error) {
	return c.writeRequest(ctx, http.MethodPatch, path, data)
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.writeRequest(ctx, http.MethodDelete, path, nil)
	return err
}
