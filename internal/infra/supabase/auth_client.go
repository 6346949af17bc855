package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bfcgroup/portal-api-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// GoTrue auth client (implements port.AuthClient)
// Auth endpoints live under /auth/v1 and use the anon key plus the
// user's own access token, never the service role key.
// ============================================================

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	User         gotrueUser `json:"user"`
}

func (s gotrueSession) toDomain() *domain.Session {
	return &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		Account: domain.Account{
			ID:    s.User.ID,
			Email: s.User.Email,
		},
	}
}

// doAuth executes a request against the GoTrue API. bearer is the
// user's access token, or empty to authenticate with the anon key only.
func (c *Client) doAuth(ctx context.Context, method, path, bearer string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(jsonBody)
	}

	url := fmt.Sprintf("%s/auth/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	} else {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gotrue: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "GoTrue.SignIn")
	defer span.End()

	payload := map[string]string{"email": email, "password": password}
	body, status, err := c.doAuth(ctx, http.MethodPost, "token?grant_type=password", "", payload)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &domain.ErrUnauthorized{Message: "invalid email or password"}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("sign-in returned %d: %s", status, string(body))}
	}

	var session gotrueSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("failed to decode session: %w", err)}
	}
	return session.toDomain(), nil
}

// SignUp registers a new account and returns its initial session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "GoTrue.SignUp")
	defer span.End()

	payload := map[string]string{"email": email, "password": password}
	body, status, err := c.doAuth(ctx, http.MethodPost, "signup", "", payload)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		return nil, &domain.ErrConflict{Message: "an account with this email already exists"}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("sign-up returned %d: %s", status, string(body))}
	}

	var session gotrueSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("failed to decode session: %w", err)}
	}
	return session.toDomain(), nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "GoTrue.SignOut")
	defer span.End()

	body, status, err := c.doAuth(ctx, http.MethodPost, "logout", accessToken, nil)
	if err != nil {
		return &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusUnauthorized {
		return &domain.ErrUnauthorized{}
	}
	if status < 200 || status >= 300 {
		return &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("logout returned %d: %s", status, string(body))}
	}
	return nil
}

// GetUser resolves the account behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "GoTrue.GetUser")
	defer span.End()

	body, status, err := c.doAuth(ctx, http.MethodGet, "user", accessToken, nil)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &domain.ErrUnauthorized{}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("get user returned %d: %s", status, string(body))}
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("failed to decode user: %w", err)}
	}
	return &domain.Account{ID: user.ID, Email: user.Email}, nil
}

// UpdatePassword sets a new password for the session's account.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	ctx, span := tracer.Start(ctx, "GoTrue.UpdatePassword")
	defer span.End()

	payload := map[string]string{"password": newPassword}
	body, status, err := c.doAuth(ctx, http.MethodPut, "user", accessToken, payload)
	if err != nil {
		return &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusUnauthorized {
		return &domain.ErrUnauthorized{}
	}
	if status == http.StatusUnprocessableEntity {
		return &domain.ErrValidation{Field: "newPassword", Message: "password does not meet requirements"}
	}
	if status < 200 || status >= 300 {
		return &domain.ErrExternalService{Service: "gotrue", Err: fmt.Errorf("password update returned %d: %s", status, string(body))}
	}
	return nil
}
