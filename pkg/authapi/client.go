package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IAuthClient proxies the remote auth backend. Token issuance lives
// entirely on the backend side; this client only shapes requests and
// maps failures.
type IAuthClient interface {
	Register(ctx context.Context, req *RegisterPayload) error
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) (*PasswordResetIssued, error)
	SubmitPasswordReset(ctx context.Context, resetLink, password, confirmPassword string) error
}

// ErrInvalidCredentials maps the backend's 401/404 login answers to the
// single user-facing message the dashboard shows.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Client struct {
	BaseURL string
	client  *http.Client
}

var _ IAuthClient = &Client{}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type RegisterPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type LoginResult struct {
	Access    string      `json:"access"`
	Refresh   string      `json:"refresh"`
	UserId    json.Number `json:"user_id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
}

type PasswordResetIssued struct {
	Message   string `json:"message"`
	ResetLink string `json:"reset_link"`
	Otp       string `json:"otp"`
}

// fieldErrors is the backend's per-field validation error shape, e.g.
// {"username": ["A user with that username already exists."]}.
type fieldErrors struct {
	Username []string `json:"username"`
	Email    []string `json:"email"`
	Password []string `json:"password"`
	Message  string   `json:"message"`
	Error    string   `json:"error"`
	Detail   string   `json:"detail"`
}

func (e *fieldErrors) first(fallback string) string {
	switch {
	case len(e.Username) > 0:
		return e.Username[0]
	case len(e.Email) > 0:
		return e.Email[0]
	case len(e.Password) > 0:
		return e.Password[0]
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	case e.Detail != "":
		return e.Detail
	}
	return fallback
}

func (c *Client) Register(ctx context.Context, payload *RegisterPayload) error {
	status, body, err := c.postJSON(ctx, c.BaseURL+"/api/register/", payload)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}

	var fieldErr fieldErrors
	_ = json.Unmarshal(body, &fieldErr)
	return errors.New(fieldErr.first("sign up failed"))
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	status, body, err := c.postJSON(ctx, c.BaseURL+"/api/login/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized || status == http.StatusNotFound {
		return nil, ErrInvalidCredentials
	}
	if status != http.StatusOK {
		var fieldErr fieldErrors
		_ = json.Unmarshal(body, &fieldErr)
		return nil, errors.New(fieldErr.first("sign in failed"))
	}

	var result LoginResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal login response: %w", err)
	}
	if result.Access == "" || result.UserId.String() == "" {
		return nil, errors.New("invalid response from server")
	}

	return &result, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*PasswordResetIssued, error) {
	status, body, err := c.postJSON(ctx, c.BaseURL+"/api/password-reset/", map[string]string{
		"email": email,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		var fieldErr fieldErrors
		_ = json.Unmarshal(body, &fieldErr)
		return nil, errors.New(fieldErr.first("failed to send reset link"))
	}

	var issued PasswordResetIssued
	if err := json.Unmarshal(body, &issued); err != nil {
		return nil, fmt.Errorf("unmarshal reset response: %w", err)
	}
	if issued.Message == "" || issued.ResetLink == "" || issued.Otp == "" {
		return nil, errors.New("invalid response from server")
	}

	return &issued, nil
}

// SubmitPasswordReset posts the new password to the reset link issued by
// RequestPasswordReset. The link is backend-generated and absolute.
func (c *Client) SubmitPasswordReset(ctx context.Context, resetLink, password, confirmPassword string) error {
	status, body, err := c.postJSON(ctx, resetLink, map[string]string{
		"password":         password,
		"confirm_password": confirmPassword,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		var fieldErr fieldErrors
		_ = json.Unmarshal(body, &fieldErr)
		return errors.New(fieldErr.first("failed to reset password"))
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload interface{}) (int, []byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("auth backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
