package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"licensing-webhooks/internal/config"
	"licensing-webhooks/internal/model"
)

// ErrNoLicenses is returned by FindLicensesByMetadata when no license
// carries the requested metadata entry.
var ErrNoLicenses = errors.New("no licenses found")

// APIError is a structured error returned by the Cryptlex web API. A 2xx
// transport response whose body still carries code/message is treated the
// same as a non-2xx response.
type APIError struct {
	Op      string // e.g. "create license"
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s failed with error: %s %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Message)
}

// IsConflict reports whether err is a uniqueness conflict from the backend,
// e.g. a second create for an already registered user email.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

type Cryptlex interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByMetadata(ctx context.Context, key, value string) (*model.User, error)
	CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error)

	CreateLicense(ctx context.Context, req *model.CreateLicenseRequest) (*model.License, error)
	FindLicensesByMetadata(ctx context.Context, key, value string) ([]model.License, error)
	RenewLicense(ctx context.Context, licenseID string) (*model.License, error)
	SetLicenseSuspended(ctx context.Context, licenseID string, suspended bool) (*model.License, error)
	SetLicenseExpiry(ctx context.Context, licenseID string, expiresAt string) (*model.License, error)
	DeleteLicense(ctx context.Context, licenseID string) error

	GetLicenseTemplate(ctx context.Context, templateID string) (*model.LicenseTemplate, error)
}

type cryptlexClientImpl struct {
	httpClient  *http.Client
	baseApiURL  string
	accessToken string
}

func NewCryptlexClient(cfg *config.Cryptlex) Cryptlex {
	return &cryptlexClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:  cfg.BaseApiURL,
		accessToken: cfg.AccessToken,
	}
}

// call issues one request and decodes the response into out (when out is
// non-nil). Error bodies are decoded into *APIError tagged with op.
func (c *cryptlexClientImpl) call(ctx context.Context, op, method, path string, query url.Values, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		reqBody = bytes.NewBuffer(b)
	}

	u := c.baseApiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(raw)
		}
		return apiErr
	}

	// Some gateway deployments flatten errors into a 2xx envelope.
	var probe struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &probe); err == nil && probe.Code != "" {
			return &APIError{Op: op, Status: resp.StatusCode, Code: probe.Code, Message: probe.Message}
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func (c *cryptlexClientImpl) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := url.Values{}
	query.Set("email[eq]", email)

	var users []model.User
	if err := c.call(ctx, "user search", http.MethodGet, "/v3/users", query, nil, &users); err != nil {
		return nil, fmt.Errorf("user search: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (c *cryptlexClientImpl) FindUserByMetadata(ctx context.Context, key, value string) (*model.User, error) {
	query := url.Values{}
	query.Set("metadata.key[eq]", key)
	query.Set("metadata.value[eq]", value)
	query.Set("limit", "1")

	var users []model.User
	if err := c.call(ctx, "user search", http.MethodGet, "/v3/users", query, nil, &users); err != nil {
		return nil, fmt.Errorf("user search by %s: %w", key, err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (c *cryptlexClientImpl) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	var user model.User
	if err := c.call(ctx, "user creation", http.MethodPost, "/v3/users", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *cryptlexClientImpl) UpdateUser(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error) {
	var user model.User
	if err := c.call(ctx, "user updation", http.MethodPatch, "/v3/users/"+userID, nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *cryptlexClientImpl) CreateLicense(ctx context.Context, req *model.CreateLicenseRequest) (*model.License, error) {
	var license model.License
	if err := c.call(ctx, "license creation", http.MethodPost, "/v3/licenses", nil, req, &license); err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *cryptlexClientImpl) FindLicensesByMetadata(ctx context.Context, key, value string) ([]model.License, error) {
	query := url.Values{}
	query.Set("metadata.key[eq]", key)
	query.Set("metadata.value[eq]", value)

	var licenses []model.License
	if err := c.call(ctx, "license search", http.MethodGet, "/v3/licenses", query, nil, &licenses); err != nil {
		return nil, fmt.Errorf("license search by %s=%s: %w", key, value, err)
	}
	if len(licenses) == 0 {
		return nil, fmt.Errorf("no license found with %s: %s: %w", key, value, ErrNoLicenses)
	}
	return licenses, nil
}

func (c *cryptlexClientImpl) RenewLicense(ctx context.Context, licenseID string) (*model.License, error) {
	var license model.License
	if err := c.call(ctx, "license renewal", http.MethodPost, "/v3/licenses/"+licenseID+"/renew", nil, nil, &license); err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *cryptlexClientImpl) SetLicenseSuspended(ctx context.Context, licenseID string, suspended bool) (*model.License, error) {
	body := map[string]bool{"suspended": suspended}

	var license model.License
	if err := c.call(ctx, "license suspension update", http.MethodPatch, "/v3/licenses/"+licenseID, nil, body, &license); err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *cryptlexClientImpl) SetLicenseExpiry(ctx context.Context, licenseID string, expiresAt string) (*model.License, error) {
	body := map[string]string{"expiresAt": expiresAt}

	var license model.License
	if err := c.call(ctx, "license expiry update", http.MethodPatch, "/v3/licenses/"+licenseID+"/expires-at", nil, body, &license); err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *cryptlexClientImpl) DeleteLicense(ctx context.Context, licenseID string) error {
	return c.call(ctx, "license deletion", http.MethodDelete, "/v3/licenses/"+licenseID, nil, nil, nil)
}

func (c *cryptlexClientImpl) GetLicenseTemplate(ctx context.Context, templateID string) (*model.LicenseTemplate, error) {
	var template model.LicenseTemplate
	if err := c.call(ctx, "license template fetch", http.MethodGet, "/v3/license-templates/"+templateID, nil, nil, &template); err != nil {
		return nil, fmt.Errorf("get license template with id %s: %w", templateID, err)
	}
	return &template, nil
}
