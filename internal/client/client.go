// Package client is the HTTP client for the admin API, used by the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// Config holds common client configuration.
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
	Debug     bool
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
	}
}

// Client calls the admin API over HTTP with bearer-token authentication.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a new admin API client.
func New(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		base:  strings.TrimRight(config.ServerURL, "/"),
		token: config.Token,
		http:  &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the admin API.
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Reason)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Role is the wire shape of a role template.
type Role struct {
	RoleID          uuid.UUID            `json:"role_id"`
	Key             string               `json:"key"`
	Name            string               `json:"name"`
	Scope           models.RoleScope     `json:"scope"`
	Permissions     models.PermissionMap `json:"permissions"`
	InheritsRoleIDs []uuid.UUID          `json:"inherits_role_ids,omitempty"`
}

// Policy is the wire shape of an ABAC policy.
type Policy struct {
	PolicyID uuid.UUID           `json:"policy_id,omitempty"`
	Name     string              `json:"name"`
	Effect   models.PolicyEffect `json:"effect"`
	Resource models.Resource     `json:"resource,omitempty"`
	Actions  []models.Action     `json:"actions,omitempty"`
	Match    map[string]string   `json:"match,omitempty"`
	Enabled  bool                `json:"enabled"`
}

// ListRoles returns the roles visible to the caller's organization.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out struct {
		Roles []Role `json:"roles"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/roles", nil, &out); err != nil {
		return nil, err
	}
	return out.Roles, nil
}

// CreateRole creates an org-scoped role template.
func (c *Client) CreateRole(ctx context.Context, role Role) (*Role, error) {
	var out Role
	if err := c.do(ctx, http.MethodPost, "/v1/roles", role, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRole updates a role template.
func (c *Client) UpdateRole(ctx context.Context, role Role) (*Role, error) {
	var out Role
	if err := c.do(ctx, http.MethodPut, "/v1/roles/"+role.RoleID.String(), role, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPolicies returns the organization's ABAC policies.
func (c *Client) ListPolicies(ctx context.Context) ([]Policy, error) {
	var out struct {
		Policies []Policy `json:"policies"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/policies", nil, &out); err != nil {
		return nil, err
	}
	return out.Policies, nil
}

// ReplacePolicies swaps the organization's full policy set.
func (c *Client) ReplacePolicies(ctx context.Context, policies []Policy) (int, error) {
	in := map[string]any{"policies": policies}
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodPut, "/v1/policies", in, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// RevokeSession revokes a session. An empty token revokes the caller's own.
func (c *Client) RevokeSession(ctx context.Context, token, reason string) error {
	in := map[string]string{"token": token, "reason": reason}
	return c.do(ctx, http.MethodPost, "/v1/sessions/revoke", in, nil)
}

// BootstrapTenantInput describes the tenant to provision.
type BootstrapTenantInput struct {
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	DataResidency      string    `json:"data_residency"`
	DataClassification string    `json:"data_classification"`
	OwnerUserID        uuid.UUID `json:"owner_user_id"`
}

// BootstrapTenantResult reports the provisioned tenant.
type BootstrapTenantResult struct {
	OrgID uuid.UUID            `json:"org_id"`
	Slug  string               `json:"slug"`
	Roles map[string]uuid.UUID `json:"roles"`
}

// BootstrapTenant provisions a new tenant. Requires a global-scope role.
func (c *Client) BootstrapTenant(ctx context.Context, in BootstrapTenantInput) (*BootstrapTenantResult, error) {
	var out BootstrapTenantResult
	if err := c.do(ctx, http.MethodPost, "/v1/tenants", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Reason = payload.Reason
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
