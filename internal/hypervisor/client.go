package hypervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout        = 60 * time.Second
	testConnectionTimeout = 10 * time.Second
)

// Client is an immutable, authenticated HTTP client for the hypervisor
// control API. Configuration changes produce a new Client via the
// Provider; a Client is never mutated after construction.
type Client struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	httpClient  *http.Client
}

func NewClient(baseURL, tokenID, tokenSecret string) *Client {
	return &Client{
		baseURL:     baseURL,
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hypervisor API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hypervisor API %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hypervisor API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("hypervisor API %s %s: status %d", method, path, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("APIToken %s=%s", c.tokenID, c.tokenSecret))
	req.Header.Set("Content-Type", "application/json")
}

// NextID returns the next free VMID on the cluster.
func (c *Client) NextID(ctx context.Context) (int, error) {
	var resp struct {
		Data int `json:"data"`
	}
	if err := c.get(ctx, "/cluster/next-id", &resp); err != nil {
		return 0, err
	}
	return resp.Data, nil
}

// CloneTemplate issues a full clone of a template and returns the task
// handle. The clone runs asynchronously: the new instance is not
// guaranteed to be configurable until the task completes.
func (c *Client) CloneTemplate(ctx context.Context, typ string, params CloneParams) (TaskRef, error) {
	var resp struct {
		Data string `json:"data"`
	}
	path := fmt.Sprintf("/nodes/%s/%s/%d/clone", params.Node, pathSegment(typ), params.TemplateVMID)
	if err := c.doJSON(ctx, http.MethodPost, path, params, &resp); err != nil {
		return "", err
	}
	return TaskRef(resp.Data), nil
}

// ApplyConfig applies the final sizing, ownership tags, and credentials
// to an instance. VM config is replaced (POST); container config is
// merged (PUT). Safe to retry.
func (c *Client) ApplyConfig(ctx context.Context, params ConfigParams) error {
	path := fmt.Sprintf("/nodes/%s/%s/%d/config", params.Node, pathSegment(params.Type), params.VMID)
	method := http.MethodPost
	if params.Type == "container" {
		method = http.MethodPut
	}
	return c.doJSON(ctx, method, path, params, nil)
}

// DeleteInstance removes an instance from the hypervisor and returns the
// deletion task handle.
func (c *Client) DeleteInstance(ctx context.Context, node, typ string, vmid int) (TaskRef, error) {
	var resp struct {
		Data string `json:"data"`
	}
	path := fmt.Sprintf("/nodes/%s/%s/%d", node, pathSegment(typ), vmid)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return "", err
	}
	return TaskRef(resp.Data), nil
}

// ListTenantResources returns the resource footprint of every non-template
// instance owned by the tenant.
func (c *Client) ListTenantResources(ctx context.Context, tenantID string) ([]InstanceResources, error) {
	var resp struct {
		Data []InstanceResources `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/cluster/resources?tenant=%s", tenantID), &resp); err != nil {
		return nil, err
	}

	resources := make([]InstanceResources, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.Template {
			continue
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// TestConnection is a bounded connectivity pre-flight. It never returns
// an error: failures are reported in the status message.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	ctx, cancel := context.WithTimeout(ctx, testConnectionTimeout)
	defer cancel()

	var resp struct {
		Data []struct {
			Node string `json:"node"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/nodes", &resp); err != nil {
		return ConnectionStatus{Success: false, Message: err.Error()}
	}

	return ConnectionStatus{
		Success:   true,
		Message:   fmt.Sprintf("connected, %d nodes online", len(resp.Data)),
		NodeCount: len(resp.Data),
	}
}

func pathSegment(typ string) string {
	if typ == "container" {
		return "containers"
	}
	return "vms"
}
