package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Environment variables used to locate the input work item.
const (
	EnvWorkItemPath  = "RPA_INPUT_WORKITEM_PATH"
	EnvWorkItemHost  = "RC_API_WORKITEM_HOST"
	EnvWorkItemToken = "RC_API_WORKITEM_TOKEN"
	EnvWorkspaceID   = "RC_WORKSPACE_ID"
	EnvWorkItemID    = "RC_WORKITEM_ID"
)

// ErrNoWorkItem is returned when production mode has no work item location configured.
var ErrNoWorkItem = errors.New("no input work item configured")

// EnvSource reads values from the process environment.
type EnvSource struct {
	v *viper.Viper
}

// NewEnvSource returns a Source backed by environment variables. A variable set to "" counts as set.
func NewEnvSource() *EnvSource {
	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return &EnvSource{v: v}
}

// Value returns the environment value for key, or def when unset.
func (s *EnvSource) Value(key, def string) string {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetString(key)
}

// WorkItemSource serves the payload variables of the run's input work item.
type WorkItemSource struct {
	payload map[string]any
}

// NewWorkItemSource wraps an already decoded payload.
func NewWorkItemSource(payload map[string]any) *WorkItemSource {
	if payload == nil {
		payload = map[string]any{}
	}
	return &WorkItemSource{payload: payload}
}

// Value returns the payload variable for key, or def when absent or null.
func (s *WorkItemSource) Value(key, def string) string {
	raw, ok := s.payload[key]
	if !ok || raw == nil {
		return def
	}
	val, err := cast.ToStringE(raw)
	if err != nil {
		b, jerr := json.Marshal(raw)
		if jerr != nil {
			return def
		}
		return string(b)
	}
	return val
}

// workItem mirrors one entry of a local work-items file.
type workItem struct {
	Payload map[string]any    `json:"payload"`
	Files   map[string]string `json:"files"`
}

// LoadWorkItemFile reads the first (input) work item from a local work-items JSON file.
func LoadWorkItemFile(path string) (*WorkItemSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("work item file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work item file: %w", err)
	}

	var items []workItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode work item file: %w", err)
	}
	if len(items) == 0 {
		return NewWorkItemSource(nil), nil
	}
	return NewWorkItemSource(items[0].Payload), nil
}

// WorkItemAPI identifies the input work item on the work-item HTTP API.
type WorkItemAPI struct {
	Host        string
	Token       string
	WorkspaceID string
	WorkItemID  string
}

// URL returns the payload endpoint of the work item.
func (a WorkItemAPI) URL() string {
	host := strings.TrimRight(a.Host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return fmt.Sprintf("%s/json-v1/workspaces/%s/workitems/%s/data", host, a.WorkspaceID, a.WorkItemID)
}

// FetchWorkItem downloads the input work item payload from the API.
func FetchWorkItem(ctx context.Context, client httpclient.Client, api WorkItemAPI) (*WorkItemSource, error) {
	if api.Host == "" || api.WorkspaceID == "" || api.WorkItemID == "" {
		return nil, errors.New("work item api host, workspace id and work item id are required")
	}

	headers := map[string]string{"Accept": "application/json"}
	if api.Token != "" {
		headers["Authorization"] = "Bearer " + api.Token
	}

	resp, err := client.Get(ctx, api.URL(), headers)
	if err != nil {
		return nil, fmt.Errorf("fetch work item: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("work item api returned status %d", resp.StatusCode())
	}

	payload := map[string]any{}
	if body := strings.TrimSpace(string(resp.Body())); body != "" && body != "null" {
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return nil, fmt.Errorf("decode work item payload: %w", err)
		}
	}
	return NewWorkItemSource(payload), nil
}

// WorkItemFromEnv locates the input work item using the API variables, falling back to the local file.
func WorkItemFromEnv(ctx context.Context, client httpclient.Client, env Source) (*WorkItemSource, error) {
	if host := env.Value(EnvWorkItemHost, ""); host != "" {
		return FetchWorkItem(ctx, client, WorkItemAPI{
			Host:        host,
			Token:       env.Value(EnvWorkItemToken, ""),
			WorkspaceID: env.Value(EnvWorkspaceID, ""),
			WorkItemID:  env.Value(EnvWorkItemID, ""),
		})
	}
	if path := env.Value(EnvWorkItemPath, ""); path != "" {
		return LoadWorkItemFile(path)
	}
	return nil, ErrNoWorkItem
}
