package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSource_Value(t *testing.T) {
	t.Setenv("SEARCH_PHRASE", "Harbor")

	src := NewEnvSource()
	assert.Equal(t, "Harbor", src.Value("SEARCH_PHRASE", "Airport"))
	assert.Equal(t, "World", src.Value("KHOBOR_UNSET_SECTIONS", "World"))
}

func TestEnvSource_EmptyMonthsIsConfigurationError(t *testing.T) {
	t.Setenv("MONTHS", "")

	_, err := Resolve(NewEnvSource(), fixedNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMonths)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, KeyMonths, cfgErr.Key)
	assert.Equal(t, "", cfgErr.Value)
}

func TestEnvSource_EmptyValuesMatchWorkItem(t *testing.T) {
	t.Setenv("SEARCH_PHRASE", "")
	t.Setenv("SECTIONS", "")
	t.Setenv("MONTHS", "1")

	fromEnv, err := Resolve(NewEnvSource(), fixedNow)
	require.NoError(t, err)
	fromItem, err := Resolve(NewWorkItemSource(map[string]any{
		"SEARCH_PHRASE": "",
		"SECTIONS":      "",
		"MONTHS":        "1",
	}), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, []string{""}, fromEnv.Sections())
	assert.Equal(t, fromItem.Sections(), fromEnv.Sections())
	assert.Equal(t, DefaultSearchPhrase, fromEnv.SearchPhrase())
	assert.Equal(t, fromItem.SearchPhrase(), fromEnv.SearchPhrase())
}

func TestWorkItemSource_Value(t *testing.T) {
	src := NewWorkItemSource(map[string]any{
		"SEARCH_PHRASE": "Harbor",
		"MONTHS":        float64(3),
		"SECTIONS":      nil,
	})

	assert.Equal(t, "Harbor", src.Value("SEARCH_PHRASE", "Airport"))
	assert.Equal(t, "3", src.Value("MONTHS", "2"))
	assert.Equal(t, "World", src.Value("SECTIONS", "World"), "null falls back to default")
	assert.Equal(t, "output", src.Value("OUTPUT_FILE", "output"))
}

func writeWorkItems(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "work-items.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWorkItemFile_FirstItemIsInput(t *testing.T) {
	path := writeWorkItems(t, `[
		{"payload": {"SEARCH_PHRASE": "Storm", "MONTHS": 0, "SECTIONS": "World, U.S."}, "files": {}},
		{"payload": {"SEARCH_PHRASE": "ignored"}}
	]`)

	src, err := LoadWorkItemFile(path)
	require.NoError(t, err)

	cfg, err := Resolve(src, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Storm", cfg.SearchPhrase())
	assert.Equal(t, 1, cfg.Months())
	assert.Equal(t, []string{"World", "U.S."}, cfg.Sections())
}

func TestLoadWorkItemFile_Errors(t *testing.T) {
	_, err := LoadWorkItemFile("")
	assert.Error(t, err)

	_, err = LoadWorkItemFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadWorkItemFile(writeWorkItems(t, `{not json`))
	assert.Error(t, err)
}

func TestLoadWorkItemFile_EmptyListUsesDefaults(t *testing.T) {
	src, err := LoadWorkItemFile(writeWorkItems(t, `[]`))
	require.NoError(t, err)
	assert.Equal(t, "Airport", src.Value(KeySearchPhrase, DefaultSearchPhrase))
}

func TestFetchWorkItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json-v1/workspaces/ws-1/workitems/wi-9/data", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"SEARCH_PHRASE": "Bridge", "MONTHS": "4"}`))
	}))
	defer srv.Close()

	src, err := FetchWorkItem(context.Background(), httpclient.NewRestyClient(time.Second), WorkItemAPI{
		Host:        srv.URL,
		Token:       "secret",
		WorkspaceID: "ws-1",
		WorkItemID:  "wi-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bridge", src.Value(KeySearchPhrase, DefaultSearchPhrase))
	assert.Equal(t, "4", src.Value(KeyMonths, DefaultMonths))
}

func TestFetchWorkItem_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := FetchWorkItem(context.Background(), httpclient.NewRestyClient(time.Second), WorkItemAPI{
		Host: srv.URL, WorkspaceID: "ws", WorkItemID: "wi",
	})
	assert.ErrorContains(t, err, "status 403")
}

func TestWorkItemAPI_URLAddsScheme(t *testing.T) {
	api := WorkItemAPI{Host: "api.example.com/", WorkspaceID: "w", WorkItemID: "i"}
	assert.Equal(t, "https://api.example.com/json-v1/workspaces/w/workitems/i/data", api.URL())
}

func TestWorkItemFromEnv_NothingConfigured(t *testing.T) {
	_, err := WorkItemFromEnv(context.Background(), nil, mapSource{})
	assert.ErrorIs(t, err, ErrNoWorkItem)
}

func TestWorkItemFromEnv_File(t *testing.T) {
	path := writeWorkItems(t, `[{"payload": {"OUTPUT_FILE": "storms"}}]`)

	src, err := WorkItemFromEnv(context.Background(), nil, mapSource{EnvWorkItemPath: path})
	require.NoError(t, err)
	assert.Equal(t, "storms", src.Value(KeyOutputFile, DefaultOutputFile))
}

func TestLoad_NonProductionReadsEnvironment(t *testing.T) {
	t.Setenv("SEARCH_PHRASE", "Rail")
	t.Setenv("SECTIONS", "Business , Tech")
	t.Setenv("MONTHS", "1")
	t.Setenv("OUTPUT_FILE", "rail")

	cfg, err := Load(context.Background(), Settings{Env: "development"}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Rail", cfg.SearchPhrase())
	assert.Equal(t, []string{"Business", "Tech"}, cfg.Sections())
	assert.Equal(t, 1, cfg.Months())
	assert.Equal(t, "rail", cfg.OutputFile())
}

func TestLoad_ProductionReadsWorkItem(t *testing.T) {
	t.Setenv("SEARCH_PHRASE", "from-env")
	t.Setenv(EnvWorkItemPath, writeWorkItems(t, `[{"payload": {"SEARCH_PHRASE": "from-item"}}]`))

	cfg, err := Load(context.Background(), Settings{Env: EnvProduction}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "from-item", cfg.SearchPhrase())
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT", "3s")

	s := LoadSettings()
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 3*time.Second, s.HTTPTimeout)
	assert.NotEmpty(t, s.OutputDir)
}
