package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/config"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
	"github.com/blesswinsamuel/sql-user-backend/internal/query"
)

func newTestServer(t *testing.T, values map[string]string, reload func()) (*Server, *properties.Properties) {
	t.Helper()
	log := zerolog.Nop()
	props := properties.Load(platform.NewMemoryConfig(values), cache.Null{}, log)
	data := query.NewDataAccess(props, query.NewProvider(props), log)
	s := NewServer(&config.Config{Host: "localhost"}, log, props, cache.Null{}, data, platform.IdentityTranslator{}, reload)
	return s, props
}

func doRequest(t *testing.T, s *Server, method, path, body string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestGetSettingsMasksPassword(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{
		properties.DBDriver:   "mysql",
		properties.DBPassword: "hunter2",
	}, nil)

	code, resp := doRequest(t, s, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", resp.Status)

	values, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mysql", values[properties.DBDriver])
	assert.Equal(t, "", values[properties.DBPassword])
}

func TestSaveSettingsWritesChangedKeysOnly(t *testing.T) {
	reloads := 0
	s, props := newTestServer(t, map[string]string{
		properties.DBDriver: "mysql",
	}, func() { reloads++ })

	body := `{"db.driver": "pgsql", "db.table.user": "users", "opt.case_insensitive_username": "1"}`
	code, resp := doRequest(t, s, http.MethodPost, "/api/settings", body)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, reloads)

	assert.Equal(t, "pgsql", props.StringOr(properties.DBDriver, ""))
	assert.Equal(t, "users", props.StringOr(properties.DBUserTable, ""))
	assert.True(t, props.Bool(properties.OptCaseInsensitiveUsername))
}

func TestSaveSettingsUnchecksMissingBooleans(t *testing.T) {
	s, props := newTestServer(t, map[string]string{
		properties.OptCaseInsensitiveUsername: properties.TrueValue,
	}, nil)

	code, resp := doRequest(t, s, http.MethodPost, "/api/settings", `{"db.driver": "mysql"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", resp.Status)

	assert.False(t, props.Bool(properties.OptCaseInsensitiveUsername))
}

func TestSaveSettingsRejectsBadBody(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	code, resp := doRequest(t, s, http.MethodPost, "/api/settings", "{not json")
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "error", resp.Status)
}

func TestClearCache(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	code, resp := doRequest(t, s, http.MethodPost, "/api/clear-cache", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", resp.Status)
}

func TestAlgorithmCatalog(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	code, resp := doRequest(t, s, http.MethodGet, "/api/algorithms", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", resp.Status)

	infos, ok := resp.Data.([]any)
	require.True(t, ok)
	require.NotEmpty(t, infos)

	seen := map[string]bool{}
	for _, raw := range infos {
		info, ok := raw.(map[string]any)
		require.True(t, ok)
		seen[info["id"].(string)] = true
		assert.NotEmpty(t, info["name"])
	}
	assert.True(t, seen["sha512"])
	assert.True(t, seen["bcrypt"])
}
