package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/award"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/cache"
	ledgerentity "github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting"
	settingentity "github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	logger := zap.NewNop().Sugar()

	p := settingentity.DefaultParams()
	p.Secret = "letmein"
	p.StartingBalance = 100
	settings, err := setting.NewService(p, nil, bcrypt.MinCost, logger)
	require.NoError(t, err)

	mem := store.NewMemory()
	cfg := cache.DefaultConfig()
	cfg.CleanupInterval = 0
	c := cache.New(mem, cfg, cache.WithStartingBalance(func() float64 { return settings.Current().StartingBalance }))
	svc := award.NewService(c, settings, nil, logger)

	h := RegisterRoutes(logger, award.NewHandler(svc, logger), setting.NewHandler(settings, logger))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, mem
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + Prefix + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+Prefix+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))
}

func TestRegisterAndWallet(t *testing.T) {
	srv, mem := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, Prefix+"/users", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100.0, body["balance"])

	resp, body = do(t, srv, http.MethodGet, Prefix+"/users/u1/wallet", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, 1, mem.AccountRows())

	resp, _ = do(t, srv, http.MethodPost, Prefix+"/users", `{"user_id":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, Prefix+"/users", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventsAndLedger(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, Prefix+"/users/u2/pr", `{"reference_id":"pr-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(ledgerentity.ActionPostPR), body["action_type"])

	resp, _ = do(t, srv, http.MethodPost, Prefix+"/users/u2/ea", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, Prefix+"/users/u2/ea", `{"tier":99}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, Prefix+"/awards", `{"user_id":"u3","amount":5,"action_type":"bonus"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "BONUS", body["action_type"])

	req, err := http.NewRequest(http.MethodGet, srv.URL+Prefix+"/ledger?user_id=u2", nil)
	require.NoError(t, err)
	lresp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer lresp.Body.Close()
	var entries []ledgerentity.Entry
	require.NoError(t, json.NewDecoder(lresp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "pr-1", entries[0].ReferenceID)
}

func TestStoreUnavailableMapsTo503(t *testing.T) {
	srv, mem := newTestServer(t)
	mem.FailOn("FindAccountRow", assert.AnError)
	resp, _ := do(t, srv, http.MethodGet, Prefix+"/users/u4/wallet", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSettingsRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, Prefix+"/settings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, settingentity.SecretKey)
	assert.Equal(t, 10.0, body["PR_AWARD"])

	resp, _ = do(t, srv, http.MethodPost, Prefix+"/settings/override", `{"secret":"nope","patch":{"PR_AWARD":50}}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, Prefix+"/settings/override", `{"secret":"letmein","patch":{"PR_AWARD":50}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"PR_AWARD"}, body["changed"])

	resp, body = do(t, srv, http.MethodPost, Prefix+"/users/u5/pr", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 50.0, body["requested"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
