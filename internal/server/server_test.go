package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confops/sponsor-pipeline/internal/config"
	"github.com/confops/sponsor-pipeline/internal/model"
	"github.com/confops/sponsor-pipeline/internal/sponsor"
	"github.com/confops/sponsor-pipeline/internal/store"
	"github.com/confops/sponsor-pipeline/pkg/linkedin"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		Auth: config.AuthConfig{Tokens: []config.TokenConfig{
			{Token: "admin-token", User: "alice", Role: config.RoleAdmin},
			{Token: "member-token", User: "bob", Role: config.RoleMember},
		}},
		Network: config.NetworkConfig{AllowedProfiles: []string{"alice@conf.org"}},
	}
}

func newTestServer(t *testing.T, opts ...func(*Server)) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(t.TempDir() + "/test.db")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	roster := sponsor.Roster{"2021": {{Name: "Intel", Tier: "gold"}}}
	srv := New(testConfig(), st, roster, nil, nil)
	for _, opt := range opts {
		opt(srv)
	}
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth_NoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/companies", "", map[string]any{"name": "Wiz"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "missing bearer token")

	rec = do(t, srv, http.MethodPost, "/companies", "wrong", map[string]any{"name": "Wiz"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Members can use company endpoints but not admin ones.
	rec = do(t, srv, http.MethodPost, "/admin/dedupe", "member-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodPost, "/companies", "member-token", map[string]any{"name": "Wiz"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateCompany_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/companies", "member-token", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/companies", "member-token",
		map[string]any{"name": "Wiz", "status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCompany(t *testing.T) {
	srv, st := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/companies", "member-token",
		map[string]any{"name": "Wiz", "website": "https://wiz.io"})
	require.Equal(t, http.StatusOK, rec.Code)

	companies, err := st.ListCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "bob", companies[0].CreatedBy)
	assert.Equal(t, model.StatusResearch, companies[0].Status)
}

func TestDedupe_EndToEnd(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, st.CreateCompany(ctx, &model.Company{Name: "Check Point", Website: "https://checkpoint.com"}))
	require.NoError(t, st.CreateCompany(ctx, &model.Company{Name: "  check point  ", Notes: "met at RSA"}))
	require.NoError(t, st.CreateCompany(ctx, &model.Company{Name: "Wiz"}))

	rec := do(t, srv, http.MethodPost, "/admin/dedupe", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(1), out["groups"])
	assert.Equal(t, float64(1), out["merged"])
	assert.Equal(t, float64(1), out["deleted"])

	companies, err := st.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
}

func TestTagSponsors(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, st.CreateCompany(ctx, &model.Company{Name: "Intel Corporation"}))
	require.NoError(t, st.CreateCompany(ctx, &model.Company{Name: "Wiz"}))

	rec := do(t, srv, http.MethodPost, "/admin/tag-sponsors", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, float64(1), out["matched"])

	companies, err := st.ListCompanies(ctx)
	require.NoError(t, err)
	for _, c := range companies {
		if c.Name == "Intel Corporation" {
			assert.Equal(t, []string{"2021"}, c.PastSponsorYears)
		} else {
			assert.Empty(t, c.PastSponsorYears)
		}
	}
}

func TestResearch_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/admin/research", "admin-token", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "not configured")
}

func TestCreateTouch(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, st.CreateCompany(ctx, c))

	rec := do(t, srv, http.MethodPost, "/companies/"+c.ID+"/touches", "member-token",
		map[string]any{"channel": "email", "summary": "intro", "outcome": "replied"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "responded", decode(t, rec)["status"])

	got, err := st.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResponded, got.Status)

	touches, err := st.ListTouches(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, touches, 1)
}

func TestCreateTouch_Errors(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	rec := do(t, srv, http.MethodPost, "/companies/ghost/touches", "member-token",
		map[string]any{"channel": "email"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, st.CreateCompany(ctx, c))
	rec = do(t, srv, http.MethodPost, "/companies/"+c.ID+"/touches", "member-token",
		map[string]any{"summary": "no channel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddConnection_Dedup(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, st.CreateCompany(ctx, c))

	body := map[string]any{
		"team_member_name":  "Dana Lee",
		"team_member_email": "dana@conf.org",
		"connection_type":   "former colleague",
		"notes":             "Dana Lee worked with their CTO",
	}
	rec := do(t, srv, http.MethodPost, "/companies/"+c.ID+"/connections", "member-token", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["added"])

	rec = do(t, srv, http.MethodPost, "/companies/"+c.ID+"/connections", "member-token", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["added"])

	got, err := st.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.AlumniConnections, 1)
}

func TestKBQuery(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, st.CreateDocument(ctx, &model.Document{
		Title:   "Chip vendors",
		Content: "we use intel chips",
	}))
	require.NoError(t, st.CreateDocument(ctx, &model.Document{
		Title:   "Catering",
		Content: "lunch options",
	}))

	rec := do(t, srv, http.MethodPost, "/kb/query", "member-token",
		map[string]any{"query": "intel"})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	results := out["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, float64(110), first["score"])

	rec = do(t, srv, http.MethodPost, "/kb/query", "member-token", map[string]any{"query": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type mockNetwork struct {
	profile linkedin.Profile
}

func (m *mockNetwork) ExchangeCode(context.Context, string, string) (*linkedin.Token, error) {
	return &linkedin.Token{AccessToken: "tok"}, nil
}

func (m *mockNetwork) FetchProfile(context.Context, string) (*linkedin.Profile, error) {
	p := m.profile
	return &p, nil
}

func TestNetworkVerify(t *testing.T) {
	srv, _ := newTestServer(t, func(s *Server) {
		s.network = &mockNetwork{profile: linkedin.Profile{Name: "Alice Chen", Email: "alice@conf.org"}}
	})

	rec := do(t, srv, http.MethodPost, "/auth/network/verify", "member-token",
		map[string]any{"code": "abc", "redirect_uri": "https://app/cb"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice Chen", decode(t, rec)["name"])
}

func TestNetworkVerify_Denied(t *testing.T) {
	srv, _ := newTestServer(t, func(s *Server) {
		s.network = &mockNetwork{profile: linkedin.Profile{Email: "stranger@example.com"}}
	})

	rec := do(t, srv, http.MethodPost, "/auth/network/verify", "member-token",
		map[string]any{"code": "abc", "redirect_uri": "https://app/cb"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNetworkVerify_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/auth/network/verify", "member-token",
		map[string]any{"code": "abc", "redirect_uri": "https://app/cb"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestImport_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/companies/import", "member-token", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
