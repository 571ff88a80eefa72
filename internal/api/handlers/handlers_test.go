package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/pysugar/hubspot-property-sync/internal/api/middleware"
	"github.com/pysugar/hubspot-property-sync/internal/auth/oauth"
	"github.com/pysugar/hubspot-property-sync/internal/auth/token"
	"github.com/pysugar/hubspot-property-sync/internal/db/dbtest"
	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
	"github.com/pysugar/hubspot-property-sync/internal/properties"
	"github.com/pysugar/hubspot-property-sync/internal/schema"
	"github.com/pysugar/hubspot-property-sync/internal/store"
)

func testOAuthConfig() *oauth2.Config {
	return oauth.NewConfig(oauth.Settings{
		ClientID:    "client-id",
		RedirectURI: "http://localhost:3001/oauth-callback",
		AuthURL:     "https://app.hubspot.com/oauth/authorize",
		APIBase:     "https://api.hubapi.com",
	})
}

type apiDeps struct {
	provider token.Provider
	tokens   CodeRedeemer
	setup    SchemaSetup
	source   PropertySource
	props    NativePropertyStore
	mappings MappingStore
}

func newTestRouter(d apiDeps) http.Handler {
	cfg := testOAuthConfig()
	r := chi.NewRouter()
	r.Use(middleware.Customer("1"))
	r.Get("/api/install", InstallHandler(cfg))
	r.Get("/oauth-callback", OAuthCallbackHandler(d.tokens, d.setup, "/"))
	r.Get("/api/hubspot-properties", HubSpotPropertiesHandler(d.source, cfg, false))
	r.Get("/api/hubspot-properties-skip-cache", HubSpotPropertiesHandler(d.source, cfg, true))
	r.Post("/api/native-properties", CreateNativePropertyHandler(d.props))
	r.Get("/api/native-properties", NativePropertiesHandler(d.props))
	r.Get("/api/native-properties-with-mappings", NativePropertiesWithMappingsHandler(d.props))
	r.Post("/api/mappings", SaveMappingHandler(d.mappings))
	r.Delete("/api/mappings/{mappingId}", DeleteMappingHandler(d.mappings))
	r.Get("/api/mappings", MappingsHandler(d.mappings))
	r.Post("/api/schema/reconcile", ReconcileSchemaHandler(d.provider, d.setup, cfg))
	r.Get("/api/version", VersionHandler())
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// storeDeps wires the real stores over a fresh database with firstname seeded for customer 1.
func storeDeps(t *testing.T) apiDeps {
	t.Helper()
	database := dbtest.Open(t)
	props := store.NewProperties(database)
	_, err := props.CreateNativeProperty(context.Background(), "1", models.Property{
		Name: "firstname", Label: "First Name", Type: models.PropertyTypeString, Object: models.ObjectContact,
	})
	if err != nil {
		t.Fatalf("seed firstname: %v", err)
	}
	return apiDeps{props: props, mappings: store.NewMappings(database)}
}

type countingMappings struct {
	MappingStore
	deletes int
}

func (c *countingMappings) DeleteMapping(ctx context.Context, customerID string, id uint) (*models.Mapping, error) {
	c.deletes++
	return nil, store.ErrMappingNotFound
}

type stubSource struct {
	props *properties.RemoteProperties
	err   error
	skips []bool
}

func (s *stubSource) Get(_ context.Context, _ string, skipCache bool) (*properties.RemoteProperties, error) {
	s.skips = append(s.skips, skipCache)
	return s.props, s.err
}

type stubRedeemer struct {
	customerID string
	err        error
}

func (s *stubRedeemer) RedeemCode(_ context.Context, customerID, code string) (*models.Authorization, error) {
	s.customerID = customerID
	if s.err != nil {
		return nil, s.err
	}
	return &models.Authorization{CustomerID: customerID, AccessToken: "access-" + code, HSPortalID: "12345678"}, nil
}

type stubSetup struct {
	requests []schema.Request
	report   schema.Report
	err      error
}

func (s *stubSetup) SetupRequiredProperties(_ context.Context, req schema.Request) (*schema.Report, error) {
	s.requests = append(s.requests, req)
	report := s.report
	return &report, s.err
}

type stubProvider map[string]string

func (p stubProvider) GetAccessToken(_ context.Context, customerID string) (string, error) {
	if tok, ok := p[customerID]; ok {
		return tok, nil
	}
	return "", token.ErrNotAuthenticated
}

func TestInstallHandler_ReturnsAuthorizationURL(t *testing.T) {
	h := newTestRouter(apiDeps{})
	req := httptest.NewRequest(http.MethodGet, "/api/install", nil)
	req.Header.Set(middleware.CustomerHeader, "42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	u, err := url.Parse(rec.Body.String())
	if err != nil {
		t.Fatalf("body is not a URL: %q", rec.Body.String())
	}
	q := u.Query()
	if u.Host != "app.hubspot.com" || q.Get("client_id") != "client-id" || q.Get("state") != "42" {
		t.Errorf("unexpected authorization URL %s", u)
	}
	if !strings.Contains(q.Get("scope"), "crm.schemas.contacts.write") {
		t.Errorf("scopes missing from %s", u)
	}
}

func TestOAuthCallback(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tokens, setup := &stubRedeemer{}, &stubSetup{}
		rec := serve(newTestRouter(apiDeps{tokens: tokens, setup: setup}), http.MethodGet, "/oauth-callback?code=abc&state=7", "")
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
			t.Fatalf("expected 302 to /, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if tokens.customerID != "7" {
			t.Errorf("code redeemed for %q, want customer from state", tokens.customerID)
		}
		if len(setup.requests) != 1 || setup.requests[0].AccessToken != "access-abc" || setup.requests[0].PortalID != "12345678" {
			t.Errorf("unexpected reconciliation requests: %+v", setup.requests)
		}
	})

	tests := []struct {
		name    string
		target  string
		tokens  *stubRedeemer
		setup   *stubSetup
		wantMsg string
	}{
		{"missing code", "/oauth-callback", &stubRedeemer{}, &stubSetup{}, msgMissingCode},
		{"exchange failure", "/oauth-callback?code=bad", &stubRedeemer{err: errors.New("invalid_grant")}, &stubSetup{}, msgExchangeFailed},
		{"invalid portal", "/oauth-callback?code=abc", &stubRedeemer{err: token.ErrInvalidPortalID}, &stubSetup{}, token.ErrInvalidPortalID.Error()},
		{"reconciliation failure", "/oauth-callback?code=abc", &stubRedeemer{}, &stubSetup{err: errors.New("boom")}, msgSchemaFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestRouter(apiDeps{tokens: tt.tokens, setup: tt.setup}), http.MethodGet, tt.target, "")
			if rec.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", rec.Code)
			}
			loc, err := url.Parse(rec.Header().Get("Location"))
			if err != nil || loc.Path != "/" {
				t.Fatalf("unexpected redirect %q", rec.Header().Get("Location"))
			}
			if got := loc.Query().Get("errMessage"); got != tt.wantMsg {
				t.Errorf("errMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestHubSpotProperties(t *testing.T) {
	t.Run("cached and skip-cache", func(t *testing.T) {
		src := &stubSource{props: &properties.RemoteProperties{
			ContactProperties: []hubspot.Property{{Name: "firstname"}},
			CompanyProperties: []hubspot.Property{},
		}}
		h := newTestRouter(apiDeps{source: src})

		rec := serve(h, http.MethodGet, "/api/hubspot-properties", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string][]hubspot.Property
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body["contactProperties"]) != 1 || body["companyProperties"] == nil {
			t.Errorf("unexpected body %s", rec.Body.String())
		}

		serve(h, http.MethodGet, "/api/hubspot-properties-skip-cache", "")
		if len(src.skips) != 2 || src.skips[0] || !src.skips[1] {
			t.Errorf("skipCache flags = %v, want [false true]", src.skips)
		}
	})

	t.Run("not authenticated returns install URL", func(t *testing.T) {
		h := newTestRouter(apiDeps{source: &stubSource{err: token.ErrNotAuthenticated}})
		rec := serve(h, http.MethodGet, "/api/hubspot-properties", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.HasPrefix(rec.Body.String(), "https://app.hubspot.com/oauth/authorize?") {
			t.Errorf("expected authorization URL, got %q", rec.Body.String())
		}
	})

	t.Run("internal error", func(t *testing.T) {
		h := newTestRouter(apiDeps{source: &stubSource{err: errors.New("db down")}})
		rec := serve(h, http.MethodGet, "/api/hubspot-properties-skip-cache", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "db down") {
			t.Error("error detail leaked to client")
		}
	})
}

func TestNativeProperties(t *testing.T) {
	h := newTestRouter(storeDeps(t))

	body := `{"propertyName":"shoe_size","propertyLabel":"Shoe Size","propertyType":"number","objectType":"contacts","enforcesUniquness":true,"modificationMetadata":{"archivable":true,"readOnlyDefinition":false,"readOnlyValue":false}}`
	rec := serve(h, http.MethodPost, "/api/native-properties", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created["name"] != "shoe_size" || created["type"] != "Number" || created["object"] != "Contact" || created["unique"] != true {
		t.Errorf("unexpected created property %v", created)
	}
	if meta, _ := created["modificationMetadata"].(map[string]any); meta["archivable"] != true {
		t.Errorf("modificationMetadata not returned: %v", created["modificationMetadata"])
	}

	if rec := serve(h, http.MethodPost, "/api/native-properties", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}
	bad := strings.Replace(body, `"contacts"`, `"deals"`, 1)
	if rec := serve(h, http.MethodPost, "/api/native-properties", bad); rec.Code != http.StatusBadRequest {
		t.Errorf("bad object type: expected 400, got %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/api/native-properties", "")
	var list []models.Property
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 native properties, got %s", rec.Body.String())
	}
}

func TestMappings_SaveListAndJoin(t *testing.T) {
	h := newTestRouter(storeDeps(t))

	body := `{"nativeName":"firstname","hubspotName":"firstname","hubspotLabel":"First Name","object":"Contact","customerId":"1","direction":"toHubSpot","modificationMetadata":{}}`
	rec := serve(h, http.MethodPost, "/api/mappings", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var saved map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id, _ := saved["id"].(float64); id <= 0 {
		t.Errorf("missing id in %v", saved)
	}
	want := map[string]any{
		"nativeName": "firstname", "hubspotName": "firstname", "hubspotLabel": "First Name",
		"object": "Contact", "customerId": "1", "direction": "toHubSpot",
	}
	for k, v := range want {
		if saved[k] != v {
			t.Errorf("%s = %v, want %v", k, saved[k], v)
		}
	}
	if meta, ok := saved["modificationMetadata"].(map[string]any); !ok || len(meta) != 0 {
		t.Errorf("modificationMetadata = %v, want {}", saved["modificationMetadata"])
	}

	rec = serve(h, http.MethodGet, "/api/mappings", "")
	var summaries []mappingSummary
	json.Unmarshal(rec.Body.Bytes(), &summaries)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 mapping, got %s", rec.Body.String())
	}
	s := summaries[0]
	if s.NativeName != "firstname" || s.Property.Name != "firstname" || s.Property.Label != "First Name" || s.Property.Object != models.ObjectContact {
		t.Errorf("unexpected summary %+v", s)
	}

	rec = serve(h, http.MethodGet, "/api/native-properties-with-mappings", "")
	var joined []store.PropertyWithMapping
	json.Unmarshal(rec.Body.Bytes(), &joined)
	if len(joined) != 1 || joined[0].Mapping == nil || joined[0].Mapping.HubspotLabel != "First Name" {
		t.Errorf("unexpected join %s", rec.Body.String())
	}
}

func TestSaveMapping_Errors(t *testing.T) {
	h := newTestRouter(storeDeps(t))

	unknown := `{"nativeName":"nickname","hubspotName":"nickname","object":"Contact","direction":"toHubSpot"}`
	if rec := serve(h, http.MethodPost, "/api/mappings", unknown); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown native property: expected 400, got %d", rec.Code)
	}
	badDirection := `{"nativeName":"firstname","hubspotName":"firstname","object":"Contact","direction":"up"}`
	if rec := serve(h, http.MethodPost, "/api/mappings", badDirection); rec.Code != http.StatusBadRequest {
		t.Errorf("bad direction: expected 400, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/api/mappings", "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: expected 400, got %d", rec.Code)
	}
}

func TestSaveMapping_StoreFailureIs500(t *testing.T) {
	h := newTestRouter(apiDeps{mappings: failingMappings{}})

	body := `{"nativeName":"firstname","hubspotName":"firstname","object":"Contact","direction":"toHubSpot"}`
	rec := serve(h, http.MethodPost, "/api/mappings", body)
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != "Error saving mapping" {
		t.Fatalf("expected 500 \"Error saving mapping\", got %d %q", rec.Code, rec.Body.String())
	}
}

type failingMappings struct{ MappingStore }

func (failingMappings) SaveMapping(context.Context, string, models.Mapping) (*models.Mapping, error) {
	return nil, errors.New("database is locked")
}

func TestDeleteMapping(t *testing.T) {
	t.Run("invalid id makes no store call", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-3", "1.5"} {
			m := &countingMappings{}
			rec := serve(newTestRouter(apiDeps{mappings: m}), http.MethodDelete, "/api/mappings/"+id, "")
			if rec.Code != http.StatusBadRequest || rec.Body.String() != "Invalid mapping Id format" {
				t.Errorf("%s: expected 400 \"Invalid mapping Id format\", got %d %q", id, rec.Code, rec.Body.String())
			}
			if m.deletes != 0 {
				t.Errorf("%s: store was called %d times", id, m.deletes)
			}
		}
	})

	t.Run("deletes within tenant only", func(t *testing.T) {
		h := newTestRouter(storeDeps(t))
		body := `{"nativeName":"firstname","hubspotName":"firstname","hubspotLabel":"First Name","object":"Contact","direction":"toHubSpot"}`
		var saved models.Mapping
		json.Unmarshal(serve(h, http.MethodPost, "/api/mappings", body).Body.Bytes(), &saved)
		target := "/api/mappings/" + strconv.FormatUint(uint64(saved.ID), 10)

		req := httptest.NewRequest(http.MethodDelete, target, nil)
		req.Header.Set(middleware.CustomerHeader, "2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("other tenant: expected 404, got %d", rec.Code)
		}

		rec = serve(h, http.MethodDelete, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
		}
		var deleted models.Mapping
		json.Unmarshal(rec.Body.Bytes(), &deleted)
		if deleted.ID != saved.ID || deleted.NativeName != "firstname" {
			t.Errorf("unexpected deleted row %+v", deleted)
		}

		if rec := serve(h, http.MethodDelete, target, ""); rec.Code != http.StatusNotFound {
			t.Errorf("second delete: expected 404, got %d", rec.Code)
		}
	})
}

func TestVersionHandler(t *testing.T) {
	rec := serve(newTestRouter(apiDeps{}), http.MethodGet, "/api/version", "")
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["version"] == "" {
		t.Errorf("missing version in %s", rec.Body.String())
	}
}

func TestReconcileSchemaHandler(t *testing.T) {
	t.Run("forces a pass", func(t *testing.T) {
		setup := &stubSetup{report: schema.Report{Created: []string{"contacts/group/integration_properties"}}}
		h := newTestRouter(apiDeps{provider: stubProvider{"1": "access-1"}, setup: setup})
		rec := serve(h, http.MethodPost, "/api/schema/reconcile", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(setup.requests) != 1 || !setup.requests[0].Force || setup.requests[0].AccessToken != "access-1" {
			t.Errorf("unexpected requests %+v", setup.requests)
		}
		var report schema.Report
		json.Unmarshal(rec.Body.Bytes(), &report)
		if len(report.Created) != 1 {
			t.Errorf("report not returned: %s", rec.Body.String())
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		setup := &stubSetup{report: schema.Report{Failed: []string{"companies/group/integration_properties"}}, err: errors.New("502")}
		h := newTestRouter(apiDeps{provider: stubProvider{"1": "access-1"}, setup: setup})
		if rec := serve(h, http.MethodPost, "/api/schema/reconcile", ""); rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("not authenticated", func(t *testing.T) {
		setup := &stubSetup{}
		h := newTestRouter(apiDeps{provider: stubProvider{}, setup: setup})
		rec := serve(h, http.MethodPost, "/api/schema/reconcile", "")
		if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "https://app.hubspot.com/") {
			t.Fatalf("expected install URL, got %d %q", rec.Code, rec.Body.String())
		}
		if len(setup.requests) != 0 {
			t.Error("reconciliation must not run without a token")
		}
	})
}
