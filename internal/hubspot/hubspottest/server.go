// Package hubspottest runs an in-process fake of the HubSpot endpoints this
// service calls: CRM properties and groups, account details and the OAuth
// token endpoint.
package hubspottest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
)

// Server is a fake HubSpot. Zero configuration gives a portal with no
// custom groups or properties that accepts any authorization code.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	properties map[string]map[string]hubspot.Property      // objectType -> name
	groups     map[string]map[string]hubspot.PropertyGroup // objectType -> name
	calls      map[string]int                              // "METHOD /path" -> count
	failures   map[string]int                              // "METHOD /path" -> status
	tokenSeq   int
	revoked    map[string]bool

	portalID   any
	expiresIn  int
	validCode  string
	tokenDelay time.Duration
}

// NewServer starts a fake HubSpot. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		properties: map[string]map[string]hubspot.Property{},
		groups:     map[string]map[string]hubspot.PropertyGroup{},
		calls:      map[string]int{},
		failures:   map[string]int{},
		revoked:    map[string]bool{},
		portalID:   float64(12345678),
		expiresIn:  1800,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /crm/v3/properties/{objectType}", s.listProperties)
	mux.HandleFunc("POST /crm/v3/properties/{objectType}", s.createProperty)
	mux.HandleFunc("GET /crm/v3/properties/{objectType}/{propertyName}", s.getProperty)
	mux.HandleFunc("POST /crm/v3/properties/{objectType}/groups", s.createGroup)
	mux.HandleFunc("GET /crm/v3/properties/{objectType}/groups/{groupName}", s.getGroup)
	mux.HandleFunc("GET /account-info/v3/details", s.accountDetails)
	mux.HandleFunc("POST /oauth/v1/token", s.token)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// TokenURL is the OAuth token endpoint of the fake.
func (s *Server) TokenURL() string {
	return s.URL + "/oauth/v1/token"
}

// SetPortalID changes the value /account-info/v3/details reports as portalId.
func (s *Server) SetPortalID(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portalID = v
}

// SetExpiresIn changes the lifetime in seconds of issued access tokens.
func (s *Server) SetExpiresIn(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresIn = seconds
}

// SetValidCode restricts the authorization codes the token endpoint accepts to code.
func (s *Server) SetValidCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validCode = code
}

// SetTokenDelay slows every token exchange down by d.
func (s *Server) SetTokenDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenDelay = d
}

// RevokeRefreshToken makes the token endpoint answer invalid_grant for rt.
func (s *Server) RevokeRefreshToken(rt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[rt] = true
}

// AddProperty stores a property as if it already existed in the portal.
func (s *Server) AddProperty(objectType string, p hubspot.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.properties[objectType] == nil {
		s.properties[objectType] = map[string]hubspot.Property{}
	}
	s.properties[objectType][p.Name] = p
}

// AddGroup stores a property group as if it already existed in the portal.
func (s *Server) AddGroup(objectType string, g hubspot.PropertyGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groups[objectType] == nil {
		s.groups[objectType] = map[string]hubspot.PropertyGroup{}
	}
	s.groups[objectType][g.Name] = g
}

// HasProperty reports whether the portal holds the named property.
func (s *Server) HasProperty(objectType, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.properties[objectType][name]
	return ok
}

// HasGroup reports whether the portal holds the named group.
func (s *Server) HasGroup(objectType, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[objectType][name]
	return ok
}

// Fail makes every request to method+path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Calls returns how many requests hit method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests served so far.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		status, fail := s.failures[key]
		s.mu.Unlock()

		if fail {
			writeError(w, status, "ERROR", fmt.Sprintf("injected failure for %s", key))
			return
		}
		if r.URL.Path != "/oauth/v1/token" && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeError(w, http.StatusUnauthorized, "INVALID_AUTHENTICATION", "Authentication credentials not found.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	objectType := r.PathValue("objectType")
	s.mu.Lock()
	results := make([]hubspot.Property, 0, len(s.properties[objectType]))
	for _, p := range s.properties[objectType] {
		results = append(results, p)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	objectType, name := r.PathValue("objectType"), r.PathValue("propertyName")
	s.mu.Lock()
	p, ok := s.properties[objectType][name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "OBJECT_NOT_FOUND", fmt.Sprintf("Property %s does not exist", name))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	objectType := r.PathValue("objectType")
	var in hubspot.PropertyCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.GroupName == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[objectType][in.GroupName]; !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Property group %s does not exist", in.GroupName))
		return
	}
	if _, ok := s.properties[objectType][in.Name]; ok {
		writeError(w, http.StatusConflict, "CONFLICT", fmt.Sprintf("Property %s already exists", in.Name))
		return
	}
	p := hubspot.Property{
		Name:           in.Name,
		Label:          in.Label,
		Type:           in.Type,
		FieldType:      in.FieldType,
		GroupName:      in.GroupName,
		Description:    in.Description,
		HasUniqueValue: in.HasUniqueValue,
	}
	if s.properties[objectType] == nil {
		s.properties[objectType] = map[string]hubspot.Property{}
	}
	s.properties[objectType][p.Name] = p
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	objectType, name := r.PathValue("objectType"), r.PathValue("groupName")
	s.mu.Lock()
	g, ok := s.groups[objectType][name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "OBJECT_NOT_FOUND", fmt.Sprintf("Property group %s does not exist", name))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	objectType := r.PathValue("objectType")
	var in hubspot.PropertyGroupCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[objectType][in.Name]; ok {
		writeError(w, http.StatusConflict, "CONFLICT", fmt.Sprintf("Property group %s already exists", in.Name))
		return
	}
	g := hubspot.PropertyGroup{Name: in.Name, Label: in.Label, DisplayOrder: in.DisplayOrder}
	if s.groups[objectType] == nil {
		s.groups[objectType] = map[string]hubspot.PropertyGroup{}
	}
	s.groups[objectType][g.Name] = g
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) accountDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	portalID := s.portalID
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"portalId": portalID, "accountType": "DEVELOPER_TEST"})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, "invalid_request")
		return
	}
	s.mu.Lock()
	delay, validCode := s.tokenDelay, s.validCode
	revoked := s.revoked[r.PostForm.Get("refresh_token")]
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		code := r.PostForm.Get("code")
		if code == "" || (validCode != "" && code != validCode) {
			writeOAuthError(w, "invalid_grant")
			return
		}
	case "refresh_token":
		if r.PostForm.Get("refresh_token") == "" || revoked {
			writeOAuthError(w, "invalid_grant")
			return
		}
	default:
		writeOAuthError(w, "unsupported_grant_type")
		return
	}

	s.mu.Lock()
	s.tokenSeq++
	seq := s.tokenSeq
	expiresIn := s.expiresIn
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  fmt.Sprintf("access-%d", seq),
		"refresh_token": fmt.Sprintf("refresh-%d", seq),
		"expires_in":    expiresIn,
		"token_type":    "bearer",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, map[string]string{
		"status":        "error",
		"message":       message,
		"correlationId": "00000000-0000-0000-0000-000000000000",
		"category":      category,
	})
}

func writeOAuthError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"status":  "BAD_REFRESH_TOKEN",
		"message": "token exchange rejected",
		"error":   code,
	})
}
