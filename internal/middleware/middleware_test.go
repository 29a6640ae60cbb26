package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/rs/zerolog"
)

type staticAuthorizer map[string]workflow.Role

func (a staticAuthorizer) HasRole(_ context.Context, actorID string, role workflow.Role, _ string) (bool, error) {
	return a[actorID] == role, nil
}

func decodeKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Fatalf("error response marked successful")
	}
	return body.Error.Kind
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "pfe-platform", time.Hour)
	authorizer := staticAuthorizer{"prof-1": workflow.RoleProfessor}

	var seen auth.AuthContext
	handler := Authenticate(tokens, authorizer, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, _, err := tokens.Issue("prof-1", []workflow.Role{workflow.RoleProfessor})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, _, _ := auth.NewTokenManager("other", "pfe-platform", time.Hour).Issue("prof-1", nil)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/subjects", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusUnauthorized {
				if kind := decodeKind(t, rec); kind != "unauthenticated" {
					t.Fatalf("kind = %s", kind)
				}
				return
			}
			if seen == nil || seen.CurrentActor().ID != "prof-1" {
				t.Fatalf("auth context = %+v", seen)
			}
			ok, _ := seen.HasRole(context.Background(), workflow.RoleProfessor, "report")
			if !ok {
				t.Fatalf("authorizer not consulted")
			}
		})
	}
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name    string
		limiter *fakeLimiter
		status  int
	}{
		{"allowed", &fakeLimiter{allow: true}, http.StatusOK},
		{"limited", &fakeLimiter{allow: false}, http.StatusTooManyRequests},
		{"redis down fails open", &fakeLimiter{allow: true, err: errors.New("dial tcp")}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RateLimit(tc.limiter, ActorOrIP, 10, time.Minute, zerolog.Nop())(ok)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.7:5555"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.limiter.keys[0] != "ip:10.0.0.7" {
				t.Fatalf("key = %s", tc.limiter.keys[0])
			}
		})
	}
}

func TestActorOrIPPrefersActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ac := auth.NewAuthContext(auth.Actor{ID: "student-1"}, staticAuthorizer{})
	req = req.WithContext(auth.WithAuth(req.Context(), ac))
	if key := ActorOrIP(req); key != "actor:student-1" {
		t.Fatalf("key = %s", key)
	}
}

func TestClientIPForwarded(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if ip := ClientIP(req); ip != "203.0.113.9" {
		t.Fatalf("ip = %s", ip)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if kind := decodeKind(t, rec); kind != "internal" {
		t.Fatalf("kind = %s", kind)
	}
}

func TestRequestLoggerNamesAuthenticatedActor(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "pfe-platform", time.Hour)
	token, _, err := tokens.Issue("student-1", []workflow.Role{workflow.RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	h := RequestLogger(log)(Authenticate(tokens, staticAuthorizer{}, zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusConflict) }),
	))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects?x=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["actor_id"] != "student-1" || line["level"] != "warn" || line["status"] != float64(http.StatusConflict) {
		t.Fatalf("log line = %v", line)
	}
	if line["query"] != "x=1" || line["path"] != "/api/v1/subjects" {
		t.Fatalf("log line = %v", line)
	}

	buf.Reset()
	line = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/subjects", nil))
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := line["actor_id"]; ok || line["status"] != float64(http.StatusUnauthorized) {
		t.Fatalf("anonymous log line = %v", line)
	}
}
