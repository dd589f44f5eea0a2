package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func assertErrorResponse(t *testing.T, statusCode int, body map[string]any, expectedStatus int, expectedMessage string) {
	t.Helper()

	if statusCode != expectedStatus {
		t.Fatalf("expected status code %d, got %d", expectedStatus, statusCode)
	}

	success, ok := body["success"].(bool)
	if !ok {
		t.Fatalf("expected success field to be boolean, got %T", body["success"])
	}
	if success {
		t.Fatalf("expected success=false, got %v", body["success"])
	}

	errMessage, ok := body["error"].(string)
	if !ok {
		t.Fatalf("expected error field to be string, got %T", body["error"])
	}
	if errMessage != expectedMessage {
		t.Fatalf("expected error message %q, got %q", expectedMessage, errMessage)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/health", nil, nil)
	body := decodeJSONMap(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected health status %q, got %v", "ok", body["status"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/api/version", nil, nil)
	assertStatus(t, resp, http.StatusOK)
	data := decodeData(t, resp)

	if data["version"] != Version {
		t.Fatalf("expected version %q, got %v", Version, data["version"])
	}
	if data["apiVersion"] != "v1" {
		t.Fatalf("expected apiVersion %q, got %v", "v1", data["apiVersion"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/metrics", nil, nil)
	assertStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading metrics body: %v", err)
	}
	if !strings.Contains(string(raw), "go_goroutines") {
		t.Fatalf("expected prometheus exposition format, got %q", string(raw))
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	env := setupTestEnv(t)

	testCases := []struct {
		name            string
		method          string
		path            string
		authorization   string
		expectedMessage string
	}{
		{
			name:            "missing authorization header on profile",
			method:          http.MethodGet,
			path:            "/api/users/profile",
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "missing authorization header on assets",
			method:          http.MethodGet,
			path:            "/api/assets",
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "malformed authorization header",
			method:          http.MethodGet,
			path:            "/api/assets",
			authorization:   "Token abc",
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "bearer header without token value",
			method:          http.MethodGet,
			path:            "/api/assets",
			authorization:   "Bearer",
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "invalid jwt token",
			method:          http.MethodGet,
			path:            "/api/assets",
			authorization:   "Bearer not-a-valid-jwt",
			expectedMessage: "Not authorized, token failed",
		},
		{
			name:            "payment requires auth",
			method:          http.MethodPost,
			path:            "/api/payment/initiate",
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "sharing code lookup requires auth",
			method:          http.MethodGet,
			path:            "/api/users/code/123456",
			expectedMessage: "Not authorized, no token",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.authorization != "" {
				headers["Authorization"] = tc.authorization
			}

			resp := performRequest(t, env.app, tc.method, tc.path, nil, headers)
			body := decodeJSONMap(t, resp)

			assertErrorResponse(t, resp.StatusCode, body, http.StatusUnauthorized, tc.expectedMessage)
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/health", nil, nil)
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}
}
