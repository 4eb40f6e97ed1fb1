package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// baseURL returns the storefront base URL, overridable via STOREFRONT_URL.
func baseURL() string {
	if v := os.Getenv("STOREFRONT_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

// adminToken returns an access token for an admin account, if one was
// provided via STOREFRONT_ADMIN_TOKEN. Catalog writes and order status
// updates need it; tests that do are skipped without it.
func adminToken(t *testing.T) string {
	t.Helper()
	token := os.Getenv("STOREFRONT_ADMIN_TOKEN")
	if token == "" {
		t.Skip("STOREFRONT_ADMIN_TOKEN not set, skipping admin flow")
	}
	return token
}

// uniqueEmail generates a unique email address to avoid test collisions.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@test.example.com", prefix, time.Now().UnixNano(), rand.Intn(100000))
}

// uniqueName generates a unique display name, usable for product and
// category names where the derived slug must not collide.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

// skipIfNotRunning performs a quick liveness check against the storefront.
// If it is unreachable, the test is skipped (not failed).
func skipIfNotRunning(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL() + "/health/live")
	if err != nil {
		t.Skipf("storefront at %s not reachable (Docker not running?): %v", baseURL(), err)
	}
	resp.Body.Close()
}

func httpGet(t *testing.T, path, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodGet, path, nil, token)
}

func httpPost(t *testing.T, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodPost, path, body, token)
}

func httpPut(t *testing.T, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodPut, path, body, token)
}

func httpDelete(t *testing.T, path, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodDelete, path, nil, token)
}

// doJSONRequest is the internal helper for JSON HTTP requests against the
// storefront API. The path is relative to the base URL.
func doJSONRequest(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body failed: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(method, baseURL()+path, bodyReader)
	if err != nil {
		t.Fatalf("creating %s request for %s failed: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(t, resp.Body)
}

// decodeBody reads the response body and attempts to decode it as JSON.
// If the body is empty or not JSON, it returns an empty map.
func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading response body failed: %v", err)
	}
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]interface{}{"raw": string(raw)}
	}
	return result
}

// requireStatus asserts that the HTTP status code matches the expected value.
func requireStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d", want, got)
	}
}

// extractField extracts a value from a nested map using a dot-separated path.
// For example, extractField(data, "data.user.id") navigates data["data"]["user"]["id"].
func extractField(data map[string]interface{}, path string) interface{} {
	parts := strings.Split(path, ".")
	var current interface{} = data
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// extractString is a convenience wrapper around extractField that returns a string.
func extractString(t *testing.T, data map[string]interface{}, path string) string {
	t.Helper()
	val := extractField(data, path)
	if val == nil {
		t.Fatalf("expected string at path %q, got nil", path)
	}
	s, ok := val.(string)
	if !ok {
		t.Fatalf("expected string at path %q, got %T: %v", path, val, val)
	}
	return s
}

// extractFloat is a convenience wrapper that returns a float64.
func extractFloat(t *testing.T, data map[string]interface{}, path string) float64 {
	t.Helper()
	val := extractField(data, path)
	if val == nil {
		t.Fatalf("expected number at path %q, got nil", path)
	}
	f, ok := val.(float64)
	if !ok {
		t.Fatalf("expected float64 at path %q, got %T: %v", path, val, val)
	}
	return f
}

// registerCustomer creates a fresh customer account and returns its access
// and refresh tokens.
func registerCustomer(t *testing.T, prefix string) (access, refresh string) {
	t.Helper()
	status, data := httpPost(t, "/api/v1/auth/register", map[string]interface{}{
		"email":    uniqueEmail(prefix),
		"password": "Str0ngPassw0rd",
		"name":     "Integration Shopper",
	}, "")
	requireStatus(t, status, 201)
	return extractString(t, data, "data.tokens.access_token"),
		extractString(t, data, "data.tokens.refresh_token")
}
