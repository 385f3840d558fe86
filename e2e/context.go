package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext carries one scenario's HTTP state against a running server.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string

	client      *http.Client
	accessToken string
	lastStatus  int
	lastBody    []byte
	saved       map[string]string
}

// NewTestContext reads the target server settings from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:    env("E2E_BASE_URL", "http://localhost:8080"),
		SigningKey: env("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Issuer:     env("JWT_ISSUER", "mockview"),
		Audience:   env("JWT_AUDIENCE", "mockview-api"),
		client:     &http.Client{Timeout: 2 * time.Minute},
		saved:      make(map[string]string),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.accessToken = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.saved = make(map[string]string)
}

// AuthenticateAs mints a token the server accepts for email.
func (tc *TestContext) AuthenticateAs(email string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"sub":   email,
		"iss":   tc.Issuer,
		"aud":   []string{tc.Audience},
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(tc.SigningKey))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	tc.accessToken = signed
	return nil
}

func (tc *TestContext) ClearAuth() { tc.accessToken = "" }

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastBody() []byte { return tc.lastBody }

// GetResponseField returns a top-level or dotted field of the last JSON body.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var cur interface{}
	if err := json.Unmarshal(tc.lastBody, &cur); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		if cur, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return cur, nil
}

// Save stores a value for later {name} expansion in paths.
func (tc *TestContext) Save(name, value string) { tc.saved[name] = value }

func (tc *TestContext) Saved(name string) string { return tc.saved[name] }

// Expand replaces {name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
