// Package e2e drives a running floodrelief server through Gherkin scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the HTTP client and per-scenario state shared by all
// step packages.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens     map[string]string
	nationalID map[string]string
	lastStatus int
	lastHeader http.Header
	lastBody   []byte
	lastID     int64
}

// NewTestContext builds a context against baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears scenario state.
func (tc *TestContext) Reset() {
	tc.tokens = make(map[string]string)
	tc.nationalID = make(map[string]string)
	tc.lastStatus = 0
	tc.lastHeader = nil
	tc.lastBody = nil
	tc.lastID = 0
}

// Do sends a request as the named user. An empty user sends no token.
func (tc *TestContext) Do(method, path, user string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tc.tokens[user]; user != "" && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }
func (tc *TestContext) LastHeader(k string) string { return tc.lastHeader.Get(k) }
func (tc *TestContext) LastBody() []byte { return tc.lastBody }

// Field reads a top-level field of the last JSON response.
func (tc *TestContext) Field(name string) (any, error) {
	var doc map[string]any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := doc[name]
	if !ok {
		return nil, fmt.Errorf("field %q missing from %s", name, tc.lastBody)
	}
	return v, nil
}

// RememberID stores the "id" field of the last response.
func (tc *TestContext) RememberID() error {
	v, err := tc.Field("id")
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok {
		return fmt.Errorf("id is not a number: %v", v)
	}
	tc.lastID = int64(n)
	return nil
}

func (tc *TestContext) LastID() int64 { return tc.lastID }

func (tc *TestContext) SetToken(user, token string) { tc.tokens[user] = token }

// NationalIDFor returns a stable random national id for a scenario user so
// scenarios can run repeatedly against the same database.
func (tc *TestContext) NationalIDFor(user string) string {
	if nid, ok := tc.nationalID[user]; ok {
		return nid
	}
	nid := fmt.Sprintf("%011d", 10_000_000_000+rand.Int64N(89_999_999_999))
	tc.nationalID[user] = nid
	return nid
}

// LoginFor derives a unique login for a scenario user.
func (tc *TestContext) LoginFor(user string) string {
	return user + "-" + tc.NationalIDFor(user)
}
