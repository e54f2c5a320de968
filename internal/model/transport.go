package model

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"storycraft/pkg/logger"
)

// ProviderTransport adds fixed headers to every provider request and, when
// debug is on, logs the request with credentials redacted.
type ProviderTransport struct {
	base    http.RoundTripper
	headers map[string]string
	debug   bool
}

func NewProviderTransport(base http.RoundTripper, headers map[string]string, debug bool) *ProviderTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &ProviderTransport{
		base:    base,
		headers: headers,
		debug:   debug,
	}
}

func (t *ProviderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	logBody := t.debug && req.Method == http.MethodPost
	if len(t.headers) > 0 || logBody {
		// RoundTrippers must not modify the caller's request
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}

	if logBody {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.debug {
		logger.Errorf("[provider debug] request to %s failed: %v", req.URL, err)
	}
	return resp, err
}

// logRequest may replace req.Body, so req must be a clone.
func (t *ProviderTransport) logRequest(req *http.Request) {
	logger.Debugf("[provider debug] %s %s", req.Method, req.URL.String())
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			logger.Debugf("[provider debug]   %s: [REDACTED]", name)
		} else {
			logger.Debugf("[provider debug]   %s: %s", name, strings.Join(values, ", "))
		}
	}

	if req.Body == nil {
		return
	}
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		logger.Errorf("[provider debug] read request body: %v", err)
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	logger.Debugf("[provider debug] body (%d bytes): %s", len(bodyBytes), sanitizeJSONFields(string(bodyBytes)))
}

var sensitiveField = regexp.MustCompile(`"(api_key|apiKey|password|secret|token)"\s*:\s*"[^"]*"`)

func sanitizeJSONFields(body string) string {
	return sensitiveField.ReplaceAllString(body, `"$1": "[REDACTED]"`)
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "x-api-key", "x-auth-token", "cookie":
		return true
	}
	return false
}
