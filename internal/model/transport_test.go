package model

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestProviderTransportDebugLeavesCallerRequestAlone(t *testing.T) {
	var seen *http.Request
	var seenBody string
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req
		b, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		seenBody = string(b)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
	})

	req, err := http.NewRequest(http.MethodPost, "https://provider.test/chat", strings.NewReader(`{"model":"m"}`))
	require.NoError(t, err)
	originalBody := req.Body

	transport := NewProviderTransport(base, nil, true)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotSame(t, req, seen)
	assert.True(t, originalBody == req.Body, "caller request Body must be unchanged")
	assert.Equal(t, `{"model":"m"}`, seenBody)
}

func TestProviderTransportAddsHeadersOnClone(t *testing.T) {
	var seen *http.Request
	base := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
	})

	req, err := http.NewRequest(http.MethodGet, "https://provider.test/models", nil)
	require.NoError(t, err)

	transport := NewProviderTransport(base, map[string]string{"X-Title": "StoryCraft"}, false)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "StoryCraft", seen.Header.Get("X-Title"))
	assert.Empty(t, req.Header.Get("X-Title"))
}
