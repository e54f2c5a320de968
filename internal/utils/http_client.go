package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns the client used for provider calls. The timeout is a
// backstop; callers bound each call with a context deadline.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
