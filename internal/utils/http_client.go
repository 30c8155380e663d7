package utils

import (
	"bytes"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"carvest-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

func NewHTTPClient(timeout time.Duration, debug bool) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if debug {
		transport = &DebugTransport{base: transport}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DebugTransport logs outgoing POST requests with credentials redacted.
type DebugTransport struct {
	base http.RoundTripper
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logger.Errorf("upstream request to %s failed: %v", req.URL.String(), err)
	}
	return resp, err
}

func (t *DebugTransport) logRequest(req *http.Request) {
	headers := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers[name] = "[REDACTED]"
			continue
		}
		headers[name] = strings.Join(values, ", ")
	}

	bodySize := 0
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			logger.Errorf("debug transport: read body: %v", err)
			return
		}
		// put the body back for the real round trip
		req.Body = io.NopCloser(bytes.NewReader(body))
		bodySize = len(body)
	}

	logger.WithFields(logrus.Fields{
		"url":        req.URL.String(),
		"headers":    headers,
		"body_bytes": bodySize,
	}).Debug("upstream request")
}

func isSensitiveHeader(name string) bool {
	for _, sensitive := range []string{"authorization", "x-api-key", "x-auth-token", "cookie"} {
		if strings.EqualFold(name, sensitive) {
			return true
		}
	}
	return false
}
