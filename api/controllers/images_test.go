package controllers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shoplight/shoplight-backend/pkg/logger"
	"github.com/shoplight/shoplight-backend/pkg/pexels"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newStubPexelsClient(t *testing.T, status int, body string) *pexels.Client {
	t.Helper()
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	})}
	client, err := pexels.NewClient("test-key", pexels.WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestSearchImagesRelaysUpstreamBody(t *testing.T) {
	upstream := `{"page":1,"photos":[{"id":7}]}`
	handler := SearchImages(newStubPexelsClient(t, http.StatusOK, upstream), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/search-images?query=shoes", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != upstream {
		t.Fatalf("expected upstream body relayed, got %q", rec.Body.String())
	}
}

func TestSearchImagesRequiresQuery(t *testing.T) {
	handler := SearchImages(newStubPexelsClient(t, http.StatusOK, `{}`), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/search-images", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearchImagesRelaysUpstreamError(t *testing.T) {
	upstream := `{"error":"rate limited"}`
	handler := SearchImages(newStubPexelsClient(t, http.StatusTooManyRequests, upstream), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/search-images?query=shoes", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected relayed 429, got %d", rec.Code)
	}
	if rec.Body.String() != upstream {
		t.Fatalf("expected upstream error body relayed, got %q", rec.Body.String())
	}
}
