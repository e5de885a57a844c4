package ingest

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetchConfig() FetchConfig {
	return FetchConfig{TimeoutSeconds: 2, MaxRetries: 1, RateLimitRPS: 100}
}

func TestRateLimitedFetcher_PostSendsJSONBody(t *testing.T) {
	var gotBody, gotContentType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	f := NewRateLimitedFetcher(testFetchConfig())
	doc, err := f.Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL + "/run"})
	require.NoError(t, err)
	defer doc.Body.Close()

	assert.Equal(t, http.StatusOK, doc.StatusCode)
	assert.Equal(t, "application/json", doc.ContentType)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "{}", gotBody)
	assert.Equal(t, "application/json", gotContentType)
}

func TestRateLimitedFetcher_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewRateLimitedFetcher(testFetchConfig())
	doc, err := f.Do(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	doc.Body.Close()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimitedFetcher_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewRateLimitedFetcher(testFetchConfig())
	_, err := f.Do(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRateLimitedFetcher_InvalidURL(t *testing.T) {
	f := NewRateLimitedFetcher(FetchConfig{})
	_, err := f.Do(context.Background(), Request{URL: "not a url"})
	assert.Error(t, err)
}

func TestRateLimitedFetcher_BlocksPrivateNetworks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewRateLimitedFetcher(testFetchConfig())
	f.BlockPrivateNetworks = true
	_, err := f.Do(context.Background(), Request{URL: srv.URL})
	assert.Error(t, err)
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("127.0.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("10.1.2.3")))
	assert.True(t, isPrivateIP(net.ParseIP("::1")))
	assert.True(t, isPrivateIP(nil))
	assert.False(t, isPrivateIP(net.ParseIP("8.8.8.8")))
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(nil, http.StatusTooManyRequests))
	assert.True(t, shouldRetry(nil, http.StatusBadGateway))
	assert.False(t, shouldRetry(nil, http.StatusBadRequest))
	assert.False(t, shouldRetry(errors.New("connection refused"), 0))
	assert.False(t, shouldRetry(&net.DNSError{Err: "i/o timeout", IsTimeout: true}, 0))
}

func TestWithFetchDefaults(t *testing.T) {
	got := withFetchDefaults(FetchConfig{}, FetchConfig{})
	assert.Equal(t, 15, got.TimeoutSeconds)
	assert.Equal(t, 0, got.MaxRetries)
	assert.Equal(t, 1.0, got.RateLimitRPS)

	got = withFetchDefaults(FetchConfig{}, FetchConfig{MaxRetries: 2})
	assert.Equal(t, 2, got.MaxRetries)
}

func TestDo_TimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := NewRateLimitedFetcher(FetchConfig{RateLimitRPS: 100})
	_, err := f.Do(context.Background(), Request{
		URL:   srv.URL,
		Fetch: FetchConfig{TimeoutSeconds: 1, MaxRetries: 3},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
