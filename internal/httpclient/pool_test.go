package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "CanPoliAPI/1.0", r.Header.Get("User-Agent"))
		require.Equal(t, "*/*", r.Header.Get("Accept"))
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	pool := New(Config{MaxConcurrency: 2})
	result, err := pool.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, srv.URL, result.URL)
	require.Equal(t, "hello", result.Text)
}

func TestNon2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	pool := New(Config{})
	_, err := pool.Get(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, srv.URL, fetchErr.URL)
}

func TestConcurrencyBounded(t *testing.T) {
	var inFlight, peak atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}))
	defer srv.Close()

	pool := New(Config{MaxConcurrency: 2})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Get(context.Background(), srv.URL)
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, peak.Load(), int64(2))
}

func TestPerHostThrottle(t *testing.T) {
	var timesMu sync.Mutex
	var times []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timesMu.Lock()
		times = append(times, time.Now())
		timesMu.Unlock()
	}))
	defer srv.Close()

	pool := New(Config{MaxConcurrency: 4, MinInterval: 50 * time.Millisecond})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Get(context.Background(), srv.URL)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	timesMu.Lock()
	defer timesMu.Unlock()
	require.Len(t, times, 3)
	first, last := times[0], times[0]
	for _, ts := range times[1:] {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	// Three requests to one host spaced 50ms apart span at least ~100ms.
	require.GreaterOrEqual(t, last.Sub(first), 80*time.Millisecond)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	pool := New(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := pool.Get(ctx, srv.URL)
	require.Error(t, err)
}
