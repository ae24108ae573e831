package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, server
}

func TestRetry_ConnectivityFailureRetriedOnce(t *testing.T) {
	var calls int32
	c, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	base := http.DefaultTransport
	c.http.Transport = roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset")
		}
		return base.RoundTrip(req)
	})
	_ = server

	vehicles, err := c.SearchVehicles(context.Background(), SearchParams{Page: 1, Limit: PageLimit})
	if err != nil {
		t.Fatalf("expected transparent retry to succeed: %v", err)
	}
	if vehicles == nil {
		t.Fatal("expected an empty page, got nil decode")
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", calls)
	}
}

func TestRetry_SecondFailureSurfaces(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c.http.Transport = roundTripperFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("connection reset")
	})

	_, err := c.SearchVehicles(context.Background(), SearchParams{Page: 1, Limit: PageLimit})
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected connectivity error after two failures, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", calls)
	}
}

func TestRetry_HTTPErrorStatusNotRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"database on fire"}`)
	}))

	_, err := c.SearchVehicles(context.Background(), SearchParams{Page: 1, Limit: PageLimit})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Message != "database on fire" {
		t.Fatalf("expected server error message, got %q", apiErr.Message)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("5xx must not be retried, got %d attempts", calls)
	}
}

func TestErrorMessage_FallsBackWhenBodyIsNotJSON(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	}))

	_, err := c.SearchVehicles(context.Background(), SearchParams{Page: 1, Limit: PageLimit})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Message != "request failed with status 502" {
		t.Fatalf("expected generic message, got %q", apiErr.Message)
	}
}

func TestUnauthorized_SignsSessionOut(t *testing.T) {
	signedOut := false
	session := NewSession(func() { signedOut = true })
	session.SetToken("stale-token")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"token expired"}`)
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL}, session)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("expected error from 401")
	}
	if !signedOut {
		t.Fatal("401 must trigger the sign-out hook")
	}
	if session.Token() != "" {
		t.Fatal("401 must clear the token")
	}
}

func TestSearchVehicles_SendsBearerToken(t *testing.T) {
	var gotAuth string
	session := NewSession(nil)
	session.SetToken("access-token")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL}, session)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SearchVehicles(context.Background(), SearchParams{Page: 1, Limit: PageLimit}); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer access-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestSearchVehicles_QueryParameters(t *testing.T) {
	var gotQuery map[string][]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))

	min := 50.0
	_, err := c.SearchVehicles(context.Background(), SearchParams{
		Query:   "jet ski",
		Filters: SearchFilters{Type: "watercraft", MinPrice: &min, StartDate: "2026-09-01"},
		Geo:     &Geo{Latitude: 37.77, Longitude: -122.41, RadiusKm: 100},
		Page:    2,
		Limit:   PageLimit,
	})
	if err != nil {
		t.Fatal(err)
	}

	expect := map[string]string{
		"q": "jet ski", "type": "watercraft", "minPrice": "50",
		"startDate": "2026-09-01", "lat": "37.77", "lng": "-122.41",
		"radius": "100", "page": "2", "limit": "20",
	}
	for key, want := range expect {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Fatalf("param %s: expected %q, got %v", key, want, got)
		}
	}
	if _, present := gotQuery["maxPrice"]; present {
		t.Fatal("unset filters must not appear in the query string")
	}
}
