package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type observation struct {
	method string
	route  string
	status int
}

type observerStub struct {
	mu  sync.Mutex
	got []observation
}

func (o *observerStub) ObserveRequest(method, route string, status int, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, observation{method, route, status})
}

func TestMetrics_RecordsMatchedRoute(t *testing.T) {
	obs := &observerStub{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/predictions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	wrapped := Metrics(obs)(mux)

	for _, path := range []string{"/api/predictions/a", "/api/predictions/b", "/nope"} {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	want := []observation{
		{http.MethodGet, "GET /api/predictions/{id}", http.StatusNotFound},
		{http.MethodGet, "GET /api/predictions/{id}", http.StatusNotFound},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}
	if len(obs.got) != len(want) {
		t.Fatalf("got %d observations, want %d: %+v", len(obs.got), len(want), obs.got)
	}
	for i := range want {
		if obs.got[i] != want[i] {
			t.Errorf("observation[%d] = %+v, want %+v", i, obs.got[i], want[i])
		}
	}
}

func TestMetrics_DefaultStatusOK(t *testing.T) {
	obs := &observerStub{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	Metrics(obs)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/live", nil))

	if len(obs.got) != 1 || obs.got[0].status != http.StatusOK {
		t.Errorf("observations = %+v", obs.got)
	}
}
