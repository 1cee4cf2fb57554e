package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// RecordedRequest is a request observed by [FakeEmby].
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

type route struct {
	path  string
	match map[string]string
	body  any
}

type failure struct {
	status int
	times  int
}

// FakeEmby is an httptest server that answers Emby API paths with canned JSON.
//
// Unregistered paths return 404.
type FakeEmby struct {
	*httptest.Server

	mu       sync.Mutex
	routes   []route
	failures map[string]*failure
	requests []RecordedRequest
}

// NewFakeEmby starts a fake server that is closed when the test ends.
func NewFakeEmby(t *testing.T) *FakeEmby {
	t.Helper()
	f := &FakeEmby{failures: make(map[string]*failure)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// On registers body as the JSON response for path. Every key in match must equal
// the request's query parameter of the same name. Earlier routes win.
func (f *FakeEmby) On(path string, match map[string]string, body any) *FakeEmby {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route{path: path, match: match, body: body})
	return f
}

// Fail makes the next n requests to path answer with status. A negative n fails forever.
func (f *FakeEmby) Fail(path string, status, n int) *FakeEmby {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = &failure{status: status, times: n}
	return f
}

// Requests returns a copy of every request received so far.
func (f *FakeEmby) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many requests were made to path.
func (f *FakeEmby) Count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeEmby) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})

	if fl, ok := f.failures[r.URL.Path]; ok && fl.times != 0 {
		if fl.times > 0 {
			fl.times--
		}
		f.mu.Unlock()
		http.Error(w, http.StatusText(fl.status), fl.status)
		return
	}

	var body any
	found := false
	for _, rt := range f.routes {
		if rt.path == r.URL.Path && matches(r.URL.Query(), rt.match) {
			body, found = rt.body, true
			break
		}
	}
	f.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if raw, ok := body.(string); ok {
		_, _ = w.Write([]byte(raw))
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func matches(q url.Values, want map[string]string) bool {
	for k, v := range want {
		if q.Get(k) != v {
			return false
		}
	}
	return true
}
