package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meshchat/pkg/history"
	"meshchat/pkg/stl"
	"meshchat/pkg/viewer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeCorner = `solid corner
facet normal 0 0 -1
outer loop
vertex 0 0 0
vertex 2 0 0
vertex 0 1 0
endloop
endfacet
endsolid corner
`

func newTestServer(t *testing.T, s Server) *httptest.Server {
	t.Helper()
	if s.Activation == nil {
		s.Activation = viewer.NewActivation()
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Server{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["ok"])
}

func TestExtract(t *testing.T) {
	srv := newTestServer(t, Server{})

	tests := []struct {
		name          string
		text          string
		wantSources   int
		wantAmbiguous bool
	}{
		{"url", "grab https://cdn.test/a.stl please", 1, false},
		{"fenced", "```stl\n" + cubeCorner + "```", 1, false},
		{"ambiguous", "facet normal 0 0 1 and outer loop", 0, true},
		{"plain", "hello there", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"text": tt.text})
			resp, err := http.Post(srv.URL+"/api/extract", "application/json", strings.NewReader(string(body)))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			out := decodeBody(t, resp)
			sources, ok := out["sources"].([]any)
			require.True(t, ok, "sources should always be an array")
			assert.Len(t, sources, tt.wantSources)
			assert.Equal(t, tt.wantAmbiguous, out["ambiguous"])
			_, hasAdvisory := out["advisory"]
			assert.Equal(t, tt.wantAmbiguous, hasAdvisory)
		})
	}
}

func TestExtract_BadJSON(t *testing.T) {
	srv := newTestServer(t, Server{})

	resp, err := http.Post(srv.URL+"/api/extract", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParse(t *testing.T) {
	srv := newTestServer(t, Server{})

	resp, err := http.Post(srv.URL+"/api/stl/parse", "model/stl", strings.NewReader(cubeCorner))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.EqualValues(t, 1, out["triangles"])
	assert.InDelta(t, 0.9, out["scale"], 1e-6)
	bounds, ok := out["bounds"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{2.0, 1.0, 0.0}, bounds["max"])
}

func TestParse_Binary(t *testing.T) {
	srv := newTestServer(t, Server{})

	g, err := stl.ParseASCII(cubeCorner)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/stl/parse", "model/stl", strings.NewReader(string(stl.EncodeBinary(g, "corner"))))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decodeBody(t, resp)["triangles"])
}

func TestParse_Errors(t *testing.T) {
	srv := newTestServer(t, Server{MaxBodyBytes: 512})

	resp, err := http.Post(srv.URL+"/api/stl/parse", "model/stl", strings.NewReader("solid empty\nendsolid empty\n"))
	require.NoError(t, err)
	out := decodeBody(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, out["error"], "no triangles parsed")

	resp, err = http.Post(srv.URL+"/api/stl/parse", "model/stl", strings.NewReader(strings.Repeat("x", 600)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corner.stl":
			_, _ = io.WriteString(w, cubeCorner)
		case "/big.stl":
			_, _ = io.WriteString(w, strings.Repeat("x", 4096))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	upstreamHost := strings.Split(strings.TrimPrefix(upstream.URL, "http://"), ":")[0]
	srv := newTestServer(t, Server{
		Fetcher:    &stl.Fetcher{Client: upstream.Client(), MaxBytes: 1024},
		AllowHosts: []string{upstreamHost},
	})

	proxy := func(target string) *http.Response {
		resp, err := http.Get(srv.URL + "/stl-proxy?url=" + url.QueryEscape(target))
		require.NoError(t, err)
		return resp
	}

	resp := proxy(upstream.URL + "/corner.stl")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "model/stl", resp.Header.Get("Content-Type"))
	assert.Equal(t, cubeCorner, string(body))

	resp = proxy(upstream.URL + "/big.stl")
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = proxy(upstream.URL + "/missing.stl")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = proxy("https://evil.test/x.stl")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = proxy("file:///etc/passwd")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProxy_RedirectRechecksHost(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		_, _ = io.WriteString(w, "internal")
	}))
	defer internal.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/away.stl":
			http.Redirect(w, r, internal.URL+"/secret", http.StatusFound)
		case "/moved.stl":
			http.Redirect(w, r, "/corner.stl", http.StatusFound)
		case "/corner.stl":
			_, _ = io.WriteString(w, cubeCorner)
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	// Same listener under a different host name, so only "localhost" is allowed.
	_, port, err := net.SplitHostPort(strings.TrimPrefix(upstream.URL, "http://"))
	require.NoError(t, err)
	allowedBase := "http://localhost:" + port

	srv := newTestServer(t, Server{
		Fetcher:    &stl.Fetcher{Client: upstream.Client(), MaxBytes: 1024},
		AllowHosts: []string{"localhost"},
	})

	resp, err := http.Get(srv.URL + "/stl-proxy?url=" + url.QueryEscape(allowedBase+"/away.stl"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, internalHits.Load())

	resp, err = http.Get(srv.URL + "/stl-proxy?url=" + url.QueryEscape(allowedBase+"/moved.stl"))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, cubeCorner, string(body))
}

func TestHostAllowed(t *testing.T) {
	allow := []string{"cdn.example.com", " Models.Test "}

	assert.True(t, hostAllowed("cdn.example.com", allow))
	assert.True(t, hostAllowed("eu.cdn.example.com", allow))
	assert.True(t, hostAllowed("models.test", allow))
	assert.False(t, hostAllowed("example.com", allow))
	assert.False(t, hostAllowed("badcdn.example.com", allow))
	assert.True(t, hostAllowed("anything", nil))
}

func TestViewer(t *testing.T) {
	act := viewer.NewActivation()
	var mu sync.Mutex
	var seen []string
	unsubscribe := act.Subscribe(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, id)
	})
	defer unsubscribe()

	srv := newTestServer(t, Server{Activation: act})

	post := func(body string) map[string]any {
		resp, err := http.Post(srv.URL+"/api/viewer", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeBody(t, resp)
	}

	out := post(`{"id":"a"}`)
	assert.Equal(t, "a", out["id"])
	assert.Equal(t, true, out["active"])

	out = post(`{"id":"a","toggle":true}`)
	assert.Equal(t, false, out["active"])

	post(`{"id":"b"}`)
	resp, err := http.Get(srv.URL + "/api/viewer")
	require.NoError(t, err)
	assert.Equal(t, "b", decodeBody(t, resp)["id"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "a", "", "b"}, seen)
}

func TestHistoryRoutes(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	e, err := store.Add(context.Background(), history.Entry{SourceKind: "url", Source: "https://a.test/x.stl", Triangles: 4})
	require.NoError(t, err)

	srv := newTestServer(t, Server{History: store})

	resp, err := http.Get(srv.URL + "/api/history?limit=5")
	require.NoError(t, err)
	items, ok := decodeBody(t, resp)["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)

	resp, err = http.Get(srv.URL + "/api/history/" + e.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/history/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Server{Activation: viewer.NewActivation()}.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
