package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meshchat/pkg/stl"

	"go.uber.org/goleak"
)

const oneFacet = `solid t
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 1 0
endloop
endfacet
endsolid t
`

const twoFacets = `solid t
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 1 0
endloop
endfacet
facet normal 0 0 1
outer loop
vertex 1 0 0
vertex 1 1 0
vertex 0 1 0
endloop
endfacet
endsolid t
`

type result struct {
	prepared stl.Prepared
	err      error
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	if err := os.WriteFile(path, []byte(oneFacet), 0600); err != nil {
		t.Fatal(err)
	}

	prepared, err := Load(path, stl.Options{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := prepared.Geometry.TriangleCount(); got != 1 {
		t.Fatalf("expected 1 triangle, got %d", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.stl"), stl.Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "part.stl")
	if err := os.WriteFile(path, []byte(oneFacet), 0600); err != nil {
		t.Fatal(err)
	}

	results := make(chan result, 8)
	w, err := New(path, func(p stl.Prepared, err error) {
		results <- result{p, err}
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.stl"), []byte(oneFacet), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(twoFacets), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("unexpected reload error: %v", r.err)
		}
		if got := r.prepared.Geometry.TriangleCount(); got != 2 {
			t.Fatalf("expected 2 triangles after write, got %d", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if err := os.WriteFile(path, []byte("solid broken\nendsolid broken\n"), 0600); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if r.err == nil {
				// A late reload of the previous content.
				continue
			}
			if !errors.Is(r.err, stl.ErrNoTriangles) {
				t.Fatalf("expected ErrNoTriangles, got %v", r.err)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for failed reload")
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "x.stl"), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	w.Stop()
}

func TestStartAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "x.stl"), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	w.Stop()

	if err := w.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("Expected ErrStopped, got %v", err)
	}
	w.Stop()
}
