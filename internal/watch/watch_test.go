package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/scribe/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) Accepts(rel string) bool { return strings.HasSuffix(rel, ".md") }

func (r *recorder) Process(_ context.Context, rel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "process:"+rel)
	return nil
}

func (r *recorder) Remove(_ context.Context, rel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "remove:"+rel)
	return nil
}

func (r *recorder) has(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.calls, call)
}

func (r *recorder) count(call string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

func startWatch(t *testing.T, dir string, h Handler, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := Watch(ctx, dir, h, testutil.QuietLogger(), cb); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_CreateAndWriteDebounced(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	var mu sync.Mutex
	var events []string
	startWatch(t, dir, rec, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	p := filepath.Join(dir, "post.md")
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(p, []byte(strings.Repeat("x", i+1)), 0o644)
	}
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("process:post.md")
	}, "post.md not processed")

	time.Sleep(3 * Debounce)
	if n := rec.count("process:post.md"); n > 2 {
		t.Errorf("post.md processed %d times, want the burst collapsed", n)
	}
	if rec.has("process:notes.txt") {
		t.Error("unsupported file was processed")
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(events, "updated:post.md") {
		t.Errorf("events = %v", events)
	}
}

func TestWatch_Remove(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "gone.md")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatch(t, dir, rec, nil)

	_ = os.Remove(p)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("remove:gone.md")
	}, "removed file not handled")
}

func TestWatch_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatch(t, dir, rec, nil)

	sub := filepath.Join(dir, "sub")
	_ = os.Mkdir(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "nested.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("process:sub/nested.md")
	}, "file in new directory not processed")
}
