package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/testutil"
)

func missingDiameter() string {
	pen := testutil.DefaultPenetrometer()
	delete(pen, "coneDiameter")
	req := testutil.CompleteRequest()
	req.Penetrometer = pen
	return req.XML()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

type harness struct {
	rounds chan []*engine.Result
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, initial bool, paths ...string) *harness {
	t.Helper()
	h := &harness{
		rounds: make(chan []*engine.Result, 16),
		done:   make(chan error, 1),
	}
	w := New(Config{
		Engine:    engine.New(engine.Config{}),
		Debounce:  50 * time.Millisecond,
		Initial:   initial,
		OnResults: func(results []*engine.Result) { h.rounds <- results },
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx, paths) }()
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

// waitFor returns the first round that contains path.
func (h *harness) waitFor(t *testing.T, path string) *engine.Result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case results := <-h.rounds:
			for _, r := range results {
				if r.Path == path {
					return r
				}
			}
		case <-deadline:
			t.Fatalf("no validation of %s", path)
			return nil
		}
	}
}

func TestWatcher_InitialAndChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	good := filepath.Join(dir, "good.xml")
	writeFile(t, good, testutil.CompleteRequest().XML())

	h := start(t, true, dir)
	defer h.stop(t)

	r := h.waitFor(t, good)
	assert.True(t, r.Passed())

	bad := filepath.Join(dir, "bad.xml")
	writeFile(t, bad, missingDiameter())

	r = h.waitFor(t, bad)
	assert.Equal(t, []string{"Sondeerapparaat Conusdiameter (coneDiameter) is niet ingevuld"}, r.Messages())
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	h := start(t, false, dir)
	defer h.stop(t)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o750))

	// The new directory is picked up asynchronously; keep rewriting until seen.
	path := filepath.Join(sub, "late.xml")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		writeFile(t, path, testutil.CompleteRequest().XML())
		select {
		case results := <-h.rounds:
			for _, r := range results {
				if r.Path == path {
					assert.True(t, r.Passed())
					return
				}
			}
		case <-time.After(200 * time.Millisecond):
		}
	}
	t.Fatal("file in new subdirectory was not validated")
}

func TestWatcher_ExplicitFileIgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	target := filepath.Join(dir, "target.xml")
	other := filepath.Join(dir, "other.xml")
	writeFile(t, target, testutil.CompleteRequest().XML())

	h := start(t, false, target)
	defer h.stop(t)

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, other, missingDiameter())
	writeFile(t, target, missingDiameter())

	r := h.waitFor(t, target)
	assert.False(t, r.Passed())

	select {
	case results := <-h.rounds:
		for _, r := range results {
			assert.NotEqual(t, other, r.Path)
		}
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Errors(t *testing.T) {
	w := New(Config{Engine: engine.New(engine.Config{})})

	assert.Error(t, w.Run(context.Background(), nil))

	err := w.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}

func TestScope(t *testing.T) {
	sep := string(filepath.Separator)
	sc := scope{
		dirs:  []string{"data"},
		files: map[string]bool{filepath.Join("single", "one.txt"): true},
	}

	assert.True(t, sc.includes("data"+sep+"a.xml"))
	assert.True(t, sc.includes("data"+sep+"deep"+sep+"b.XML"))
	assert.False(t, sc.includes("data"+sep+"notes.txt"))
	assert.False(t, sc.includes("database"+sep+"a.xml"))
	assert.True(t, sc.includes("single"+sep+"one.txt"))
	assert.False(t, sc.includes("single"+sep+"two.xml"))
}

func TestDrain(t *testing.T) {
	pending := map[string]bool{"b.xml": true, "a.xml": true}
	assert.Equal(t, []string{"a.xml", "b.xml"}, drain(pending))
	assert.Empty(t, pending)
}
