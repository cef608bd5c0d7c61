package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

func event(paths ...string) Event {
	results := make([]*engine.Result, 0, len(paths))
	for _, p := range paths {
		results = append(results, &engine.Result{Path: p, Diagnostics: []lint.Diagnostic{}})
	}
	return NewEvent(results)
}

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestNotifier_SubscribeUnsubscribe(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	require.NotNil(t, ch)
	assert.Equal(t, 1, n.Count())

	n.Unsubscribe(ch)
	assert.Equal(t, 0, n.Count())

	_, ok := <-ch
	assert.False(t, ok, "channel is closed on unsubscribe")

	assert.NotPanics(t, func() { n.Unsubscribe(ch) })
}

func TestNotifier_Broadcast(t *testing.T) {
	n := New()
	ch1 := n.Subscribe()
	ch2 := n.Subscribe()
	defer n.Unsubscribe(ch1)
	defer n.Unsubscribe(ch2)

	n.Broadcast(event("a.xml"))

	for _, ch := range []chan Event{ch1, ch2} {
		ev := receive(t, ch)
		require.Len(t, ev.Results, 1)
		assert.Equal(t, "a.xml", ev.Results[0].Path)
		assert.Equal(t, 1, ev.Summary.Passed)
	}
}

func TestNotifier_SlowListenerGetsLatest(t *testing.T) {
	n := New()
	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	n.Broadcast(event("first.xml"))
	n.Broadcast(event("second.xml"))
	n.Broadcast(event("third.xml"))

	ev := receive(t, ch)
	assert.Equal(t, "third.xml", ev.Results[0].Path)

	select {
	case <-ch:
		t.Fatal("only the latest event is kept")
	default:
	}
}

func TestNotifier_ConcurrentAccess(t *testing.T) {
	n := New()
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := n.Subscribe()
			n.Broadcast(event("x.xml"))
			n.Unsubscribe(ch)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, n.Count())
}
