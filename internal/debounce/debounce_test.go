package debounce

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

const quiet = 400 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	commits []string
}

func (r *recorder) commit(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, v)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commits...)
}

func newTestChannel(t *testing.T) (*Channel, *testclock.FakeClock, *recorder) {
	t.Helper()
	clock := testclock.NewFakeClock(time.Now())
	rec := &recorder{}
	return New(quiet, rec.commit, WithClock(clock)), clock, rec
}

func TestChannel_CommitsOnlyLatestAfterQuietPeriod(t *testing.T) {
	ch, clock, rec := newTestChannel(t)

	ch.Push("a")
	clock.Step(100 * time.Millisecond)
	ch.Push("ap")
	clock.Step(100 * time.Millisecond)
	ch.Push("app")
	clock.Step(quiet - time.Millisecond)
	assert.Empty(t, rec.get(), "nothing may commit before the quiet period elapses")

	clock.Step(time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"app"}, rec.get())
	assert.Equal(t, "app", ch.LastCommitted())
	assert.False(t, ch.Flush(), "nothing left pending after the commit")

	// A second quiet period with no input must not re-commit.
	clock.Step(2 * quiet)
	assert.Equal(t, []string{"app"}, rec.get())
}

func TestChannel_FlushCommitsSynchronouslyAndCancelsTimer(t *testing.T) {
	ch, clock, rec := newTestChannel(t)

	ch.Push("kop")
	ch.Push("kopi")
	assert.True(t, ch.Flush())
	assert.Equal(t, []string{"kopi"}, rec.get())
	assert.False(t, clock.HasWaiters(), "flush must cancel the pending timer")

	clock.Step(quiet)
	assert.Equal(t, []string{"kopi"}, rec.get())
	assert.False(t, ch.Flush(), "nothing pending after a flush")
}

func TestChannel_CloseDropsPendingWithoutLateFire(t *testing.T) {
	ch, clock, rec := newTestChannel(t)

	ch.Push("teh")
	ch.Close()
	clock.Step(quiet * 2)
	assert.Empty(t, rec.get())

	ch.Push("ignored")
	assert.False(t, ch.Flush())
	clock.Step(quiet * 2)
	assert.Empty(t, rec.get())
}

func TestChannel_ResetClearsPendingAndLastCommitted(t *testing.T) {
	ch, clock, rec := newTestChannel(t)

	ch.Push("gula")
	require.True(t, ch.Flush())
	ch.Push("gula aren")
	ch.Reset()
	clock.Step(quiet)

	assert.Equal(t, []string{"gula"}, rec.get())
	assert.Equal(t, "", ch.LastCommitted())

	// Still usable after a reset.
	ch.Push("susu")
	clock.Step(quiet)
	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "susu", ch.LastCommitted())
}

func TestChannel_EmptyValueIsCommittable(t *testing.T) {
	ch, clock, rec := newTestChannel(t)

	ch.Push("ab")
	clock.Step(quiet)
	ch.Push("")
	clock.Step(quiet)

	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"ab", ""}, rec.get())
}

func TestChannel_ResetWaitsForRunningCommit(t *testing.T) {
	clock := testclock.NewFakeClock(time.Now())
	entered := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}
	ch := New(quiet, func(v string) {
		close(entered)
		<-release
		rec.commit(v)
	}, WithClock(clock))

	ch.Push("kopi")
	clock.Step(quiet)
	<-entered

	reset := make(chan struct{})
	go func() {
		ch.Reset()
		close(reset)
	}()
	assert.Never(t, func() bool {
		select {
		case <-reset:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "reset must wait for the running commit")

	close(release)
	require.Eventually(t, func() bool {
		select {
		case <-reset:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"kopi"}, rec.get())
	assert.Equal(t, "", ch.LastCommitted(), "reset applies after the commit it waited for")
}

func TestNew_DefaultsQuietPeriod(t *testing.T) {
	clock := testclock.NewFakeClock(time.Now())
	rec := &recorder{}
	ch := New(0, rec.commit, WithClock(clock))

	ch.Push("teh")
	clock.Step(DefaultQuiet - time.Millisecond)
	assert.Empty(t, rec.get())
	clock.Step(time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, time.Millisecond)
}

func TestSubscribe_EmitsLatestOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	in := make(chan string)
	out := Subscribe(ctx, in, 30*time.Millisecond)
	for _, v := range []string{"a", "ap", "app"} {
		in <- v
	}

	select {
	case got := <-out:
		assert.Equal(t, "app", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no commit received")
	}

	select {
	case got := <-out:
		t.Fatalf("unexpected second commit %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_CancelDropsPendingAndCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan string)
	out := Subscribe(ctx, in, time.Hour)
	in <- "pending"
	cancel()

	select {
	case got, ok := <-out:
		assert.False(t, ok, "expected closed channel, got %q", got)
	case <-time.After(2 * time.Second):
		t.Fatal("output not closed after cancel")
	}
}

func TestSubscribe_InputCloseFlushesPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	in := make(chan string)
	out := Subscribe(ctx, in, time.Hour)
	in <- "last"
	close(in)

	var got []string
	for v := range out {
		got = append(got, v)
	}
	assert.Equal(t, []string{"last"}, got)
}
