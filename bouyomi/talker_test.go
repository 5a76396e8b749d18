package bouyomi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// recordingSpeaker records delivered texts; fail decides per call whether to reject it.
type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
	fail  func(text string) error
	gate  chan struct{} // when set, each Talk waits for a token
	calls chan string
}

func newRecordingSpeaker() *recordingSpeaker {
	return &recordingSpeaker{calls: make(chan string, 1024)}
}

func (s *recordingSpeaker) Talk(ctx context.Context, req TalkRequest) error {
	s.calls <- req.Text
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.fail != nil {
		if err := s.fail(req.Text); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.texts = append(s.texts, req.Text)
	s.mu.Unlock()
	return nil
}

func (s *recordingSpeaker) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTalker_DeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sp := newRecordingSpeaker()
	talker := NewTalker(ctx, sp)
	talker.Talk(NewTalkRequest("hello"))
	talker.Talk(NewTalkRequest("world"))

	waitFor(t, "two sends", func() bool { return len(sp.delivered()) == 2 })
	got := sp.delivered()
	if got[0] != "hello" || got[1] != "world" {
		t.Fatalf("delivered = %q, want [hello world]", got)
	}
	if st := talker.Stats(); st.Queued != 2 || st.Sent != 2 || st.Failed != 0 || st.Dropped != 0 {
		t.Fatalf("Stats = %+v, want 2 queued, 2 sent", st)
	}
}

func TestTalker_DiscardsInvalidRequestWithoutDraining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sp := newRecordingSpeaker()
	talker := NewTalker(ctx, sp)
	talker.Talk(NewTalkRequest("wraps", WithVoice(Voice(40000))))
	talker.Talk(NewTalkRequest("ok"))

	waitFor(t, "valid send", func() bool { return len(sp.delivered()) == 1 })
	if got := sp.delivered(); got[0] != "ok" {
		t.Fatalf("delivered = %q, want [ok]", got)
	}
	if st := talker.Stats(); st.Sent != 1 || st.Dropped != 1 || st.Failed != 0 {
		t.Fatalf("Stats = %+v, want 1 sent, 1 dropped, 0 failed", st)
	}
}

func TestTalker_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sp := newRecordingSpeaker()
	talker := NewTalker(ctx, sp)

	const producers, perProducer = 8, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				talker.Talk(NewTalkRequest(fmt.Sprintf("%d:%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	waitFor(t, "all sends", func() bool { return len(sp.delivered()) == producers*perProducer })

	next := make(map[int]int)
	for _, text := range sp.delivered() {
		var p, i int
		if _, err := fmt.Sscanf(text, "%d:%d", &p, &i); err != nil {
			t.Fatalf("unexpected text %q", text)
		}
		if i != next[p] {
			t.Fatalf("producer %d delivered %d before %d", p, i, next[p])
		}
		next[p]++
	}
}

func TestTalker_FailureDrainsQueueAndRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	down := errors.New("connection refused")
	sp := newRecordingSpeaker()
	sp.gate = make(chan struct{})
	sp.fail = func(text string) error {
		if text == "first" {
			return down
		}
		return nil
	}
	talker := NewTalker(ctx, sp)

	talker.Talk(NewTalkRequest("first"))
	// The worker is now blocked inside the first send.
	if got := <-sp.calls; got != "first" {
		t.Fatalf("first call = %q, want first", got)
	}
	for i := 0; i < 4; i++ {
		talker.Talk(NewTalkRequest(fmt.Sprintf("queued-%d", i)))
	}
	sp.gate <- struct{}{}

	waitFor(t, "drain", func() bool { return talker.Stats().Dropped == 4 })
	if n := talker.Pending(); n != 0 {
		t.Fatalf("Pending = %d after drain, want 0", n)
	}

	talker.Talk(NewTalkRequest("after"))
	if got := <-sp.calls; got != "after" {
		t.Fatalf("next call = %q, want after", got)
	}
	sp.gate <- struct{}{}
	waitFor(t, "recovery send", func() bool { return len(sp.delivered()) == 1 })

	if got := sp.delivered(); got[0] != "after" {
		t.Fatalf("delivered = %q, want [after]", got)
	}
	if st := talker.Stats(); st.Failed != 1 || st.Sent != 1 {
		t.Fatalf("Stats = %+v, want 1 failed, 1 sent", st)
	}
}

func TestTalker_TalkNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sp := newRecordingSpeaker()
	sp.gate = make(chan struct{}) // never released: the worker stays stuck in the first send
	talker := NewTalker(ctx, sp)

	start := time.Now()
	for i := 0; i < 10000; i++ {
		talker.Talk(NewTalkRequest("x"))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("10000 Talk calls took %v, want them to return immediately", elapsed)
	}
	if n := talker.Pending(); n < 9999 {
		t.Fatalf("Pending = %d, want at least 9999", n)
	}
}

func TestTalker_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sp := newRecordingSpeaker()
	talker := NewTalker(ctx, sp)
	talker.Talk(NewTalkRequest("one"))
	waitFor(t, "first send", func() bool { return len(sp.delivered()) == 1 })

	cancel()
	time.Sleep(20 * time.Millisecond)
	talker.Talk(NewTalkRequest("two"))
	time.Sleep(50 * time.Millisecond)
	if got := sp.delivered(); len(got) != 1 {
		t.Fatalf("delivered = %q after cancel, want only the first line", got)
	}
}

func TestTalker_OverSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := newFakeApp(t, nil)
	talker := NewTalker(ctx, NewClient(app.addr(), WithDefaultTimeout(2*time.Second)))
	talker.Talk(NewTalkRequest("hello"))
	talker.Talk(NewTalkRequest("world"))

	waitFor(t, "two socket sends", func() bool { return len(app.texts()) == 2 })
	got := app.texts()
	if got[0] != "hello" || got[1] != "world" {
		t.Fatalf("texts = %q, want [hello world]", got)
	}
}

func TestTalker_UnreachableSocketDrops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	talker := NewTalker(ctx, NewClient(closedAddr(t), WithDefaultTimeout(time.Second)))
	talker.Talk(NewTalkRequest("nobody home"))

	waitFor(t, "failure", func() bool { return talker.Stats().Failed == 1 })
}

func TestTalkQueue_PopWaitsForPush(t *testing.T) {
	q := newTalkQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	got := make(chan string, 1)
	go func() {
		req, err := q.pop(ctx)
		if err != nil {
			got <- "error: " + err.Error()
			return
		}
		got <- req.Text
	}()

	time.Sleep(20 * time.Millisecond)
	q.push(NewTalkRequest("late"))
	if text := <-got; text != "late" {
		t.Fatalf("pop = %q, want late", text)
	}
}

func TestTalkQueue_DrainEmptiesWithoutBlocking(t *testing.T) {
	q := newTalkQueue()
	if n := q.drain(); n != 0 {
		t.Fatalf("drain on empty = %d, want 0", n)
	}
	q.push(NewTalkRequest("a"))
	q.push(NewTalkRequest("b"))
	if n := q.drain(); n != 2 {
		t.Fatalf("drain = %d, want 2", n)
	}
	if n := q.len(); n != 0 {
		t.Fatalf("len after drain = %d, want 0", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// A stale wake-up token must not yield a phantom item.
	if _, err := q.pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("pop after drain error = %v, want deadline exceeded", err)
	}
}
