package bouyomi

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Speaker delivers a single talk request synchronously. *Client and *HTTPClient implement it.
type Speaker interface {
	Talk(ctx context.Context, req TalkRequest) error
}

// Remote is the transport-independent surface shared by Client and HTTPClient.
type Remote interface {
	Speaker
	Pause(ctx context.Context, opts ...CallOption) error
	Resume(ctx context.Context, opts ...CallOption) error
	Skip(ctx context.Context, opts ...CallOption) error
	Clear(ctx context.Context, opts ...CallOption) error
	Status(ctx context.Context, opts ...CallOption) (Status, error)
	Addr() string
}

var (
	_ Remote = (*Client)(nil)
	_ Remote = (*HTTPClient)(nil)
)

// TalkerStats counts what the worker has done so far.
type TalkerStats struct {
	Queued  int64
	Sent    int64
	Failed  int64
	Dropped int64
}

// TalkerOption configures a Talker.
type TalkerOption func(*Talker)

// WithTalkerLogger routes worker diagnostics to logger.
func WithTalkerLogger(logger *log.Logger) TalkerOption {
	return func(t *Talker) { t.logger = logger }
}

// Talker serialises talk requests from any number of goroutines onto one worker, so at most
// one request is in flight and lines are spoken in the order Talk was called.
//
// The worker starts on the first call to Talk and runs until the context passed to NewTalker
// is done. When a send fails the application is assumed to be down and every request still
// queued is discarded; the worker then keeps serving new requests.
type Talker struct {
	ctx     context.Context
	speaker Speaker
	queue   *talkQueue
	start   sync.Once
	logger  *log.Logger

	queued  atomic.Int64
	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewTalker returns a Talker that hands requests to speaker.
func NewTalker(ctx context.Context, speaker Speaker, opts ...TalkerOption) *Talker {
	t := &Talker{
		ctx:     ctx,
		speaker: speaker,
		queue:   newTalkQueue(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	t.logger = t.logger.With("component", "talker")
	return t
}

// Talk queues req and returns immediately.
func (t *Talker) Talk(req TalkRequest) {
	t.queue.push(req)
	t.queued.Add(1)
	t.start.Do(func() { go t.run() })
}

// Pending returns the number of requests waiting for the worker.
func (t *Talker) Pending() int { return t.queue.len() }

// Stats returns a snapshot of the worker counters.
func (t *Talker) Stats() TalkerStats {
	return TalkerStats{
		Queued:  t.queued.Load(),
		Sent:    t.sent.Load(),
		Failed:  t.failed.Load(),
		Dropped: t.dropped.Load(),
	}
}

func (t *Talker) run() {
	for {
		req, err := t.queue.pop(t.ctx)
		if err != nil {
			t.logger.Debug("worker stopped", "pending", t.queue.len())
			return
		}
		if err := req.Validate(); err != nil {
			t.dropped.Add(1)
			t.logger.Warn("invalid talk request discarded", "err", err)
			continue
		}
		if err := t.speaker.Talk(t.ctx, req); err != nil {
			t.failed.Add(1)
			n := t.queue.drain()
			t.dropped.Add(int64(n))
			t.logger.Warn("talk failed, discarding queued lines", "err", err, "dropped", n)
			continue
		}
		t.sent.Add(1)
		t.logger.Debug("talk sent", "bytes", len(req.Text), "pending", t.queue.len())
	}
}
