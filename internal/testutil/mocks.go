package testutil

import (
	"context"
	"sync"

	"github.com/ilan2004/Ev-wheels-sub003/internal/queue"
)

// RecordingEnqueuer captures transition notices instead of touching Redis.
type RecordingEnqueuer struct {
	mu      sync.Mutex
	notices []queue.TransitionNoticePayload
	// Err, when set, is returned from every enqueue call.
	Err error
}

func (e *RecordingEnqueuer) EnqueueTransitionNotice(p queue.TransitionNoticePayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.notices = append(e.notices, p)
	return nil
}

// Notices returns a snapshot of everything enqueued so far.
func (e *RecordingEnqueuer) Notices() []queue.TransitionNoticePayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]queue.TransitionNoticePayload, len(e.notices))
	copy(out, e.notices)
	return out
}

// RecordingNotifier captures delivered notices for worker tests.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []queue.TransitionNoticePayload
}

func (n *RecordingNotifier) Notify(ctx context.Context, p queue.TransitionNoticePayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, p)
	return nil
}

func (n *RecordingNotifier) Notices() []queue.TransitionNoticePayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]queue.TransitionNoticePayload, len(n.notices))
	copy(out, n.notices)
	return out
}
