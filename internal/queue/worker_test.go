package queue

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

type captureNotifier struct {
	mu      sync.Mutex
	notices []TransitionNoticePayload
}

func (c *captureNotifier) Notify(ctx context.Context, p TransitionNoticePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, p)
	return nil
}

func TestHandleTransitionNotice(t *testing.T) {
	notifier := &captureNotifier{}
	w := NewWorker(&config.RedisConfig{Addr: "localhost:6379"}, notifier)

	payload := TransitionNoticePayload{
		EntityKind:     workflow.KindServiceTicket,
		EntityID:       uuid.New(),
		PreviousStatus: workflow.StatusReported,
		NewStatus:      workflow.StatusTriaged,
		ActorID:        uuid.New(),
		Note:           "triaged at front desk",
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	err = w.HandleTransitionNotice(context.Background(), asynq.NewTask(TypeTransitionNotice, raw))
	require.NoError(t, err)

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, payload, notifier.notices[0])
}

func TestHandleTransitionNoticeBadPayload(t *testing.T) {
	w := NewWorker(&config.RedisConfig{Addr: "localhost:6379"}, &captureNotifier{})

	err := w.HandleTransitionNotice(context.Background(), asynq.NewTask(TypeTransitionNotice, []byte("not json")))
	require.Error(t, err)
	// Malformed payloads are not worth retrying.
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
