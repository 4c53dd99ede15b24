package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobDefaults(t *testing.T) {
	payload := json.RawMessage(`{"user_email":"user@example.com"}`)
	job := newJob(QueueTaskNotification, payload)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, QueueTaskNotification, job.Queue)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.RetryCount)
	assert.Equal(t, DefaultRetryCount, job.MaxRetries)
	assert.False(t, job.RunAt.After(time.Now()))
}

func TestEnqueueOptions(t *testing.T) {
	job := newJob(QueueBroadcast, nil)

	WithMaxRetries(7)(job)
	assert.Equal(t, 7, job.MaxRetries)

	WithJobID("fixed-id")(job)
	assert.Equal(t, "fixed-id", job.ID)
}

func TestJobPayload(t *testing.T) {
	type payload struct {
		UserEmail string  `json:"user_email"`
		Amount    float64 `json:"amount"`
	}

	raw, err := json.Marshal(payload{UserEmail: "user@example.com", Amount: 60})
	require.NoError(t, err)

	job := newJob(QueuePayoutNotification, raw)

	var decoded payload
	require.NoError(t, JobPayload(job.Payload, &decoded))
	assert.Equal(t, "user@example.com", decoded.UserEmail)
	assert.Equal(t, 60.0, decoded.Amount)
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	// With 20% jitter the delay stays within [0.8x, 1.2x] of the base
	for retry, base := range map[int]float64{0: 5, 1: 10, 2: 20, 3: 40} {
		d := calculateBackoff(retry).Seconds()
		assert.GreaterOrEqual(t, d, base*0.8-1, "retry %d", retry)
		assert.LessOrEqual(t, d, base*1.2+1, "retry %d", retry)
	}

	// Deep retry counts cap at an hour
	d := calculateBackoff(20).Seconds()
	assert.LessOrEqual(t, d, 3600*1.2+1)
	assert.GreaterOrEqual(t, d, 3600*0.8-1)
}
