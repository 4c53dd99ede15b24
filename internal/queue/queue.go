package queue

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the queue a job belongs to
type JobType string

const (
	QueueTaskNotification   JobType = "task_notification"
	QueueReferralCommission JobType = "referral_commission"
	QueuePayoutNotification JobType = "payout_notification"
	QueueBroadcast          JobType = "broadcast_notification"

	DefaultRetryCount = 3
	DefaultTTL        = 24 * time.Hour
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         string          `json:"id"`
	Queue      JobType         `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	RunAt      time.Time       `json:"run_at"`
	Error      string          `json:"error,omitempty"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) error

// Enqueuer is the producer side of the queue, implemented by RedisQueue
type Enqueuer interface {
	Enqueue(queueName JobType, payload interface{}, opts ...EnqueueOption) (string, error)
	EnqueueIn(queueName JobType, payload interface{}, delay time.Duration, opts ...EnqueueOption) (string, error)
}

// EnqueueOption modifies a job before it is pushed
type EnqueueOption func(*Job)

// WithMaxRetries sets the maximum number of retries for a job
func WithMaxRetries(maxRetries int) EnqueueOption {
	return func(j *Job) {
		j.MaxRetries = maxRetries
	}
}

// WithJobID sets a specific job ID
func WithJobID(id string) EnqueueOption {
	return func(j *Job) {
		j.ID = id
	}
}

// JobPayload unmarshals a job payload into v
func JobPayload(payload []byte, v interface{}) error {
	return json.Unmarshal(payload, v)
}

func newJob(queueName JobType, payload json.RawMessage) *Job {
	now := time.Now()
	return &Job{
		ID:         uuid.New().String(),
		Queue:      queueName,
		Payload:    payload,
		Status:     JobStatusPending,
		RetryCount: 0,
		MaxRetries: DefaultRetryCount,
		CreatedAt:  now,
		UpdatedAt:  now,
		RunAt:      now,
	}
}

// calculateBackoff returns an exponential backoff with jitter, capped at
// one hour.
func calculateBackoff(retry int) time.Duration {
	base := 5.0
	max := 3600.0

	seconds := math.Min(max, base*math.Pow(2, float64(retry)))

	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds) * time.Second
}
