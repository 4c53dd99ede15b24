package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue implements the job queue on Redis lists with a sorted set
// per queue for delayed jobs.
type RedisQueue struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisQueue creates a new Redis queue
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		client: client,
		ctx:    context.Background(),
	}
}

// Enqueue adds a job to the queue
func (q *RedisQueue) Enqueue(queueName JobType, payload interface{}, opts ...EnqueueOption) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := newJob(queueName, payloadBytes)
	for _, opt := range opts {
		opt(job)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(q.ctx, string(queueName), jobBytes).Err(); err != nil {
		return "", fmt.Errorf("failed to push job to queue: %w", err)
	}

	if err := q.storeJob(job.ID, jobBytes); err != nil {
		return "", err
	}

	return job.ID, nil
}

// EnqueueIn adds a job to the queue with a delay
func (q *RedisQueue) EnqueueIn(queueName JobType, payload interface{}, delay time.Duration, opts ...EnqueueOption) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := newJob(queueName, payloadBytes)
	job.RunAt = time.Now().Add(delay)
	for _, opt := range opts {
		opt(job)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.client.ZAdd(q.ctx, "delayed:"+string(queueName), &redis.Z{
		Score:  float64(job.RunAt.Unix()),
		Member: jobBytes,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("failed to add job to delayed queue: %w", err)
	}

	if err := q.storeJob(job.ID, jobBytes); err != nil {
		return "", err
	}

	return job.ID, nil
}

// Dequeue pops a job from the queue, moving any ready delayed jobs first.
// Returns nil when no job is available.
func (q *RedisQueue) Dequeue(queueName JobType) (*Job, error) {
	q.moveReadyDelayedJobs(queueName)

	result := q.client.BRPop(q.ctx, 1*time.Second, string(queueName))
	if result.Err() != nil {
		if result.Err() == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job from queue: %w", result.Err())
	}

	if len(result.Val()) < 2 {
		return nil, fmt.Errorf("unexpected result format from BRPOP")
	}

	var job Job
	if err := json.Unmarshal([]byte(result.Val()[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	job.Status = JobStatusProcessing
	job.UpdatedAt = time.Now()
	q.updateJob(&job)

	return &job, nil
}

// moveReadyDelayedJobs moves delayed jobs whose run time has passed onto
// the main queue.
func (q *RedisQueue) moveReadyDelayedJobs(queueName JobType) {
	now := time.Now().Unix()
	delayedKey := "delayed:" + string(queueName)

	jobs, err := q.client.ZRangeByScore(q.ctx, delayedKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		log.Printf("Error getting ready delayed jobs: %v", err)
		return
	}

	for _, jobStr := range jobs {
		if err := q.client.LPush(q.ctx, string(queueName), jobStr).Err(); err != nil {
			log.Printf("Error moving delayed job to main queue: %v", err)
			continue
		}
		q.client.ZRem(q.ctx, delayedKey, jobStr)
	}
}

// Complete marks a job as completed
func (q *RedisQueue) Complete(jobID string) error {
	job, err := q.getJob(jobID)
	if err != nil {
		return err
	}

	job.Status = JobStatusCompleted
	job.UpdatedAt = time.Now()

	return q.updateJob(job)
}

// Fail marks a job as failed, scheduling a retry with backoff while
// retries remain.
func (q *RedisQueue) Fail(jobID string, jobErr error) error {
	job, err := q.getJob(jobID)
	if err != nil {
		return err
	}

	job.Status = JobStatusFailed
	job.Error = jobErr.Error()
	job.UpdatedAt = time.Now()

	if err := q.updateJob(job); err != nil {
		return err
	}

	if job.RetryCount < job.MaxRetries {
		return q.Retry(jobID, calculateBackoff(job.RetryCount))
	}

	return nil
}

// Retry re-queues a failed job after a delay
func (q *RedisQueue) Retry(jobID string, delay time.Duration) error {
	job, err := q.getJob(jobID)
	if err != nil {
		return err
	}

	job.Status = JobStatusPending
	job.RetryCount++
	job.Error = ""
	job.UpdatedAt = time.Now()
	job.RunAt = time.Now().Add(delay)

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal updated job: %w", err)
	}

	if err := q.storeJob(job.ID, jobBytes); err != nil {
		return err
	}

	err = q.client.ZAdd(q.ctx, "delayed:"+string(job.Queue), &redis.Z{
		Score:  float64(job.RunAt.Unix()),
		Member: jobBytes,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add job to delayed queue: %w", err)
	}

	return nil
}

func (q *RedisQueue) storeJob(jobID string, jobBytes []byte) error {
	if err := q.client.HSet(q.ctx, "jobs:"+jobID, "data", jobBytes).Err(); err != nil {
		return fmt.Errorf("failed to store job details: %w", err)
	}
	if err := q.client.Expire(q.ctx, "jobs:"+jobID, DefaultTTL).Err(); err != nil {
		log.Printf("Warning: failed to set TTL on job %s: %v", jobID, err)
	}
	return nil
}

func (q *RedisQueue) getJob(jobID string) (*Job, error) {
	jobData, err := q.client.HGet(q.ctx, "jobs:"+jobID, "data").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get job details: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *RedisQueue) updateJob(job *Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal updated job: %w", err)
	}
	if err := q.client.HSet(q.ctx, "jobs:"+job.ID, "data", jobBytes).Err(); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}
