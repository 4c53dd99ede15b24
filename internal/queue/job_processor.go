package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// JobProcessor runs a pool of workers that poll the registered queues
type JobProcessor struct {
	queue       *RedisQueue
	handlers    map[JobType]JobHandler
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewJobProcessor creates a new JobProcessor
func NewJobProcessor(queue *RedisQueue, workerCount int) *JobProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobProcessor{
		queue:       queue,
		handlers:    make(map[JobType]JobHandler),
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// RegisterHandler registers a handler for a queue. Must be called before
// Start.
func (p *JobProcessor) RegisterHandler(queueName JobType, handler JobHandler) {
	p.handlers[queueName] = handler
}

// Start starts the worker pool
func (p *JobProcessor) Start() {
	log.Printf("Starting job processor with %d workers", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops the worker pool and waits for in-flight jobs
func (p *JobProcessor) Stop() {
	log.Println("Stopping job processor")
	close(p.stopChan)
	p.cancel()
	p.wg.Wait()
	log.Println("Job processor stopped")
}

func (p *JobProcessor) worker(id int) {
	defer p.wg.Done()

	queues := make([]JobType, 0, len(p.handlers))
	for queueName := range p.handlers {
		queues = append(queues, queueName)
	}

	if len(queues) == 0 {
		log.Printf("Worker %d exiting: no queues registered", id)
		return
	}

	for {
		select {
		case <-p.stopChan:
			return
		default:
			for _, queueName := range queues {
				job, err := p.queue.Dequeue(queueName)
				if err != nil {
					log.Printf("Worker %d error getting job from queue %s: %v", id, queueName, err)
					continue
				}
				if job == nil {
					continue
				}

				if err := p.processJob(job); err != nil {
					log.Printf("Worker %d error processing job %s: %v", id, job.ID, err)
				}

				// One job per iteration so the other queues get a turn
				break
			}

			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (p *JobProcessor) processJob(job *Job) error {
	handler, ok := p.handlers[job.Queue]
	if !ok {
		err := fmt.Errorf("no handler registered for queue: %s", job.Queue)
		p.queue.Fail(job.ID, err)
		return err
	}

	if err := handler(p.ctx, *job); err != nil {
		p.queue.Fail(job.ID, err)
		return fmt.Errorf("job processing failed: %w", err)
	}

	return p.queue.Complete(job.ID)
}
