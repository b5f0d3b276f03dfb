package systems

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/containers"
	"github.com/spaghettifunk/vkscene/engine/core"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrJobSystemClosed     = errors.New("job system is shut down")
)

/**
 * @brief A unit of work for the job system. Run executes on a worker,
 * OnComplete or OnFailure on the goroutine calling Update.
 */
type JobTask struct {
	Name       string
	Run        func() (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type jobResult struct {
	task  JobTask
	value interface{}
	err   error
}

/**
 * @brief Runs CPU work such as asset decoding on a fixed pool of workers
 * and hands the results back to the render thread. Workers block while
 * the result queue is full, until Update drains it.
 */
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	results *containers.RingQueue[jobResult]
	pending int
	closing bool
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
		results:    containers.NewRingQueue[jobResult](channelSize + numWorkers),
	}
	js.cond = sync.NewCond(&js.mu)

	js.start()

	core.LogDebug("Job system started with %d workers.", numWorkers)
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				value, err := job.Run()
				if err != nil {
					core.LogError("job '%s' failed: %s", job.Name, err)
				}

				js.mu.Lock()
				for js.results.IsFull() && !js.closing {
					js.cond.Wait()
				}
				if !js.closing {
					_ = js.results.Enqueue(jobResult{task: job, value: value, err: err})
				}
				js.mu.Unlock()
			}
		}()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run, their
 * callbacks are dropped.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closing {
		js.mu.Unlock()
		return nil
	}
	js.closing = true
	close(js.jobQueue)
	js.cond.Broadcast()
	js.mu.Unlock()

	js.wg.Wait()

	js.mu.Lock()
	for !js.results.IsEmpty() {
		_, _ = js.results.Dequeue()
	}
	js.pending = 0
	js.mu.Unlock()
	return nil
}

/**
 * @brief Updates the job system. Should happen once an update cycle.
 * Runs the callbacks of every finished job on the calling goroutine.
 */
func (js *JobSystem) Update() {
	js.mu.Lock()
	if js.closing {
		js.mu.Unlock()
		return
	}
	var done []jobResult
	for !js.results.IsEmpty() {
		r, _ := js.results.Dequeue()
		done = append(done, r)
	}
	js.pending -= len(done)
	js.cond.Broadcast()
	js.mu.Unlock()

	for _, r := range done {
		if r.err != nil {
			if r.task.OnFailure != nil {
				r.task.OnFailure(r.err)
			}
			continue
		}
		if r.task.OnComplete != nil {
			r.task.OnComplete(r.value)
		}
	}
}

// Pending counts the jobs whose callbacks have not run yet.
func (js *JobSystem) Pending() int {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.pending
}

/**
 * @brief Submits the provided job to be queued for execution. It never
 * blocks, a full queue is reported as ErrJobQueueFull.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.closing {
		return errors.Wrap(ErrJobSystemClosed, jt.Name)
	}
	select {
	case js.jobQueue <- jt:
		js.pending++
		return nil
	default:
		return errors.Wrap(ErrJobQueueFull, jt.Name)
	}
}
