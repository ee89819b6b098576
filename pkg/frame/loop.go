// Package frame provides the animation-frame analogue driving overlay
// geometry: tasks are requested, coalesced, and run at most once per frame.
package frame

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrorHandler handles panics during task execution.
// Returns true to keep the task registered, false to remove it.
type ErrorHandler func(task *Task, err interface{}) bool

// Task is a unit of deferred work owned by a Loop. Requesting an already
// pending task is a no-op; the work runs once per frame no matter how many
// requests arrive before it fires.
type Task struct {
	id      uint32
	fn      func()
	pending atomic.Bool
	onError ErrorHandler
}

// ID returns the task's unique ID
func (t *Task) ID() uint32 {
	return t.id
}

// Pending reports whether the task is waiting to run
func (t *Task) Pending() bool {
	return t.pending.Load()
}

// SetErrorHandler sets a custom error handler for this task
func (t *Task) SetErrorHandler(handler ErrorHandler) {
	t.onError = handler
}

// debugLog is set by the debug package
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Loop schedules tasks in frame-sized batches
type Loop struct {
	mu           sync.Mutex
	tasks        map[uint32]*Task
	nextID       uint32
	wake         chan *Task
	running      atomic.Bool
	defaultError ErrorHandler
}

// NewLoop creates a new frame loop
func NewLoop() *Loop {
	return &Loop{
		tasks:  make(map[uint32]*Task),
		nextID: 1,
		wake:   make(chan *Task, 256),
	}
}

// SetDefaultErrorHandler sets the default error handler for tasks
func (l *Loop) SetDefaultErrorHandler(handler ErrorHandler) {
	l.defaultError = handler
}

// Register creates a task for the given function
func (l *Loop) Register(fn func()) *Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	task := &Task{id: l.nextID, fn: fn}
	l.nextID++
	if l.defaultError != nil {
		task.onError = l.defaultError
	}
	l.tasks[task.id] = task
	return task
}

// Remove unregisters a task. A pending request for a removed task never runs.
func (l *Loop) Remove(task *Task) {
	if task == nil {
		return
	}
	task.pending.Store(false)
	l.mu.Lock()
	delete(l.tasks, task.id)
	l.mu.Unlock()
}

// Request marks a task to run on the next frame. Requests made while the
// task is already pending coalesce into a single run.
func (l *Loop) Request(task *Task) {
	if task == nil {
		return
	}
	if !task.pending.CompareAndSwap(false, true) && debugLog != nil {
		debugLog("[frame] task", task.id, "already pending")
	}

	// The wake is attempted even for an already-pending task: a request made
	// before Start sets the flag without enqueueing, and a later request
	// must not leave it stranded. Duplicate wakes are deduplicated by the
	// pending CAS in runTask. A full channel drops the wake; the task stays
	// pending and is picked up by the next Flush or Request.
	select {
	case l.wake <- task:
	default:
	}
}

// Start begins the background frame loop. Tasks requested while the loop
// was stopped are swept into the first batch.
func (l *Loop) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}

	l.mu.Lock()
	for _, task := range l.tasks {
		if task.pending.Load() {
			select {
			case l.wake <- task:
			default:
			}
		}
	}
	l.mu.Unlock()

	go l.run()
}

// Stop halts the background frame loop
func (l *Loop) Stop() {
	if l.running.CompareAndSwap(true, false) {
		// Nudge the loop out of its blocking receive.
		select {
		case l.wake <- nil:
		default:
		}
	}
}

// IsRunning reports whether the background loop is active
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// TaskCount returns the number of registered tasks
func (l *Loop) TaskCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Flush synchronously runs every pending task once. Useful for tests and
// single-threaded callers that drive frames themselves.
func (l *Loop) Flush() {
	l.mu.Lock()
	batch := make([]*Task, 0, len(l.tasks))
	for _, task := range l.tasks {
		if task.pending.Load() {
			batch = append(batch, task)
		}
	}
	l.mu.Unlock()

	for _, task := range batch {
		l.runTask(task)
	}
}

func (l *Loop) run() {
	for l.running.Load() {
		task := <-l.wake
		if task == nil {
			continue
		}

		batch := []*Task{task}
	drain:
		for {
			select {
			case t := <-l.wake:
				if t != nil {
					batch = append(batch, t)
				}
			default:
				break drain
			}
		}

		if debugLog != nil {
			debugLog("[frame] running batch of", len(batch), "tasks")
		}
		for _, t := range batch {
			l.runTask(t)
		}
	}
}

// runTask runs a single task if it is still pending and registered
func (l *Loop) runTask(task *Task) {
	if !task.pending.CompareAndSwap(true, false) {
		return
	}

	l.mu.Lock()
	_, registered := l.tasks[task.id]
	l.mu.Unlock()
	if !registered {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.handleTaskError(task, r)
		}
	}()
	task.fn()
}

func (l *Loop) handleTaskError(task *Task, err interface{}) {
	msg := fmt.Sprintf("frame task %d panic: %v\n%s", task.id, err, debug.Stack())

	if task.onError == nil {
		log.Println("[frame]", msg)
		return
	}
	if !task.onError(task, msg) {
		l.Remove(task)
	}
}
