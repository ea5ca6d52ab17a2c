package server

import (
	"sync"
	"time"
)

type graceTask struct {
	roomCode string
	stop     func() bool
}

// GraceScheduler holds at most one pending removal per player. A task
// either fires or is cancelled, never both: the fire callback must win
// claim() before acting, and Cancel deletes the task under the same lock.
type GraceScheduler struct {
	tasks map[string]*graceTask // playerID → pending removal
	mu    sync.Mutex

	afterFunc func(d time.Duration, f func()) (stop func() bool)
}

func NewGraceScheduler() *GraceScheduler {
	return &GraceScheduler{
		tasks: make(map[string]*graceTask),
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

// Schedule arranges for fire to run after d. Any task already pending for
// playerID is replaced. fire receives the claim hook it must call, with the
// room locked, before removing the player.
func (s *GraceScheduler) Schedule(playerID, roomCode string, d time.Duration, fire func(claim func() bool)) {
	task := &graceTask{roomCode: roomCode}

	claim := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.tasks[playerID] != task {
			return false
		}
		delete(s.tasks, playerID)
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.tasks[playerID]; ok {
		old.stop()
	}
	s.tasks[playerID] = task
	task.stop = s.afterFunc(d, func() { fire(claim) })
}

// Cancel drops the pending task for playerID. It reports false when there
// was none, including when the task already fired.
func (s *GraceScheduler) Cancel(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[playerID]
	if !ok {
		return false
	}
	delete(s.tasks, playerID)
	task.stop()
	return true
}

// Pending counts the tasks waiting on players of roomCode.
func (s *GraceScheduler) Pending(roomCode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, task := range s.tasks {
		if task.roomCode == roomCode {
			n++
		}
	}
	return n
}

// Stop cancels every pending task.
func (s *GraceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		task.stop()
		delete(s.tasks, id)
	}
}
