package service

import (
	"context"
	"sync"
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/remote"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"
)

// ConnectivityObserver is notified on every online/offline transition.
type ConnectivityObserver func(online bool)

// ConnectivityService translates reachability of the remote service into
// transition events. Observers are dispatched synchronously in
// registration order and can unsubscribe explicitly, so repeated session
// starts do not accumulate listeners.
type ConnectivityService struct {
	mu        sync.Mutex
	online    bool
	observers []connObserver
	nextID    int
	stop      chan struct{}

	remote   remote.Service
	interval time.Duration
}

type connObserver struct {
	id int
	fn ConnectivityObserver
}

func NewConnectivityService(rs remote.Service, probeInterval time.Duration) *ConnectivityService {
	return &ConnectivityService{
		remote: rs,
		// optimistic until the first probe says otherwise
		online:   true,
		interval: probeInterval,
	}
}

func (s *ConnectivityService) Subscribe(fn ConnectivityObserver) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers = append(s.observers, connObserver{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *ConnectivityService) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *ConnectivityService) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Probe checks the remote health endpoint and dispatches observers if the
// state flipped. Called on a fixed interval as a safety net even when no
// transition is expected.
func (s *ConnectivityService) Probe(ctx context.Context) bool {
	online := s.remote.Ping(ctx) == nil

	s.mu.Lock()
	changed := online != s.online
	s.online = online
	observers := make([]connObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	if changed {
		if online {
			logger.Log.Info("connectivity restored")
		} else {
			logger.Log.Warn("connectivity lost, queueing mode")
		}
		for _, o := range observers {
			o.fn(online)
		}
	}
	return online
}

func (s *ConnectivityService) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Probe(context.Background())
			case <-stop:
				return
			}
		}
	}()
}

func (s *ConnectivityService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
