package game

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSubscriptionClosed is returned by Next once the subscription or its session is closed.
	ErrSubscriptionClosed = errors.New("subscription closed")
	// ErrSubscriberLagging is returned by Next when the subscriber fell more than its buffer behind.
	ErrSubscriberLagging = errors.New("subscriber fell too far behind")
)

// Subscription is an ordered stream of projected views for one viewer. The
// session appends exactly one view per committed command; the consumer
// drains them with Next in commit order.
type Subscription struct {
	viewerID string
	limit    int

	mu      sync.Mutex
	pending []PublicView
	err     error
	signal  chan struct{}
}

func newSubscription(viewerID string, limit int) *Subscription {
	return &Subscription{
		viewerID: viewerID,
		limit:    limit,
		signal:   make(chan struct{}, 1),
	}
}

// ViewerID is the player the views are projected for ("" for spectators).
func (s *Subscription) ViewerID() string {
	return s.viewerID
}

// push queues v. It reports false when the subscription is closed, either
// already or because this push overflowed the buffer.
func (s *Subscription) push(v PublicView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false
	}
	if len(s.pending) >= s.limit {
		s.pending = nil
		s.err = ErrSubscriberLagging
		s.notify()
		return false
	}
	s.pending = append(s.pending, v)
	s.notify()
	return true
}

// close ends the stream. Views already queued are still delivered.
func (s *Subscription) close(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = reason
	}
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Next blocks until the next view is available, the subscription closes or
// ctx is done.
func (s *Subscription) Next(ctx context.Context) (PublicView, error) {
	for {
		s.mu.Lock()
		if len(s.pending) > 0 {
			v := s.pending[0]
			s.pending[0] = PublicView{}
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return v, nil
		}
		if s.err != nil {
			err := s.err
			s.mu.Unlock()
			return PublicView{}, err
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return PublicView{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Pending is the number of queued views.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
