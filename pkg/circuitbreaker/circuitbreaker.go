// Package circuitbreaker stops calling a dependency after it keeps failing,
// and lets a single probe through once the cool-down has passed.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type Settings struct {
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// Timeout is how long the breaker stays open before probing.
	Timeout       time.Duration
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from State, to State)
	Now           func() time.Time
}

type Counts struct {
	Requests            uint32
	TotalFailures       uint32
	ConsecutiveFailures uint32
}

type CircuitBreaker struct {
	name          string
	maxFailures   uint32
	timeout       time.Duration
	isSuccessful  func(err error) bool
	onStateChange func(name string, from State, to State)
	now           func() time.Time

	mutex    sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

func New(st Settings) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:          st.Name,
		maxFailures:   st.MaxFailures,
		timeout:       st.Timeout,
		isSuccessful:  st.IsSuccessful,
		onStateChange: st.OnStateChange,
		now:           st.Now,
	}

	if cb.maxFailures == 0 {
		cb.maxFailures = 5
	}
	if cb.timeout <= 0 {
		cb.timeout = 30 * time.Second
	}
	if cb.isSuccessful == nil {
		cb.isSuccessful = func(err error) bool { return err == nil }
	}
	if cb.now == nil {
		cb.now = time.Now
	}

	return cb
}

// Execute runs req unless the breaker is open, in which case it returns
// ErrOpen without calling req. While half-open only one probe runs at a time.
func (cb *CircuitBreaker) Execute(req func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := req()
	cb.afterRequest(cb.isSuccessful(err))
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.currentState() {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if cb.probing {
			return ErrOpen
		}
		cb.probing = true
	}

	cb.counts.Requests++
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState()
	cb.probing = false

	if success {
		cb.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		return
	}

	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	if state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.maxFailures {
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && !cb.now().Before(cb.openedAt.Add(cb.timeout)) {
		cb.setState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(state State) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.counts = Counts{}
	if state == StateOpen {
		cb.openedAt = cb.now()
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, state)
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.currentState()
}

func (cb *CircuitBreaker) Counts() Counts {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.counts
}
