package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	DEFAULT_VALIDATION_WORKERS    = 8
	DEFAULT_VALIDATION_QUEUE_SIZE = 1000
	DEFAULT_VALIDATION_TIMEOUT    = 2 * time.Second
)

var (
	ErrQueueFull         = errors.New("validation queue full")
	ErrValidationTimeout = errors.New("validation timed out")
	ErrManagerStopped    = errors.New("validation manager stopped")
	ErrPredicatePanicked = errors.New("challenge predicate panicked")
)

type ValidationRequest struct {
	User         User
	Session      SessionData
	Challenge    *DailyStreakChallenge
	ResponseChan chan ValidationResponse
}

type ValidationResponse struct {
	Outcome *SessionOutcome
	Err     error
}

type ManagerOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Manager runs session validations on a fixed pool of workers fed by a
// bounded queue. Submissions beyond the queue are rejected instead of piling
// up, and callers stop waiting after Timeout.
type Manager struct {
	service  *SessionService
	secret   []byte
	opts     ManagerOptions
	queue    chan ValidationRequest
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(service *SessionService, secret []byte, opts ManagerOptions) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = DEFAULT_VALIDATION_WORKERS
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DEFAULT_VALIDATION_QUEUE_SIZE
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DEFAULT_VALIDATION_TIMEOUT
	}
	return &Manager{
		service:  service,
		secret:   append([]byte(nil), secret...),
		opts:     opts,
		queue:    make(chan ValidationRequest, opts.QueueSize),
		stopChan: make(chan struct{}),
	}
}

func (m *Manager) Start() {
	for i := 0; i < m.opts.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	log.Printf("[VALIDATOR] Started %d workers (queue %d)", m.opts.Workers, m.opts.QueueSize)
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
		log.Println("[VALIDATOR] Workers stopped")
	})
}

func (m *Manager) Service() *SessionService {
	return m.service
}

func (m *Manager) IssueSeed() (SeedPair, error) {
	return m.service.IssueSeed(m.secret)
}

// Validate enqueues a session and waits for its outcome.
func (m *Manager) Validate(ctx context.Context, user User, session SessionData, challenge *DailyStreakChallenge) (*SessionOutcome, error) {
	respChan := make(chan ValidationResponse, 1)
	req := ValidationRequest{
		User:         user,
		Session:      session,
		Challenge:    challenge,
		ResponseChan: respChan,
	}

	select {
	case <-m.stopChan:
		return nil, ErrManagerStopped
	default:
	}

	select {
	case m.queue <- req:
	default:
		return nil, ErrQueueFull
	}

	timer := time.NewTimer(m.opts.Timeout)
	defer timer.Stop()

	select {
	case resp := <-respChan:
		return resp.Outcome, resp.Err
	case <-timer.C:
		return nil, ErrValidationTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.stopChan:
		return nil, ErrManagerStopped
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopChan:
			return
		case req := <-m.queue:
			req.ResponseChan <- m.process(id, req)
		}
	}
}

func (m *Manager) process(id int, req ValidationRequest) (resp ValidationResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[VALIDATOR] worker %d: panic validating session for user %s: %v", id, req.User.ID, r)
			resp = ValidationResponse{Err: fmt.Errorf("%w: %v", ErrPredicatePanicked, r)}
		}
	}()

	outcome, err := m.service.ValidateSession(req.User, req.Session, req.Challenge, m.secret)
	if err != nil {
		log.Printf("[VALIDATOR] worker %d: challenge evaluation failed for user %s: %v", id, req.User.ID, err)
		return ValidationResponse{Err: err}
	}
	return ValidationResponse{Outcome: outcome}
}
