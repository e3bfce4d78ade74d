package syncqueue

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MarcGrol/syncqueue/lib/myerrors"
	"github.com/MarcGrol/syncqueue/lib/myhttpclient"
	"github.com/MarcGrol/syncqueue/lib/mylog"
	"github.com/MarcGrol/syncqueue/lib/mynetwork"
	"github.com/MarcGrol/syncqueue/lib/mystore"
	"github.com/MarcGrol/syncqueue/lib/mytime"
	"github.com/MarcGrol/syncqueue/lib/myuuid"
)

const (
	backoffBase = time.Second
	backoffCap  = 30 * time.Second
)

// Service is the sync engine: a durable FIFO of pending mutations that is
// drained head-first whenever the network is reachable. At most one drain
// pass is active at a time; items are delivered in strict enqueue order.
type Service struct {
	store     mystore.Store[PendingRequests]
	sender    myhttpclient.HTTPSender
	network   mynetwork.Monitor
	uider     myuuid.UIDer
	nower     mytime.Nower
	scheduler mytime.Scheduler
	logger    mylog.Logger

	mutex          sync.Mutex
	config         Config
	syncing        bool
	rearm          bool
	listeners      map[int]func(syncing bool)
	nextListenerID int

	unsubscribeNetwork func()
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(store mystore.Store[PendingRequests], sender myhttpclient.HTTPSender, network mynetwork.Monitor,
	uider myuuid.UIDer, nower mytime.Nower, scheduler mytime.Scheduler) *Service {
	s := &Service{
		store:     store,
		sender:    sender,
		network:   network,
		uider:     uider,
		nower:     nower,
		scheduler: scheduler,
		logger:    mylog.New("syncqueue"),
		listeners: map[int]func(syncing bool){},
	}

	// Every reconnect triggers a drain; the guard makes this idempotent
	s.unsubscribeNetwork = network.Subscribe(func(online bool) {
		if online {
			s.drain(context.Background())
		}
	})

	// Pick up whatever a previous process run left behind
	if network.IsOnline(context.Background()) {
		go s.drain(context.Background())
	}

	return s
}

// Close detaches the engine from the network monitor. Queued requests
// stay in the store and are picked up by the next engine instance.
func (s *Service) Close() {
	s.unsubscribeNetwork()
}

// Configure replaces the active configuration wholesale. Safe to call
// mid-drain: the next delivery attempt reads the new configuration.
func (s *Service) Configure(cfg Config) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.config = cfg
}

// Enqueue durably appends a request to the queue. The returned request has
// its identity assigned. The ack means durably queued, not delivered:
// delivery happens asynchronously when the network allows.
func (s *Service) Enqueue(c context.Context, req EnqueueRequest) (QueuedRequest, error) {
	if req.URL == "" {
		return QueuedRequest{}, myerrors.NewInvalidInputErrorf("missing url")
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}
	if !allowedMethods[method] {
		return QueuedRequest{}, myerrors.NewInvalidInputErrorf("unsupported method %s", method)
	}

	queued := QueuedRequest{
		UID:        s.uider.Create(),
		URL:        req.URL,
		Method:     method,
		Body:       req.Body,
		Headers:    req.Headers,
		EnqueuedAt: s.nower.Now(),
		RetryCount: 0,
	}

	err := s.store.RunInTransaction(c, func(c context.Context) error {
		queue, _, err := s.store.Get(c, queueRecordUID)
		if err != nil {
			return err
		}

		queue.Requests = append(queue.Requests, queued)

		return s.store.Put(c, queueRecordUID, queue)
	})
	if err != nil {
		return QueuedRequest{}, myerrors.NewInternalError(fmt.Errorf("error persisting request %s %s: %s", queued.Method, queued.URL, err))
	}

	s.debugLog(c, queued.UID, "Queued %s %s", queued.Method, queued.URL)

	if s.network.IsOnline(c) {
		go s.drain(context.Background())
	}

	return queued, nil
}

// Pending returns the persisted queue in delivery order.
func (s *Service) Pending(c context.Context) ([]QueuedRequest, error) {
	queue, _, err := s.store.Get(c, queueRecordUID)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error loading queue: %s", err))
	}

	return queue.Requests, nil
}

func (s *Service) IsSyncing() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.syncing
}

func (s *Service) Status(c context.Context) Status {
	return Status{
		Syncing: s.IsSyncing(),
		Online:  s.network.IsOnline(c),
	}
}

// Subscribe registers a syncing-state observer. It is called right away
// with the current value and again on every transition. The returned func
// unsubscribes.
func (s *Service) Subscribe(listener func(syncing bool)) func() {
	s.mutex.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = listener
	current := s.syncing
	s.mutex.Unlock()

	listener(current)

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		delete(s.listeners, id)
	}
}

type attemptOutcome int

const (
	outcomeDelivered attemptOutcome = iota
	outcomeDropped
	outcomeRetry
)

// drain processes the queue head-first until it is empty or a retry-class
// failure suspends it. Triggered by enqueue, reconnect and the backoff
// timer; the syncing guard makes concurrent triggers a no-op.
func (s *Service) drain(c context.Context) {
	if !s.beginDrain(c) {
		return
	}

	for {
		head, found, err := s.loadHead(c)
		if err != nil {
			s.logger.Log(c, "", mylog.SeverityError, "Error loading queue, suspending drain: %s", err)
			s.endDrain()
			return
		}
		if !found {
			// Queue empty: terminal idle state. A trigger that fired while
			// this pass was concluding saw the guard taken; rearm covers it.
			if s.endDrain() && s.beginDrain(c) {
				continue
			}
			return
		}

		switch s.attempt(c, head) {
		case outcomeDelivered, outcomeDropped:
			err = s.pop(c, head.UID)
			if err != nil {
				s.logger.Log(c, head.UID, mylog.SeverityError, "Error removing delivered request, suspending drain: %s", err)
				s.endDrain()
				return
			}
		case outcomeRetry:
			s.scheduleRetry(c, head)
			return
		}
	}
}

func (s *Service) beginDrain(c context.Context) bool {
	if !s.network.IsOnline(c) {
		return false
	}

	s.mutex.Lock()
	if s.syncing {
		// Remember the trigger so the active pass re-checks before going idle
		s.rearm = true
		s.mutex.Unlock()
		return false
	}
	s.syncing = true
	s.rearm = false
	s.mutex.Unlock()

	s.notifyListeners(true)

	return true
}

// endDrain releases the guard and reports whether a trigger arrived while
// this pass held it.
func (s *Service) endDrain() bool {
	s.mutex.Lock()
	s.syncing = false
	rearm := s.rearm
	s.rearm = false
	s.mutex.Unlock()

	s.notifyListeners(false)

	return rearm
}

func (s *Service) notifyListeners(syncing bool) {
	s.mutex.Lock()
	toNotify := make([]func(syncing bool), 0, len(s.listeners))
	for _, listener := range s.listeners {
		toNotify = append(toNotify, listener)
	}
	s.mutex.Unlock()

	// Outside the lock: listeners may call back into the engine
	for _, listener := range toNotify {
		listener(syncing)
	}
}

func (s *Service) loadHead(c context.Context) (QueuedRequest, bool, error) {
	queue, _, err := s.store.Get(c, queueRecordUID)
	if err != nil {
		return QueuedRequest{}, false, err
	}
	if len(queue.Requests) == 0 {
		return QueuedRequest{}, false, nil
	}

	return queue.Requests[0], true, nil
}

// attempt delivers a single request and classifies the outcome:
// - transport ok and status < 400: delivered
// - status 400-499: dropped, resubmission would reproduce the same rejection
// - status >= 500 or transport failure: retry
// A header-preparation failure is retry-class as well, it is typically a
// transient token problem.
func (s *Service) attempt(c context.Context, head QueuedRequest) attemptOutcome {
	cfg := s.currentConfig()

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	for name, value := range head.Headers {
		headers[name] = value
	}
	if cfg.PrepareHeaders != nil {
		dynamic, err := cfg.PrepareHeaders(c)
		if err != nil {
			s.logger.Log(c, head.UID, mylog.SeverityWarn, "Error preparing headers for %s %s: %s", head.Method, head.URL, err)
			return outcomeRetry
		}
		for name, value := range dynamic {
			// dynamic wins on conflict
			headers[name] = value
		}
	}

	s.debugLog(c, head.UID, "Attempting %s %s (retry-count %d)", head.Method, head.URL, head.RetryCount)

	status, respBody, err := s.sender.Send(c, head.Method, head.URL, head.Body, headers)
	if err != nil || status >= http.StatusInternalServerError {
		s.logger.Log(c, head.UID, mylog.SeverityWarn, "Recoverable failure of %s %s: status=%d, err=%v", head.Method, head.URL, status, err)
		return outcomeRetry
	}

	if status >= http.StatusBadRequest {
		s.logger.Log(c, head.UID, mylog.SeverityWarn, "Dropping %s %s after client error %d", head.Method, head.URL, status)
		if cfg.OnError != nil {
			cfg.OnError(c, fmt.Errorf("request %s %s rejected with status %d", head.Method, head.URL, status), head)
		}
		return outcomeDropped
	}

	s.debugLog(c, head.UID, "Delivered %s %s: status %d", head.Method, head.URL, status)
	if cfg.OnSuccess != nil {
		cfg.OnSuccess(c, Response{StatusCode: status, Body: respBody}, head)
	}

	return outcomeDelivered
}

func (s *Service) pop(c context.Context, uid string) error {
	return s.store.RunInTransaction(c, func(c context.Context) error {
		queue, _, err := s.store.Get(c, queueRecordUID)
		if err != nil {
			return err
		}
		if len(queue.Requests) == 0 || queue.Requests[0].UID != uid {
			return nil
		}

		queue.Requests = queue.Requests[1:]

		return s.store.Put(c, queueRecordUID, queue)
	})
}

// scheduleRetry records the failed attempt against the exact item that was
// attempted, releases the syncing guard so reconnects and enqueues are not
// blocked during the wait, and re-enters drain after the backoff delay.
func (s *Service) scheduleRetry(c context.Context, attempted QueuedRequest) {
	retryCount := attempted.RetryCount + 1

	err := s.store.RunInTransaction(c, func(c context.Context) error {
		queue, _, err := s.store.Get(c, queueRecordUID)
		if err != nil {
			return err
		}
		// Defensive no-op when the head has changed identity since the attempt
		if len(queue.Requests) == 0 || queue.Requests[0].UID != attempted.UID {
			return nil
		}

		queue.Requests[0].RetryCount = retryCount

		return s.store.Put(c, queueRecordUID, queue)
	})
	if err != nil {
		s.logger.Log(c, attempted.UID, mylog.SeverityError, "Error recording retry of %s %s: %s", attempted.Method, attempted.URL, err)
	}

	delay := backoffDelay(retryCount)
	s.logger.Log(c, attempted.UID, mylog.SeverityInfo, "Retry %d of %s %s in %s", retryCount, attempted.Method, attempted.URL, delay)

	s.endDrain()

	s.scheduler.AfterFunc(delay, func() {
		// If still unreachable, the next online transition triggers the drain
		if s.network.IsOnline(context.Background()) {
			s.drain(context.Background())
		}
	})
}

// backoffDelay uses the post-increment retry count: the first retry waits
// 2s, not 1s. This matches the observed behavior and is kept on purpose.
func backoffDelay(retryCount int) time.Duration {
	if retryCount > 5 {
		return backoffCap
	}
	delay := backoffBase << uint(retryCount)
	if delay > backoffCap {
		delay = backoffCap
	}

	return delay
}

func (s *Service) currentConfig() Config {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.config
}

func (s *Service) debugLog(c context.Context, traceLabel string, format string, a ...any) {
	if !s.currentConfig().Debug {
		return
	}
	s.logger.Log(c, traceLabel, mylog.SeverityDebug, format, a...)
}
