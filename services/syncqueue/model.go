package syncqueue

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// QueuedRequest is one pending mutation awaiting delivery.
// Identity and bookkeeping fields are assigned at enqueue time and
// immutable afterwards, except RetryCount which only ever increases.
type QueuedRequest struct {
	UID        string            `json:"uid"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Body       json.RawMessage   `json:"body,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
	RetryCount int               `json:"retryCount"`
}

// EnqueueRequest is what callers submit. Method defaults to POST.
type EnqueueRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

var allowedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// PendingRequests is the single persisted record holding the ordered queue.
type PendingRequests struct {
	Requests []QueuedRequest
}

const queueRecordUID = "pending"

// Response is what a successful delivery returned.
type Response struct {
	StatusCode int
	Body       []byte
}

// Config is replaced wholesale by Configure; it is never partially merged.
// Callbacks are side-effect hooks, not control flow, and must not panic.
type Config struct {
	// PrepareHeaders produces dynamic headers (e.g. a fresh auth token)
	// immediately before every send. On conflict these win over the
	// request's static headers.
	PrepareHeaders func(c context.Context) (map[string]string, error)

	OnSuccess func(c context.Context, resp Response, req QueuedRequest)
	OnError   func(c context.Context, err error, req QueuedRequest)

	Debug bool
}

type Status struct {
	Syncing bool `json:"syncing"`
	Online  bool `json:"online"`
}
