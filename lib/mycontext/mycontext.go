package mycontext

import (
	"context"
	"net/http"
)

// CtxTraceContext is a context key for the trace label of a request (used by mylog)
type CtxTraceContext struct{}

func ContextFromHTTPRequest(r *http.Request) context.Context {
	trace := r.Header.Get("X-Request-Id")

	return context.WithValue(r.Context(), CtxTraceContext{}, trace)
}

func GetTraceLabel(c context.Context) string {
	trace, ok := c.Value(CtxTraceContext{}).(string)
	if !ok {
		return ""
	}
	return trace
}
