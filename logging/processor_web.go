package logging

import (
	"context"
	"net"
	"net/http"
)

type requestKey struct{}

// WithRequest returns a context carrying r for WebProcessor.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFromContext returns the request stored by WithRequest.
func RequestFromContext(ctx context.Context) (*http.Request, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	return r, ok && r != nil
}

// WebProcessor adds the url, ip, http_method, server and referrer of the
// request carried by the log call's context. Records logged outside a
// request pass through unchanged.
type WebProcessor struct{}

// NewWebProcessor creates a request context processor.
func NewWebProcessor() *WebProcessor {
	return &WebProcessor{}
}

// Process implements Processor.
func (p *WebProcessor) Process(ctx context.Context, r Record) Record {
	req, ok := RequestFromContext(ctx)
	if !ok {
		return r
	}
	ip := req.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	uri := req.RequestURI
	if uri == "" && req.URL != nil {
		uri = req.URL.RequestURI()
	}
	values := map[string]any{
		"url":         uri,
		"ip":          ip,
		"http_method": req.Method,
		"server":      req.Host,
	}
	if ref := req.Referer(); ref != "" {
		values["referrer"] = ref
	}
	return r.WithExtras(values)
}
