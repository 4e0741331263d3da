// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
)

// Transport types, keyed by URL scheme
const (
	TransportHTTP  = "http"
	TransportHTTPS = "https"
	TransportZAP   = "zap"  // Length-prefixed TCP framing
	TransportGRPC  = "grpc" // Raw bytes over gRPC, requires build tag
)

// DefaultTransport is used for URLs without a scheme
const DefaultTransport = TransportHTTP

// ErrUnknownTransport is returned when no transport is registered for a
// URL scheme.
var ErrUnknownTransport = errors.New("jsonrpc: unknown transport")

// Request is one exchange handed to a Transport.
type Request struct {
	Method string // GET for reflection, POST for calls
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the outcome of one exchange. OK tells the Success variant
// (status 200) from the Failure variant; both carry the raw body.
type Response struct {
	Request    *Request
	OK         bool
	StatusCode int
	StatusText string
	Body       []byte
}

// Transport performs one request/response exchange.
//
// A non-nil error means the exchange never produced a status; the client
// treats it as a failed Response whose status text is the error message.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc is a function adapter for Transport
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// failedResponse models an exchange that errored before a status arrived.
func failedResponse(req *Request, err error) *Response {
	return &Response{Request: req, StatusText: err.Error()}
}

type transportFactory func(u *url.URL, o *options) (Transport, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]transportFactory{
		TransportHTTP:  newHTTPTransport,
		TransportHTTPS: newHTTPTransport,
		TransportZAP:   newZAPTransport,
	}
)

// registerTransport registers a new transport (used by build tags)
func registerTransport(scheme string, factory transportFactory) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[scheme] = factory
}

// AvailableTransports returns the registered URL schemes, sorted.
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	_, ok := transports[name]
	return ok
}

// transportFor picks the registered transport for the scheme of rawURL.
func transportFor(rawURL string, o *options) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = DefaultTransport
	}

	transportsMu.RLock()
	factory, ok := transports[scheme]
	transportsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, scheme)
	}
	return factory(u, o)
}
