// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Client is a proxy for a remote JSON-RPC service. Its methods are
// generated from the service's reflection document.
//
// A Client is safe for concurrent use, but calls made from several
// goroutines receive their ids in whatever order they reach the counter.
type Client struct {
	mu         sync.Mutex
	url        string
	opts       *options
	version    int
	sequence   int
	methods    map[string]Proc
	namespaces map[string]*Namespace
	err        error
	closed     bool

	transport     Transport
	ownsTransport bool
	dispatch      *dispatcher
	ready         chan struct{}
	readyOnce     sync.Once
	done          chan struct{}
	log           *zap.Logger
}

// New creates a client for the service at url and generates its methods.
//
// With WithSMD the methods are generated from the supplied document right
// away. Otherwise the document is fetched with GET: synchronously unless
// WithAsyncReflect is set, in which case New returns at once and Ready is
// closed when the fetch completes. A failed synchronous fetch returns the
// client together with the error; the client has no methods and Err
// reports the failure.
func New(ctx context.Context, url string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{
		url:        url,
		opts:       o,
		sequence:   1,
		methods:    make(map[string]Proc),
		namespaces: make(map[string]*Namespace),
		transport:  o.transport,
		dispatch:   newDispatcher(),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		log:        o.logger.With(zap.String("url", url)),
	}
	if c.transport == nil {
		t, err := transportFor(url, o)
		if err != nil {
			return nil, err
		}
		c.transport = t
		c.ownsTransport = true
	}

	if o.smd != nil {
		c.build(o.smd)
		c.markReady()
		return c, nil
	}

	req := &Request{
		Method: http.MethodGet,
		URL:    url,
		Header: http.Header{"Content-Type": []string{"application/json"}},
	}
	if o.asyncReflect {
		c.dispatch.spawn(func() func() {
			resp := c.roundTrip(ctx, req)
			return func() { _ = c.reflected(resp) }
		})
		return c, nil
	}
	return c, c.reflected(c.roundTrip(ctx, req))
}

// reflected handles the outcome of the reflection fetch.
func (c *Client) reflected(resp *Response) error {
	async := c.config().asyncReflect

	if !resp.OK {
		err := c.fail(resp)
		c.log.Warn("reflection failed", zap.String("status", resp.StatusText))
		if async {
			c.config().reflectError(c, resp, resp.StatusText, resp.Body)
		}
		c.markReady()
		return err
	}

	doc, err := parseDocument(c.config().codec, resp.Body)
	if err != nil {
		failed := *resp
		failed.OK = false
		failed.StatusText = err.Error()
		c.fail(&failed)
		c.log.Warn("reflection failed", zap.Error(err))
		if async {
			c.config().reflectError(c, &failed, failed.StatusText, failed.Body)
		}
		c.markReady()
		return err
	}

	c.build(doc)
	if async {
		c.config().reflectSuccess(c)
	}
	c.markReady()
	return nil
}

func (c *Client) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// config returns a snapshot of the current options.
func (c *Client) config() options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.opts
}

// fail records a failed exchange on the client.
func (c *Client) fail(resp *Response) error {
	err := newStatusError(resp)
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	return err
}

func (c *Client) roundTrip(ctx context.Context, req *Request) *Response {
	resp, err := c.transport.RoundTrip(ctx, req)
	if err != nil {
		return failedResponse(req, err)
	}
	if resp == nil {
		return failedResponse(req, errors.New("transport returned no response"))
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp
}

// SetAsync switches between synchronous and asynchronous calls. It applies
// to calls made afterwards.
func (c *Client) SetAsync(toggle bool) *Client {
	c.mu.Lock()
	c.opts.async = toggle
	c.mu.Unlock()
	return c
}

// SetAsyncSuccess replaces the default success callback.
func (c *Client) SetAsyncSuccess(fn SuccessFunc) *Client {
	c.mu.Lock()
	if fn == nil {
		fn = defaultOptions().success
	}
	c.opts.success = fn
	c.mu.Unlock()
	return c
}

// SetAsyncError replaces the default error callback.
func (c *Client) SetAsyncError(fn ErrorFunc) *Client {
	c.mu.Lock()
	if fn == nil {
		fn = defaultOptions().failure
	}
	c.opts.failure = fn
	c.mu.Unlock()
	return c
}

// URL returns the service URL.
func (c *Client) URL() string {
	return c.url
}

// Version returns the protocol version in use, 0 before the reflection
// document has been processed.
func (c *Client) Version() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Async reports whether calls are currently asynchronous.
func (c *Client) Async() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.async
}

// Sequence returns the id the next call will use.
func (c *Client) Sequence() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequence
}

// Err returns the last recorded failure, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Ready is closed once reflection has finished: after the methods are
// generated, or after reflection failed, and after the matching reflection
// callback has returned.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Wait blocks until every asynchronous call made so far has delivered its
// outcome. It must not be called from a callback.
func (c *Client) Wait() {
	c.dispatch.wait()
}

// Close rejects further calls with ErrClosed and returns without blocking,
// so it may be called from a callback. Asynchronous calls already issued
// still deliver their outcome; after the last one the dispatcher stops, the
// transport is released if the client created it, and Done is closed.
// Call Wait first to block until outstanding calls finish.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	go c.drain()
	return nil
}

func (c *Client) drain() {
	defer close(c.done)

	c.dispatch.wait()
	c.dispatch.close()
	if closer, ok := c.transport.(io.Closer); ok && c.ownsTransport {
		if err := closer.Close(); err != nil {
			c.log.Warn("closing transport", zap.Error(err))
		}
	}
}

// Done is closed once a closed client has drained its outstanding calls and
// released its transport.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Method returns the top-level method called name.
func (c *Client) Method(name string) (Proc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.methods[name]
	return p, ok
}

// Namespace returns the group of methods generated from group.method names.
func (c *Client) Namespace(name string) (*Namespace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.namespaces[name]
	return ns, ok
}

// Methods returns the top-level method names, sorted.
func (c *Client) Methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.methods)
}

// Namespaces returns the namespace names, sorted.
func (c *Client) Namespaces() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.namespaces))
	for name := range c.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]Proc) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
