// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"go.uber.org/zap"
)

// Proc is a generated proxy for one remote procedure. It accepts any number
// of positional arguments.
//
// A synchronous call blocks until the reply arrives and returns it. A
// fault is returned as a *Fault error, or as ErrFaultHandled once an
// exception handler took it; a failed exchange is returned as a
// *StatusError.
//
// An asynchronous call returns its sequence id (an int) at once and
// delivers the outcome to the callbacks later. A trailing Callbacks
// argument adds per-call handlers.
type Proc func(ctx context.Context, args ...interface{}) (interface{}, error)

// Namespace holds the methods generated from group.method names.
type Namespace struct {
	name    string
	methods map[string]Proc
}

// Name returns the group name.
func (n *Namespace) Name() string {
	return n.name
}

// Method returns the method called name in the group.
func (n *Namespace) Method(name string) (Proc, bool) {
	p, ok := n.methods[name]
	return p, ok
}

// Methods returns the method names in the group, sorted.
func (n *Namespace) Methods() []string {
	return sortedKeys(n.methods)
}

// namespacePattern finds the first group.method pair in a procedure name.
var namespacePattern = regexp.MustCompile(`([^.]+)\.([^.]+)`)

// build generates one proxy per document method. Keys are visited in sorted
// order, so when two names land on the same slot the later one wins.
func (c *Client) build(doc *Document) {
	methods := make(map[string]Proc)
	namespaces := make(map[string]*Namespace)
	for _, name := range doc.Names() {
		proc := c.newProc(name)
		m := namespacePattern.FindStringSubmatch(name)
		if m == nil {
			methods[name] = proc
			continue
		}
		ns, ok := namespaces[m[1]]
		if !ok {
			ns = &Namespace{name: m[1], methods: make(map[string]Proc)}
			namespaces[m[1]] = ns
		}
		ns.methods[m[2]] = proc
	}

	c.mu.Lock()
	switch {
	case c.opts.version == Version1:
		c.version = Version1
	case c.opts.version != 0:
		c.version = c.opts.version
	default:
		c.version = detectVersion(doc.Envelope)
	}
	c.methods = methods
	c.namespaces = namespaces
	version := c.version
	c.mu.Unlock()

	c.log.Debug("generated proxies",
		zap.Int("methods", len(doc.Methods)),
		zap.Int("namespaces", len(namespaces)),
		zap.Int("version", version),
	)
}

// Lookup resolves a top-level name or a group.method path.
func (c *Client) Lookup(path string) (Proc, bool) {
	if p, ok := c.Method(path); ok {
		return p, true
	}
	m := namespacePattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	ns, ok := c.Namespace(m[1])
	if !ok {
		return nil, false
	}
	return ns.Method(m[2])
}

// Call invokes the generated method at path.
func (c *Client) Call(ctx context.Context, path string, args ...interface{}) (interface{}, error) {
	p, ok := c.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, path)
	}
	return p(ctx, args...)
}

func (c *Client) newProc(name string) Proc {
	return func(ctx context.Context, args ...interface{}) (interface{}, error) {
		return c.invoke(ctx, name, args)
	}
}

// call is one invocation in flight.
type call struct {
	client *Client
	id     int
	method string
	async  bool
	local  callSet
}

func (c *Client) invoke(ctx context.Context, name string, args []interface{}) (interface{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	cfg := *c.opts
	version := c.version
	id := c.sequence
	c.sequence++
	if cfg.async {
		// Registered under mu so Close cannot start draining before it.
		c.dispatch.hold()
	}
	c.mu.Unlock()

	params := make([]interface{}, len(args))
	for i, arg := range args {
		params[i] = arg
		if _, isBag := asCallbacks(arg); cfg.preProcessing != nil && !isBag {
			params[i] = cfg.preProcessing(arg)
		}
	}

	cl := &call{
		client: c,
		id:     id,
		method: name,
		async:  cfg.async,
		local:  resolveCallbacks(cfg.async, args),
	}

	body, err := encodeRequest(cfg.codec, version, name, params, id)
	if err != nil {
		if cfg.async {
			c.dispatch.release()
		}
		return nil, fmt.Errorf("encode %s request: %w", name, err)
	}
	header := http.Header{"Content-Type": []string{"application/json"}}
	for k, v := range cfg.headers {
		header[k] = append([]string(nil), v...)
	}
	req := &Request{
		Method: http.MethodPost,
		URL:    c.url,
		Header: header,
		Body:   body,
	}

	c.log.Debug("dispatching call",
		zap.Int("id", id),
		zap.String("method", name),
		zap.Bool("async", cfg.async),
	)

	if cfg.async {
		c.dispatch.run(func() func() {
			resp := c.roundTrip(ctx, req)
			return func() { _, _ = cl.complete(resp) }
		})
		return id, nil
	}
	return cl.complete(c.roundTrip(ctx, req))
}

// complete routes the outcome of the exchange to the caller and the
// callbacks. Default callbacks and the instance exception handler are read
// at completion time.
func (cl *call) complete(resp *Response) (interface{}, error) {
	c := cl.client
	cfg := c.config()
	fields := []zap.Field{zap.Int("id", cl.id), zap.String("method", cl.method)}

	if !resp.OK {
		err := c.fail(resp)
		c.log.Warn("call failed", append(fields, zap.String("status", resp.StatusText))...)
		if cl.async {
			if cl.local.failure != nil {
				cl.local.failure(c, resp, resp.StatusText, resp.Body, cl.id, cl.method)
			}
			cfg.failure(c, resp, resp.StatusText, resp.Body, cl.id, cl.method)
		}
		return nil, err
	}

	result, fault, err := decodeReply(cfg.codec, resp.Body)
	if err != nil {
		if cl.async {
			c.log.Error("undecodable reply", append(fields, zap.Error(err))...)
		}
		return nil, fmt.Errorf("%s: %w", cl.method, err)
	}

	if fault != nil {
		switch {
		case cl.local.exception != nil:
			cl.local.exception(fault)
			return nil, ErrFaultHandled
		case cfg.exceptionHandler != nil:
			cfg.exceptionHandler(fault)
			return nil, ErrFaultHandled
		}
		if cl.async {
			c.log.Warn("fault dropped, no exception handler", append(fields, zap.Stringer("fault", fault))...)
		}
		return nil, fault
	}

	if !cl.async {
		return cfg.post(result), nil
	}
	if cl.local.success != nil {
		cl.local.success(cfg.post(result), cl.id, cl.method)
	}
	cfg.success(cfg.post(result), cl.id, cl.method)
	return nil, nil
}

// post applies the post-call transform, if any.
func (o *options) post(v interface{}) interface{} {
	if o.postProcessing == nil {
		return v
	}
	return o.postProcessing(v)
}
