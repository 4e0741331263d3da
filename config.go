// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"net/http"

	"go.uber.org/zap"
)

// SuccessFunc receives the reply of a successful asynchronous call together
// with its sequence id and procedure name.
type SuccessFunc func(reply interface{}, id int, method string)

// ErrorFunc receives a failed asynchronous call.
type ErrorFunc func(c *Client, resp *Response, statusText string, body []byte, id int, method string)

// ExceptionFunc receives a fault reported by the server.
type ExceptionFunc func(f *Fault)

// ReflectSuccessFunc is called once proxies are built from an asynchronously
// fetched reflection document.
type ReflectSuccessFunc func(c *Client)

// ReflectErrorFunc is called when an asynchronous reflection fetch fails.
type ReflectErrorFunc func(c *Client, resp *Response, statusText string, body []byte)

// TransformFunc rewrites one argument before sending or one result after
// receiving.
type TransformFunc func(v interface{}) interface{}

// Option configures a Client
type Option func(*options)

type options struct {
	version          int // 0 detects from the reflection envelope
	async            bool
	success          SuccessFunc
	failure          ErrorFunc
	asyncReflect     bool
	reflectSuccess   ReflectSuccessFunc
	reflectError     ReflectErrorFunc
	exceptionHandler ExceptionFunc
	preProcessing    TransformFunc
	postProcessing   TransformFunc
	headers          http.Header
	smd              *Document

	transport  Transport
	httpClient *http.Client
	codec      Codec
	logger     *zap.Logger
}

func defaultOptions() *options {
	return &options{
		success:        func(interface{}, int, string) {},
		failure:        func(*Client, *Response, string, []byte, int, string) {},
		reflectSuccess: func(*Client) {},
		reflectError:   func(*Client, *Response, string, []byte) {},
		headers:        make(http.Header),
		codec:          defaultCodec,
		logger:         zap.NewNop(),
	}
}

// WithVersion forces the protocol version; 1 sends JSON-RPC 1.0 envelopes,
// anything else 2.0. Zero (the default) detects it from the reflection
// document.
func WithVersion(v int) Option {
	return func(o *options) { o.version = v }
}

// WithAsync sets whether generated methods return immediately.
func WithAsync(async bool) Option {
	return func(o *options) { o.async = async }
}

// WithSuccess sets the default success callback for asynchronous calls.
func WithSuccess(fn SuccessFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.success = fn
		}
	}
}

// WithError sets the default error callback for asynchronous calls.
func WithError(fn ErrorFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.failure = fn
		}
	}
}

// WithAsyncReflect makes New return before the reflection document arrives.
func WithAsyncReflect(async bool) Option {
	return func(o *options) { o.asyncReflect = async }
}

// WithReflectSuccess sets the callback run after asynchronous reflection.
func WithReflectSuccess(fn ReflectSuccessFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.reflectSuccess = fn
		}
	}
}

// WithReflectError sets the callback run when asynchronous reflection fails.
func WithReflectError(fn ReflectErrorFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.reflectError = fn
		}
	}
}

// WithExceptionHandler sets the instance-level fault handler.
func WithExceptionHandler(fn ExceptionFunc) Option {
	return func(o *options) { o.exceptionHandler = fn }
}

// WithPreProcessing transforms every argument before it is sent.
func WithPreProcessing(fn TransformFunc) Option {
	return func(o *options) { o.preProcessing = fn }
}

// WithPostProcessing transforms every result before it is delivered.
func WithPostProcessing(fn TransformFunc) Option {
	return func(o *options) { o.postProcessing = fn }
}

// WithHeaders adds extra HTTP headers to every call.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		for k, v := range headers {
			o.headers.Set(k, v)
		}
	}
}

// WithHeader adds one extra HTTP header to every call.
func WithHeader(key, value string) Option {
	return func(o *options) { o.headers.Set(key, value) }
}

// WithSMD supplies the reflection document, skipping the fetch.
func WithSMD(doc *Document) Option {
	return func(o *options) { o.smd = doc }
}

// WithTransport overrides the transport chosen from the URL scheme.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHTTPClient sets the client used by the http and https transports.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithCodec sets a custom codec
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
