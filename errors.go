// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"errors"
	"fmt"
)

var (
	// ErrFaultHandled is returned by a synchronous call whose fault was
	// delivered to an exception handler.
	ErrFaultHandled = errors.New("jsonrpc: fault delivered to exception handler")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("jsonrpc: client closed")
	// ErrUnknownMethod is returned by Call for a name with no proxy.
	ErrUnknownMethod = errors.New("jsonrpc: unknown method")
)

// StatusError records a failed exchange: a non-200 status or a transport
// error that never produced one.
type StatusError struct {
	StatusCode int
	StatusText string
	Response   *Response
}

func newStatusError(resp *Response) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode,
		StatusText: resp.StatusText,
		Response:   resp,
	}
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return "jsonrpc: request failed: " + e.StatusText
	}
	return fmt.Sprintf("jsonrpc: status %d: %s", e.StatusCode, e.StatusText)
}
