// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

// Callbacks is the optional trailing argument of an asynchronous call. The
// short names win over the long ones when both are set. The handlers run
// before the instance-level ones.
//
// The bag is still sent as a positional parameter and encodes as {}.
type Callbacks struct {
	CB      SuccessFunc
	Success SuccessFunc

	Ex               ExceptionFunc
	ExceptionHandler ExceptionFunc

	Er    ErrorFunc
	Error ErrorFunc
}

func (Callbacks) MarshalJSON() ([]byte, error) {
	return []byte("{}"), nil
}

// callSet is the per-call handlers after alias resolution.
type callSet struct {
	success   SuccessFunc
	exception ExceptionFunc
	failure   ErrorFunc
}

func (b *Callbacks) resolve() callSet {
	var s callSet
	if s.success = b.CB; s.success == nil {
		s.success = b.Success
	}
	if s.exception = b.Ex; s.exception == nil {
		s.exception = b.ExceptionHandler
	}
	if s.failure = b.Er; s.failure == nil {
		s.failure = b.Error
	}
	return s
}

// asCallbacks reports whether v is a callback bag.
func asCallbacks(v interface{}) (*Callbacks, bool) {
	switch b := v.(type) {
	case Callbacks:
		return &b, true
	case *Callbacks:
		return b, b != nil
	}
	return nil, false
}

// resolveCallbacks inspects the trailing argument of an asynchronous call.
// Synchronous calls never carry per-call handlers.
func resolveCallbacks(async bool, args []interface{}) callSet {
	if !async || len(args) == 0 {
		return callSet{}
	}
	if b, ok := asCallbacks(args[len(args)-1]); ok {
		return b.resolve()
	}
	return callSet{}
}
