// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"fmt"
	"math"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/gorilla/rpc/v2/json2"
)

// Fault is an error reported by the server in the error member of a reply.
type Fault struct {
	// Code is the integer code; 0 when the server sent a code that is not
	// an integral number.
	Code int
	// RawCode is the code as the server sent it, e.g. "-32000", "-32000.5"
	// or "E42" for a string code.
	RawCode string
	Message string
	// Data is the optional auxiliary value; "" when the server sent none.
	Data interface{}
}

// newFault converts a decoded error member into a Fault.
func newFault(e *json2.Error) *Fault {
	f := &Fault{
		Code:    int(e.Code),
		RawCode: strconv.Itoa(int(e.Code)),
		Message: e.Message,
		Data:    e.Data,
	}
	if f.Data == nil {
		f.Data = ""
	}
	return f
}

// decodeFault reads an error member object. Members that do not fit the
// 2.0 error object, such as a float or string code, are kept as sent.
func decodeFault(codec Codec, raw []byte) (*Fault, error) {
	e := new(json2.Error)
	if err := codec.Decode(raw, e); err == nil {
		return newFault(e), nil
	}

	var loose struct {
		Message interface{} `json:"message"`
		Data    interface{} `json:"data"`
	}
	if err := codec.Decode(raw, &loose); err != nil {
		return nil, err
	}
	f := &Fault{Data: loose.Data}
	if f.Data == nil {
		f.Data = ""
	}
	switch m := loose.Message.(type) {
	case nil:
	case string:
		f.Message = m
	default:
		f.Message = fmt.Sprint(m)
	}

	v, kind, _, err := jsonparser.Get(raw, "code")
	if err != nil {
		return f, nil
	}
	switch kind {
	case jsonparser.Number:
		f.RawCode = string(v)
		if n, err := jsonparser.ParseFloat(v); err == nil && n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			f.Code = int(n)
		}
	case jsonparser.String:
		s, err := jsonparser.ParseString(v)
		if err != nil {
			s = string(v)
		}
		f.RawCode = s
	case jsonparser.Null:
	default:
		f.RawCode = string(v)
	}
	return f, nil
}

func (f *Fault) Error() string {
	code := f.RawCode
	if code == "" {
		code = strconv.Itoa(f.Code)
	}
	return fmt.Sprintf("(%s): %s", code, f.Message)
}

func (f *Fault) String() string {
	return f.Error()
}
