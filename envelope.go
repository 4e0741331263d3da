// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// Protocol versions
const (
	Version1 = 1
	Version2 = 2
)

// EnvelopeV1 is the reflection envelope marker that selects Version1.
const EnvelopeV1 = "JSON-RPC-1.0"

// jsonrpcVersion is the value of the jsonrpc member in Version2 requests.
const jsonrpcVersion = "2.0"

// ErrMalformedReply is returned when a reply body is not a JSON object.
var ErrMalformedReply = errors.New("jsonrpc: malformed reply")

type requestV1 struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

type requestV2 struct {
	Version string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type replyEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// detectVersion picks the protocol version from a reflection envelope marker.
func detectVersion(envelope string) int {
	if envelope == EnvelopeV1 {
		return Version1
	}
	return Version2
}

// encodeRequest builds the request envelope for one call.
func encodeRequest(codec Codec, version int, method string, params []interface{}, id int) ([]byte, error) {
	if params == nil {
		params = []interface{}{}
	}
	if version == Version1 {
		return codec.Encode(&requestV1{Method: method, Params: params, ID: id})
	}
	return codec.Encode(&requestV2{Version: jsonrpcVersion, Method: method, Params: params, ID: id})
}

// decodeReply parses a reply body into either a result or a Fault. An empty
// body is a null result.
func decodeReply(codec Codec, body []byte) (interface{}, *Fault, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, nil
	}

	var env replyEnvelope
	if err := codec.Decode(body, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	if len(env.Error) > 0 {
		// Only an object in the error member is a fault; null, strings and
		// the like fall through to the result.
		if _, kind, _, err := jsonparser.Get(env.Error); err == nil && kind == jsonparser.Object {
			f, err := decodeFault(codec, env.Error)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: error member: %v", ErrMalformedReply, err)
			}
			return nil, f, nil
		}
	}

	if len(env.Result) == 0 {
		return nil, nil, nil
	}
	var result interface{}
	if err := codec.Decode(env.Result, &result); err != nil {
		return nil, nil, fmt.Errorf("%w: result member: %v", ErrMalformedReply, err)
	}
	return result, nil, nil
}
