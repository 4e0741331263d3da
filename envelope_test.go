// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		version int
		params  []interface{}
		want    string
	}{
		{Version1, []interface{}{1, "a"}, `{"method":"m","params":[1,"a"],"id":7}`},
		{Version2, []interface{}{1, "a"}, `{"jsonrpc":"2.0","method":"m","params":[1,"a"],"id":7}`},
		{Version2, nil, `{"jsonrpc":"2.0","method":"m","params":[],"id":7}`},
		{Version2, []interface{}{Callbacks{}}, `{"jsonrpc":"2.0","method":"m","params":[{}],"id":7}`},
	}

	for _, tt := range tests {
		got, err := encodeRequest(defaultCodec, tt.version, "m", tt.params, 7)
		if err != nil {
			t.Fatalf("encodeRequest: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("v%d %v: got %s, want %s", tt.version, tt.params, got, tt.want)
		}
	}
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result interface{}
		fault  *Fault
	}{
		{name: "result", body: `{"jsonrpc":"2.0","result":{"sum":3},"id":1}`, result: map[string]interface{}{"sum": float64(3)}},
		{name: "v1 null error", body: `{"result":"ok","error":null,"id":1}`, result: "ok"},
		{name: "string error is not a fault", body: `{"result":1,"error":"oops"}`, result: float64(1)},
		{name: "fault", body: `{"error":{"code":-32000,"message":"boom","data":[1]}}`, fault: &Fault{Code: -32000, RawCode: "-32000", Message: "boom", Data: []interface{}{float64(1)}}},
		{name: "fault defaults", body: `{"error":{"code":5}}`, fault: &Fault{Code: 5, RawCode: "5", Data: ""}},
		{name: "integral float code", body: `{"error":{"code":-32000.0,"message":"bad"}}`, fault: &Fault{Code: -32000, RawCode: "-32000.0", Message: "bad", Data: ""}},
		{name: "fractional code", body: `{"error":{"code":1.5,"message":"bad","data":"d"}}`, fault: &Fault{RawCode: "1.5", Message: "bad", Data: "d"}},
		{name: "string code", body: `{"error":{"code":"E42","message":"bad"}}`, fault: &Fault{RawCode: "E42", Message: "bad", Data: ""}},
		{name: "non-string message", body: `{"error":{"code":"x","message":404}}`, fault: &Fault{RawCode: "x", Message: "404", Data: ""}},
		{name: "missing result", body: `{"id":1}`},
		{name: "empty body", body: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, fault, err := decodeReply(defaultCodec, []byte(tt.body))
			if err != nil {
				t.Fatalf("decodeReply: %v", err)
			}
			if !reflect.DeepEqual(result, tt.result) {
				t.Errorf("result = %#v, want %#v", result, tt.result)
			}
			if !reflect.DeepEqual(fault, tt.fault) {
				t.Errorf("fault = %#v, want %#v", fault, tt.fault)
			}
		})
	}
}

func TestDecodeReplyMalformed(t *testing.T) {
	for _, body := range []string{`{"result":`, `[1,2]`} {
		if _, _, err := decodeReply(defaultCodec, []byte(body)); !errors.Is(err, ErrMalformedReply) {
			t.Errorf("%s: err = %v, want ErrMalformedReply", body, err)
		}
	}
}

func TestDetectVersion(t *testing.T) {
	if v := detectVersion("JSON-RPC-1.0"); v != Version1 {
		t.Errorf("JSON-RPC-1.0 -> %d", v)
	}
	for _, env := range []string{"", "JSON-RPC-2.0", "json-rpc-1.0"} {
		if v := detectVersion(env); v != Version2 {
			t.Errorf("%q -> %d", env, v)
		}
	}
}
