// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"fmt"
	"testing"
)

func TestAvailableTransports(t *testing.T) {
	for _, name := range []string{TransportHTTP, TransportHTTPS, TransportZAP} {
		if !HasTransport(name) {
			t.Errorf("transport %q not registered", name)
		}
	}
	if HasTransport("ftp") {
		t.Error("ftp should not be registered")
	}

	names := AvailableTransports()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("AvailableTransports not sorted: %v", names)
		}
	}
}

func TestTransportForScheme(t *testing.T) {
	o := defaultOptions()
	for url, want := range map[string]string{
		"http://localhost/rpc":  "*jsonrpc.httpTransport",
		"https://localhost/rpc": "*jsonrpc.httpTransport",
		"/rpc":                  "*jsonrpc.httpTransport",
		"zap://localhost:9000":  "*jsonrpc.zapTransport",
	} {
		tr, err := transportFor(url, o)
		if err != nil {
			t.Errorf("%s: %v", url, err)
			continue
		}
		if got := fmt.Sprintf("%T", tr); got != want {
			t.Errorf("%s: got %s, want %s", url, got, want)
		}
	}

	if _, err := transportFor("zap:///nohost", o); err == nil {
		t.Error("expected an error for a zap URL without host")
	}
}
