// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"
)

func startZAP(t testing.TB, ctx context.Context, h ZAPHandler) *ZAPServer {
	t.Helper()
	server, err := ListenZAP("127.0.0.1:0", h)
	if err != nil {
		t.Fatalf("ListenZAP: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	go server.Serve(ctx)
	return server
}

func TestZAPRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startZAP(t, ctx, ZAPHandlerFunc(func(ctx context.Context, verb string, payload []byte) ([]byte, error) {
		if verb != http.MethodPost {
			return nil, errors.New("Method Not Allowed")
		}
		return payload, nil
	}))

	conn, err := ZAPDial(ctx, server.Addr().String())
	if err != nil {
		t.Fatalf("ZAPDial: %v", err)
	}
	defer conn.Close()

	payload := []byte(`{"hello":"world"}`)
	resp, err := conn.Call(ctx, http.MethodPost, payload)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(resp) != string(payload) {
		t.Errorf("got %q, want %q", resp, payload)
	}

	_, err = conn.Call(ctx, http.MethodGet, nil)
	var remote *ZAPRemoteError
	if !errors.As(err, &remote) || remote.StatusText != "Method Not Allowed" {
		t.Errorf("err = %v, want remote Method Not Allowed", err)
	}
}

func TestZAPClientAgainstGorillaServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startZAP(t, ctx, ZAPHandlerFromHTTP(arithHandler(t)))

	c, err := New(ctx, "zap://"+server.Addr().String())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	got, err := c.Call(ctx, "Arith.Add", ArithArgs{A: 20, B: 22})
	if err != nil {
		t.Fatalf("Arith.Add: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]interface{}{"Result": float64(42)}) {
		t.Errorf("Arith.Add = %v", got)
	}
}

func TestZAPFailureFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startZAP(t, ctx, ZAPHandlerFromHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})))

	var status string
	c, err := New(ctx, "zap://"+server.Addr().String(),
		WithSMD(NewDocument("", "ping")),
		WithAsync(true),
		WithError(func(_ *Client, _ *Response, statusText string, _ []byte, _ int, _ string) {
			status = statusText
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, err := c.Call(ctx, "ping"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if status != "Forbidden" {
		t.Errorf("status = %q, want Forbidden", status)
	}
}

func BenchmarkZAPCall(b *testing.B) {
	ctx := context.Background()
	server := startZAP(b, ctx, ZAPHandlerFunc(func(context.Context, string, []byte) ([]byte, error) {
		return []byte(`{"jsonrpc":"2.0","result":1,"id":1}`), nil
	}))

	c, err := New(ctx, "zap://"+server.Addr().String(), WithSMD(NewDocument("", "ping")))
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	defer c.Close()
	ping, _ := c.Method("ping")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ping(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
