// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package jsonrpc builds a callable proxy for a remote JSON-RPC service from
// its reflection document (SMD).
//
// # Usage
//
// The document is fetched from the service URL with GET, or supplied with
// WithSMD. One Proc is generated per document method; names of the form
// group.method are grouped under a Namespace:
//
//	client, err := jsonrpc.New(ctx, "http://localhost:8080/rpc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	add, _ := client.Method("add")
//	sum, err := add(ctx, 1, 2)
//
//	math, _ := client.Namespace("math")
//	mul, _ := math.Method("mul")
//	product, err := mul(ctx, 3, 4)
//
// # Asynchronous calls
//
// With WithAsync (or SetAsync) a Proc returns the call's sequence id at once
// and the outcome is delivered to callbacks: per-call ones passed as a
// trailing Callbacks argument first, then the instance defaults.
//
//	client.SetAsync(true)
//	id, _ := add(ctx, 1, 2, jsonrpc.Callbacks{
//	    Success: func(reply interface{}, id int, method string) { ... },
//	})
//
// Completions run one at a time on a single dispatcher goroutine.
//
// # Faults
//
// An error object in a reply becomes a *Fault. It goes to the per-call
// exception handler, else the instance one. Without either, a synchronous
// call returns the Fault as its error and an asynchronous one drops it.
//
// # Transport Selection
//
// The transport is chosen from the URL scheme:
//
//	http://, https://   net/http (default)
//	zap://host:port     length-prefixed TCP framing (see ListenZAP)
//	grpc://host:port    raw bytes over gRPC (requires -tags grpc)
//
// WithTransport replaces it with any Transport.
package jsonrpc
