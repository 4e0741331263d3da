//go:build grpc

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// GRPCServicePrefix is prepended to the request verb to form the gRPC
// method, e.g. /jsonrpc.Transport/POST.
const GRPCServicePrefix = "/jsonrpc.Transport/"

func init() {
	// Register gRPC transport when build tag is enabled
	registerTransport(TransportGRPC, dialGRPC)
}

// RawCodec carries envelopes through gRPC as plain bytes.
type RawCodec struct{}

func (RawCodec) Marshal(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	}
	return nil, fmt.Errorf("grpc raw codec: cannot marshal %T", v)
}

func (RawCodec) Unmarshal(data []byte, v interface{}) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("grpc raw codec: cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (RawCodec) Name() string {
	return "jsonrpc"
}

func dialGRPC(u *url.URL, _ *options) (Transport, error) {
	conn, err := grpc.NewClient(u.Host,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &grpcTransport{conn: conn}, nil
}

type grpcTransport struct {
	conn *grpc.ClientConn
}

// RoundTrip invokes GRPCServicePrefix+verb. A gRPC status error is a failed
// exchange whose status text is the status message.
func (t *grpcTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	in := req.Body
	var out []byte
	err := t.conn.Invoke(ctx, GRPCServicePrefix+req.Method, &in, &out, grpc.ForceCodec(RawCodec{}))
	if err != nil {
		st, ok := status.FromError(err)
		if !ok {
			return nil, err
		}
		return &Response{Request: req, StatusText: st.Message()}, nil
	}
	return &Response{
		Request:    req,
		OK:         true,
		StatusCode: http.StatusOK,
		StatusText: http.StatusText(http.StatusOK),
		Body:       out,
	}, nil
}

func (t *grpcTransport) Close() error {
	return t.conn.Close()
}
