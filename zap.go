// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// ZAP frames an exchange over TCP:
//
//	request:  [4 len][1 type][4 reqID][2 verbLen][verb][body]
//	response: [4 len][1 type][4 reqID][payload]
//
// The verb is the HTTP method of the Request. An error frame carries the
// status text of a failed exchange.

var (
	ErrZAPClosed      = errors.New("zap: connection closed")
	ErrZAPInvalidResp = errors.New("zap: invalid response")
)

const maxZAPFrame = 64 * 1024 * 1024

// MessageType identifies ZAP message types
type MessageType uint8

const (
	MsgRequest  MessageType = 0x01
	MsgResponse MessageType = 0x02
	MsgError    MessageType = 0x03
)

// ZAPRemoteError is a failure reported by the server in an error frame.
type ZAPRemoteError struct {
	StatusText string
}

func (e *ZAPRemoteError) Error() string {
	return "zap: remote error: " + e.StatusText
}

type zapReply struct {
	data []byte
	err  error
}

// ZAPConn is a client connection multiplexing exchanges by request id.
type ZAPConn struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // reqID -> chan zapReply
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

// ZAPDial connects to a ZAP server
func ZAPDial(ctx context.Context, addr string) (*ZAPConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("zap dial: %w", err)
	}

	zc := &ZAPConn{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go zc.readLoop()
	return zc, nil
}

func writeFrame(w io.Writer, msgType MessageType, reqID uint32, verb string, payload []byte) error {
	head := 1 + 4
	if msgType == MsgRequest {
		head += 2 + len(verb)
	}
	frameLen := head + len(payload)

	buf := make([]byte, 4+frameLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(frameLen))
	buf[4] = byte(msgType)
	binary.BigEndian.PutUint32(buf[5:9], reqID)
	off := 9
	if msgType == MsgRequest {
		binary.BigEndian.PutUint16(buf[9:11], uint16(len(verb)))
		off += 2 + copy(buf[11:], verb)
	}
	copy(buf[off:], payload)

	_, err := w.Write(buf)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	frameLen := binary.BigEndian.Uint32(header)
	if frameLen == 0 || frameLen > maxZAPFrame {
		return nil, fmt.Errorf("zap: bad frame length %d", frameLen)
	}
	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// Call performs one exchange and waits for its reply.
func (z *ZAPConn) Call(ctx context.Context, verb string, payload []byte) ([]byte, error) {
	if z.closed.Load() {
		return nil, ErrZAPClosed
	}

	reqID := z.nextID.Add(1)
	replyCh := make(chan zapReply, 1)
	z.pending.Store(reqID, replyCh)
	defer z.pending.Delete(reqID)

	z.writeMu.Lock()
	err := writeFrame(z.conn, MsgRequest, reqID, verb, payload)
	z.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("zap write: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply := <-replyCh:
		return reply.data, reply.err
	case <-z.readDone:
		return nil, ErrZAPClosed
	}
}

func (z *ZAPConn) readLoop() {
	defer close(z.readDone)

	for {
		frame, err := readFrame(z.conn)
		if err != nil {
			return
		}
		if len(frame) < 5 {
			continue
		}

		reqID := binary.BigEndian.Uint32(frame[1:5])
		ch, ok := z.pending.Load(reqID)
		if !ok {
			continue
		}
		replyCh := ch.(chan zapReply)
		payload := frame[5:]
		switch MessageType(frame[0]) {
		case MsgResponse:
			replyCh <- zapReply{data: payload}
		case MsgError:
			replyCh <- zapReply{err: &ZAPRemoteError{StatusText: string(payload)}}
		default:
			replyCh <- zapReply{err: ErrZAPInvalidResp}
		}
	}
}

// Close closes the connection
func (z *ZAPConn) Close() error {
	if z.closed.Swap(true) {
		return nil
	}
	return z.conn.Close()
}

// zapTransport keeps one connection per client, redialled after it drops.
type zapTransport struct {
	addr string
	mu   sync.Mutex
	conn *ZAPConn
}

func newZAPTransport(u *url.URL, _ *options) (Transport, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("zap: missing host in %q", u.String())
	}
	return &zapTransport{addr: u.Host}, nil
}

func (t *zapTransport) dial(ctx context.Context) (*ZAPConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		select {
		case <-t.conn.readDone:
			t.conn.Close()
		default:
			return t.conn, nil
		}
	}
	conn, err := ZAPDial(ctx, t.addr)
	if err != nil {
		return nil, err
	}
	t.conn = conn
	return conn, nil
}

func (t *zapTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	data, err := conn.Call(ctx, req.Method, req.Body)
	var remote *ZAPRemoteError
	switch {
	case errors.As(err, &remote):
		return &Response{Request: req, StatusText: remote.StatusText}, nil
	case err != nil:
		return nil, err
	}
	return &Response{
		Request:    req,
		OK:         true,
		StatusCode: http.StatusOK,
		StatusText: http.StatusText(http.StatusOK),
		Body:       data,
	}, nil
}

func (t *zapTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// ZAPHandler answers one exchange. A returned error is sent back as an
// error frame carrying its message.
type ZAPHandler interface {
	HandleZAP(ctx context.Context, verb string, payload []byte) ([]byte, error)
}

// ZAPHandlerFunc is a function adapter for ZAPHandler
type ZAPHandlerFunc func(ctx context.Context, verb string, payload []byte) ([]byte, error)

func (f ZAPHandlerFunc) HandleZAP(ctx context.Context, verb string, payload []byte) ([]byte, error) {
	return f(ctx, verb, payload)
}

// ZAPHandlerFromHTTP serves ZAP exchanges with an http.Handler. Requests
// carry only Content-Type: application/json; any status other than 200
// becomes an error frame with the status text.
func ZAPHandlerFromHTTP(h http.Handler) ZAPHandler {
	return ZAPHandlerFunc(func(ctx context.Context, verb string, payload []byte) ([]byte, error) {
		r, err := http.NewRequestWithContext(ctx, verb, "/", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")

		w := &bufferedResponse{header: make(http.Header)}
		h.ServeHTTP(w, r)
		if w.status != 0 && w.status != http.StatusOK {
			return nil, errors.New(http.StatusText(w.status))
		}
		return w.body.Bytes(), nil
	})
}

// bufferedResponse collects a handler's response in memory.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *bufferedResponse) Header() http.Header { return w.header }

func (w *bufferedResponse) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedResponse) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

// ZAPServer handles incoming ZAP exchanges
type ZAPServer struct {
	listener net.Listener
	handler  ZAPHandler
	conns    sync.Map
	closed   atomic.Bool
}

// ListenZAP listens on addr and serves exchanges with h once Serve runs.
func ListenZAP(addr string, h ZAPHandler) (*ZAPServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewZAPServer(listener, h), nil
}

// NewZAPServer creates a new ZAP server
func NewZAPServer(listener net.Listener, handler ZAPHandler) *ZAPServer {
	return &ZAPServer{
		listener: listener,
		handler:  handler,
	}
}

// Serve accepts connections until the server is closed.
func (s *ZAPServer) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *ZAPServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	var writeMu sync.Mutex
	for {
		frame, err := readFrame(conn)
		if err != nil {
			return
		}
		if len(frame) < 7 || MessageType(frame[0]) != MsgRequest {
			continue
		}
		reqID := binary.BigEndian.Uint32(frame[1:5])
		verbLen := int(binary.BigEndian.Uint16(frame[5:7]))
		if len(frame) < 7+verbLen {
			continue
		}
		verb := string(frame[7 : 7+verbLen])
		payload := frame[7+verbLen:]

		go func() {
			data, err := s.handler.HandleZAP(ctx, verb, payload)
			msgType := MsgResponse
			if err != nil {
				msgType, data = MsgError, []byte(err.Error())
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			writeFrame(conn, msgType, reqID, "", data)
		}()
	}
}

// Close closes the server
func (s *ZAPServer) Close() error {
	s.closed.Store(true)
	s.conns.Range(func(key, _ interface{}) bool {
		key.(net.Conn).Close()
		return true
	})
	return s.listener.Close()
}

// Addr returns the listener address
func (s *ZAPServer) Addr() net.Addr {
	return s.listener.Addr()
}
