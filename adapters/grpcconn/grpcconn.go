// Package grpcconn provides a ports.Transport over a gRPC connection.
// Messages are encoded with the CBOR codec registered by adapters/codec.
package grpcconn

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/xenon-middleware/xenon-go/adapters/codec"
	"github.com/xenon-middleware/xenon-go/domain/wire"
	"github.com/xenon-middleware/xenon-go/ports"
)

// RequestIDHeader carries the id attached with ports.WithRequestID.
const RequestIDHeader = "x-request-id"

// ClientConfig configures the gRPC client.
type ClientConfig struct {
	Target string

	// CallTimeout bounds unary calls. Streams are bounded by their context
	// only. Zero means no bound.
	CallTimeout time.Duration

	// MaxRecvMsgSize caps a single received message. Zero keeps the gRPC
	// default.
	MaxRecvMsgSize int

	// Headers are sent as metadata on every call.
	Headers map[string]string
}

// Client is a ports.Transport backed by a grpc.ClientConn.
type Client struct {
	conn    *grpc.ClientConn
	owned   bool
	timeout time.Duration
	headers metadata.MD
	opts    []grpc.CallOption
}

// NewClient connects to cfg.Target without transport security.
func NewClient(cfg ClientConfig, opts ...grpc.DialOption) (*Client, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("grpcconn: target is required")
	}
	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Target, dial...)
	if err != nil {
		return nil, fmt.Errorf("grpcconn: dial %s: %w", cfg.Target, err)
	}
	c := NewFromConn(conn, cfg)
	c.owned = true
	return c, nil
}

// NewFromConn wraps an existing connection. Close leaves conn open.
func NewFromConn(conn *grpc.ClientConn, cfg ClientConfig) *Client {
	callOpts := []grpc.CallOption{grpc.CallContentSubtype(codec.Name)}
	if cfg.MaxRecvMsgSize > 0 {
		callOpts = append(callOpts, grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize))
	}
	return &Client{
		conn:    conn,
		timeout: cfg.CallTimeout,
		headers: metadata.New(cfg.Headers),
		opts:    callOpts,
	}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	md := c.headers.Copy()
	if id := ports.RequestID(ctx); id != "" {
		md.Set(RequestIDHeader, id)
	}
	if len(md) == 0 {
		return ctx
	}
	if prev, ok := metadata.FromOutgoingContext(ctx); ok {
		md = metadata.Join(prev, md)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// Invoke performs a unary call.
func (c *Client) Invoke(ctx context.Context, method string, req, resp any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.conn.Invoke(c.outgoing(ctx), method, req, resp, c.opts...)
}

// NewStream opens a streaming call.
func (c *Client) NewStream(ctx context.Context, method string, kind wire.Kind) (ports.ClientStream, error) {
	desc := &grpc.StreamDesc{
		StreamName:    method,
		ServerStreams: kind.ServerStreams(),
		ClientStreams: kind.ClientStreams(),
	}
	st, err := c.conn.NewStream(c.outgoing(ctx), desc, method, c.opts...)
	if err != nil {
		return nil, err
	}
	return clientStream{st}, nil
}

// Close closes the connection if NewClient opened it.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	return c.conn.Close()
}

type clientStream struct {
	grpc.ClientStream
}

func (s clientStream) Send(msg any) error { return s.SendMsg(msg) }
func (s clientStream) Recv(msg any) error { return s.RecvMsg(msg) }

var _ ports.Transport = (*Client)(nil)
