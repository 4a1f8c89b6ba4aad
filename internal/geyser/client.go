package geyser

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"github.com/iamrekas/geyserbench/internal/domain"
)

const maxRecvMsgSize = 64 * 1024 * 1024 // block updates can be large

// Client wraps one gRPC connection to a geyser endpoint.
type Client struct {
	endpoint domain.Endpoint
	conn     *grpc.ClientConn
	geyser   pb.GeyserClient
}

// Dial opens the transport for the endpoint. The connection itself is lazy;
// a dead endpoint surfaces as an error from Subscribe.
func Dial(ep domain.Endpoint) (*Client, error) {
	target, creds := dialTarget(ep.URL)

	conn, err := grpc.NewClient(
		target,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMsgSize)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s (%s): %w", ep.Name, ep.URL, err)
	}

	return &Client{endpoint: ep, conn: conn, geyser: pb.NewGeyserClient(conn)}, nil
}

// Subscribe opens the bidirectional update stream, attaching the endpoint's
// auth token as x-token metadata when configured.
func (c *Client) Subscribe(ctx context.Context) (pb.Geyser_SubscribeClient, error) {
	if c.endpoint.XToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-token", c.endpoint.XToken)
	}
	stream, err := c.geyser.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", c.endpoint.Name, err)
	}
	return stream, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func dialTarget(raw string) (string, credentials.TransportCredentials) {
	switch {
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimPrefix(raw, "http://"), insecure.NewCredentials()
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimPrefix(raw, "https://"), credentials.NewTLS(&tls.Config{})
	default:
		return raw, credentials.NewTLS(&tls.Config{})
	}
}

// CommitmentFromString maps a config value onto the protocol's commitment
// levels.
func CommitmentFromString(s string) (pb.CommitmentLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "processed":
		return pb.CommitmentLevel_PROCESSED, nil
	case "confirmed":
		return pb.CommitmentLevel_CONFIRMED, nil
	case "finalized":
		return pb.CommitmentLevel_FINALIZED, nil
	default:
		return pb.CommitmentLevel_PROCESSED, fmt.Errorf("unknown commitment level %q", s)
	}
}
