package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/circuitbreaker"
	"github.com/sinan-prvt/Hopyfy-Cart/pkg/logger"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Client is a Reader backed by a remote catalog service.
type Client struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
	breaker *circuitbreaker.Breaker[*GetProductsResponse]
}

type ClientOptions struct {
	Timeout             time.Duration
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	Log                 *logger.Logger
}

// Dial opens a client connection with the JSON codec and tracing installed.
func Dial(addr string, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, extra...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog service: %w", err)
	}
	return conn, nil
}

func NewClient(conn grpc.ClientConnInterface, opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	breaker := circuitbreaker.New[*GetProductsResponse](circuitbreaker.Settings{
		Name:                "catalog",
		ConsecutiveFailures: opts.ConsecutiveFailures,
		OpenTimeout:         opts.OpenTimeout,
		IsFailure:           isUpstreamFailure,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{conn: conn, timeout: opts.Timeout, breaker: breaker}
}

func (c *Client) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	ids = UniqueIDs(ids)
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	resp, err := c.breaker.Execute(func() (*GetProductsResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		out := new(GetProductsResponse)
		if err := c.conn.Invoke(callCtx, getProductsMethod, &GetProductsRequest{IDs: ids}, out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	for _, p := range resp.Products {
		if p.IsActive {
			result[p.ID] = p
		}
	}
	return result, nil
}

func isUpstreamFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Unknown:
		return true
	}
	return false
}

func mapError(err error) error {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("catalog: %w: %v", domain.ErrUnavailable, err)
	}
	if isUpstreamFailure(err) {
		return fmt.Errorf("catalog: %w: %v", domain.ErrUnavailable, err)
	}
	return fmt.Errorf("catalog: %w", err)
}
