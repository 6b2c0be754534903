package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/logger"
)

// maxResponseSize caps RPC response bodies (10MB)
const maxResponseSize = 10 * 1024 * 1024

const tracerName = "github.com/erp/bridge/internal/infrastructure/erp"

// OdooClient implements integration.ERP over Odoo's JSON-RPC external API.
type OdooClient struct {
	config     *OdooConfig
	httpClient *http.Client
	session    *Session
	tracer     trace.Tracer
	logger     *zap.Logger
	nextID     atomic.Int64
}

// OdooOption configures an OdooClient.
type OdooOption func(*OdooClient)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(client *http.Client) OdooOption {
	return func(c *OdooClient) {
		c.httpClient = client
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) OdooOption {
	return func(c *OdooClient) {
		c.logger = l
	}
}

// NewOdooClient validates config and returns a client. No network call is made
// until the first RPC.
func NewOdooClient(config *OdooConfig, opts ...OdooOption) (*OdooClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &OdooClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		session: &Session{},
		tracer:  otel.Tracer(tracerName),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authenticate runs common.authenticate and returns the uid. It does not touch
// the cached session.
func (c *OdooClient) Authenticate(ctx context.Context) (int64, error) {
	raw, err := c.call(ctx, "common", "authenticate", []any{
		c.config.Database, c.config.Login, c.config.APIKey, map[string]any{},
	})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return 0, fmt.Errorf("%w: %v", integration.ErrERPAuthFailed, rpcErr)
		}
		return 0, err
	}

	// A rejected login answers false rather than an error object.
	var uid int64
	if err := json.Unmarshal(raw, &uid); err != nil || uid == 0 {
		return 0, fmt.Errorf("%w: login %q rejected", integration.ErrERPAuthFailed, c.config.Login)
	}
	return uid, nil
}

// ExecuteKW calls model.method through object.execute_kw. When the server
// reports a lost session the client re-authenticates once and retries.
func (c *OdooClient) ExecuteKW(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "odoo "+model+"."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("odoo.model", model),
			attribute.String("odoo.method", method),
		),
	)
	defer span.End()

	raw, err := c.executeOnce(ctx, model, method, args, kwargs)
	if errors.Is(err, integration.ErrERPSessionExpired) {
		logger.L(ctx).Warn("Odoo session rejected, re-authenticating",
			zap.String("model", model),
			zap.String("method", method),
			zap.Error(err),
		)
		c.session.Invalidate()
		raw, err = c.executeOnce(ctx, model, method, args, kwargs)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return raw, nil
}

func (c *OdooClient) executeOnce(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	uid, err := c.session.establish(func() (int64, error) {
		return c.Authenticate(ctx)
	})
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return c.call(ctx, "object", "execute_kw", []any{
		c.config.Database, uid, c.config.APIKey, model, method, args, kwargs,
	})
}

// call performs one JSON-RPC round trip.
func (c *OdooClient) call(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		ID:      c.nextID.Add(1),
		Params:  rpcParams{Service: service, Method: method, Args: args},
	})
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrERPUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrERPRequestFailed, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrERPInvalidResponse, err)
	}
	if rpcResp.Error != nil {
		if rpcResp.Error.sessionLost() {
			return nil, fmt.Errorf("%w: %w", integration.ErrERPSessionExpired, rpcResp.Error)
		}
		return nil, fmt.Errorf("%w: %w", integration.ErrERPRequestFailed, rpcResp.Error)
	}
	return rpcResp.Result, nil
}
