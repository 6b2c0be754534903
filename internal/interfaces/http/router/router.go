// Package router assembles the bridge HTTP surface on a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/bridge/internal/infrastructure/ecommerce"
	"github.com/erp/bridge/internal/infrastructure/logger"
	"github.com/erp/bridge/internal/interfaces/http/handler"
	"github.com/erp/bridge/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	registrars []RouteRegistrar
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine) *Router {
	return &Router{
		engine:     engine,
		registrars: make([]RouteRegistrar, 0),
	}
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes at the engine root. Storefront webhook URLs are
// configured by hand in the shop admin, so paths are not versioned.
func (r *Router) Setup() {
	root := &r.engine.RouterGroup
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(root)
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:       name,
		prefix:     prefix,
		routes:     make([]routeDefinition, 0),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// Use adds middleware to this group. Nil handlers are skipped so optional
// middleware can be passed unconditionally.
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	for _, m := range middleware {
		if m != nil {
			dg.middleware = append(dg.middleware, m)
		}
	}
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Config wires handlers and middleware into an engine
type Config struct {
	Logger *zap.Logger

	Orders  handler.OrderSyncer
	Records handler.SyncRecordReader
	Stock   handler.StockSyncer

	Verifier *ecommerce.WebhookVerifier
	// MaxBodySize caps webhook bodies; zero disables the cap
	MaxBodySize int64
	// RateLimiter throttles webhooks per client IP; nil disables it
	RateLimiter    *middleware.RateLimiter
	Tracing        middleware.TracingConfig
	TrustedProxies []string
}

// NewEngine builds the gin engine with every bridge route registered
func NewEngine(cfg Config) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	engine.Use(logger.GinMiddleware(log))

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = ecommerce.NewWebhookVerifier("")
	}

	system := handler.NewSystemHandler()
	webhooks := handler.NewWebhookHandler(cfg.Orders)
	syncs := handler.NewSyncHandler(cfg.Stock, cfg.Records)

	r := NewRouter(engine)

	r.Register(NewDomainGroup("system", "").
		GET("/ping", system.Ping))

	webhookGroup := NewDomainGroup("webhooks", "/webhook")
	if cfg.RateLimiter != nil {
		webhookGroup.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.MaxBodySize > 0 {
		webhookGroup.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	webhookGroup.Use(middleware.WebhookSignature(verifier))
	webhookGroup.
		POST("/order", webhooks.HandleOrder).
		POST("/woo/order", webhooks.HandleOrder)
	r.Register(webhookGroup)

	r.Register(NewDomainGroup("sync", "/sync").
		POST("/stock", syncs.SyncStock).
		GET("/orders", syncs.ListOrderSyncs).
		GET("/orders/:order_id", syncs.GetOrderSync))

	r.Setup()
	return engine, nil
}
