// Package routes mounts the independently owned route groups of the API.
// The bootstrap owns only the mounting order; each group's owner registers
// its own endpoints on the group.
package routes

import (
	"net/http"

	"github.com/benvon/bobbys-store/internal/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Names of the groups in mounting order.
const (
	Auth    = "auth"
	Admin   = "admin"
	Product = "product"
	User    = "user"
)

// Order is the fixed mounting order. A path served by two groups is
// answered by whichever comes first.
var Order = []string{Auth, Admin, Product, User}

type endpoint struct {
	path    string
	methods []string
	handler http.Handler
}

// Group is a named collection of endpoints mounted at the root of the router.
type Group struct {
	name        string
	middlewares []mux.MiddlewareFunc
	endpoints   []endpoint
	mounted     *mux.Router
}

// Option configures a Group.
type Option func(*Group)

// WithMiddleware adds middleware that runs only for this group's endpoints.
func WithMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(g *Group) {
		for _, mw := range mws {
			g.middlewares = append(g.middlewares, mux.MiddlewareFunc(mw))
		}
	}
}

// WithStorageGate answers 503 for this group while storage is unavailable.
func WithStorageGate(storage middleware.Readiness, logger *zap.Logger) Option {
	return WithMiddleware(middleware.StorageGate(storage, logger))
}

// NewGroup creates an empty group.
func NewGroup(name string, opts ...Option) *Group {
	g := &Group{name: name}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Handle registers handler for path. With no methods every method matches.
// Once the group is mounted the endpoint goes straight onto its subrouter,
// so Handle must not be called after the server starts serving.
func (g *Group) Handle(path string, handler http.Handler, methods ...string) *Group {
	ep := endpoint{path: path, methods: methods, handler: handler}
	g.endpoints = append(g.endpoints, ep)
	if g.mounted != nil {
		ep.attach(g.mounted)
	}
	return g
}

// HandleFunc registers a handler function for path.
func (g *Group) HandleFunc(path string, fn http.HandlerFunc, methods ...string) *Group {
	return g.Handle(path, fn, methods...)
}

// Len returns the number of registered endpoints.
func (g *Group) Len() int {
	return len(g.endpoints)
}

func (g *Group) register(r *mux.Router) {
	sub := r.NewRoute().Subrouter()
	sub.Use(g.middlewares...)
	for _, ep := range g.endpoints {
		ep.attach(sub)
	}
	g.mounted = sub
}

func (ep endpoint) attach(r *mux.Router) {
	route := r.Handle(ep.path, ep.handler)
	if len(ep.methods) > 0 {
		route.Methods(ep.methods...)
	}
}

// Set holds the four route groups. Nil entries are skipped.
type Set struct {
	Auth    *Group
	Admin   *Group
	Product *Group
	User    *Group
}

// NewSet builds the four groups with the same options.
func NewSet(opts ...Option) Set {
	return Set{
		Auth:    NewGroup(Auth, opts...),
		Admin:   NewGroup(Admin, opts...),
		Product: NewGroup(Product, opts...),
		User:    NewGroup(User, opts...),
	}
}

// Ordered returns the non-nil groups in mounting order.
func (s Set) Ordered() []*Group {
	var out []*Group
	for _, g := range []*Group{s.Auth, s.Admin, s.Product, s.User} {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

// Mount attaches every group to r in mounting order.
func Mount(r *mux.Router, set Set, logger *zap.Logger) {
	for _, g := range set.Ordered() {
		g.register(r)
		logger.Info("route_group_mounted",
			zap.String("group", g.name),
			zap.Int("endpoints", len(g.endpoints)),
		)
	}
}
