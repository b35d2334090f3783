package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different paths and
// component kinds, and then route each message to the proper handler.
type Router struct {
	routes map[string]refsys.Handler
}

var _ refsys.Registry = (*Router)(nil)

// NewRouter returns a new router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]refsys.Handler),
	}
}

// Handle adds a new handler for messages with given path, delivered to
// instances of given kind.
//
// panics if another handler was already registered or the path is invalid.
func (r *Router) Handle(kind, path string, h refsys.Handler) {
	if !isPath(kind) {
		panic(fmt.Sprintf("invalid kind: %s", kind))
	}
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %s", path))
	}
	key := routeKey(kind, path)
	if _, ok := r.routes[key]; ok {
		panic(fmt.Sprintf("re-registering route: %s", key))
	}
	r.routes[key] = h
}

// Handler returns the registered handler for this kind and path. If none is
// registered, it returns a handler that always fails.
func (r *Router) Handler(kind, path string) refsys.Handler {
	if h, ok := r.routes[routeKey(kind, path)]; ok {
		return h
	}
	return notFoundHandler(routeKey(kind, path))
}

// HasKind returns true if at least one handler is registered for given kind.
func (r *Router) HasKind(kind string) bool {
	prefix := kind + ":"
	for key := range r.routes {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func routeKey(kind, path string) string {
	return kind + ":" + path
}

// notFoundHandler always returns ErrNotFound error for given route.
type notFoundHandler string

func (path notFoundHandler) Deliver(refsys.Context, refsys.KVStore, refsys.Msg) (*refsys.Result, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %s", string(path))
}
