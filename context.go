/*
Package refsys defines all common interfaces to tie together the various
subpackages, as well as implementations of some of the simpler components
(when interfaces would be too much overhead).

We pass context through context.Context between the substrate and handlers.
To do so, refsys defines some common keys to store info, such as the sender
of the current message and the instance processing it.

There should exist two functions for every XYZ of type T
that we want to support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)
*/
package refsys

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the refsys module

const (
	contextKeyLogger contextKey = iota
	contextKeySender
	contextKeySelf
	contextKeyDispatcher
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain
type Context = context.Context

// WithLogger sets the logger for this context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	if ctx == nil {
		return DefaultLogger
	}
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithSender sets the address of the party that sent the message currently
// being processed. This is either an external caller or another component
// instance.
func WithSender(ctx Context, sender Address) Context {
	return context.WithValue(ctx, contextKeySender, sender)
}

// GetSender returns the sender of the message currently being processed.
func GetSender(ctx Context) (Address, bool) {
	val, ok := ctx.Value(contextKeySender).(Address)
	return val, ok && len(val) != 0
}

// WithSelf sets the address of the component instance that is processing
// the current message.
func WithSelf(ctx Context, self Address) Context {
	return context.WithValue(ctx, contextKeySelf, self)
}

// GetSelf returns the address of the component instance processing the
// current message.
func GetSelf(ctx Context) (Address, bool) {
	val, ok := ctx.Value(contextKeySelf).(Address)
	return val, ok && len(val) != 0
}

// WithDispatcher sets the dispatcher that nested messages are sent through.
func WithDispatcher(ctx Context, d Dispatcher) Context {
	return context.WithValue(ctx, contextKeyDispatcher, d)
}

// GetDispatcher returns the dispatcher set for this context.
func GetDispatcher(ctx Context) (Dispatcher, bool) {
	val, ok := ctx.Value(contextKeyDispatcher).(Dispatcher)
	return val, ok
}
