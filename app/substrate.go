package app

import (
	"sync"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/store"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	directoryPrefix = []byte("_dir:")
	instancePrefix  = []byte("_inst:")
	namespacePrefix = []byte("_ns:")
)

// GenesisAddress is the sender of all messages sent while initializing the
// state from the genesis.
var GenesisAddress = refsys.NewCondition("app", "genesis", []byte("genesis")).Address()

// Substrate executes messages delivered to component instances.
//
// Each instance owns an isolated keyspace of the root store and is bound to
// a component kind when it is spawned. A delivery runs on a cache of the
// receiving instance keyspace that is written only when the handler
// succeeds, so every delivery is atomic relative to the receiving instance.
// Nested messages sent by a handler are separate deliveries. Their changes
// are not rolled back if the sending handler fails afterwards.
//
// All external calls are serialized. Messages sent by handlers are delivered
// synchronously, within the external call that caused them. Shared
// namespaces must only be accessed by handlers or within Exclusive.
type Substrate struct {
	mu     sync.Mutex
	root   refsys.CacheableKVStore
	router *Router
	logger log.Logger

	// active holds instances that are currently processing a message.
	active map[string]bool
	// querying is set while a query is processed. The root store rejects
	// all writes meanwhile.
	querying bool
}

var _ refsys.Dispatcher = (*Substrate)(nil)

// NewSubstrate returns a substrate that keeps all state in given store and
// routes messages with given router.
func NewSubstrate(root refsys.CacheableKVStore, router *Router) *Substrate {
	s := &Substrate{
		router: router,
		logger: log.NewNopLogger(),
		active: make(map[string]bool),
	}
	s.root = readOnlyStore{CacheableKVStore: root, locked: &s.querying}
	return s
}

// WithLogger sets the logger used for all deliveries and returns the
// substrate, to make it easy to chain in initialization.
func (s *Substrate) WithLogger(logger log.Logger) *Substrate {
	s.logger = logger
	return s
}

// Logger returns the substrate base logger.
func (s *Substrate) Logger() log.Logger {
	return s.logger
}

// Execute delivers a message from an external caller to an existing
// instance.
func (s *Substrate) Execute(ctx refsys.Context, sender, to refsys.Address, msg refsys.Msg) (*refsys.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Dispatch(s.baseContext(ctx), sender, to, msg)
	return res, s.redact(err)
}

// Deploy creates a new instance of given kind at given address on behalf of
// an external caller.
func (s *Substrate) Deploy(ctx refsys.Context, sender, to refsys.Address, kind string, msg refsys.Msg) (*refsys.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Spawn(s.baseContext(ctx), sender, to, kind, msg)
	return res, s.redact(err)
}

// Query delivers a message to an existing instance and drops all changes
// it made to the instance state. Messages sent by the handler are
// delivered, but any attempt to write to the store, including shared
// namespaces, fails with ErrInvalidState.
func (s *Substrate) Query(ctx refsys.Context, sender, to refsys.Address, msg refsys.Msg) (*refsys.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind, err := s.InstanceKind(to)
	if err != nil {
		return nil, err
	}
	s.querying = true
	defer func() { s.querying = false }()
	res, err := s.deliver(s.baseContext(ctx), sender, to, kind, msg, false, false)
	return res, s.redact(err)
}

// Exclusive calls fn while no external call is processed. Use it to access
// shared namespaces from outside of a handler.
func (s *Substrate) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// InitGenesis runs an initializer on the namespace with given name. Messages
// sent by the initializer come from GenesisAddress.
func (s *Substrate) InitGenesis(ctx refsys.Context, opts refsys.Options, namespace string, init refsys.Initializer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = refsys.WithSelf(s.baseContext(ctx), GenesisAddress)
	ctx = refsys.WithLogInfo(ctx, "genesis", namespace)
	cache := s.Namespace(namespace).CacheWrap()
	if err := init.FromGenesis(ctx, opts, cache); err != nil {
		cache.Discard()
		return errors.Wrapf(err, "genesis of %s", namespace)
	}
	return cache.Write()
}

// Namespace returns a keyspace of the root store that is not owned by any
// instance. It is meant for services shared by all instances, like the
// ledger.
func (s *Substrate) Namespace(name string) *store.PrefixStore {
	prefix := append(append([]byte{}, namespacePrefix...), name...)
	return store.NewPrefixStore(s.root, append(prefix, ':'))
}

// Dispatch implements refsys.Dispatcher. It must only be called while
// processing a message, through the dispatcher found in the context.
func (s *Substrate) Dispatch(ctx refsys.Context, from, to refsys.Address, msg refsys.Msg) (*refsys.Result, error) {
	kind, err := s.InstanceKind(to)
	if err != nil {
		return nil, err
	}
	return s.deliver(ctx, from, to, kind, msg, false, true)
}

// Spawn implements refsys.Dispatcher. It must only be called while
// processing a message, through the dispatcher found in the context.
func (s *Substrate) Spawn(ctx refsys.Context, from, to refsys.Address, kind string, msg refsys.Msg) (*refsys.Result, error) {
	if err := to.Validate(); err != nil {
		return nil, errors.Wrap(err, "instance address")
	}
	if !s.router.HasKind(kind) {
		return nil, errors.Wrapf(errors.ErrInvalidType, "unknown kind %q", kind)
	}
	switch _, err := s.InstanceKind(to); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "instance %s", to)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return s.deliver(ctx, from, to, kind, msg, true, true)
}

// InstanceKind implements refsys.Dispatcher.
func (s *Substrate) InstanceKind(addr refsys.Address) (string, error) {
	raw, err := s.root.Get(directoryKey(addr))
	if err != nil {
		return "", errors.Wrap(err, "directory")
	}
	if raw == nil {
		return "", errors.Wrapf(errors.ErrNotFound, "no instance at %s", addr)
	}
	return string(raw), nil
}

func (s *Substrate) deliver(
	ctx refsys.Context,
	from, to refsys.Address,
	kind string,
	msg refsys.Msg,
	spawn, commit bool,
) (res *refsys.Result, err error) {
	defer errors.Recover(&err)

	if s.active[to.String()] {
		return nil, errors.Wrapf(errors.ErrInvalidState, "re-entrant call to %s", to)
	}
	s.active[to.String()] = true
	defer delete(s.active, to.String())

	ctx = refsys.WithSender(ctx, from)
	ctx = refsys.WithSelf(ctx, to)
	ctx = refsys.WithLogInfo(ctx, "kind", kind, "path", msg.Path(), "instance", to.String())
	logger := refsys.GetLogger(ctx)

	if err := msg.Validate(); err != nil {
		logger.Debug("invalid message", "err", err)
		return nil, err
	}

	cache := s.root.CacheWrap()
	db := store.NewPrefixStore(cache, instanceKey(to))
	res, err = s.router.Handler(kind, msg.Path()).Deliver(ctx, db, msg)
	if err != nil {
		cache.Discard()
		logger.Debug("delivery failed", "err", err)
		return nil, err
	}
	if !commit {
		cache.Discard()
		return res, nil
	}
	if spawn {
		if err := cache.Set(directoryKey(to), []byte(kind)); err != nil {
			cache.Discard()
			return nil, errors.Wrap(err, "directory")
		}
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	logger.Debug("delivered", "sender", from.String())
	return res, nil
}

// redact hides panic details from external callers.
func (s *Substrate) redact(err error) error {
	if errors.ErrPanic.Is(err) {
		s.logger.Error("handler panic", "err", err)
	}
	return errors.Redact(err)
}

func (s *Substrate) baseContext(ctx refsys.Context) refsys.Context {
	ctx = refsys.WithDispatcher(ctx, s)
	if refsys.GetLogger(ctx) == refsys.DefaultLogger {
		ctx = refsys.WithLogger(ctx, s.logger)
	}
	return ctx
}

func directoryKey(addr refsys.Address) []byte {
	return append(append([]byte{}, directoryPrefix...), addr...)
}

func instanceKey(addr refsys.Address) []byte {
	key := append(append([]byte{}, instancePrefix...), addr...)
	return append(key, ':')
}
