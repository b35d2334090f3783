package refsys

import (
	"encoding/json"

	"github.com/iov-one/refsys/errors"
)

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
//
// As with Marshaller, this may do internal validation on the data
// and errors should be expected.
type Persistent interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Msg is a message delivered to a component instance. Messages carry
// values only, never references to another instance state.
type Msg interface {
	// Path returns a path that identifies the message within the
	// component kind that handles it.
	Path() string

	// Validate performs a sanity check of the message content. It is
	// called before the message reaches the handler, so handlers can
	// reject malformed input before touching any state.
	Validate() error
}

// Result is returned by a handler after successfully processing a message.
type Result struct {
	// Data is the response payload. Its encoding is defined by the
	// handler that produced it.
	Data []byte
	// Log is a human readable information about the processing.
	Log string
}

// Handler processes messages delivered to a component instance. The
// store given to the handler is the keyspace of the receiving instance
// only. All changes are discarded if an error is returned.
type Handler interface {
	Deliver(ctx Context, db KVStore, msg Msg) (*Result, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	// Handle registers a handler for messages with given path, delivered
	// to instances of given kind.
	Handle(kind, path string, h Handler)
}

// Dispatcher delivers messages between component instances. It is
// implemented by the execution substrate and available to handlers through
// the context.
type Dispatcher interface {
	// Dispatch delivers a message to an existing instance. ErrNotFound is
	// returned if no instance lives at the destination address.
	Dispatch(ctx Context, from, to Address, msg Msg) (*Result, error)

	// Spawn creates a new instance of given kind at the destination
	// address by delivering it the initial message. The instance exists
	// only if the initial message was handled successfully.
	Spawn(ctx Context, from, to Address, kind string, msg Msg) (*Result, error)

	// InstanceKind returns the kind of the instance living at given
	// address or ErrNotFound.
	InstanceKind(addr Address) (string, error)
}

// Send delivers msg to the instance at given address. The instance
// processing the current message is used as the sender.
func Send(ctx Context, to Address, msg Msg) (*Result, error) {
	d, self, err := dispatchFrom(ctx)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, self, to, msg)
}

// Spawn creates a new instance of given kind, sending the initial message
// from the instance processing the current message.
func Spawn(ctx Context, to Address, kind string, msg Msg) (*Result, error) {
	d, self, err := dispatchFrom(ctx)
	if err != nil {
		return nil, err
	}
	return d.Spawn(ctx, self, to, kind, msg)
}

// InstanceKind returns the kind of the instance living at given address.
func InstanceKind(ctx Context, addr Address) (string, error) {
	d, ok := GetDispatcher(ctx)
	if !ok {
		return "", errors.Wrap(errors.ErrHuman, "no dispatcher in context")
	}
	return d.InstanceKind(addr)
}

func dispatchFrom(ctx Context) (Dispatcher, Address, error) {
	d, ok := GetDispatcher(ctx)
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrHuman, "no dispatcher in context")
	}
	self, ok := GetSelf(ctx)
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrHuman, "message sent outside of an instance")
	}
	return d, self, nil
}

// Options are the genesis options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "cannot parse %q options: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents. The store passed is the keyspace
// owned by the extension.
type Initializer interface {
	FromGenesis(ctx Context, opts Options, db KVStore) error
}
