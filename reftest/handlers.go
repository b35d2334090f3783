package reftest

import "github.com/iov-one/refsys"

// Handler is a refsys.Handler that counts its calls and returns configured
// result. When Key is set, every delivery writes Key/Value to the store
// before returning.
type Handler struct {
	deliverCall int

	Key   []byte
	Value []byte

	DeliverResult refsys.Result
	DeliverErr    error
}

var _ refsys.Handler = (*Handler)(nil)

func (h *Handler) Deliver(ctx refsys.Context, db refsys.KVStore, msg refsys.Msg) (*refsys.Result, error) {
	h.deliverCall++
	if len(h.Key) != 0 {
		if err := db.Set(h.Key, h.Value); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CallCount() int {
	return h.deliverCall
}

// HandlerFunc adapts a function to the refsys.Handler interface.
type HandlerFunc func(ctx refsys.Context, db refsys.KVStore, msg refsys.Msg) (*refsys.Result, error)

var _ refsys.Handler = HandlerFunc(nil)

func (fn HandlerFunc) Deliver(ctx refsys.Context, db refsys.KVStore, msg refsys.Msg) (*refsys.Result, error) {
	return fn(ctx, db, msg)
}

// Msg represents a message delivered to an instance.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by the validate method.
	Err error
}

var _ refsys.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}
