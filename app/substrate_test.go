package app

import (
	"context"
	"sync"
	"testing"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/reftest"
	"github.com/iov-one/refsys/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstrateSpawnAndExecute(t *testing.T) {
	r := NewRouter()
	init := &reftest.Handler{Key: []byte("init"), Value: []byte("yes")}
	set := &reftest.Handler{Key: []byte("value"), Value: []byte("1")}
	fail := &reftest.Handler{Key: []byte("value"), Value: []byte("2"), DeliverErr: errors.ErrHuman}
	r.Handle("thing", "init", init)
	r.Handle("thing", "set", set)
	r.Handle("thing", "fail", fail)

	root := store.MemStore()
	s := NewSubstrate(root, r)
	ctx := context.Background()
	caller := reftest.NewAddress()
	addr := reftest.NewAddress()

	_, err := s.Execute(ctx, caller, addr, &reftest.Msg{RoutePath: "set"})
	require.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	_, err = s.Deploy(ctx, caller, addr, "unknown", &reftest.Msg{RoutePath: "init"})
	require.True(t, errors.ErrInvalidType.Is(err), "%+v", err)

	_, err = s.Deploy(ctx, caller, addr, "thing", &reftest.Msg{RoutePath: "init"})
	require.NoError(t, err)
	kind, err := s.InstanceKind(addr)
	require.NoError(t, err)
	assert.Equal(t, "thing", kind)

	_, err = s.Deploy(ctx, caller, addr, "thing", &reftest.Msg{RoutePath: "init"})
	require.True(t, errors.ErrDuplicate.Is(err), "%+v", err)

	_, err = s.Execute(ctx, caller, addr, &reftest.Msg{RoutePath: "set"})
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), get(t, root, instanceKey(addr), "value"))

	// A failed delivery leaves no trace.
	_, err = s.Execute(ctx, caller, addr, &reftest.Msg{RoutePath: "fail"})
	require.True(t, errors.ErrHuman.Is(err), "%+v", err)
	assert.Equal(t, []byte("1"), get(t, root, instanceKey(addr), "value"))

	// Invalid messages never reach the handler.
	_, err = s.Execute(ctx, caller, addr, &reftest.Msg{RoutePath: "set", Err: errors.ErrInvalidMsg})
	require.True(t, errors.ErrInvalidMsg.Is(err), "%+v", err)
	assert.Equal(t, 1, set.CallCount())
}

func TestSubstrateFailedSpawn(t *testing.T) {
	r := NewRouter()
	r.Handle("thing", "init", &reftest.Handler{Key: []byte("a"), Value: []byte("b"), DeliverErr: errors.ErrInvalidParams})

	s := NewSubstrate(store.MemStore(), r)
	addr := reftest.NewAddress()
	_, err := s.Deploy(context.Background(), reftest.NewAddress(), addr, "thing", &reftest.Msg{RoutePath: "init"})
	require.True(t, errors.ErrInvalidParams.Is(err), "%+v", err)

	_, err = s.InstanceKind(addr)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestSubstrateNestedDelivery(t *testing.T) {
	r := NewRouter()
	root := store.MemStore()
	s := NewSubstrate(root, r)

	parent := reftest.NewAddress()
	child := reftest.NewAddress()
	caller := reftest.NewAddress()

	var childSender, childSelf refsys.Address
	r.Handle("child", "init", &reftest.Handler{})
	r.Handle("child", "poke", reftest.HandlerFunc(func(ctx refsys.Context, db refsys.KVStore, msg refsys.Msg) (*refsys.Result, error) {
		childSender, _ = refsys.GetSender(ctx)
		childSelf, _ = refsys.GetSelf(ctx)
		return &refsys.Result{}, db.Set([]byte("poked"), []byte("yes"))
	}))
	r.Handle("parent", "init", &reftest.Handler{})
	r.Handle("parent", "poke", reftest.HandlerFunc(func(ctx refsys.Context, db refsys.KVStore, msg refsys.Msg) (*refsys.Result, error) {
		if err := db.Set([]byte("parent"), []byte("yes")); err != nil {
			return nil, err
		}
		if _, err := refsys.Send(ctx, child, &reftest.Msg{RoutePath: "poke"}); err != nil {
			return nil, err
		}
		// Parent fails after the nested delivery succeeded.
		return nil, errors.ErrHuman
	}))
	r.Handle("parent", "loop", reftest.HandlerFunc(func(ctx refsys.Context, db refsys.KVStore, msg refsys.Msg) (*refsys.Result, error) {
		return refsys.Send(ctx, parent, &reftest.Msg{RoutePath: "loop"})
	}))

	ctx := context.Background()
	_, err := s.Deploy(ctx, caller, parent, "parent", &reftest.Msg{RoutePath: "init"})
	require.NoError(t, err)
	_, err = s.Deploy(ctx, caller, child, "child", &reftest.Msg{RoutePath: "init"})
	require.NoError(t, err)

	_, err = s.Execute(ctx, caller, parent, &reftest.Msg{RoutePath: "poke"})
	require.True(t, errors.ErrHuman.Is(err), "%+v", err)

	assert.Equal(t, parent, childSender)
	assert.Equal(t, child, childSelf)
	assert.Equal(t, []byte("yes"), get(t, root, instanceKey(child), "poked"))
	assert.Nil(t, get(t, root, instanceKey(parent), "parent"))

	_, err = s.Execute(ctx, caller, parent, &reftest.Msg{RoutePath: "loop"})
	require.True(t, errors.ErrInvalidState.Is(err), "%+v", err)
}

func TestSubstrateQueryDiscardsChanges(t *testing.T) {
	r := NewRouter()
	r.Handle("thing", "init", &reftest.Handler{})
	r.Handle("thing", "peek", &reftest.Handler{Key: []byte("k"), Value: []byte("v")})

	root := store.MemStore()
	s := NewSubstrate(root, r)
	addr := reftest.NewAddress()
	ctx := context.Background()
	_, err := s.Deploy(ctx, reftest.NewAddress(), addr, "thing", &reftest.Msg{RoutePath: "init"})
	require.NoError(t, err)

	_, err = s.Query(ctx, reftest.NewAddress(), addr, &reftest.Msg{RoutePath: "peek"})
	require.NoError(t, err)
	assert.Nil(t, get(t, root, instanceKey(addr), "k"))
}

func TestSubstrateQueryRejectsWrites(t *testing.T) {
	r := NewRouter()
	root := store.MemStore()
	s := NewSubstrate(root, r)
	shared := s.Namespace("shared")

	addr := reftest.NewAddress()
	other := reftest.NewAddress()
	r.Handle("thing", "init", &reftest.Handler{})
	r.Handle("thing", "credit", reftest.HandlerFunc(func(refsys.Context, refsys.KVStore, refsys.Msg) (*refsys.Result, error) {
		cache := shared.CacheWrap()
		if err := cache.Set([]byte("credit"), []byte("1")); err != nil {
			return nil, err
		}
		return &refsys.Result{}, cache.Write()
	}))
	r.Handle("thing", "mark", reftest.HandlerFunc(func(refsys.Context, refsys.KVStore, refsys.Msg) (*refsys.Result, error) {
		return &refsys.Result{}, shared.Set([]byte("mark"), []byte("1"))
	}))
	r.Handle("thing", "forward", reftest.HandlerFunc(func(ctx refsys.Context, _ refsys.KVStore, _ refsys.Msg) (*refsys.Result, error) {
		return refsys.Send(ctx, other, &reftest.Msg{RoutePath: "set"})
	}))
	r.Handle("thing", "set", &reftest.Handler{Key: []byte("k"), Value: []byte("v")})

	ctx := context.Background()
	caller := reftest.NewAddress()
	for _, a := range []refsys.Address{addr, other} {
		_, err := s.Deploy(ctx, caller, a, "thing", &reftest.Msg{RoutePath: "init"})
		require.NoError(t, err)
	}

	for _, path := range []string{"credit", "mark", "forward"} {
		_, err := s.Query(ctx, caller, addr, &reftest.Msg{RoutePath: path})
		require.True(t, errors.ErrInvalidState.Is(err), "%s: %+v", path, err)
	}
	assert.Nil(t, get(t, root, []byte("_ns:shared:"), "credit"))
	assert.Nil(t, get(t, root, []byte("_ns:shared:"), "mark"))
	assert.Nil(t, get(t, root, instanceKey(other), "k"))

	// The same messages change the state when executed.
	for _, path := range []string{"credit", "mark", "forward"} {
		_, err := s.Execute(ctx, caller, addr, &reftest.Msg{RoutePath: path})
		require.NoError(t, err, path)
	}
	assert.Equal(t, []byte("1"), get(t, root, []byte("_ns:shared:"), "credit"))
	assert.Equal(t, []byte("1"), get(t, root, []byte("_ns:shared:"), "mark"))
	assert.Equal(t, []byte("v"), get(t, root, instanceKey(other), "k"))
}

func TestSubstrateRecoversPanic(t *testing.T) {
	r := NewRouter()
	r.Handle("thing", "init", reftest.HandlerFunc(func(refsys.Context, refsys.KVStore, refsys.Msg) (*refsys.Result, error) {
		panic("secret")
	}))
	s := NewSubstrate(store.MemStore(), r)
	addr := reftest.NewAddress()
	_, err := s.Deploy(context.Background(), reftest.NewAddress(), addr, "thing", &reftest.Msg{RoutePath: "init"})
	require.True(t, errors.ErrPanic.Is(err), "%+v", err)
	assert.Equal(t, errors.ErrPanic, err)
	assert.NotContains(t, err.Error(), "secret")

	_, err = s.InstanceKind(addr)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestSubstrateExclusive(t *testing.T) {
	r := NewRouter()
	s := NewSubstrate(store.MemStore(), r)
	counter := s.Namespace("counter")
	addr := reftest.NewAddress()

	r.Handle("thing", "init", &reftest.Handler{})
	r.Handle("thing", "incr", reftest.HandlerFunc(func(refsys.Context, refsys.KVStore, refsys.Msg) (*refsys.Result, error) {
		raw, err := counter.Get([]byte("n"))
		if err != nil {
			return nil, err
		}
		return &refsys.Result{}, counter.Set([]byte("n"), append(raw, 'x'))
	}))
	ctx := context.Background()
	_, err := s.Deploy(ctx, reftest.NewAddress(), addr, "thing", &reftest.Msg{RoutePath: "init"})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if _, err := s.Execute(ctx, addr, addr, &reftest.Msg{RoutePath: "incr"}); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		prev := 0
		for i := 0; i < n; i++ {
			err := s.Exclusive(func() error {
				raw, err := counter.Get([]byte("n"))
				if err != nil {
					return err
				}
				if len(raw) < prev {
					t.Errorf("counter went back from %d to %d", prev, len(raw))
				}
				prev = len(raw)
				return nil
			})
			if err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()

	var total int
	require.NoError(t, s.Exclusive(func() error {
		raw, err := counter.Get([]byte("n"))
		total = len(raw)
		return err
	}))
	assert.Equal(t, n, total)
}

func TestSubstrateNamespace(t *testing.T) {
	root := store.MemStore()
	s := NewSubstrate(root, NewRouter())
	require.NoError(t, s.Namespace("cash").Set([]byte("k"), []byte("v")))
	v, err := s.Namespace("cash").Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	v, err = s.Namespace("other").Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func get(t testing.TB, root refsys.KVStore, prefix []byte, key string) []byte {
	t.Helper()
	v, err := store.NewPrefixStore(root, prefix).Get([]byte(key))
	require.NoError(t, err)
	return v
}
