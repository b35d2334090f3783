/*
Package reftest provides helpers for testing components and the execution
substrate without setting up a complete protocol instance.
*/
package reftest

import (
	"encoding/binary"
	"sync/atomic"
	"testing"

	"github.com/iov-one/refsys"
)

var condSeq uint64

// NewCondition returns a condition that was never returned before by this
// function. It can be used to represent a unique external account.
func NewCondition() refsys.Condition {
	n := atomic.AddUint64(&condSeq, 1)
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, n)
	return refsys.NewCondition("reftest", "account", raw)
}

// NewAddress returns a unique address of an external account.
func NewAddress() refsys.Address {
	return NewCondition().Address()
}

// ParseAddress takes an address in a human readable format and returns
// its binary representation. This function is a test helper that is using
// refsys.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) refsys.Address {
	t.Helper()

	addr, err := refsys.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
