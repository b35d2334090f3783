/*
Package cash defines a simple balances ledger of a single token.

There is no logic in the token, except that the balance of any account may
not go below zero. Thus, this implementation is referred to as cash. Simple
and safe.

Components consume the ledger through the Controller. Pay moves funds from a
single source to many destinations atomically: either all payouts are
applied, or none.
*/
package cash
