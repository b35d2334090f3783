/*
Package refnode implements the referral node. A node remembers who referred
a subject last, within a single registry.

There is exactly one node per (registry, subject) pair. Its address is a
pure function of that pair, so finding a node never requires a lookup
table. A node is created lazily, by the first referral of its subject.

Only projects approved by the registry can update a node. Only the
registry can upgrade it.
*/
package refnode
