/*
Package factory implements the registry factory.

A factory lives at an address derived from its owner and deploys new
registries on request of any account. Factories are usually created from
the genesis file.
*/
package factory
