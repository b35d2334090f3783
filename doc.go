/*

Package refsys defines interfaces used throughout the referral protocol, such
as: storage, messages, handlers and the dispatcher used by component instances
to talk to each other.
It also contains helpers to work with identities (addresses and conditions),
schema metadata and the context values every handler can rely on.

Component implementations live in the x/ subpackages. The app package provides
the execution substrate that routes messages to component instances and keeps
their state isolated from each other.

*/

package refsys
