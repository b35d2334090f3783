/*
Package protocol wires all referral components into a single substrate and
exposes a typed API for external callers.

	p := protocol.New(store.MemStore(), logger)
	if err := p.InitGenesis(ctx, gen.AppState); err != nil {
		...
	}
	registry, err := p.DeployRegistry(ctx, caller, factory, owner, 300, 1000)

Every method is a single external call. Calls are serialized by the
substrate.
*/
package protocol
