/*
Package migration provides tooling necessary for working with schema versioned
component state and for upgrading component instances to a new logic version.

Every stored model carries a metadata attribute. Its schema value is the
version of the logic that the instance is running.

Component integration.

1. register migration functions for each model in package `init`. Schema
version one must always be registered. Use `migration.NoModification` for
versions that require no change. For example:

	func init() {
	    migration.MustRegister(1, &MyModel{}, migration.NoModification)
	}

2. use `migration.ModelBucket` to access models, so that an entity stored by
a logic version unknown to the running code is never loaded.

3. implement `migration.Upgradeable` by returning the address that is allowed
to upgrade the instance. Register `migration.NewUpgradeHandler` under the
`migration.UpgradeMsg` path for the component kind.

An upgrade preserves every persisted attribute. Models implementing the
`Resetter` interface have their transient attributes cleared after the
version bump.
*/
package migration
