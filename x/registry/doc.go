/*
Package registry implements the referral registry.

A registry is created by a factory and owned by a single account. It
deploys projects, approves them and takes a cut of every referral reward
they settle. The registry is also the authority that upgrades its projects
and referral nodes. Its own upgrades are authorized by the owner.
*/
package registry
