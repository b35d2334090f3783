package refnode

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/orm"
	amino "github.com/tendermint/go-amino"
)

func init() {
	migration.MustRegister(1, &Node{}, migration.NoModification)
}

// Kind is the component kind of referral nodes.
const Kind = "refnode"

// stateKey is the key the node state is stored under, within the node
// keyspace.
var stateKey = []byte("state")

// Node is the state of a referral node.
type Node struct {
	Metadata *refsys.Metadata `json:"metadata"`
	Registry refsys.Address   `json:"registry"`
	Subject  refsys.Address   `json:"subject"`
	// LastReferrer is empty until the first referral is recorded.
	LastReferrer refsys.Address `json:"last_referrer"`
}

var _ migration.UpgradeableModel = (*Node)(nil)

func (n *Node) GetMetadata() *refsys.Metadata {
	return n.Metadata
}

// Upgrader returns the registry that owns this node.
func (n *Node) Upgrader() refsys.Address {
	return n.Registry
}

func (n *Node) Validate() error {
	if err := n.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := n.Registry.Validate(); err != nil {
		return errors.Wrap(err, "registry")
	}
	if err := n.Subject.Validate(); err != nil {
		return errors.Wrap(err, "subject")
	}
	if !n.LastReferrer.IsEmpty() {
		if err := n.LastReferrer.Validate(); err != nil {
			return errors.Wrap(err, "last referrer")
		}
		if n.LastReferrer.Equals(n.Subject) {
			return errors.Wrap(errors.ErrSelfReferral, "subject cannot be its own referrer")
		}
	}
	return nil
}

func (n *Node) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(n)
}

func (n *Node) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, n)
}

// NewNodeBucket returns a bucket holding the node state.
func NewNodeBucket() *migration.ModelBucket {
	return migration.NewModelBucket(orm.NewModelBucket("node", &Node{}))
}

// NodeAddress returns the address of the node of given subject within given
// registry. Both addresses are of a fixed length, so distinct pairs never
// share a node.
func NodeAddress(registry, subject refsys.Address) refsys.Address {
	data := make([]byte, 0, len(registry)+len(subject))
	data = append(data, registry...)
	data = append(data, subject...)
	return refsys.NewCondition("refnode", "node", data).Address()
}
