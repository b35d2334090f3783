package refnode

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

// LastReferrer returns the last referrer of the subject within the registry.
// Nil is returned if the subject was never referred. It must be called while
// processing a message.
func LastReferrer(ctx refsys.Context, registry, subject refsys.Address) (refsys.Address, error) {
	node, err := Get(ctx, registry, subject)
	switch {
	case err == nil:
		return node.LastReferrer, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// Get returns the node of the subject within the registry. ErrNotFound is
// returned if the node does not exist yet.
func Get(ctx refsys.Context, registry, subject refsys.Address) (*Node, error) {
	addr := NodeAddress(registry, subject)
	if _, err := refsys.InstanceKind(ctx, addr); err != nil {
		return nil, err
	}
	res, err := refsys.Send(ctx, addr, &GetMsg{})
	if err != nil {
		return nil, errors.Wrap(err, "get node")
	}
	var node Node
	if err := node.Unmarshal(res.Data); err != nil {
		return nil, errors.Wrap(err, "unmarshal node")
	}
	return &node, nil
}

// Record sets the referrer as the last referrer of the subject within the
// registry. The node is created if it does not exist yet. It must be called
// while processing a message sent to a project approved by the registry.
func Record(ctx refsys.Context, registry, subject, referrer refsys.Address) error {
	addr := NodeAddress(registry, subject)
	msg := &RecordMsg{Registry: registry, Subject: subject, Referrer: referrer}

	_, err := refsys.InstanceKind(ctx, addr)
	switch {
	case err == nil:
		_, err = refsys.Send(ctx, addr, msg)
	case errors.ErrNotFound.Is(err):
		_, err = refsys.Spawn(ctx, addr, Kind, msg)
	}
	if err != nil {
		return errors.Wrap(err, "record referral")
	}
	return nil
}
