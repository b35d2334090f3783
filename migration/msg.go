package migration

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

// PathUpgradeMsg is the path every upgradeable component kind must handle.
const PathUpgradeMsg = "upgrade"

// UpgradeMsg requests the receiving instance to move to a new logic version.
type UpgradeMsg struct {
	ToVersion uint32 `json:"to_version"`
}

var _ refsys.Msg = (*UpgradeMsg)(nil)

func (UpgradeMsg) Path() string {
	return PathUpgradeMsg
}

func (msg *UpgradeMsg) Validate() error {
	if msg.ToVersion == 0 {
		return errors.Wrap(errors.ErrEmpty, "to version is required")
	}
	return nil
}
