/*
Package feesplit computes how a referral reward is divided between the
parties of a referral event.

Shares are expressed in basis points (1/10000). Each share is computed as
floor(reward * bps / 10000) using integer arithmetic only. The project
keeps whatever is left, so the parts always sum up to the reward.
*/
package feesplit

import (
	"math/bits"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	amino "github.com/tendermint/go-amino"
)

// MaxBps is the basis points value representing the whole reward.
const MaxBps = 10000

// Params declares the shares of a reward, in basis points.
type Params struct {
	// ReferrerBps is paid to the immediate referrer.
	ReferrerBps uint32 `json:"referrer_bps"`
	// UpstreamBps is paid to whoever referred the subject before. It
	// goes to the immediate referrer if there was no one.
	UpstreamBps uint32 `json:"upstream_bps"`
	// CashbackBps is paid back to the referred subject.
	CashbackBps uint32 `json:"cashback_bps"`
	// RegistryBps is the cut of the registry operator.
	RegistryBps uint32 `json:"registry_bps"`
}

// Validate returns ErrInvalidParams if the shares sum up to more than the
// whole reward.
func (p Params) Validate() error {
	// Each value is converted before summing so that the sum cannot wrap.
	sum := uint64(p.ReferrerBps) + uint64(p.UpstreamBps) + uint64(p.CashbackBps) + uint64(p.RegistryBps)
	if sum > MaxBps {
		return errors.Wrapf(errors.ErrInvalidParams, "shares sum up to %d bps", sum)
	}
	return nil
}

// Split is the result of dividing a reward.
type Split struct {
	Reward uint64 `json:"reward"`

	Referrer       refsys.Address `json:"referrer"`
	ReferrerAmount uint64         `json:"referrer_amount"`
	// Upstream is empty when the subject had no previous referrer.
	Upstream       refsys.Address `json:"upstream"`
	UpstreamAmount uint64         `json:"upstream_amount"`
	CashbackAmount uint64         `json:"cashback_amount"`
	RegistryAmount uint64         `json:"registry_amount"`
	ProjectAmount  uint64         `json:"project_amount"`
}

// Total returns the sum of all parts. It is always equal to the reward.
func (s *Split) Total() uint64 {
	return s.ReferrerAmount + s.UpstreamAmount + s.CashbackAmount + s.RegistryAmount + s.ProjectAmount
}

func (s *Split) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(s)
}

func (s *Split) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, s)
}

// Calculate divides the reward. Shares are taken in order: referrer,
// upstream, cashback and registry. The project keeps the remainder.
//
// An empty upstream address means that there is no upstream referrer. Its
// share is then paid to the referrer.
func Calculate(reward uint64, referrer, upstream refsys.Address, p Params) (*Split, error) {
	if reward == 0 {
		return nil, errors.Wrap(errors.ErrZeroReward, "reward must be positive")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := referrer.Validate(); err != nil {
		return nil, errors.Wrap(err, "referrer")
	}
	if !upstream.IsEmpty() {
		if err := upstream.Validate(); err != nil {
			return nil, errors.Wrap(err, "upstream")
		}
	}

	s := &Split{
		Reward:         reward,
		Referrer:       referrer,
		ReferrerAmount: Share(reward, p.ReferrerBps),
		UpstreamAmount: Share(reward, p.UpstreamBps),
		CashbackAmount: Share(reward, p.CashbackBps),
		RegistryAmount: Share(reward, p.RegistryBps),
	}
	if upstream.IsEmpty() {
		s.ReferrerAmount += s.UpstreamAmount
		s.UpstreamAmount = 0
	} else {
		s.Upstream = upstream
	}
	// Shares sum to at most the reward because bps sum to at most
	// MaxBps and each share is rounded down.
	s.ProjectAmount = reward - s.ReferrerAmount - s.UpstreamAmount - s.CashbackAmount - s.RegistryAmount
	return s, nil
}

// Share returns floor(amount * bps / 10000). The product is computed on 128
// bits so it never overflows. bps must not be greater than MaxBps.
func Share(amount uint64, bps uint32) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bps))
	q, _ := bits.Div64(hi, lo, MaxBps)
	return q
}
