package feesplit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/reftest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculate(t *testing.T) {
	Convey("Given a referral with a 70/10/5/10 split", t, func() {
		referrer := reftest.NewAddress()
		upstream := reftest.NewAddress()
		params := Params{ReferrerBps: 7000, UpstreamBps: 1000, CashbackBps: 500, RegistryBps: 1000}

		Convey("Every party gets its share when the upstream is known", func() {
			s, err := Calculate(10000, referrer, upstream, params)
			So(err, ShouldBeNil)
			So(s.ReferrerAmount, ShouldEqual, 7000)
			So(s.UpstreamAmount, ShouldEqual, 1000)
			So(s.CashbackAmount, ShouldEqual, 500)
			So(s.RegistryAmount, ShouldEqual, 1000)
			So(s.ProjectAmount, ShouldEqual, 500)
			So(s.Upstream, ShouldResemble, upstream)
			So(s.Total(), ShouldEqual, 10000)
		})

		Convey("The upstream share goes to the referrer when there is no upstream", func() {
			s, err := Calculate(10000, referrer, nil, params)
			So(err, ShouldBeNil)
			So(s.ReferrerAmount, ShouldEqual, 8000)
			So(s.UpstreamAmount, ShouldEqual, 0)
			So(s.Upstream, ShouldBeNil)
			So(s.Total(), ShouldEqual, 10000)
		})

		Convey("Rounding leftovers stay with the project", func() {
			s, err := Calculate(7, referrer, upstream, params)
			So(err, ShouldBeNil)
			So(s.ReferrerAmount, ShouldEqual, 4)
			So(s.UpstreamAmount, ShouldEqual, 0)
			So(s.CashbackAmount, ShouldEqual, 0)
			So(s.RegistryAmount, ShouldEqual, 0)
			So(s.ProjectAmount, ShouldEqual, 3)
		})

		Convey("A zero reward is rejected", func() {
			_, err := Calculate(0, referrer, upstream, params)
			So(errors.ErrZeroReward.Is(err), ShouldBeTrue)
		})

		Convey("Shares above the whole reward are rejected", func() {
			params.RegistryBps = 1501
			_, err := Calculate(100, referrer, upstream, params)
			So(errors.ErrInvalidParams.Is(err), ShouldBeTrue)
		})

		Convey("Shares summing above uint32 range are rejected", func() {
			params.ReferrerBps = math.MaxUint32
			params.UpstreamBps = 1
			_, err := Calculate(100, referrer, upstream, params)
			So(errors.ErrInvalidParams.Is(err), ShouldBeTrue)
		})

		Convey("A malformed referrer is rejected", func() {
			_, err := Calculate(100, refsys.Address("bad"), upstream, params)
			So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
		})
	})

	Convey("Given the largest possible reward", t, func() {
		s, err := Calculate(math.MaxUint64, reftest.NewAddress(), nil, Params{ReferrerBps: MaxBps})
		So(err, ShouldBeNil)
		So(s.ReferrerAmount, ShouldEqual, uint64(math.MaxUint64))
		So(s.ProjectAmount, ShouldEqual, 0)
	})
}

func TestCalculateConservesValue(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	referrer := reftest.NewAddress()
	upstream := reftest.NewAddress()

	for i := 0; i < 5000; i++ {
		p := Params{
			ReferrerBps: uint32(r.Intn(MaxBps + 1)),
		}
		p.UpstreamBps = uint32(r.Intn(int(MaxBps - p.ReferrerBps + 1)))
		p.CashbackBps = uint32(r.Intn(int(MaxBps - p.ReferrerBps - p.UpstreamBps + 1)))
		p.RegistryBps = uint32(r.Intn(int(MaxBps - p.ReferrerBps - p.UpstreamBps - p.CashbackBps + 1)))
		reward := r.Uint64()%math.MaxUint64 + 1

		var up refsys.Address
		if i%2 == 0 {
			up = upstream
		}
		s, err := Calculate(reward, referrer, up, p)
		if err != nil {
			t.Fatalf("%d: unexpected error for %+v: %s", i, p, err)
		}
		if s.Total() != reward {
			t.Fatalf("%d: parts sum to %d, want %d (%+v)", i, s.Total(), reward, s)
		}
	}
}

func TestShare(t *testing.T) {
	cases := map[string]struct {
		Amount uint64
		Bps    uint32
		Want   uint64
	}{
		"zero bps":     {Amount: 1000, Bps: 0, Want: 0},
		"whole":        {Amount: 1000, Bps: MaxBps, Want: 1000},
		"rounded down": {Amount: 19999, Bps: 1, Want: 1},
		"no overflow":  {Amount: math.MaxUint64, Bps: 5000, Want: math.MaxUint64 / 2},
		"tiny amount":  {Amount: 1, Bps: 9999, Want: 0},
		"six percent":  {Amount: 250, Bps: 600, Want: 15},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := Share(tc.Amount, tc.Bps); got != tc.Want {
				t.Fatalf("want %d, got %d", tc.Want, got)
			}
		})
	}
}
