package award

import (
	"math"
	"time"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
	settingentity "github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

// NextMultiplier evaluates the hourly rate controller once.
//
// At or above the hourly cap the multiplier halves for every bracket of
// overrun: HALVE_BASE / 2^(floor((ratio-1)/step)+1). Below the cap nothing
// changes during the first half of the hour; from the halfway mark on, the
// multiplier is DOUBLE_MULTIPLIER while less than half the cap has been
// awarded and HALVE_BASE otherwise.
func NextMultiplier(p settingentity.Params, pool poolentity.Pool, fractionOfHour float64) float64 {
	ratio := pool.HourAwardingSoFar / p.HourlyCap
	if ratio >= 1.0 {
		bracket := floorDiv(ratio-1.0, p.OverrunBracketStep) + 1
		m := p.HalveBase / math.Pow(2, bracket)
		if m <= 0 {
			// the multiplier must stay positive however deep the overrun
			m = math.SmallestNonzeroFloat64
		}
		return m
	}
	if fractionOfHour >= 0.5 {
		if pool.HourAwardingSoFar < 0.5*p.HourlyCap {
			return p.DoubleMultiplier
		}
		return p.HalveBase
	}
	return pool.CurrentMultiplier
}

// floorDiv is floored division computed from the remainder, so that values a
// hair above an exact multiple of b land in the upper bracket.
func floorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	if mod != 0 && (mod < 0) != (b < 0) {
		mod += b
	}
	return math.Round((a - mod) / b)
}

// FractionOfHour is how far t is into its clock hour, in [0, 1).
func FractionOfHour(t time.Time) float64 {
	return float64(t.Unix()%3600) / 3600.0
}

// HourIndex numbers the clock hour containing t.
func HourIndex(t time.Time) int64 {
	return t.Unix() / 3600
}

// Rollover starts a new counting window when now lies in a different clock
// hour than pool. It reports whether the pool changed. With HOUR_ROLLOVER off
// the pool is returned as is and the counter keeps accumulating.
func Rollover(p settingentity.Params, pool poolentity.Pool, now time.Time) (poolentity.Pool, bool) {
	if !p.HourRollover {
		return pool, false
	}
	h := HourIndex(now)
	if pool.HourIndex == h {
		return pool, false
	}
	return poolentity.Pool{HourIndex: h, HourAwardingSoFar: 0, CurrentMultiplier: p.HalveBase}, true
}

// ResetDaily zeroes the daily counters when the account was last reset on a
// different calendar day than today. It reports whether anything changed.
func ResetDaily(a *accountentity.Account, today string) bool {
	if a.LastDailyReset == today {
		return false
	}
	a.DailyEarned = 0
	a.DailyPRCount = 0
	a.LastDailyReset = today
	return true
}

// ApplyDailyCap credits at most what is left of the daily cap and returns the
// credited amount.
func ApplyDailyCap(a *accountentity.Account, dailyCap, amount float64) float64 {
	allowable := dailyCap - a.DailyEarned
	if allowable <= 0 || amount <= 0 {
		return 0
	}
	credited := math.Min(amount, allowable)
	a.Balance += credited
	a.DailyEarned += credited
	a.TotalEarnedEver += credited
	return credited
}
