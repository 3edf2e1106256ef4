package award

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accountentity "github.com/ovaphlow/pitchfork/service-award-go/internal/account/entity"
	poolentity "github.com/ovaphlow/pitchfork/service-award-go/internal/pool/entity"
	settingentity "github.com/ovaphlow/pitchfork/service-award-go/internal/setting/entity"
)

func capParams(hourlyCap float64) settingentity.Params {
	p := settingentity.DefaultParams()
	p.HourlyCap = hourlyCap
	return p
}

func TestNextMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		soFar    float64
		current  float64
		fraction float64
		want     float64
	}{
		{"first half unchanged", 100, 0.7, 0.2, 0.7},
		{"second half doubles when slow", 100, 1.0, 0.6, 2.0},
		{"second half at half cap resets", 500, 2.0, 0.6, 1.0},
		{"exactly at cap halves", 1000, 1.0, 0.1, 0.5},
		{"five percent over quarters", 1050, 1.0, 0.1, 0.25},
		{"just under next bracket", 1049, 1.0, 0.9, 0.5},
		{"double cap", 2000, 1.0, 0.1, 1.0 / math.Pow(2, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := poolentity.Pool{HourAwardingSoFar: tt.soFar, CurrentMultiplier: tt.current}
			got := NextMultiplier(capParams(1000), pool, tt.fraction)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestNextMultiplierStaysPositive(t *testing.T) {
	pool := poolentity.Pool{HourAwardingSoFar: 1e300, CurrentMultiplier: 1}
	assert.Greater(t, NextMultiplier(capParams(1), pool, 0), 0.0)
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 1.0, floorDiv(1.05-1.0, 0.05))
	assert.Equal(t, 0.0, floorDiv(0.049, 0.05))
	// 0.05 is stored slightly above its decimal value
	assert.Equal(t, 19.0, floorDiv(1.0, 0.05))
	assert.Equal(t, -1.0, floorDiv(-0.01, 0.05))
}

func TestFractionOfHourAndIndex(t *testing.T) {
	ts := time.Date(2024, 3, 10, 10, 36, 0, 0, time.UTC)
	assert.InDelta(t, 0.6, FractionOfHour(ts), 1e-12)
	assert.Equal(t, ts.Unix()/3600, HourIndex(ts))
	assert.Equal(t, HourIndex(ts)+1, HourIndex(ts.Add(30*time.Minute)))
}

func TestRollover(t *testing.T) {
	now := time.Date(2024, 3, 10, 10, 5, 0, 0, time.UTC)
	p := settingentity.DefaultParams()
	p.HalveBase = 0.8

	stale := poolentity.Pool{HourIndex: HourIndex(now) - 1, HourAwardingSoFar: 5000, CurrentMultiplier: 0.1}
	got, rolled := Rollover(p, stale, now)
	assert.True(t, rolled)
	assert.Equal(t, poolentity.Pool{HourIndex: HourIndex(now), CurrentMultiplier: 0.8}, got)

	got, rolled = Rollover(p, got, now.Add(10*time.Minute))
	assert.False(t, rolled)
	assert.Equal(t, HourIndex(now), got.HourIndex)

	p.HourRollover = false
	got, rolled = Rollover(p, stale, now)
	assert.False(t, rolled)
	assert.Equal(t, stale, got)
}

func TestResetDaily(t *testing.T) {
	a := accountentity.Account{UserID: "u", Balance: 7, DailyEarned: 500, DailyPRCount: 3, LastDailyReset: "2024-03-09"}
	assert.True(t, ResetDaily(&a, "2024-03-10"))
	assert.Equal(t, 0.0, a.DailyEarned)
	assert.Equal(t, 0, a.DailyPRCount)
	assert.Equal(t, 7.0, a.Balance)
	assert.Equal(t, "2024-03-10", a.LastDailyReset)
	assert.False(t, ResetDaily(&a, "2024-03-10"))
}

func TestApplyDailyCap(t *testing.T) {
	a := accountentity.Account{Balance: 100, DailyEarned: 10235, TotalEarnedEver: 20000}
	assert.Equal(t, 5.0, ApplyDailyCap(&a, 10240, 20))
	assert.Equal(t, 105.0, a.Balance)
	assert.Equal(t, 10240.0, a.DailyEarned)
	assert.Equal(t, 20005.0, a.TotalEarnedEver)

	assert.Equal(t, 0.0, ApplyDailyCap(&a, 10240, 20))
	assert.Equal(t, 105.0, a.Balance)
}
