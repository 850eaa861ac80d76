package radar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceOf(t *testing.T) {
	assert.Equal(t, 20.0, PriceOf(GradeS))
	assert.Equal(t, 10.0, PriceOf(GradeA))
	assert.Equal(t, 3.0, PriceOf(GradeB))
	assert.Equal(t, 1.0, PriceOf(GradeC))
	assert.Equal(t, 0.5, PriceOf(GradeF))

	// Unknown grade falls through to the cheapest tier.
	assert.Equal(t, 0.5, PriceOf(Grade("Z")))
}

func TestProtectionHoursOf(t *testing.T) {
	assert.Equal(t, 72.0, ProtectionHoursOf(GradeS))
	assert.Equal(t, 48.0, ProtectionHoursOf(GradeA))
	assert.Equal(t, 24.0, ProtectionHoursOf(GradeB))
	assert.Equal(t, 12.0, ProtectionHoursOf(GradeC))
	assert.Equal(t, 6.0, ProtectionHoursOf(GradeF))
	assert.Equal(t, float64(DefaultProtectionHours), ProtectionHoursOf(Grade("Z")))
}

func TestExclusiveAndQuotaLimitedSets(t *testing.T) {
	for _, g := range []Grade{GradeS, GradeA} {
		assert.True(t, IsExclusive(g), "grade %s", g)
		assert.True(t, IsQuotaLimited(g), "grade %s", g)
	}
	for _, g := range []Grade{GradeB, GradeC, GradeF} {
		assert.False(t, IsExclusive(g), "grade %s", g)
		assert.False(t, IsQuotaLimited(g), "grade %s", g)
	}
}

func TestValidateQuota(t *testing.T) {
	tests := []struct {
		name  string
		grade Grade
		quota Quota
		valid bool
	}{
		{"S with quota", GradeS, Quota{S: 1, A: 0}, true},
		{"S exhausted", GradeS, Quota{S: 0, A: 5}, false},
		{"S negative", GradeS, Quota{S: -1, A: 5}, false},
		{"A with quota", GradeA, Quota{S: 0, A: 1}, true},
		{"A exhausted", GradeA, Quota{S: 5, A: 0}, false},
		{"B ignores quota", GradeB, Quota{}, true},
		{"C ignores quota", GradeC, Quota{}, true},
		{"F ignores quota", GradeF, Quota{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := &Lead{Grade: tt.grade}
			user := &UserData{Points: 100, Quota: tt.quota}
			result := ValidateQuota(lead, user)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.NotEmpty(t, result.Err)
			}
		})
	}
}

func TestRemainingProtection(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Fresh purchase keeps the full window.
	assert.InDelta(t, 72, RemainingProtection(now, GradeS, now), 0.001)

	// Half elapsed.
	assert.InDelta(t, 36, RemainingProtection(now.Add(-36*time.Hour), GradeS, now), 0.001)

	// Expired clamps to zero, never negative.
	assert.Equal(t, 0.0, RemainingProtection(now.Add(-100*time.Hour), GradeS, now))

	// Future timestamp from clock skew clamps to the full window.
	assert.Equal(t, 72.0, RemainingProtection(now.Add(2*time.Hour), GradeS, now))
}

func TestStableHashDeterministic(t *testing.T) {
	a := StableHash("session-abc-123")
	b := StableHash("session-abc-123")
	assert.Equal(t, a, b)

	assert.NotEqual(t, StableHash("session-1"), StableHash("session-2"))
	assert.Equal(t, uint32(0), StableHash(""))
}

func TestIntentOfBands(t *testing.T) {
	sessions := []string{"s1", "abc", "long-session-id-xyz", "9f8e7d"}
	bands := map[Grade][2]int{
		GradeS: {90, 99},
		GradeA: {70, 89},
		GradeB: {50, 69},
		GradeC: {30, 49},
		GradeF: {10, 29},
	}

	for g, band := range bands {
		for _, s := range sessions {
			intent := IntentOf(g, s)
			assert.GreaterOrEqual(t, intent, band[0], "grade %s session %s", g, s)
			assert.LessOrEqual(t, intent, band[1], "grade %s session %s", g, s)
		}
	}
}

func TestPositionHintStable(t *testing.T) {
	x1, y1 := PositionHint("session-abc", 3)
	x2, y2 := PositionHint("session-abc", 3)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)

	// Hints are percentages well inside the container.
	assert.GreaterOrEqual(t, x1, 15.0)
	assert.Less(t, x1, 100.0)
	assert.GreaterOrEqual(t, y1, 15.0)

	// Row spread comes from the index.
	_, yRow0 := PositionHint("session-abc", 0)
	_, yRow1 := PositionHint("session-abc", 5)
	assert.Equal(t, yRow0+15, yRow1)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Visitor-9XYZ", DisplayName("session-9xyz"))
	assert.Equal(t, "Visitor-AB", DisplayName("ab"))
}
