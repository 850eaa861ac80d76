package radar

import (
	"fmt"
	"time"
)

// Grade-tiered economy tables. These are business values carried over from
// the production pricing sheet; the F-grade price is deliberately a half
// point, which is why balances are decimal-valued. Do not "fix" the tables
// without confirming the intended values.
var gradePrices = map[Grade]float64{
	GradeS: 20,
	GradeA: 10,
	GradeB: 3,
	GradeC: 1,
	GradeF: 0.5,
}

var gradeProtectionHours = map[Grade]float64{
	GradeS: 72,
	GradeA: 48,
	GradeB: 24,
	GradeC: 12,
	GradeF: 6,
}

// DefaultProtectionHours applies when a purchased lead carries an unknown
// grade value.
const DefaultProtectionHours = 48

// PriceOf returns the point cost to purchase a lead of the given grade.
func PriceOf(g Grade) float64 {
	if price, ok := gradePrices[g]; ok {
		return price
	}
	return gradePrices[GradeF]
}

// ProtectionHoursOf returns the total exclusivity window for the given grade.
func ProtectionHoursOf(g Grade) float64 {
	if hours, ok := gradeProtectionHours[g]; ok {
		return hours
	}
	return DefaultProtectionHours
}

// IsExclusive reports whether purchases of this grade carry exclusive contact
// rights. Only the top two grades qualify; downstream display policy shows
// exclusive protection in hours and non-exclusive in days, so this boundary
// must stay centralized here.
func IsExclusive(g Grade) bool {
	return g == GradeS || g == GradeA
}

// IsQuotaLimited reports whether purchases of this grade consume the user's
// free-purchase quota. The quota-limited set matches the exclusive set today,
// but the two concepts are distinct rules.
func IsQuotaLimited(g Grade) bool {
	return g == GradeS || g == GradeA
}

// QuotaValidation is the outcome of a quota check.
type QuotaValidation struct {
	Valid bool
	Err   string
}

// ValidateQuota fails when the lead's grade is quota-limited and the user's
// matching counter is exhausted. Grades without a quota always pass. The
// purchase orchestrator treats this as authoritative before any mutation;
// it is never left to the remote call alone.
func ValidateQuota(lead *Lead, user *UserData) QuotaValidation {
	switch lead.Grade {
	case GradeS:
		if user.Quota.S <= 0 {
			return QuotaValidation{Valid: false, Err: "S-grade quota exhausted"}
		}
	case GradeA:
		if user.Quota.A <= 0 {
			return QuotaValidation{Valid: false, Err: "A-grade quota exhausted"}
		}
	}
	return QuotaValidation{Valid: true}
}

// RemainingProtection returns the hours of protection left on a purchase made
// at purchasedAt, clamped to [0, total] regardless of clock skew or stale
// timestamps.
func RemainingProtection(purchasedAt time.Time, g Grade, now time.Time) float64 {
	total := ProtectionHoursOf(g)
	elapsed := now.Sub(purchasedAt).Hours()

	remaining := total - elapsed
	if remaining < 0 {
		return 0
	}
	if remaining > total {
		return total
	}
	return remaining
}

// StableHash computes a 32-bit shift-add hash of s. It mirrors the classic
// Java string hash so intent scores and position hints stay identical across
// reloads for the same session id.
func StableHash(s string) uint32 {
	var h int32
	for _, ch := range s {
		h = (h << 5) - h + int32(ch)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return uint32(v)
}

// IntentOf derives a stable 0-100 intent score from the grade band offset by
// the session-id hash.
func IntentOf(g Grade, sessionID string) int {
	hash := StableHash(sessionID)
	switch g {
	case GradeS:
		return 90 + int(hash%10) // 90-99
	case GradeA:
		return 70 + int(hash%20) // 70-89
	case GradeB:
		return 50 + int(hash%20) // 50-69
	case GradeC:
		return 30 + int(hash%20) // 30-49
	default:
		return 10 + int(hash%20) // 10-29
	}
}

// PositionHint derives a stable percentage-of-container position for a
// session. The hash replaces visual-jitter randomness so the same lead always
// lands at the same relative spot; index spreads rows vertically.
func PositionHint(sessionID string, index int) (x, y float64) {
	hash := StableHash(sessionID)
	x = 15 + float64(hash%5)*15 + float64((hash>>8)%10)
	y = 15 + float64(index/5)*15 + float64((hash>>16)%10)
	return x, y
}

// SuggestionOf produces the short coaching line shown next to a lead.
func SuggestionOf(g Grade, visitCount int) string {
	switch g {
	case GradeS:
		if visitCount >= 3 {
			return "Hot lead - reach out immediately"
		}
		return "High-intent visitor, prioritize follow-up"
	case GradeA:
		if visitCount >= 2 {
			return "Deep browsing pattern, send an invitation"
		}
		return "A-grade visitor, good fit for a listing recommendation"
	case GradeB:
		return "Moderate interest, share listing details"
	case GradeC:
		return "Light interest, keep observing"
	default:
		return "Potential lead"
	}
}

// DisplayName builds the anonymized visitor label from a session id.
func DisplayName(sessionID string) string {
	suffix := sessionID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return fmt.Sprintf("Visitor-%s", upperASCII(suffix))
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
