package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MillisPerHour converts an hourly rate into a per-millisecond rate.
const MillisPerHour = 3_600_000

var millisPerHour = decimal.NewFromInt(MillisPerHour)

// Price charges ratePerHour for the consumed time, rounded half up to a whole
// currency unit. The product is computed exactly before the single rounding step.
func Price(ratePerHour int64, consumed time.Duration) int64 {
	if ratePerHour <= 0 || consumed <= 0 {
		return 0
	}
	ms := decimal.NewFromInt(consumed.Milliseconds())
	return decimal.NewFromInt(ratePerHour).
		Mul(ms).
		DivRound(millisPerHour, 0).
		IntPart()
}

// FormatDuration renders d as HH:MM:SS, truncating sub-second precision.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
