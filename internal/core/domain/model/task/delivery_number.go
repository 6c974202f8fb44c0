package task

import (
	"fmt"
	"time"
)

// FormatDeliveryNumber renders the human-readable YYMMDD-NNNNN code shown to
// businesses and couriers. seq is the global counter value.
func FormatDeliveryNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%05d", day.Format("060102"), seq)
}
