package kma

import (
	"fmt"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

// KST is the provider's local time zone.
var KST = time.FixedZone("KST", 9*60*60)

const (
	dateLayout = "20060102"

	// nowLag is how long the ultra-short-term observation takes to publish.
	nowLag = 45 * time.Minute
)

// forecastSlots are the short-term forecast publication hours.
var forecastSlots = []int{2, 5, 8, 11, 14, 17, 20, 23}

// NowWindow returns the latest published observation slot: clock minus 45
// minutes, truncated to the hour.
func NowWindow(clock time.Time) models.ObservationWindow {
	base := clock.Add(-nowLag)
	return models.ObservationWindow{
		Date: base.Format(dateLayout),
		Time: fmt.Sprintf("%02d00", base.Hour()),
	}
}

// ForecastWindow returns the latest publication slot not after the clock's hour.
// Before 02:00 it returns 23:00 of the same calendar date; the date is not rolled back.
func ForecastWindow(clock time.Time) models.ObservationWindow {
	hour := clock.Hour()
	slot := -1
	for _, h := range forecastSlots {
		if h <= hour {
			slot = h
		}
	}
	if slot < 0 {
		slot = 23
	}
	return models.ObservationWindow{
		Date: clock.Format(dateLayout),
		Time: fmt.Sprintf("%02d00", slot),
	}
}

// Now returns the current wall-clock time in KST.
func Now() time.Time {
	return time.Now().In(KST)
}
