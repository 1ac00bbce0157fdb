package kma

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.May, 10, hour, minute, 0, 0, KST)
}

func TestForecastWindow(t *testing.T) {
	tests := []struct {
		clock    time.Time
		wantDate string
		wantTime string
	}{
		{at(13, 0), "20240510", "1100"},
		{at(1, 0), "20240510", "2300"},
		{at(23, 0), "20240510", "2300"},
		{at(2, 0), "20240510", "0200"},
		{at(0, 0), "20240510", "2300"},
		{at(16, 59), "20240510", "1400"},
	}

	for _, tt := range tests {
		t.Run(tt.clock.Format("1504"), func(t *testing.T) {
			w := ForecastWindow(tt.clock)
			assert.Equal(t, tt.wantDate, w.Date)
			assert.Equal(t, tt.wantTime, w.Time)
		})
	}
}

func TestNowWindow(t *testing.T) {
	w := NowWindow(at(10, 30))
	assert.Equal(t, "20240510", w.Date)
	assert.Equal(t, "0900", w.Time)

	w = NowWindow(at(10, 50))
	assert.Equal(t, "1000", w.Time)

	// The 45 minute lag crosses midnight.
	w = NowWindow(at(0, 20))
	assert.Equal(t, "20240509", w.Date)
	assert.Equal(t, "2300", w.Time)
}
