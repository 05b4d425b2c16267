package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeInMonths(t *testing.T) {
	tests := []struct {
		name      string
		dob, asOf time.Time
		want      int
	}{
		{"same day", date(2023, 1, 1), date(2023, 1, 1), 0},
		{"six months", date(2023, 1, 1), date(2023, 7, 1), 6},
		{"one day short of a month", date(2023, 1, 15), date(2023, 2, 14), 0},
		{"end of month", date(2023, 1, 31), date(2023, 2, 28), 0},
		{"over a year", date(2022, 5, 10), date(2023, 7, 11), 14},
		{"before birth", date(2023, 7, 1), date(2023, 1, 1), -6},
		{"a few days before birth", date(2024, 2, 1), date(2024, 1, 7), -1},
		{"a day before birth", date(2024, 2, 1), date(2024, 1, 31), -1},
		{"just over a month before birth", date(2024, 3, 10), date(2024, 2, 5), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeInMonths(tt.dob, tt.asOf))
		})
	}
}

func TestAgeBetween(t *testing.T) {
	assert.Equal(t, Age{Years: 1, Months: 2, Days: 3}, AgeBetween(date(2022, 5, 10), date(2023, 7, 13)))
	assert.Equal(t, Age{Months: 1, Days: 1}, AgeBetween(date(2023, 1, 31), date(2023, 3, 1)))
	assert.Equal(t, Age{Days: 12}, AgeBetween(date(2024, 2, 20), date(2024, 3, 3)))
	assert.Equal(t, Age{}, AgeBetween(date(2024, 2, 20), date(2024, 2, 1)))
}
