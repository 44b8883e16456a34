package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 14, 15, 42, 17, 123_000_000, time.UTC)

func TestNormalizeAbsolutePassesThrough(t *testing.T) {
	in := "2025-03-14T10:00:00Z"
	got := Normalize(in, testNow)
	want, err := time.Parse(time.RFC3339, in)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
	assert.Equal(t, in, got.Format(time.RFC3339))
}

func TestNormalizeClockTime(t *testing.T) {
	got := NormalizeWithFallback("07:30", 7, testNow)
	assert.Equal(t, time.Date(2024, time.March, 14, 7, 30, 0, 0, time.UTC), got)
	assert.Zero(t, got.Second())
	assert.Zero(t, got.Nanosecond())
}

func TestNormalizeLenientFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		hour     int
		minute   int
	}{
		{name: "garbage hour uses fallback", value: "xx:15", fallback: 18, hour: 18, minute: 15},
		{name: "garbage minute is zero", value: "09:yy", fallback: 7, hour: 9, minute: 0},
		{name: "missing minute", value: "14", fallback: 7, hour: 14, minute: 0},
		{name: "total garbage", value: "soon", fallback: 6, hour: 6, minute: 0},
		{name: "trailing text after digits", value: "8am:05", fallback: 1, hour: 8, minute: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWithFallback(tt.value, tt.fallback, testNow)
			assert.Equal(t, tt.hour, got.Hour())
			assert.Equal(t, tt.minute, got.Minute())
			assert.Equal(t, 14, got.Day())
		})
	}
}

func TestNormalizeWithoutFallbackUsesCurrentHour(t *testing.T) {
	got := Normalize("??:20", testNow)
	assert.Equal(t, 15, got.Hour())
	assert.Equal(t, 20, got.Minute())
}

func TestNormalizeEmptyIsNow(t *testing.T) {
	assert.Equal(t, testNow, Normalize("", testNow))
}

func TestNormalizeLocalDateTime(t *testing.T) {
	got := Normalize("2024-04-01T06:45", testNow)
	assert.Equal(t, time.Date(2024, time.April, 1, 6, 45, 0, 0, time.UTC), got)
}

func TestCalendarTime(t *testing.T) {
	got, err := CalendarTime("2024-05-02", "19:05", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.May, 2, 19, 5, 0, 0, time.UTC), got)

	_, err = CalendarTime("2024-05-02", "7:05", time.UTC)
	assert.Error(t, err)

	_, err = CalendarTime("not-a-date", "07:05", time.UTC)
	assert.Error(t, err)
}

func TestNormalizeDateTimeVariants(t *testing.T) {
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	plusTwo := time.FixedZone("", 2*60*60)

	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{name: "basic offset", value: "2024-01-05T07:30:00+0200", want: time.Date(2024, time.January, 5, 7, 30, 0, 0, plusTwo)},
		{name: "hour-only offset", value: "2024-01-05T07:30:00+02", want: time.Date(2024, time.January, 5, 7, 30, 0, 0, plusTwo)},
		{name: "minutes with offset", value: "2024-01-05T07:30+02:00", want: time.Date(2024, time.January, 5, 7, 30, 0, 0, plusTwo)},
		{name: "fractional seconds with basic offset", value: "2024-01-05T07:30:00.250+0200", want: time.Date(2024, time.January, 5, 7, 30, 0, 250_000_000, plusTwo)},
		{name: "space separator", value: "2024-01-05 07:30", want: time.Date(2024, time.January, 5, 7, 30, 0, 0, time.UTC)},
		{name: "space separator with seconds", value: "2024-01-05 07:30:45", want: time.Date(2024, time.January, 5, 7, 30, 45, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWithFallback(tt.value, 7, now)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestNormalizeUnreadableDateTimeKeepsItsDate(t *testing.T) {
	now := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)

	got := NormalizeWithFallback("2024-01-05T7h30", 18, now)
	assert.Equal(t, time.Date(2024, time.January, 5, 18, 0, 0, 0, time.UTC), got)

	got = NormalizeWithFallback("2024-01-05", 7, now)
	assert.Equal(t, time.Date(2024, time.January, 5, 7, 0, 0, 0, time.UTC), got)

	got = NormalizeWithFallback("2024-13-45T07:30", 7, now)
	assert.Equal(t, now, got)
}

func TestNormalizeLongHourIsNotAClockTime(t *testing.T) {
	got := NormalizeWithFallback("2024:30", 9, testNow)
	assert.Equal(t, time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC), got)

	got = NormalizeWithFallback("123", 6, testNow)
	assert.Equal(t, 6, got.Hour())
	assert.Equal(t, 14, got.Day())
}
