package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayRange(t *testing.T) {
	days, err := DayRange("2024-01-01", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, days)
}

func TestDayRangeAcrossMonth(t *testing.T) {
	days, err := DayRange("2024-02-28", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, days)
}

func TestDayRangeLimit(t *testing.T) {
	days, err := DayRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, days, MaxRangeDays)

	_, err = DayRange("2024-01-01", "2024-02-01")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = DayRange("2000-01-01", "2024-12-31")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDayRangeInvalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{name: "reversed", start: "2024-01-03", end: "2024-01-01"},
		{name: "garbage start", start: "yesterday", end: "2024-01-01"},
		{name: "garbage end", start: "2024-01-01", end: "2024-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DayRange(tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestParseDayNormalizes(t *testing.T) {
	day, err := ParseDay("2024-3-0", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDay(day))
}

func TestPostDay(t *testing.T) {
	cases := map[string]string{
		"2024-01-05T10:00:00Z": "2024-01-05",
		"2024-01-05":           "2024-01-05",
		"":                     "",
	}
	for posted, want := range cases {
		assert.Equal(t, want, Post{PostedDate: posted}.Day(), "posted=%q", posted)
		assert.Equal(t, want, CollectedPost{PostedDate: posted}.Day(), "posted=%q", posted)
	}
}

func TestNormalizeError(t *testing.T) {
	plain := NormalizeError(errors.New("boom"))
	assert.Equal(t, 500, plain.Status)
	assert.Equal(t, "boom", plain.Err)

	wrapped := NormalizeError(errors.Join(errors.New("ctx"), &APIError{Err: "nf", Status: 404}))
	assert.Equal(t, 404, wrapped.Status)
	assert.True(t, IsNotFound(&APIError{Status: 404}))
}
