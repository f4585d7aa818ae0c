package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routine-planner-api/internal/models"
)

func TestParseWellFormedSchedule(t *testing.T) {
	times := Parse("Monday 09:30 AM-10:50 AM (Room 301), Wednesday 09:30 AM-10:50 AM (Room 301)")

	require.Len(t, times, 2)
	assert.Equal(t, models.MeetingTime{Day: models.Monday, StartTime: "09:30", EndTime: "10:50", Room: "Room 301"}, times[0])
	assert.Equal(t, models.MeetingTime{Day: models.Wednesday, StartTime: "09:30", EndTime: "10:50", Room: "Room 301"}, times[1])
}

func TestParseEmptyInput(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("   \n  "))
}

func TestParseDropsMalformedChunk(t *testing.T) {
	times := Parse("Friday garbage, Monday 09:00 AM-10:00 AM")

	require.Len(t, times, 1)
	assert.Equal(t, models.Monday, times[0].Day)
	assert.Equal(t, "09:00", times[0].StartTime)
	assert.Equal(t, "10:00", times[0].EndTime)
	assert.Equal(t, NotAvailable, times[0].Room)
}

func TestParseDayNameWithoutDelimiter(t *testing.T) {
	times := Parse("SUNDAY 08:00 AM - 09:20 AM-12A-03C tuesday 8:00am-9:20am-12A-03C")

	require.Len(t, times, 2)
	assert.Equal(t, models.Sunday, times[0].Day)
	assert.Equal(t, "12A-03C", times[0].Room)
	assert.Equal(t, models.Tuesday, times[1].Day)
	assert.Equal(t, "08:00", times[1].StartTime)
	assert.Equal(t, "09:20", times[1].EndTime)
	assert.Equal(t, "12A-03C", times[1].Room)
}

func TestParseNewlineSeparatedEntries(t *testing.T) {
	times := Parse("Thursday 02:00 PM-03:20 PM\nSaturday 03:30 PM-04:50 PM (Lab 9)")

	require.Len(t, times, 2)
	assert.Equal(t, "14:00", times[0].StartTime)
	assert.Equal(t, "15:20", times[0].EndTime)
	assert.Equal(t, "Lab 9", times[1].Room)
}

func TestParseSkipsChunkWithoutLeadingDay(t *testing.T) {
	times := Parse("TBA, Online 09:00 AM-10:00 AM")
	assert.Empty(t, times)
}

func TestParseKeepsInvertedRange(t *testing.T) {
	times := Parse("Monday 11:00 AM-10:00 AM")
	require.Len(t, times, 1)
	assert.Equal(t, "11:00", times[0].StartTime)
	assert.Equal(t, "10:00", times[0].EndTime)

	times = Parse("Saturday 11:00 PM-12:00 AM (Room 9)")
	require.Len(t, times, 1)
	assert.Equal(t, models.Saturday, times[0].Day)
	assert.Equal(t, "23:00", times[0].StartTime)
	assert.Equal(t, "00:00", times[0].EndTime)
	assert.Equal(t, "Room 9", times[0].Room)
}

func TestConvertTo24Hour(t *testing.T) {
	cases := map[string]string{
		"12:00 AM": "00:00",
		"12:00 PM": "12:00",
		"01:15 PM": "13:15",
		"9:05am":   "09:05",
		"11:59 pm": "23:59",
	}
	for input, expected := range cases {
		got, ok := ConvertTo24Hour(input)
		require.True(t, ok, input)
		assert.Equal(t, expected, got, input)
	}

	for _, input := range []string{"", "13:00 PM", "00:30 AM", "10:75 AM", "ten AM", "10:00"} {
		_, ok := ConvertTo24Hour(input)
		assert.False(t, ok, input)
	}
}

func TestToMinutes(t *testing.T) {
	mins, ok := ToMinutes("09:20")
	require.True(t, ok)
	assert.Equal(t, 560, mins)

	for _, input := range []string{"", "9", "aa:bb", "10:60", "-1:00"} {
		_, ok := ToMinutes(input)
		assert.False(t, ok, input)
	}
}

func TestParseDay(t *testing.T) {
	day, ok := ParseDay(" wednesday ")
	require.True(t, ok)
	assert.Equal(t, models.Wednesday, day)

	_, ok = ParseDay("Funday")
	assert.False(t, ok)
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"8:00":     "08:00",
		"17:00":    "17:00",
		"05:30 PM": "17:30",
		"12:10 am": "00:10",
	}
	for in, want := range cases {
		got, ok := NormalizeClock(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "noon", "24:30", "8"} {
		_, ok := NormalizeClock(bad)
		assert.False(t, ok, bad)
	}
}
