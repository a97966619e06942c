package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/wablast/internal/model"
)

func TestParseTimeOfDay(t *testing.T) {
	hour, minute, err := model.ParseTimeOfDay("14:05")
	require.NoError(t, err)
	assert.Equal(t, 14, hour)
	assert.Equal(t, 5, minute)

	hour, minute, err = model.ParseTimeOfDay("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, hour)
	assert.Equal(t, 0, minute)

	for _, bad := range []string{"", "9:00", "09:0", "24:00", "12:60", "ab:cd", "12-30", "12:30:00"} {
		_, _, err := model.ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseDays(t *testing.T) {
	days := model.ParseDays([]string{"1", " 15 ", "31", "0", "32", "x", ""})
	assert.Equal(t, []int{1, 15, 31}, days)
}

func TestDaysCSV(t *testing.T) {
	assert.Equal(t, "1,15,28", model.DaysCSV([]int{1, 15, 28}))
	assert.Equal(t, "", model.DaysCSV(nil))
}

func TestPreviewTruncates(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, model.PreviewText(short))

	long := strings.Repeat("a", 80)
	got := model.PreviewText(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", got)
}

func TestScheduleLastDay(t *testing.T) {
	s := model.Schedule{Days: []int{3, 28, 15}}
	assert.Equal(t, 28, s.LastDay())

	assert.Equal(t, 0, model.Schedule{}.LastDay())
}

func TestScheduleTimeString(t *testing.T) {
	s := model.Schedule{Hour: 9, Minute: 5}
	assert.Equal(t, "09:05", s.TimeString())
}
