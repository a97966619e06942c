package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Schedule is the durable definition of a recurring broadcast: fire at
// Hour:Minute on each day-of-month in Days, sending MessageFull to however
// many recipients are loaded at fire time. RecipientCount is a snapshot of
// the list size taken at create/edit time, refreshed when the recipient
// list is replaced.
type Schedule struct {
	ID             string
	MessageFull    string
	Days           []int // days of month, 1..31
	Hour           int
	Minute         int
	RecipientCount int
}

const previewLen = 50

// Preview returns the message truncated for listings and notifications.
func (s Schedule) Preview() string {
	return PreviewText(s.MessageFull)
}

func PreviewText(msg string) string {
	if len(msg) > previewLen {
		return msg[:previewLen] + "..."
	}
	return msg
}

// TimeString renders the configured time of day as "HH:MM".
func (s Schedule) TimeString() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// LastDay returns the latest selected day of month, used for id generation.
func (s Schedule) LastDay() int {
	last := 0
	for _, d := range s.Days {
		if d > last {
			last = d
		}
	}
	return last
}

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ParseTimeOfDay validates and splits an "HH:MM" string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	if !timePattern.MatchString(s) {
		return 0, 0, fmt.Errorf("invalid time format %q: must be HH:MM", s)
	}
	parts := strings.SplitN(s, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time value %q: hour must be <= 23 and minute <= 59", s)
	}
	return hour, minute, nil
}

// ParseDays converts day-of-month tokens into a cleaned []int, dropping
// anything that is not in 1..31.
func ParseDays(tokens []string) []int {
	days := make([]int, 0, len(tokens))
	for _, t := range tokens {
		d, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || d < 1 || d > 31 {
			continue
		}
		days = append(days, d)
	}
	return days
}

// DaysCSV renders the day set the way it is stored ("1,15,28").
func DaysCSV(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}
