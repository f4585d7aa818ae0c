package timetable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/routine-planner-api/internal/models"
)

// chunkMarker separates schedule entries during normalisation. It never appears in catalog text.
const chunkMarker = "\x1f"

// NotAvailable is the room placeholder for entries without a location.
const NotAvailable = "N/A"

var (
	dayBoundary  = regexp.MustCompile(`(?i)(sunday|monday|tuesday|wednesday|thursday|friday|saturday)`)
	leadingDay   = regexp.MustCompile(`(?i)^(sunday|monday|tuesday|wednesday|thursday|friday|saturday)`)
	timeRange    = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*[AP]M)\s*-\s*(\d{1,2}:\d{2}\s*[AP]M)`)
	twelveHour   = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)`)
	separatorSet = "-(),"
)

// Parse extracts meeting times from a free-text catalog schedule such as
// "Monday 09:30 AM-10:50 AM (Room 301), Wednesday 09:30 AM-10:50 AM (Room 301)".
// Entries that cannot be understood are skipped; Parse never fails.
// Ranges whose end is not after their start are kept as written.
func Parse(raw string) []models.MeetingTime {
	if strings.TrimSpace(raw) == "" {
		return []models.MeetingTime{}
	}

	results := make([]models.MeetingTime, 0, 2)
	for _, chunk := range splitChunks(raw) {
		if meeting, ok := parseChunk(chunk); ok {
			results = append(results, meeting)
		}
	}
	return results
}

// splitChunks normalises delimiters and returns fragments that should each describe one meeting.
func splitChunks(raw string) []string {
	normalized := strings.NewReplacer(",", chunkMarker, "\n", chunkMarker).Replace(raw)
	normalized = dayBoundary.ReplaceAllString(normalized, chunkMarker+"$1")

	parts := strings.Split(normalized, chunkMarker)
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks
}

func parseChunk(chunk string) (models.MeetingTime, bool) {
	dayMatch := leadingDay.FindString(chunk)
	if dayMatch == "" {
		return models.MeetingTime{}, false
	}

	loc := timeRange.FindStringSubmatchIndex(chunk)
	if loc == nil {
		return models.MeetingTime{}, false
	}
	start, ok := ConvertTo24Hour(chunk[loc[2]:loc[3]])
	if !ok {
		return models.MeetingTime{}, false
	}
	end, ok := ConvertTo24Hour(chunk[loc[4]:loc[5]])
	if !ok {
		return models.MeetingTime{}, false
	}

	return models.MeetingTime{
		Day:       CanonicalDay(dayMatch),
		StartTime: start,
		EndTime:   end,
		Room:      trimRoom(chunk[loc[1]:]),
	}, true
}

func trimRoom(rest string) string {
	room := strings.TrimLeftFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(separatorSet, r)
	})
	room = strings.TrimRightFunc(room, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("(),", r)
	})
	if room == "" {
		return NotAvailable
	}
	return room
}

// CanonicalDay title-cases a weekday name, e.g. "MONDAY" -> "Monday".
func CanonicalDay(name string) models.Day {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return models.Day(strings.ToUpper(name[:1]) + strings.ToLower(name[1:]))
}

// ParseDay resolves a weekday name case-insensitively.
func ParseDay(name string) (models.Day, bool) {
	day := CanonicalDay(name)
	for _, known := range models.Days {
		if known == day {
			return day, true
		}
	}
	return "", false
}

// ConvertTo24Hour converts "h:mm AM" style clock text to "HH:MM".
func ConvertTo24Hour(clock string) (string, bool) {
	match := twelveHour.FindStringSubmatch(strings.ToLower(strings.TrimSpace(clock)))
	if match == nil {
		return "", false
	}
	hours, err := strconv.Atoi(match[1])
	if err != nil || hours < 1 || hours > 12 {
		return "", false
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil || minutes > 59 {
		return "", false
	}
	if match[3] == "pm" && hours < 12 {
		hours += 12
	}
	if match[3] == "am" && hours == 12 {
		hours = 0
	}
	return fmt.Sprintf("%02d:%s", hours, match[2]), true
}

// ToMinutes converts a 24h "HH:MM" value to minutes after midnight.
func ToMinutes(clock string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// NormalizeClock accepts "HH:MM" or "h:mm AM" and returns zero-padded 24h "HH:MM".
func NormalizeClock(clock string) (string, bool) {
	if converted, ok := ConvertTo24Hour(clock); ok {
		return converted, true
	}
	minutes, ok := ToMinutes(clock)
	if !ok || minutes > 24*60 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), true
}
