package location

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Normalized date tokens. Month/day and ISO dates are returned as "MM-DD" and "YYYY-MM-DD".
const (
	DateToday          = "today"
	DateTomorrow       = "tomorrow"
	DateDayAfter       = "day_after_tomorrow"
	DateThisWeek       = "this_week"
	DateNextWeek       = "next_week"
	DateWeekend        = "weekend"
	DateNextWeekend    = "next_weekend"
	weekdayTokenPrefix = "weekday:"
)

type dateKeyword struct {
	keys  []string
	token string
}

// dateKeywords is checked in order. Compound forms come before the words they contain
// ("내일모레" before "내일", "이번주말" before "이번주").
var dateKeywords = []dateKeyword{
	{[]string{"오늘", "today"}, DateToday},
	{[]string{"내일모레", "모레", "dayaftertomorrow"}, DateDayAfter},
	{[]string{"내일", "tomorrow"}, DateTomorrow},
	{[]string{"다음주말", "nextweekend"}, DateNextWeekend},
	{[]string{"이번주말", "이번토요일", "이번일요일"}, DateWeekend},
	{[]string{"이번주", "금주", "thisweek"}, DateThisWeek},
	{[]string{"다음주", "nextweek"}, DateNextWeek},
	{[]string{"주말", "weekend"}, DateWeekend},
}

var (
	weekdayRe  = regexp.MustCompile(`([월화수목금토일])요일`)
	monthDayRe = regexp.MustCompile(`(\d{1,2})월(\d{1,2})일`)
	isoDateRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

var weekdayNames = map[string]string{
	"월": "mon", "화": "tue", "수": "wed", "목": "thu", "금": "fri", "토": "sat", "일": "sun",
}

// ExtractDate returns a normalized date token for the first date expression in text.
func ExtractDate(text string) (string, bool) {
	s := normalize(text)
	if s == "" {
		return "", false
	}
	for _, kw := range dateKeywords {
		for _, k := range kw.keys {
			if strings.Contains(s, k) {
				return kw.token, true
			}
		}
	}
	if m := weekdayRe.FindStringSubmatch(s); m != nil {
		return weekdayTokenPrefix + weekdayNames[m[1]], true
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%02d-%02d", month, day), true
		}
	}
	if m := isoDateRe.FindString(s); m != "" {
		return m, true
	}
	return "", false
}

// IsWeekdayToken reports whether token came from a "토요일" style expression.
func IsWeekdayToken(token string) bool {
	return strings.HasPrefix(token, weekdayTokenPrefix)
}
