package document

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateCutoff separates plausible document dates from birth dates. Clinical
// letters usually open with the patient's birth date, so when the first
// date found is not after the cutoff the second one is used instead.
var DateCutoff = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

var months = map[string]time.Month{
	"janvier": time.January, "january": time.January,
	"février": time.February, "fevrier": time.February, "february": time.February,
	"mars": time.March, "march": time.March,
	"avril": time.April, "april": time.April,
	"mai": time.May, "may": time.May,
	"juin": time.June, "june": time.June,
	"juillet": time.July, "july": time.July,
	"août": time.August, "aout": time.August, "august": time.August,
	"septembre": time.September, "september": time.September,
	"octobre": time.October, "october": time.October,
	"novembre": time.November, "november": time.November,
	"décembre": time.December, "decembre": time.December, "december": time.December,
}

var datePattern = regexp.MustCompile(`(?i)\b(?:` +
	`(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})` +
	`|(\d{4})-(\d{1,2})-(\d{1,2})` +
	`|(\d{1,2})(?:er)?\s+(janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre|january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})` +
	`)\b`)

var authorPattern = regexp.MustCompile(`(?i)dr\s[a-z]+\s?[a-z]+`)

// FindDates returns every valid calendar date written in text, in order of
// appearance.
func FindDates(text string) []time.Time {
	var out []time.Time
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		var d, mo, y string
		var month time.Month
		switch {
		case m[1] != "":
			d, mo, y = m[1], m[2], m[3]
		case m[4] != "":
			y, mo, d = m[4], m[5], m[6]
		default:
			d, y = m[7], m[9]
			month = months[strings.ToLower(m[8])]
		}
		if month == 0 {
			n, _ := strconv.Atoi(mo)
			month = time.Month(n)
		}
		if t, ok := calendarDate(y, month, d); ok {
			out = append(out, t)
		}
	}
	return out
}

func calendarDate(year string, month time.Month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// SearchDate picks the document date among the dates found in text.
// With two or more candidates the first wins only if it is after
// DateCutoff, otherwise the second is used. Returns nil when text has no
// date.
func SearchDate(text string) *time.Time {
	dates := FindDates(text)
	switch {
	case len(dates) >= 2:
		if dates[0].After(DateCutoff) {
			return &dates[0]
		}
		return &dates[1]
	case len(dates) == 1:
		return &dates[0]
	}
	return nil
}

// SearchAuthor returns the last "dr <name>" mention of text, lowercased.
// The last one is usually the signature. Returns nil when there is none.
func SearchAuthor(text string) *string {
	matches := authorPattern.FindAllString(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return nil
	}
	author := matches[len(matches)-1]
	return &author
}
