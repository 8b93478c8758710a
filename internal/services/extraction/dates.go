package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reporting-period inference. A filing typically states several dates — its
// covered period, its filing date, comparative periods — so every candidate
// is collected and the chronologically latest valid one wins.

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var (
	reFiscalYearEnded = regexp.MustCompile(`(?i)fiscal\s+year\s+ended\s+(\w+)\s+(\d{1,2}),?\s+(\d{4})`)
	reYearEnded       = regexp.MustCompile(`(?i)year\s+ended\s+(\w+)\s+(\d{1,2}),?\s+(\d{4})`)
	reAsOf            = regexp.MustCompile(`(?i)as\s+of\s+(\w+)\s+(\d{1,2}),?\s+(\d{4})`)
	reCNDate          = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	reCNQ3Report      = regexp.MustCompile(`(\d{4})年第?[三3]季度报告`)
	reCNAnnual        = regexp.MustCompile(`(\d{4})\s*(?:度|年度)`)
	reQ3Report        = regexp.MustCompile(`(?i)(?:Third|3rd|Q3)\s*(?:Quarterly\s*Report)?\s*(\d{4})`)
	reAnnualReport    = regexp.MustCompile(`(?i)(\d{4})\s*(?:Annual\s+Report|年度报告|年报)`)
)

type dateCandidate struct {
	year, month, day int
}

func (d dateCandidate) less(other dateCandidate) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}

// inferReportPeriod collects every date-like match and returns the latest
// valid candidate as (YYYY-MM-DD, YYYY). Empty strings when nothing valid
// is found — the period is never guessed.
func inferReportPeriod(text string) (period, year string) {
	var candidates []dateCandidate

	add := func(y, m, d int) {
		if y <= 1900 || m < 1 || m > 12 || d < 1 || d > 31 {
			return
		}
		candidates = append(candidates, dateCandidate{year: y, month: m, day: d})
	}
	addNamed := func(monthName, dayStr, yearStr string) {
		m, ok := monthNames[strings.ToLower(strings.TrimSpace(monthName))]
		if !ok {
			return
		}
		y, err1 := strconv.Atoi(yearStr)
		d, err2 := strconv.Atoi(dayStr)
		if err1 != nil || err2 != nil {
			return
		}
		add(y, m, d)
	}

	for _, m := range reFiscalYearEnded.FindAllStringSubmatch(text, -1) {
		addNamed(m[1], m[2], m[3])
	}
	for _, m := range reYearEnded.FindAllStringSubmatch(text, -1) {
		addNamed(m[1], m[2], m[3])
	}
	for _, m := range reAsOf.FindAllStringSubmatch(text, -1) {
		addNamed(m[1], m[2], m[3])
	}
	for _, m := range reCNDate.FindAllStringSubmatch(text, -1) {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		add(y, mo, d)
	}

	// Quarterly and annual report titles imply fixed period-end dates.
	if m := reCNQ3Report.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		add(y, 9, 30)
	}
	if m := reQ3Report.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		add(y, 9, 30)
	}
	if m := reCNAnnual.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		add(y, 12, 31)
	}
	if m := reAnnualReport.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		add(y, 12, 31)
	}

	if len(candidates) == 0 {
		return "", ""
	}

	latest := candidates[0]
	for _, c := range candidates[1:] {
		if latest.less(c) {
			latest = c
		}
	}
	return fmt.Sprintf("%04d-%02d-%02d", latest.year, latest.month, latest.day),
		strconv.Itoa(latest.year)
}
