package extraction

import "strings"

// Relevance scoring weights. Strong signals are statement headers; weak
// signals are vocabulary that also appears in commentary sections.
const (
	relevancePreviewLimit = 3000
	strongSignalBonus     = 25.0
	weakSignalBonus       = 5.0
	asciiBonusScale       = 3.0
)

// strongSignals mark pages that almost certainly hold statement tables.
var strongSignals = []string{
	"CONSOLIDATED STATEMENTS",
	"CONSOLIDATED BALANCE SHEET",
	"BALANCE SHEETS",
	"STATEMENTS OF OPERATIONS",
	"STATEMENTS OF INCOME",
	"STATEMENTS OF CASH FLOWS",
	"FORM 10-K",
	"FORM 10-Q",
	"合并利润表",
	"合并资产负债表",
	"资产负债表",
	"利润表",
	"现金流量表",
	"营业收入",
	"归属于上市公司股东",
}

// weakSignals nudge the score for pages with financial vocabulary.
var weakSignals = []string{
	"REVENUE",
	"NET INCOME",
	"TOTAL ASSETS",
	"TOTAL LIABILITIES",
	"IN MILLIONS",
	"IN THOUSANDS",
	"毛利率",
	"净利润",
	"股东权益",
	"经营活动",
	"流动资产",
}

// ScorePageRelevance estimates how likely a page preview is to contain
// financial-statement data. Cheap enough to run against dozens of candidate
// pages: it scans a bounded prefix and does no OCR. Empty input scores
// below zero so a blank page is never selected ahead of a genuine candidate.
func ScorePageRelevance(preview string) float64 {
	if strings.TrimSpace(preview) == "" {
		return -1
	}

	runes := []rune(preview)
	if len(runes) > relevancePreviewLimit {
		preview = string(runes[:relevancePreviewLimit])
	}
	upper := strings.ToUpper(preview)

	score := 0.0
	for _, sig := range strongSignals {
		if strings.Contains(upper, sig) {
			score += strongSignalBonus
		}
	}
	for _, sig := range weakSignals {
		if strings.Contains(upper, sig) {
			score += weakSignalBonus
		}
	}

	// Mild preference for well-formed pages when keyword signal is absent.
	runes = []rune(preview)
	printable := 0
	for _, r := range runes {
		if r >= 32 && r < 127 {
			printable++
		}
	}
	score += asciiBonusScale * float64(printable) / float64(len(runes))

	return score
}
