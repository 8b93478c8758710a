package extraction

import (
	"strings"
	"unicode/utf8"
)

// Garbled-text thresholds. CID escape markers show up when a PDF embeds
// fonts with custom glyph indexes and the text layer cannot be mapped back
// to Unicode.
const (
	maxCIDMarkers       = 10
	readableRatioFloor  = 0.5
	readableLengthGate  = 100
	maxControlChars     = 20
	controlRatioCeiling = 0.05
	minPlausibleChars   = 200
	minPlausibleDigits  = 10
)

// financial punctuation accepted as readable, both halves of the bilingual set
const readablePunct = ".,;:!?$%()-'\"/&+，。；：！？（）【】《》、"

// IsGarbledText reports whether extracted text is unusable: CID escape
// spam, a low readable-character ratio, or control-character noise.
func IsGarbledText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	if strings.Count(text, "(cid:") > maxCIDMarkers {
		return true
	}

	runes := []rune(text)
	total := len(runes)
	readable := 0
	control := 0

	for _, r := range runes {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
		if isReadableRune(r) {
			readable++
		}
	}

	if control > maxControlChars && float64(control)/float64(total) > controlRatioCeiling {
		return true
	}
	if total > readableLengthGate && float64(readable)/float64(total) < readableRatioFloor {
		return true
	}
	return false
}

// isReadableRune accepts alphanumerics, whitespace, CJK ideographs, and
// common financial punctuation.
func isReadableRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == ' ', r == '\t', r == '\n', r == '\r':
		return true
	case isCJK(r):
		return true
	}
	return strings.ContainsRune(readablePunct, r)
}

// isCJK covers the unified ideograph blocks plus compatibility ideographs.
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF)
}

// stripControlChars replaces characters below code point 32, except
// newline, carriage return and tab, with a space.
func stripControlChars(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return ' '
		}
		return r
	}, text)
}

// isTooShort flags non-garbled output that is implausibly small for a
// financial filing: a near-empty scan produces a few stray characters
// and almost no digits.
func isTooShort(text string) bool {
	// Character count, not bytes: a CJK page carries three bytes per rune.
	if utf8.RuneCountInString(text) < minPlausibleChars {
		return true
	}
	digits := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits < minPlausibleDigits
}

// englishStatementKeywords are unambiguous signals that OCR output is
// genuine statement text. CJK-oriented garbled detection can false-positive
// on clean English OCR output, so these rescue it.
var englishStatementKeywords = []string{
	"TOTAL ASSETS",
	"NET INCOME",
	"TOTAL REVENUE",
	"BALANCE SHEET",
	"CASH FLOW",
	"STOCKHOLDERS",
	"SHAREHOLDERS",
}

// hasEnglishStatementKeywords checks OCR output for statement vocabulary.
func hasEnglishStatementKeywords(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range englishStatementKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
