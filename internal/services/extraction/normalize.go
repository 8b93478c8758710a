package extraction

import (
	"regexp"
	"strings"
)

// confusableReplacer collapses CJK variant-selector and full-width
// confusables to their standard forms before pattern matching. PDFs built
// from certain font subsets emit the compatibility radicals (U+2F00 block
// neighbors) in place of the unified ideographs.
var confusableReplacer = strings.NewReplacer(
	"⼊", "入", "⼀", "一", "⼆", "二", "⼗", "十",
	"⽉", "月", "⽇", "日", "⾏", "行", "⾸", "首", "⾦", "金",
	"⾼", "高", "⽤", "用", "⽬", "目", "⽣", "生", "⽩", "白",
	"⽴", "立", "⽹", "网", "⾃", "自", "⾄", "至", "⾊", "色",
	"⾐", "衣", "⾒", "见", "⾓", "角", "⾔", "言",
	"⾕", "谷", "⾖", "豆", "⾛", "走", "⾜", "足", "⾝", "身",
	"⻋", "车", "⻓", "长", "⻔", "门", "⻛", "风", "⻜", "飞",
	"⻝", "食", "⻢", "马", "⻥", "鱼", "⻦", "鸟", "⿊", "黑",
	"％", "%", "：", ":", "（", "(", "）", ")",
)

// NormalizeText collapses known character confusables to standard forms.
func NormalizeText(text string) string {
	return confusableReplacer.Replace(text)
}

// UnitScale is the multiplier converting a document's stated amount unit
// to millions.
type UnitScale float64

// Supported monetary units. Anything not detected falls through to
// UnitMillions: amounts are then carried in source units, which downstream
// ratio math tolerates since numerator and denominator share the scale.
const (
	UnitMillions  UnitScale = 1     // million / 百万元
	UnitYi        UnitScale = 100   // 亿元 = 100 million
	UnitWan       UnitScale = 0.01  // 万元 = 0.01 million
	UnitBillions  UnitScale = 1000  // billion
	UnitThousands UnitScale = 0.001 // thousand / 千元
)

var unitMarkers = []struct {
	pattern *regexp.Regexp
	scale   UnitScale
}{
	{regexp.MustCompile(`单位\s*[:：]?\s*亿元`), UnitYi},
	{regexp.MustCompile(`单位\s*[:：]?\s*万元`), UnitWan},
	{regexp.MustCompile(`单位\s*[:：]?\s*百万元`), UnitMillions},
	{regexp.MustCompile(`(?i)\(?\s*in\s+billions\b`), UnitBillions},
	{regexp.MustCompile(`(?i)\(?\s*in\s+millions\b`), UnitMillions},
	{regexp.MustCompile(`(?i)\(?\s*in\s+thousands\b`), UnitThousands},
	{regexp.MustCompile(`(?i)\bRMB\s+million\b`), UnitMillions},
	{regexp.MustCompile(`(?i)\bUSD?\s+million\b`), UnitMillions},
}

// DetectUnitScale scans the document for a stated amount unit and returns
// the multiplier to millions. This is the single place unit detection
// happens; per-field ad hoc checks are deliberately avoided. The first
// marker found wins — filings state their unit once, in the table header.
func DetectUnitScale(text string) UnitScale {
	for _, m := range unitMarkers {
		if m.pattern.MatchString(text) {
			return m.scale
		}
	}
	return UnitMillions
}

// scaleAmount converts a source-unit amount to millions. nil passes through.
func scaleAmount(v *float64, scale UnitScale) *float64 {
	if v == nil || scale == UnitMillions {
		return v
	}
	scaled := *v * float64(scale)
	return &scaled
}
