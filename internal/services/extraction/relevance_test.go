package extraction

import (
	"strings"
	"testing"
)

func TestScorePageRelevance_EmptyScoresNegative(t *testing.T) {
	if got := ScorePageRelevance("   \n "); got >= 0 {
		t.Errorf("blank page scored %v, want negative", got)
	}
}

func TestScorePageRelevance_StatementHeaderOutranksProse(t *testing.T) {
	statement := "CONSOLIDATED BALANCE SHEETS\nTotal assets $ 1,234\nTotal liabilities $ 600"
	prose := "This letter to shareholders discusses our strategy for the coming year."

	if ScorePageRelevance(statement) <= ScorePageRelevance(prose) {
		t.Errorf("statement page must outrank commentary: %v vs %v",
			ScorePageRelevance(statement), ScorePageRelevance(prose))
	}
}

func TestScorePageRelevance_ChineseStatementSignals(t *testing.T) {
	page := "合并资产负债表\n流动资产合计 1,234\n归属于上市公司股东的净利润"
	if got := ScorePageRelevance(page); got < strongSignalBonus {
		t.Errorf("Chinese statement page scored %v, want at least one strong signal", got)
	}
}

func TestScorePageRelevance_CaseInsensitive(t *testing.T) {
	lower := "consolidated statements of cash flows"
	if got := ScorePageRelevance(lower); got < strongSignalBonus {
		t.Errorf("lowercase header scored %v, want strong signal match", got)
	}
}

func TestScorePageRelevance_BoundedPreview(t *testing.T) {
	// Signals past the preview limit must not count.
	page := strings.Repeat("x", relevancePreviewLimit) + " CONSOLIDATED BALANCE SHEET"
	if got := ScorePageRelevance(page); got >= strongSignalBonus {
		t.Errorf("signal beyond preview limit counted: %v", got)
	}
}
