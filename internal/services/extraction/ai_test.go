package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finsight-io/finsight/internal/models"
)

// fakeLLM scripts the client boundary for pipeline tests.
type fakeLLM struct {
	hasKey   bool
	response string
	err      error
	calls    int
}

func (f *fakeLLM) HasCredential() bool { return f.hasKey }
func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}
func (f *fakeLLM) Ping(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                   { return nil }

func TestNeedsAIEnhancement_FullExtractionSkips(t *testing.T) {
	f := &models.ExtractedFinancials{
		Revenue: fptr(1), NetProfit: fptr(1), TotalAssets: fptr(1),
		TotalEquity: fptr(1), GrossMarginDirect: fptr(1), ROEDirect: fptr(1),
		TotalLiabilities: fptr(1), CurrentAssets: fptr(1), CurrentLiabilities: fptr(1),
	}
	if NeedsAIEnhancement(f) {
		t.Errorf("all nine key fields present, AI pass should be skipped")
	}
}

func TestNeedsAIEnhancement_SparseExtractionTriggers(t *testing.T) {
	// Seven of nine key fields, but three core fields missing.
	f := &models.ExtractedFinancials{
		Revenue: fptr(1), NetProfit: fptr(1), TotalAssets: fptr(1),
		GrossMarginDirect: fptr(1), ROEDirect: fptr(1),
		CurrentAssets: fptr(1), CurrentLiabilities: fptr(1),
	}
	if !NeedsAIEnhancement(f) {
		t.Errorf("sparse extraction should trigger the AI pass")
	}

	if !NeedsAIEnhancement(&models.ExtractedFinancials{}) {
		t.Errorf("empty struct should always trigger")
	}
}

func TestNeedsAIEnhancement_EightKeyFieldsNoCoreGap(t *testing.T) {
	// Eight key fields present with at most two core fields missing: skip.
	f := &models.ExtractedFinancials{
		Revenue: fptr(1), NetProfit: fptr(1), TotalAssets: fptr(1),
		TotalEquity: fptr(1), TotalLiabilities: fptr(1),
		CurrentAssets: fptr(1), CurrentLiabilities: fptr(1),
		GrossMarginDirect: fptr(1),
	}
	if NeedsAIEnhancement(f) {
		t.Errorf("eight key fields with full core should not trigger")
	}
}

func TestAIFieldExtractor_MissingCredential(t *testing.T) {
	ex := NewAIFieldExtractor(&fakeLLM{hasKey: false})

	_, err := ex.Extract(context.Background(), "text", true)
	if !errors.Is(err, models.ErrMissingCredential) {
		t.Errorf("forced mode err = %v, want ErrMissingCredential", err)
	}

	got, err := ex.Extract(context.Background(), "text", false)
	if err != nil || len(got) != 0 {
		t.Errorf("best-effort mode should return empty map, got (%v, %v)", got, err)
	}
}

func TestAIFieldExtractor_MalformedResponse(t *testing.T) {
	llm := &fakeLLM{hasKey: true, response: "I could not find any figures."}
	ex := NewAIFieldExtractor(llm)

	_, err := ex.Extract(context.Background(), "text", true)
	if !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("forced mode err = %v, want ErrMalformedResponse", err)
	}

	got, err := ex.Extract(context.Background(), "text", false)
	if err != nil || len(got) != 0 {
		t.Errorf("best-effort mode should swallow parse failures, got (%v, %v)", got, err)
	}
}

func TestAIFieldExtractor_TruncatesLongInput(t *testing.T) {
	llm := &fakeLLM{hasKey: true, response: `{"revenue": 1}`}
	ex := NewAIFieldExtractor(llm)

	long := strings.Repeat("财", AIInputMaxChars+500)
	if _, err := ex.Extract(context.Background(), long, true); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", llm.calls)
	}
}

func TestParseModelJSON_Clean(t *testing.T) {
	got, err := parseModelJSON(`{"revenue": 1234.5, "net_profit": null}`)
	if err != nil {
		t.Fatalf("parseModelJSON: %v", err)
	}
	if got["revenue"] != 1234.5 {
		t.Errorf("revenue = %v, want 1234.5", got["revenue"])
	}
	if v, ok := got["net_profit"]; !ok || v != nil {
		t.Errorf("net_profit = %v, want explicit null", v)
	}
}

func TestParseModelJSON_CodeFences(t *testing.T) {
	got, err := parseModelJSON("```json\n{\"roe\": 15.2}\n```")
	if err != nil {
		t.Fatalf("parseModelJSON: %v", err)
	}
	if got["roe"] != 15.2 {
		t.Errorf("roe = %v, want 15.2", got["roe"])
	}
}

func TestParseModelJSON_ProseWrapped(t *testing.T) {
	got, err := parseModelJSON(`Here are the figures: {"revenue": 100} Hope this helps!`)
	if err != nil {
		t.Fatalf("parseModelJSON: %v", err)
	}
	if got["revenue"] != 100.0 {
		t.Errorf("revenue = %v, want 100", got["revenue"])
	}
}

func TestParseModelJSON_RepairsTrailingComma(t *testing.T) {
	got, err := parseModelJSON(`{"revenue": 100, "roe": 12,}`)
	if err != nil {
		t.Fatalf("repair path failed: %v", err)
	}
	if got["revenue"] != 100.0 {
		t.Errorf("revenue = %v, want 100", got["revenue"])
	}
}

func TestParseModelJSON_Empty(t *testing.T) {
	if _, err := parseModelJSON("   "); !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}
