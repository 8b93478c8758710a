package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/interfaces"
	"github.com/finsight-io/finsight/internal/models"
)

func newTestService(llm interfaces.LLMClient) *Service {
	return NewService(common.NewDefaultConfig(), common.NewSilentLogger(), llm, nil)
}

// stubBackend feeds scripted text into the cascade so pipeline tests do not
// need a parseable PDF on disk.
type stubBackend struct{ text string }

func (stubBackend) name() string { return "stub" }

func (stubBackend) pageCount(path string) (int, error) { return 1, nil }

func (s stubBackend) pageText(path string, page int) (string, error) { return s.text, nil }

func TestExtractFinancials_MissingDocument(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.ExtractFinancials(context.Background(), "/no/such/file.pdf", models.ExtractOptions{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestExtractFinancials_ForceAIWithoutCredential(t *testing.T) {
	svc := newTestService(&fakeLLM{hasKey: false})

	// Path check runs first, so point at a file that exists.
	tmp := filepath.Join(t.TempDir(), "empty.pdf")
	if err := os.WriteFile(tmp, []byte("%PDF-1.4 stub"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ExtractFinancials(context.Background(), tmp, models.ExtractOptions{ForceAI: true})
	if !errors.Is(err, models.ErrMissingCredential) {
		t.Errorf("err = %v, want ErrMissingCredential", err)
	}
}

func TestExtractFinancials_ForceAIMalformedModelOutput(t *testing.T) {
	svc := newTestService(&fakeLLM{hasKey: true, response: "I could not find any figures."})
	svc.pageText.backends = []textBackend{stubBackend{
		text: strings.Repeat("Total net sales $1,234 and net income $100 for the year. ", 6),
	}}

	tmp := filepath.Join(t.TempDir(), "filing.pdf")
	if err := os.WriteFile(tmp, []byte("%PDF-1.4 stub"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ExtractFinancials(context.Background(), tmp, models.ExtractOptions{ForceAI: true})
	if !errors.Is(err, models.ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestOCRPermitted_ExplicitEnableOverridesFastOnly(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.OCR.Enabled = true
	svc := NewService(cfg, common.NewSilentLogger(), nil, &fakeOCREngine{available: true})

	if !svc.ocrPermitted(true, "/any.pdf") {
		t.Errorf("explicitly enabled OCR must survive fast-only mode")
	}

	svc = NewService(common.NewDefaultConfig(), common.NewSilentLogger(), nil, &fakeOCREngine{available: true})
	if svc.ocrPermitted(true, "/any.pdf") {
		t.Errorf("fast-only without explicit enable must skip OCR")
	}
}

func TestExtractFinancials_FastOnlyConsultsOCRWhenEnabled(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.OCR.Enabled = true
	engine := &fakeOCREngine{available: true}
	svc := NewService(cfg, common.NewSilentLogger(), nil, engine)
	svc.pageText.backends = []textBackend{stubBackend{
		text: strings.Repeat("(cid:12)(cid:34) ", 30), // unusable text layer
	}}

	tmp := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(tmp, []byte("%PDF-1.4 stub"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ExtractFinancials(context.Background(), tmp, models.ExtractOptions{FastOnly: true})
	if err != nil {
		t.Fatalf("ExtractFinancials: %v", err)
	}
	if engine.probed == 0 {
		t.Errorf("fast-only with OCR enabled must still reach the OCR guards")
	}
}

func TestServiceComputeMetrics_FiltersImplausible(t *testing.T) {
	svc := newTestService(nil)

	f := &models.ExtractedFinancials{
		Revenue:           fptr(1000),
		NetProfit:         fptr(100),
		GrossMarginDirect: fptr(150), // outside the [-50, 100] band
	}
	metrics := svc.ComputeMetrics(f)

	for _, m := range metrics {
		if m.Code == models.MetricGrossMargin {
			t.Errorf("implausible GROSS_MARGIN %v survived the filter", m.Value)
		}
	}
}

func TestServiceComputeMetrics_RawPassThrough(t *testing.T) {
	svc := newTestService(nil)

	f := &models.ExtractedFinancials{
		Revenue:   fptr(1234),
		NetProfit: fptr(100),
		Cash:      fptr(50),
	}
	metrics := svc.ComputeMetrics(f)

	byCode := make(map[models.MetricCode]models.StandardizedMetric)
	for _, m := range metrics {
		byCode[m.Code] = m
	}

	if byCode[models.MetricRawRevenue].Value != 1234 {
		t.Errorf("IS.REVENUE = %v, want 1234", byCode[models.MetricRawRevenue].Value)
	}
	if byCode[models.MetricRawCash].Value != 50 {
		t.Errorf("BS.CASH = %v, want 50", byCode[models.MetricRawCash].Value)
	}
	if _, ok := byCode[models.MetricRawAssets]; ok {
		t.Errorf("BS.ASSET_TOTAL emitted without a value")
	}
	// Ratios carry units; raw amounts do not.
	if byCode[models.MetricNetMargin].Unit != "%" {
		t.Errorf("NET_MARGIN unit = %q, want %%", byCode[models.MetricNetMargin].Unit)
	}
	if byCode[models.MetricRawRevenue].Unit != "" {
		t.Errorf("IS.REVENUE unit = %q, want empty", byCode[models.MetricRawRevenue].Unit)
	}
}

func TestServiceComputeMetrics_EmptyFinancials(t *testing.T) {
	svc := newTestService(nil)
	if metrics := svc.ComputeMetrics(&models.ExtractedFinancials{}); len(metrics) != 0 {
		t.Errorf("empty struct produced metrics: %v", metrics)
	}
}
