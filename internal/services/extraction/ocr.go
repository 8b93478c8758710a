package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/interfaces"
)

// OCR page budgets. Statements often span two pages, so each selected page
// drags its successor along.
const (
	ocrProbePages   = 8
	ocrTopPages     = 3
	defaultOCRDPI   = 150
	defaultProbeDPI = 90
	// --psm 4: single column of text of variable sizes, the closest match
	// for statement table layouts.
	tesseractPSM = "4"
)

// TesseractEngine shells out to the tesseract binary. Capability is probed
// once at construction; a missing binary degrades every call to empty.
type TesseractEngine struct {
	binary    string
	available bool
	logger    *common.Logger
}

// NewTesseractEngine probes for the tesseract binary on PATH.
func NewTesseractEngine(logger *common.Logger) *TesseractEngine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		logger.Warn().Msg("tesseract not found on PATH, OCR fallback disabled")
		return &TesseractEngine{logger: logger}
	}
	return &TesseractEngine{binary: bin, available: true, logger: logger}
}

// Available reports whether the engine can run on this host.
func (t *TesseractEngine) Available() bool {
	return t.available
}

// Recognize runs tesseract over PNG image bytes. When the combined
// bilingual model is unavailable it retries with each language alone.
func (t *TesseractEngine) Recognize(ctx context.Context, pngData []byte, lang string) (string, error) {
	if !t.available {
		return "", fmt.Errorf("tesseract not available")
	}

	tmp, err := os.CreateTemp("", "finsight-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(pngData); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp image: %w", err)
	}

	langs := []string{lang}
	// combined model missing on minimal installs: retry each half
	if strings.Contains(lang, "+") {
		langs = append(langs, strings.Split(lang, "+")...)
	}

	var lastErr error
	for _, l := range langs {
		out, err := t.run(ctx, tmpPath, l)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (t *TesseractEngine) run(ctx context.Context, imgPath, lang string) (string, error) {
	cmd := exec.CommandContext(ctx, t.binary, imgPath, "stdout", "-l", lang, "--psm", tesseractPSM)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed (%s): %w — %s", lang, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// OCRFallback renders likely statement pages and runs OCR over them when
// the text layer is garbled, empty, or implausibly short. Every failure
// degrades to an empty string: OCR is a best-effort enhancement, never a
// reason to abort the pipeline.
type OCRFallback struct {
	cfg    common.OCRConfig
	engine interfaces.OCREngine
	logger *common.Logger
}

// NewOCRFallback wires the fallback with its guards.
func NewOCRFallback(cfg common.OCRConfig, engine interfaces.OCREngine, logger *common.Logger) *OCRFallback {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaultOCRDPI
	}
	if cfg.ProbeDPI <= 0 {
		cfg.ProbeDPI = defaultProbeDPI
	}
	if cfg.MaxOCRPages <= 0 {
		cfg.MaxOCRPages = 6
	}
	if cfg.Language == "" {
		cfg.Language = "chi_sim+eng"
	}
	return &OCRFallback{cfg: cfg, engine: engine, logger: logger}
}

// Allowed evaluates the guard conditions for a document. Explicit enable
// always allows OCR; auto-fallback mode is subject to file-size and
// page-count budgets so a pathological upload cannot pin a worker.
func (o *OCRFallback) Allowed(path string) bool {
	if o.engine == nil || !o.engine.Available() {
		return false
	}
	if o.cfg.Enabled {
		return true
	}
	if !o.cfg.AutoFallback {
		return false
	}

	if o.cfg.MaxFileMB > 0 {
		if info, err := os.Stat(path); err != nil || info.Size() > int64(o.cfg.MaxFileMB)*1024*1024 {
			return false
		}
	}
	if o.cfg.MaxPageCount > 0 {
		doc, err := fitz.New(path)
		if err != nil {
			return false
		}
		total := doc.NumPage()
		doc.Close()
		if total > o.cfg.MaxPageCount {
			return false
		}
	}
	return true
}

// Run OCRs the most relevant pages of the document and concatenates their
// text with blank-line separators. Returns empty on any failure.
func (o *OCRFallback) Run(ctx context.Context, path string) string {
	doc, err := fitz.New(path)
	if err != nil {
		o.logger.Warn().Err(err).Str("path", filepath.Base(path)).Msg("OCR render open failed")
		return ""
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return ""
	}

	pages := o.selectPages(ctx, doc, total)

	var texts []string
	for _, p := range pages {
		text := o.ocrPage(ctx, doc, p, o.cfg.DPI, o.cfg.Language)
		if strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	}

	out := strings.Join(texts, "\n\n")
	if IsGarbledText(out) && !hasEnglishStatementKeywords(out) {
		o.logger.Debug().Int("pages", len(pages)).Msg("OCR output still garbled, discarding")
		return ""
	}
	return out
}

// selectPages probes a sampled page set at low DPI, scores the OCR text
// for statement relevance, and returns the top pages plus their immediate
// successors, capped at the configured budget.
func (o *OCRFallback) selectPages(ctx context.Context, doc *fitz.Document, total int) []int {
	if total <= o.cfg.MaxOCRPages {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	sampled := samplePages(total, ocrProbePages)

	type scored struct {
		page  int
		score float64
	}
	var candidates []scored
	for _, p := range sampled {
		preview := o.ocrPage(ctx, doc, p, o.cfg.ProbeDPI, "eng")
		candidates = append(candidates, scored{page: p, score: ScorePageRelevance(preview)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].page < candidates[j].page
	})

	selected := make(map[int]bool)
	var pages []int
	add := func(p int) {
		if p >= 1 && p <= total && !selected[p] && len(pages) < o.cfg.MaxOCRPages {
			selected[p] = true
			pages = append(pages, p)
		}
	}
	for i := 0; i < len(candidates) && i < ocrTopPages; i++ {
		add(candidates[i].page)
		add(candidates[i].page + 1) // statements often span two pages
	}
	// fill from the front if probing produced nothing usable
	for p := 1; len(pages) < o.cfg.MaxOCRPages && p <= total; p++ {
		add(p)
	}

	sort.Ints(pages)
	return pages
}

// ocrPage renders one 1-based page to PNG and recognizes it.
func (o *OCRFallback) ocrPage(ctx context.Context, doc *fitz.Document, page, dpi int, lang string) string {
	img, err := doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		o.logger.Debug().Int("page", page).Err(err).Msg("Page render failed")
		return ""
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ""
	}

	text, err := o.engine.Recognize(ctx, buf.Bytes(), lang)
	if err != nil {
		o.logger.Debug().Int("page", page).Err(err).Msg("OCR failed")
		return ""
	}
	return text
}
