package extraction

import (
	"fmt"
	"os"
	"sort"
	"strings"

	dslipak "github.com/dslipak/pdf"
	"github.com/gen2brain/go-fitz"
	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/finsight-io/finsight/internal/common"
	"github.com/finsight-io/finsight/internal/models"
)

// Page-selection tuning. Long documents are sampled and scored instead of
// read front to back; statement tables cluster in the middle-to-back of
// annual reports.
const (
	maxSampledPages  = 24
	headSamplePages  = 4
	tailSamplePages  = 2
	truncationMarker = "\n..."
	previewCharLimit = relevancePreviewLimit
)

// textBackend is one text-layer extraction strategy. Backends are tried in
// order; the next stage runs only when the previous one produced empty or
// garbled output.
type textBackend interface {
	name() string
	// pageCount returns the total page count, or an error if the document
	// cannot be opened by this backend.
	pageCount(path string) (int, error)
	// pageText returns the text layer of a 1-based page.
	pageText(path string, page int) (string, error)
}

// --- ledongthuc/pdf (primary) ---

type ledongthucBackend struct{}

func (ledongthucBackend) name() string { return "ledongthuc" }

func (ledongthucBackend) pageCount(path string) (int, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

func (ledongthucBackend) pageText(path string, page int) (string, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	p := r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// --- dslipak/pdf (secondary) ---
// Independent parser with a different failure envelope on malformed
// xref tables and font dictionaries.

type dslipakBackend struct{}

func (dslipakBackend) name() string { return "dslipak" }

func (dslipakBackend) pageCount(path string) (int, error) {
	r, err := dslipak.Open(path)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

func (dslipakBackend) pageText(path string, page int) (string, error) {
	r, err := dslipak.Open(path)
	if err != nil {
		return "", err
	}
	p := r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// --- go-fitz / MuPDF (tertiary) ---

type fitzBackend struct{}

func (fitzBackend) name() string { return "mupdf" }

func (fitzBackend) pageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

func (fitzBackend) pageText(path string, page int) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()
	// go-fitz pages are 0-based
	return doc.Text(page - 1)
}

// PageTextExtractor reads the text layer of a PDF through a ranked cascade
// of backends, selecting the pages most likely to hold statement tables.
type PageTextExtractor struct {
	backends []textBackend
	logger   *common.Logger
}

// NewPageTextExtractor resolves the backend list once at construction.
func NewPageTextExtractor(logger *common.Logger) *PageTextExtractor {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &PageTextExtractor{
		backends: []textBackend{ledongthucBackend{}, dslipakBackend{}, fitzBackend{}},
		logger:   logger,
	}
}

// TextResult is the outcome of a text-layer extraction attempt.
type TextResult struct {
	Text         string
	Source       string // backend that produced the accepted text
	Garbled      bool   // true when every stage produced garbled output
	PagesScanned int
}

// Extract returns raw text for the selected pages of the document. The
// first backend producing non-empty, non-garbled output wins; when all
// stages fail the best garbled candidate is returned with Garbled set so
// the caller can decide on OCR. fastOnly restricts the cascade to the
// primary backend to bound latency and memory in sandboxed workers.
func (e *PageTextExtractor) Extract(path string, maxPages, maxChars int, fastOnly bool) (TextResult, error) {
	if _, err := os.Stat(path); err != nil {
		return TextResult{}, fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	if maxPages <= 0 {
		maxPages = 20
	}
	if maxChars <= 0 {
		maxChars = 80000
	}

	backends := e.backends
	if fastOnly {
		backends = backends[:1]
	}

	var garbledBest TextResult
	for _, b := range backends {
		text, pages, err := e.extractWith(b, path, maxPages)
		if err != nil {
			e.logger.Debug().Str("backend", b.name()).Err(err).Msg("Text backend failed")
			continue
		}

		text = stripControlChars(text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if IsGarbledText(text) {
			e.logger.Debug().Str("backend", b.name()).Int("chars", len(text)).Msg("Backend output garbled")
			if len(text) > len(garbledBest.Text) {
				garbledBest = TextResult{Text: truncate(text, maxChars), Source: b.name(), Garbled: true, PagesScanned: pages}
			}
			continue
		}

		e.logger.Debug().
			Str("backend", b.name()).
			Int("pages", pages).
			Int("chars", len(text)).
			Msg("Text layer accepted")
		return TextResult{Text: truncate(text, maxChars), Source: b.name(), PagesScanned: pages}, nil
	}

	return garbledBest, nil
}

// extractWith reads the selected pages through one backend.
func (e *PageTextExtractor) extractWith(b textBackend, path string, maxPages int) (string, int, error) {
	total, err := b.pageCount(path)
	if err != nil {
		return "", 0, err
	}
	if total == 0 {
		return "", 0, fmt.Errorf("document has no pages")
	}

	pages := e.selectPages(b, path, total, maxPages)

	var sb strings.Builder
	read := 0
	for _, p := range pages {
		t, err := b.pageText(path, p)
		if err != nil {
			// A single unreadable page never aborts the document.
			continue
		}
		if strings.TrimSpace(t) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(t)
		read++
	}
	return sb.String(), read, nil
}

// selectPages picks which pages to read. Short documents are read
// sequentially from the start; long ones are sampled and ranked by
// relevance, with a deterministic sequential fill so at least maxPages
// pages are always selected even when nothing scores positively.
func (e *PageTextExtractor) selectPages(b textBackend, path string, total, maxPages int) []int {
	if total <= maxPages {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	sampled := samplePages(total, maxSampledPages)

	type scored struct {
		page  int
		score float64
	}
	candidates := make([]scored, 0, len(sampled))
	for _, p := range sampled {
		preview, err := b.pageText(path, p)
		if err != nil {
			continue
		}
		if r := []rune(preview); len(r) > previewCharLimit {
			preview = string(r[:previewCharLimit])
		}
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
	for _, c := range candidates {
		if len(pages) >= maxPages {
			break
		}
		if !selected[c.page] {
			selected[c.page] = true
			pages = append(pages, c.page)
		}
	}

	// Deterministic fill from the front when sampling under-delivers.
	for p := 1; len(pages) < maxPages && p <= total; p++ {
		if !selected[p] {
			selected[p] = true
			pages = append(pages, p)
		}
	}

	sort.Ints(pages)
	return pages
}

// samplePages returns the first/last few pages plus evenly spaced samples.
func samplePages(total, limit int) []int {
	selected := make(map[int]bool)
	var pages []int
	add := func(p int) {
		if p >= 1 && p <= total && !selected[p] {
			selected[p] = true
			pages = append(pages, p)
		}
	}

	for i := 1; i <= headSamplePages; i++ {
		add(i)
	}
	for i := 0; i < tailSamplePages; i++ {
		add(total - i)
	}

	remaining := limit - len(pages)
	if remaining > 0 {
		step := total / (remaining + 1)
		if step < 1 {
			step = 1
		}
		for p := step; p <= total && len(pages) < limit; p += step {
			add(p)
		}
	}

	sort.Ints(pages)
	return pages
}

// truncate bounds text to maxChars with an explicit truncation marker.
func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + truncationMarker
}
