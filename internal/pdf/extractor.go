// Package pdf extracts plain text from PDF transcripts using pdfcpu.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

// MinTextLength is the shortest extraction that is still worth analysing.
// Scanned PDFs without a text layer fall below it.
const MinTextLength = 100

// ErrTooLittleText is returned when a PDF yields less than MinTextLength
// characters of text.
var ErrTooLittleText = errors.New("pdf: not enough text extracted")

var contentFileRe = regexp.MustCompile(`Content_page_(\d+)`)

// Extractor pulls the text layer out of PDF files.
type Extractor struct {
	tempDir string
	log     zerolog.Logger
}

// NewExtractor creates an extractor that stages page content under the
// system temp directory.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{
		tempDir: os.TempDir(),
		log:     log.With().Str("component", "pdf").Logger(),
	}
}

// ExtractText returns the text of every page in order, separated by blank
// lines.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("pdf: read %s: %w", filepath.Base(path), err)
	}

	outDir, err := os.MkdirTemp(e.tempDir, "marketlens-pdf-*")
	if err != nil {
		return "", fmt.Errorf("pdf: staging dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("pdf: extract content: %w", err)
	}
	pages, err := readPages(outDir)
	if err != nil {
		return "", err
	}

	text := joinPages(pages)
	e.log.Debug().
		Str("file", filepath.Base(path)).
		Int("pages", pdfCtx.PageCount).
		Int("chars", len(text)).
		Msg("extracted pdf text")

	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		return "", fmt.Errorf("%w: %s", ErrTooLittleText, filepath.Base(path))
	}
	return text, nil
}

// readPages loads the per-page content streams pdfcpu wrote to dir and
// converts each to text, keyed by page number.
func readPages(dir string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pdf: read staging dir: %w", err)
	}
	pages := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := contentFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("pdf: read page %d: %w", n, err)
		}
		// A page can have several content streams.
		if prev, ok := pages[n]; ok {
			pages[n] = prev + "\n" + ContentText(data)
		} else {
			pages[n] = ContentText(data)
		}
	}
	return pages, nil
}

// joinPages concatenates non-empty pages in page order.
func joinPages(pages map[int]string) string {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		t := strings.TrimSpace(pages[n])
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
	}
	return b.String()
}
