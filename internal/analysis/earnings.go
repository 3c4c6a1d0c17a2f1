package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seenimoa/marketlens/internal/filecache"
	"github.com/seenimoa/marketlens/internal/llm"
	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

const (
	transcriptExt = ".pdf"
	cacheSuffix   = "_analysis.json"
)

var (
	// ErrInvalidFilename is returned for a filename that is not a plain PDF
	// name inside the ticker directory.
	ErrInvalidFilename = errors.New("invalid earnings-call filename")
	// ErrFileNotFound is returned when the transcript PDF does not exist.
	ErrFileNotFound = errors.New("earnings-call file not found")
	// ErrInvalidTicker is returned for a ticker that cannot name a directory.
	ErrInvalidTicker = errors.New("invalid ticker")
)

// EarningsConfig locates transcripts and controls cache pruning.
type EarningsConfig struct {
	Root          string        `mapstructure:"root" yaml:"root" validate:"required"`
	CacheMaxAge   time.Duration `mapstructure:"cache_max_age" yaml:"cache_max_age"`
	PruneSchedule string        `mapstructure:"prune_schedule" yaml:"prune_schedule"`
}

// DefaultEarningsConfig reads transcripts from ./earningcall and keeps
// analyses for 90 days.
func DefaultEarningsConfig() EarningsConfig {
	return EarningsConfig{
		Root:          "earningcall",
		CacheMaxAge:   90 * 24 * time.Hour,
		PruneSchedule: "@daily",
	}
}

// TextExtractor pulls plain text out of a transcript file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// EarningsAnalyzer lists transcript PDFs and turns them into cached reports.
type EarningsAnalyzer struct {
	cfg       EarningsConfig
	llm       llm.Provider
	extractor TextExtractor
	store     *filecache.Store
	language  string
	log       zerolog.Logger
	now       func() time.Time
}

// NewEarningsAnalyzer creates an analyzer over cfg.Root.
func NewEarningsAnalyzer(cfg EarningsConfig, provider llm.Provider, extractor TextExtractor, store *filecache.Store, language string, log zerolog.Logger) *EarningsAnalyzer {
	if cfg.Root == "" {
		cfg.Root = DefaultEarningsConfig().Root
	}
	if store == nil {
		store = filecache.NewStore()
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &EarningsAnalyzer{
		cfg:       cfg,
		llm:       provider,
		extractor: extractor,
		store:     store,
		language:  language,
		log:       log.With().Str("component", "earnings-analysis").Logger(),
		now:       time.Now,
	}
}

// Root returns the transcript directory.
func (e *EarningsAnalyzer) Root() string { return e.cfg.Root }

// ListEarningCalls returns the ticker's transcripts, newest period first.
// A ticker without a directory has no transcripts.
func (e *EarningsAnalyzer) ListEarningCalls(ticker string) ([]models.EarningCallFile, error) {
	dir, err := e.tickerDir(ticker)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.EarningCallFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list earnings calls for %s: %w", ticker, err)
	}

	files := make([]models.EarningCallFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), transcriptExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.EarningCallFile{
			Filename:   name,
			Period:     PeriodFromFilename(name),
			Link:       "/earningcall/" + ticker + "/" + name,
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
			HasCache:   e.store.Exists(CachePath(filepath.Join(dir, name))),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename > files[j].Filename })
	return files, nil
}

// TranscriptPath resolves a transcript inside the ticker directory.
func (e *EarningsAnalyzer) TranscriptPath(ticker, filename string) (string, error) {
	dir, err := e.tickerDir(ticker)
	if err != nil {
		return "", err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) ||
		filename == "." || filename == ".." || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(dir, filename), nil
}

// AnalyzeEarningCall returns the analysis for one transcript. A stored
// analysis is reused unless refresh is set. Concurrent calls for the same
// file run the model once.
func (e *EarningsAnalyzer) AnalyzeEarningCall(ctx context.Context, ticker, filename string, refresh bool) (*models.EarningCallAnalysis, error) {
	pdfPath, err := e.TranscriptPath(ticker, filename)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(filename), transcriptExt) {
		return nil, fmt.Errorf("%w: %q is not a pdf", ErrInvalidFilename, filename)
	}
	if _, err := os.Stat(pdfPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, fmt.Errorf("stat %s: %w", filename, err)
	}

	cachePath := CachePath(pdfPath)
	unlock := e.store.Lock(cachePath)
	defer unlock()

	log := e.log.With().Str("ticker", ticker).Str("file", filename).Logger()

	if !refresh {
		var cached models.EarningCallAnalysis
		ok, err := e.store.Load(cachePath, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring unreadable analysis cache")
		}
		if ok {
			log.Debug().Msg("analysis cache hit")
			cached.Cached = true
			cached.CacheDate = cached.AnalyzedAt.Format(time.RFC3339)
			return &cached, nil
		}
	}

	if e.llm == nil {
		return nil, llm.ErrNoProviders
	}
	text, err := e.extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	period := PeriodFromFilename(filename)
	out, err := e.llm.Generate(ctx, EarningsCallSystemPrompt(e.language), EarningsCallPrompt(ticker, period, text))
	if err != nil {
		return nil, fmt.Errorf("analyze earnings call %s %s: %w", ticker, period, err)
	}

	result := &models.EarningCallAnalysis{
		ID:         uuid.NewString(),
		Ticker:     ticker,
		Period:     period,
		Filename:   filename,
		Content:    out.Text,
		Model:      out.Model,
		TextLength: len([]rune(text)),
		AnalyzedAt: e.now().UTC().Truncate(time.Second),
	}
	if err := e.store.Save(cachePath, result); err != nil {
		log.Warn().Err(err).Msg("failed to store analysis")
	}
	log.Info().Str("model", out.Model).Dur("latency", out.Latency).Int("chars", result.TextLength).Msg("earnings call analysed")
	return result, nil
}

// PruneJob returns the scheduled job that expires stored analyses.
func (e *EarningsAnalyzer) PruneJob() *filecache.PruneJob {
	return &filecache.PruneJob{Root: e.cfg.Root, Suffix: cacheSuffix, MaxAge: e.cfg.CacheMaxAge}
}

// Schedule returns the cron expression for PruneJob.
func (e *EarningsAnalyzer) Schedule() string { return e.cfg.PruneSchedule }

func (e *EarningsAnalyzer) tickerDir(ticker string) (string, error) {
	if !utils.ValidTicker(ticker) || strings.Contains(ticker, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return filepath.Join(e.cfg.Root, ticker), nil
}

// CachePath is where the analysis of the transcript at pdfPath is stored.
func CachePath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + cacheSuffix
}

// PeriodFromFilename turns "2024-Q4.pdf" into "2024 Q4".
func PeriodFromFilename(name string) string {
	return strings.ReplaceAll(strings.TrimSuffix(name, filepath.Ext(name)), "-", " ")
}
