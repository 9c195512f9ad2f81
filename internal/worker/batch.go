package worker

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

// Analyzer analyzes one document file
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*model.Report, error)
}

// AnalyzeJob analyzes one document. Each job owns its text and facts, so
// jobs share nothing mutable.
type AnalyzeJob struct {
	Path     string
	Analyzer Analyzer
}

func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.AnalyzeFile(ctx, j.Path)
	return &AnalyzeResult{Path: j.Path, Report: report, Error: err}
}

// AnalyzeResult is the outcome for one document
type AnalyzeResult struct {
	Path   string
	Report *model.Report
	Error  error
}

func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many documents in parallel
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	logger      *slog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessDocuments returns one result per path, in input order
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, paths []string) []*AnalyzeResult {
	out := make([]*AnalyzeResult, len(paths))
	if len(paths) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&AnalyzeJob{Path: path, Analyzer: b.analyzer})
	}

	results := pool.Wait()
	for i := range out {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*AnalyzeResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("not analyzed")
		}
		out[i] = &AnalyzeResult{Path: paths[i], Error: err}
	}

	for _, r := range out {
		if r.Error != nil {
			b.logger.Warn("document analysis failed", "path", r.Path, "err", r.Error)
		}
	}
	return out
}

// ProcessFile reads document paths from a list file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*AnalyzeResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read document list: %w", err)
	}
	return b.ProcessDocuments(ctx, paths), nil
}

// ReadPathsFromFile reads one path per line. Blank lines and # comments are
// skipped, duplicates dropped, and relative paths resolved against the list
// file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
