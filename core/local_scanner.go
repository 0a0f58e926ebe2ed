package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rafabd1/LPParser/core/page"
	"github.com/rafabd1/LPParser/output"
	"github.com/rafabd1/LPParser/utils"
)

const maxLocalFileSize = 10 * 1024 * 1024

// LocalScanner runs the extractor over files on disk
type LocalScanner struct {
	processor   *Processor
	writer      *output.Writer
	logger      *output.Logger
	concurrency int
	stats       LocalScannerStats
	mu          sync.Mutex
}

type LocalScannerStats struct {
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
	SkippedFiles   int
	TotalFindings  int
	TotalBytes     int64
	StartTime      time.Time
	EndTime        time.Time
}

type fileResult struct {
	path    string
	finding output.Finding
	found   bool
	skipped bool
	size    int64
}

// NewLocalScanner creates a scanner. writer may be nil.
func NewLocalScanner(processor *Processor, writer *output.Writer, logger *output.Logger) *LocalScanner {
	return &LocalScanner{
		processor:   processor,
		writer:      writer,
		logger:      logger,
		concurrency: 10,
	}
}

func (s *LocalScanner) SetConcurrency(concurrency int) {
	s.concurrency = max(concurrency, 1)
}

/*
   ScanFiles extracts credentials from every file, walking directories.
   HTML files are read as page text, anything else line by line.
   Findings are returned in path order.
*/
func (s *LocalScanner) ScanFiles(ctx context.Context, inputs []string) ([]output.Finding, error) {
	files, err := collectFiles(inputs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stats = LocalScannerStats{
		TotalFiles: len(files),
		StartTime:  time.Now(),
	}
	s.mu.Unlock()

	s.logger.Info("Found %d local files to scan", len(files))

	pool := utils.NewWorkerPool[fileResult](s.concurrency, 0)
	go func() {
		defer pool.Close()
		for _, file := range files {
			if ctx.Err() != nil {
				return
			}
			path := file
			pool.Submit(func() (fileResult, error) {
				return s.processFile(path)
			})
		}
	}()

	var results []fileResult
	for result := range pool.Results() {
		if result.Err != nil {
			s.logger.Warning("%v", result.Err)
			s.update(func(st *LocalScannerStats) { st.FailedFiles++ })
			continue
		}

		r := result.Value
		s.update(func(st *LocalScannerStats) {
			st.ProcessedFiles++
			st.TotalBytes += r.size
			if r.skipped {
				st.SkippedFiles++
			}
			if r.found {
				st.TotalFindings++
			}
		})
		if r.found {
			results = append(results, r)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	findings := make([]output.Finding, 0, len(results))
	for _, r := range results {
		s.logger.CredentialFound(r.finding.Login, r.finding.Password, r.finding.URL)
		if s.writer != nil {
			if err := s.writer.WriteFinding(r.finding); err != nil {
				s.logger.Error("Failed to record finding from %s: %v", r.path, err)
			}
		}
		findings = append(findings, r.finding)
	}

	s.update(func(st *LocalScannerStats) { st.EndTime = time.Now() })

	return findings, ctx.Err()
}

func (s *LocalScanner) processFile(path string) (fileResult, error) {
	result := fileResult{path: path}

	info, err := os.Stat(path)
	if err != nil {
		return result, fmt.Errorf("cannot access file %s: %v", path, err)
	}
	if info.Size() > maxLocalFileSize {
		return result, fmt.Errorf("file %s is too large (> 10MB)", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read file %s: %v", path, err)
	}
	result.size = int64(len(content))

	if utils.IsBinaryContent(content) {
		s.logger.Debug("Skipping binary content in file: %s", path)
		result.skipped = true
		return result, nil
	}

	var lines []string
	if utils.IsHTMLFile(path) {
		doc, err := page.Parse(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse %s: %v", path, err)
		}
		lines = doc.Lines()
	} else {
		lines = page.LinesFromText(string(content))
	}

	result.finding, result.found = s.processor.ProcessLines(lines, path)
	return result, nil
}

func (s *LocalScanner) update(fn func(*LocalScannerStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}

func (s *LocalScanner) GetStats() LocalScannerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

/*
   Expands directories and removes duplicates so each file is read once
*/
func collectFiles(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("failed to access input file %s: %v", input, err)
		}

		if !info.IsDir() {
			add(filepath.Clean(input))
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %v", input, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
