package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultOutputDir is where result files go when no path is given
const DefaultOutputDir = "parser-output"

// Format selects how findings are serialized
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatText
)

// Finding is one extracted login/password pair and the page it came from
type Finding struct {
	Login    string `json:"login" yaml:"login"`
	Password string `json:"password" yaml:"password"`
	URL      string `json:"url" yaml:"url"`
}

// Writer collects findings and writes them to a file on Close
type Writer struct {
	path     string
	format   Format
	mu       sync.Mutex
	findings []Finding
	closed   bool
}

// DefaultOutputPath names a result file after the launch time
func DefaultOutputPath(launch time.Time) string {
	return filepath.Join(DefaultOutputDir, launch.Format("02-01-2006-15-04-05")+".yml")
}

/*
   Creates a writer whose format is determined by the file extension:
   .json gives an array of objects, .txt one "login:password url" per line,
   anything else the column layout keyed by row number
*/
func NewWriter(outputPath string) (*Writer, error) {
	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %v", err)
		}
	}

	// fail early on unwritable paths instead of after a long crawl
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %v", err)
	}
	file.Close()

	return &Writer{
		path:   outputPath,
		format: formatFromPath(outputPath),
	}, nil
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".txt":
		return FormatText
	default:
		return FormatYAML
	}
}

func (w *Writer) Path() string {
	return w.path
}

// WriteFinding records a finding. Findings without a login are dropped.
func (w *Writer) WriteFinding(f Finding) error {
	if f.Login == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer for %s is closed", w.path)
	}
	w.findings = append(w.findings, f)
	return nil
}

func (w *Writer) GetCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.findings)
}

// Close serializes every recorded finding to the output file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	data, err := encodeFindings(w.findings, w.format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %v", err)
	}
	return nil
}

// columns is the on-disk YAML layout: one map per field, keyed by row number from 1
type columns struct {
	Login    map[int]string `yaml:"login"`
	Password map[int]string `yaml:"password"`
	URL      map[int]string `yaml:"url"`
}

func encodeFindings(findings []Finding, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if findings == nil {
			findings = []Finding{}
		}
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %v", err)
		}
		return append(data, '\n'), nil

	case FormatText:
		var sb strings.Builder
		for _, f := range findings {
			fmt.Fprintf(&sb, "%s:%s %s\n", f.Login, f.Password, f.URL)
		}
		return []byte(sb.String()), nil

	default:
		cols := columns{
			Login:    make(map[int]string, len(findings)),
			Password: make(map[int]string, len(findings)),
			URL:      make(map[int]string, len(findings)),
		}
		for i, f := range findings {
			cols.Login[i+1] = f.Login
			cols.Password[i+1] = f.Password
			cols.URL[i+1] = f.URL
		}
		data, err := yaml.Marshal(cols)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %v", err)
		}
		return data, nil
	}
}

// ReadFindings loads a YAML or JSON result file back into findings
func ReadFindings(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch formatFromPath(path) {
	case FormatJSON:
		var findings []Finding
		if err := json.Unmarshal(data, &findings); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %v", err)
		}
		return findings, nil
	case FormatText:
		return nil, fmt.Errorf("reading text output is not supported")
	}

	var cols columns
	if err := yaml.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %v", err)
	}

	findings := make([]Finding, 0, len(cols.Login))
	for row := 1; row <= len(cols.Login); row++ {
		findings = append(findings, Finding{
			Login:    cols.Login[row],
			Password: cols.Password[row],
			URL:      cols.URL[row],
		})
	}
	return findings, nil
}
