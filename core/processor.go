package core

import (
	"sync"
	"time"

	"github.com/rafabd1/LPParser/config"
	"github.com/rafabd1/LPParser/core/extractor"
	"github.com/rafabd1/LPParser/core/page"
	"github.com/rafabd1/LPParser/output"
	"github.com/rafabd1/LPParser/utils"
)

// Processor turns fetched pages into findings
type Processor struct {
	extractor  *extractor.Extractor
	exceptions extractor.ExceptionSet
	logger     *output.Logger

	// release year filter, nil accepts every page
	acceptYear   func(int) bool
	fallbackYear int

	mu    sync.Mutex
	stats ProcessorStats
}

// NewProcessor creates a processor without a release year filter
func NewProcessor(ext *extractor.Extractor, exceptions extractor.ExceptionSet, logger *output.Logger) *Processor {
	if ext == nil {
		ext = extractor.Default()
	}
	return &Processor{
		extractor:  ext,
		exceptions: exceptions,
		logger:     logger,
	}
}

// NewProcessorFromConfig wires patterns, exceptions and the release filter from cfg
func NewProcessorFromConfig(cfg *config.Configuration, logger *output.Logger) (*Processor, error) {
	ext, err := cfg.Extractor()
	if err != nil {
		return nil, utils.NewError(utils.ConfigError, "failed to compile patterns", err)
	}

	p := NewProcessor(ext, cfg.ExceptionSet(), logger)
	if cfg.ReleaseDate.Enabled {
		p.SetReleaseFilter(cfg.AcceptsYear, cfg.LaunchTime.Year())
	}
	return p, nil
}

// SetReleaseFilter keeps only pages whose release year passes accept.
// Pages without a date count as fallbackYear.
func (p *Processor) SetReleaseFilter(accept func(int) bool, fallbackYear int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acceptYear = accept
	p.fallbackYear = fallbackYear
}

/*
   ProcessPage parses an HTML page and extracts credentials from its text.
   ok is false when the page was filtered out or holds no login.
*/
func (p *Processor) ProcessPage(body []byte, url string) (finding output.Finding, ok bool, err error) {
	startTime := time.Now()
	defer func() {
		p.mu.Lock()
		p.stats.ProcessingTime += time.Since(startTime)
		p.stats.TotalBytesRead += int64(len(body))
		p.mu.Unlock()
	}()

	doc, err := page.Parse(body)
	if err != nil {
		p.incrementParseErrors()
		return output.Finding{}, false, utils.NewError(utils.ProcessingError, "failed to parse "+url, err)
	}

	if !p.passesReleaseFilter(doc, url) {
		p.mu.Lock()
		p.stats.PagesFiltered++
		p.mu.Unlock()
		return output.Finding{}, false, nil
	}

	finding, ok = p.ProcessLines(doc.Lines(), url)
	if ok {
		p.logger.Debug("Credentials on page %q (%s)", doc.Title(), url)
	}
	return finding, ok, nil
}

func (p *Processor) passesReleaseFilter(doc *page.Page, url string) bool {
	p.mu.Lock()
	accept, fallback := p.acceptYear, p.fallbackYear
	p.mu.Unlock()

	if accept == nil {
		return true
	}

	year, err := doc.ReleaseYear(fallback)
	if err != nil {
		p.logger.Debug("Unreadable release date on %s: %v", url, err)
		return false
	}
	return accept(year)
}

// ProcessLines runs the extractor over already split text
func (p *Processor) ProcessLines(lines []string, url string) (output.Finding, bool) {
	creds := p.extractor.Extract(lines, p.exceptions)

	p.mu.Lock()
	p.stats.PagesProcessed++
	if creds.Found() {
		p.stats.FindingsCount++
	}
	p.mu.Unlock()

	if !creds.Found() {
		return output.Finding{}, false
	}

	return output.Finding{
		Login:    creds.Login,
		Password: creds.Password,
		URL:      url,
	}, true
}

// LoginPattern returns the login pattern in use
func (p *Processor) LoginPattern() string {
	return p.extractor.LoginPattern()
}

func (p *Processor) PasswordPattern() string {
	return p.extractor.PasswordPattern()
}

func (p *Processor) incrementParseErrors() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.ParseErrors++
}

func (p *Processor) GetStats() ProcessorStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
