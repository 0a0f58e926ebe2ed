package core

import (
	"fmt"
	"time"
)

// ProcessorStats tracks what happened to the pages handed to a Processor
type ProcessorStats struct {
	PagesProcessed int
	PagesFiltered  int
	ParseErrors    int
	FindingsCount  int
	TotalBytesRead int64
	ProcessingTime time.Duration
}

// SchedulerStats contains statistics about a crawl
type SchedulerStats struct {
	TotalURLs      int
	ProcessedURLs  int
	SkippedURLs    int
	FailedURLs     int
	FilteredPages  int
	TotalFindings  int
	RateLimitHits  int
	WAFBlockHits   int
	BlockedDomains int
	Requeues       int
	DomainRetries  map[string]int
	StartTime      time.Time
	EndTime        time.Time
}

// Duration returns how long the crawl ran, or has been running
func (s SchedulerStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s SchedulerStats) String() string {
	return fmt.Sprintf("%d/%d URLs processed, %d skipped, %d failed, %d filtered, %d findings",
		s.ProcessedURLs, s.TotalURLs, s.SkippedURLs, s.FailedURLs, s.FilteredPages, s.TotalFindings)
}
