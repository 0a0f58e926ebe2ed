package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rafabd1/LPParser/networking"
	"github.com/rafabd1/LPParser/output"
	"github.com/rafabd1/LPParser/utils"
)

const (
	// DefaultConcurrency is the number of pages fetched at once
	DefaultConcurrency = 100

	// DefaultMaxRequeues bounds how often one URL goes back to the queue
	DefaultMaxRequeues = 5
)

// PageFetcher downloads a page body
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Scheduler distributes URLs between workers, backing off hosts that
// rate limit or block and requeueing the URLs they refused
type Scheduler struct {
	domainManager *networking.DomainManager
	client        PageFetcher
	processor     *Processor
	writer        *output.Writer
	logger        *output.Logger
	progressBar   *output.ProgressBar

	concurrency    int
	maxRequeues    int
	rateLimitBlock time.Duration
	wafBlock       time.Duration
	idleWait       time.Duration

	mutex       sync.Mutex
	waitingURLs []string
	inFlight    int
	requeues    map[string]int
	cancel      context.CancelFunc
	waitGroup   sync.WaitGroup
	stats       SchedulerStats
}

// NewScheduler creates a new scheduler instance. writer may be nil.
func NewScheduler(domainManager *networking.DomainManager, client PageFetcher,
	processor *Processor, writer *output.Writer, logger *output.Logger) *Scheduler {

	return &Scheduler{
		domainManager:  domainManager,
		client:         client,
		processor:      processor,
		writer:         writer,
		logger:         logger,
		concurrency:    DefaultConcurrency,
		maxRequeues:    DefaultMaxRequeues,
		rateLimitBlock: 2 * time.Minute,
		wafBlock:       5 * time.Minute,
		idleWait:       100 * time.Millisecond,
		requeues:       make(map[string]int),
		stats: SchedulerStats{
			DomainRetries: make(map[string]int),
		},
	}
}

// SetConcurrency sets the number of concurrent workers
func (s *Scheduler) SetConcurrency(concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	s.concurrency = concurrency
}

// SetMaxRequeues sets how many times a refused URL is retried later
func (s *Scheduler) SetMaxRequeues(n int) {
	s.maxRequeues = max(n, 0)
}

// SetBlockDurations sets the base time a host is avoided after a rate limit or WAF response
func (s *Scheduler) SetBlockDurations(rateLimit, waf time.Duration) {
	s.rateLimitBlock = rateLimit
	s.wafBlock = waf
}

func (s *Scheduler) SetProgressBar(pb *output.ProgressBar) {
	s.progressBar = pb
}

/*
   Schedule processes every URL and returns once the queue is drained or
   ctx is canceled. On cancellation the stats gathered so far are returned
   together with the context error.
*/
func (s *Scheduler) Schedule(ctx context.Context, urls []string) (SchedulerStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mutex.Lock()
	s.cancel = cancel
	s.stats.TotalURLs = len(urls)
	s.stats.StartTime = time.Now()
	s.waitingURLs = append([]string(nil), urls...)
	s.mutex.Unlock()

	filteredBefore := s.processor.GetStats().PagesFiltered
	s.domainManager.GroupURLsByDomain(urls)
	s.logger.Info("Starting to schedule %d URLs across %d domains with %d workers",
		len(urls), s.domainManager.GetDomainCount(), s.concurrency)

	workers := min(s.concurrency, max(len(urls), 1))
	for i := 0; i < workers; i++ {
		s.waitGroup.Add(1)
		go s.worker(ctx, i)
	}
	s.waitGroup.Wait()

	s.mutex.Lock()
	s.stats.EndTime = time.Now()
	s.stats.BlockedDomains = len(s.stats.DomainRetries)
	s.stats.FilteredPages = s.processor.GetStats().PagesFiltered - filteredBefore
	s.mutex.Unlock()

	stats := s.GetStats()
	s.logger.Debug("Scheduler finished: %s", stats)

	if err := ctx.Err(); err != nil && stats.ProcessedURLs < stats.TotalURLs {
		return stats, err
	}
	return stats, nil
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.waitGroup.Done()

	s.logger.Debug("Worker %d started", id)

	for {
		if ctx.Err() != nil {
			s.logger.Debug("Worker %d stopping due to cancellation", id)
			return
		}

		url, state := s.nextURL()
		switch state {
		case queueDone:
			s.logger.Debug("Worker %d stopping: no more URLs to process", id)
			return
		case queueWait:
			if !sleepCtx(ctx, s.idleWait) {
				return
			}
			continue
		}

		s.processURL(ctx, id, url)
		s.release()
	}
}

func (s *Scheduler) processURL(ctx context.Context, id int, url string) {
	domain, err := utils.ExtractDomain(url)
	if err != nil {
		s.logger.Warning("Worker %d: invalid URL %s: %v", id, url, err)
		s.complete(func(st *SchedulerStats) { st.FailedURLs++ })
		return
	}

	if s.domainManager.IsBlocked(domain) {
		s.logger.Debug("Worker %d: domain %s is blocked, requeueing URL %s", id, domain, url)
		s.requeueURL(url)
		sleepCtx(ctx, s.idleWait)
		return
	}

	start := time.Now()
	body, err := s.client.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			s.requeueURL(url)
			return
		}
		s.domainManager.RecordURLProcessed(url, false, time.Since(start))
		s.handleRequestError(id, err, domain, url)
		return
	}
	s.domainManager.RecordURLProcessed(url, true, time.Since(start))

	finding, ok, err := s.processor.ProcessPage(body, url)
	if err != nil {
		s.logger.Error("Worker %d: failed to process content from %s: %v", id, url, err)
		s.complete(func(st *SchedulerStats) { st.FailedURLs++ })
		return
	}

	if !ok {
		s.complete(nil)
		return
	}

	if s.writer != nil {
		if err := s.writer.WriteFinding(finding); err != nil {
			s.logger.Error("Worker %d: failed to record finding from %s: %v", id, url, err)
		}
	}
	s.logger.CredentialFound(finding.Login, finding.Password, url)
	s.complete(func(st *SchedulerStats) { st.TotalFindings++ })
}

/*
   Rate limit and WAF responses block the host and requeue the URL,
   transient errors only requeue it. Everything else is final: missing
   pages and other statuses are skipped quietly, the rest count as failures.
*/
func (s *Scheduler) handleRequestError(id int, err error, domain, url string) {
	switch {
	case utils.IsRateLimitError(err):
		retries := s.incrementDomainRetry(domain, func(st *SchedulerStats) { st.RateLimitHits++ })
		s.logger.Warning("Domain %s is rate limiting, pausing it", domain)
		s.domainManager.AddBlockedDomain(domain, s.rateLimitBlock*time.Duration(retries))
		s.retryLater(url, err)

	case utils.IsWAFError(err):
		retries := s.incrementDomainRetry(domain, func(st *SchedulerStats) { st.WAFBlockHits++ })
		s.logger.Warning("Domain %s is blocking with a WAF, pausing it", domain)
		s.domainManager.AddBlockedDomain(domain, s.wafBlock*time.Duration(retries))
		s.retryLater(url, err)

	case utils.IsNotFoundError(err):
		s.complete(func(st *SchedulerStats) { st.SkippedURLs++ })

	case utils.IsTemporaryError(err):
		s.logger.Debug("Worker %d: temporary error for %s: %v", id, url, err)
		s.retryLater(url, err)

	case utils.IsStatusError(err):
		s.logger.Debug("Worker %d: skipping %s: %v", id, url, err)
		s.complete(func(st *SchedulerStats) { st.SkippedURLs++ })

	default:
		s.logger.Warning("Worker %d: failed to fetch %s: %v", id, url, err)
		s.complete(func(st *SchedulerStats) { st.FailedURLs++ })
	}
}

// retryLater requeues url unless its budget is spent
func (s *Scheduler) retryLater(url string, cause error) {
	s.mutex.Lock()
	s.requeues[url]++
	exhausted := s.requeues[url] > s.maxRequeues
	s.mutex.Unlock()

	if exhausted {
		s.logger.Warning("Giving up on %s after %d attempts: %v", url, s.maxRequeues+1, cause)
		s.complete(func(st *SchedulerStats) { st.FailedURLs++ })
		return
	}

	s.mutex.Lock()
	s.stats.Requeues++
	s.mutex.Unlock()
	s.requeueURL(url)
}

func (s *Scheduler) incrementDomainRetry(domain string, update func(*SchedulerStats)) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	update(&s.stats)
	s.stats.DomainRetries[domain]++
	return s.stats.DomainRetries[domain]
}

// complete marks one URL as done, applying update to the stats
func (s *Scheduler) complete(update func(*SchedulerStats)) {
	s.mutex.Lock()
	s.stats.ProcessedURLs++
	if update != nil {
		update(&s.stats)
	}
	found := s.stats.TotalFindings
	s.mutex.Unlock()

	if s.progressBar != nil {
		s.progressBar.SetSuffix(fmt.Sprintf(" | Found: %d", found))
		s.progressBar.Increment()
	}
}

type queueState int

const (
	queueReady queueState = iota
	queueWait
	queueDone
)

// nextURL pops the next URL. An empty queue is only finished once no
// worker can requeue anymore.
func (s *Scheduler) nextURL() (string, queueState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.waitingURLs) == 0 {
		if s.inFlight > 0 {
			return "", queueWait
		}
		return "", queueDone
	}

	url := s.waitingURLs[0]
	s.waitingURLs = s.waitingURLs[1:]
	s.inFlight++

	return url, queueReady
}

func (s *Scheduler) release() {
	s.mutex.Lock()
	s.inFlight--
	s.mutex.Unlock()
}

func (s *Scheduler) requeueURL(url string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.waitingURLs = append(s.waitingURLs, url)
}

// GetStats returns a copy of the current statistics
func (s *Scheduler) GetStats() SchedulerStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.stats
	stats.DomainRetries = make(map[string]int, len(s.stats.DomainRetries))
	for domain, count := range s.stats.DomainRetries {
		stats.DomainRetries[domain] = count
	}
	return stats
}

// Stop cancels a running Schedule call
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	cancel := s.cancel
	s.mutex.Unlock()

	if cancel != nil {
		s.logger.Info("Stopping scheduler")
		cancel()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
