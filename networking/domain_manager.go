package networking

import (
	"sort"
	"sync"
	"time"

	"github.com/rafabd1/LPParser/utils"
)

// DomainManager tracks per-host statistics and temporary blocks
type DomainManager struct {
	domains        map[string]int
	blockedDomains map[string]time.Time
	domainStats    map[string]*DomainStats
	now            func() time.Time
	mu             sync.RWMutex
}

type DomainStats struct {
	TotalURLs           int
	ProcessedURLs       int
	FailedURLs          int
	SuccessfulURLs      int
	LastAccessTime      time.Time
	AverageResponseTime time.Duration
	TotalBlocks         int
}

func NewDomainManager() *DomainManager {
	return &DomainManager{
		domains:        make(map[string]int),
		blockedDomains: make(map[string]time.Time),
		domainStats:    make(map[string]*DomainStats),
		now:            time.Now,
	}
}

// GroupURLsByDomain counts URLs per host. Invalid URLs are ignored.
func (dm *DomainManager) GroupURLsByDomain(urls []string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.domains = make(map[string]int)

	for _, url := range urls {
		domain, err := utils.ExtractDomain(url)
		if err != nil {
			continue
		}

		dm.domains[domain]++

		if _, exists := dm.domainStats[domain]; !exists {
			dm.domainStats[domain] = &DomainStats{}
		}
		dm.domainStats[domain].TotalURLs++
	}
}

func (dm *DomainManager) AddBlockedDomain(domain string, duration time.Duration) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.blockedDomains[domain] = dm.now().Add(duration)

	if stats, exists := dm.domainStats[domain]; exists {
		stats.TotalBlocks++
	}
}

func (dm *DomainManager) IsBlocked(domain string) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	return dm.isBlockedNoLock(domain)
}

// BlockedUntil returns when the block on domain expires, zero if not blocked
func (dm *DomainManager) BlockedUntil(domain string) time.Time {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if !dm.isBlockedNoLock(domain) {
		return time.Time{}
	}
	return dm.blockedDomains[domain]
}

func (dm *DomainManager) isBlockedNoLock(domain string) bool {
	expiry, exists := dm.blockedDomains[domain]
	if !exists {
		return false
	}

	if dm.now().After(expiry) {
		delete(dm.blockedDomains, domain)
		return false
	}

	return true
}

func (dm *DomainManager) RecordURLProcessed(url string, success bool, responseTime time.Duration) {
	domain, err := utils.ExtractDomain(url)
	if err != nil {
		return
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	stats, exists := dm.domainStats[domain]
	if !exists {
		return
	}

	stats.ProcessedURLs++
	stats.LastAccessTime = dm.now()

	if !success {
		stats.FailedURLs++
		return
	}

	stats.SuccessfulURLs++
	if stats.AverageResponseTime == 0 {
		stats.AverageResponseTime = responseTime
	} else {
		stats.AverageResponseTime = (stats.AverageResponseTime*3 + responseTime) / 4
	}
}

func (dm *DomainManager) GetDomainCount() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	return len(dm.domains)
}

func (dm *DomainManager) GetBlockedDomainCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	count := 0
	for domain := range dm.blockedDomains {
		if dm.isBlockedNoLock(domain) {
			count++
		}
	}

	return count
}

func (dm *DomainManager) GetDomainStatus() map[string]DomainStats {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	status := make(map[string]DomainStats, len(dm.domainStats))
	for domain, stats := range dm.domainStats {
		status[domain] = *stats
	}

	return status
}

func (dm *DomainManager) GetDomainList() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	domains := make([]string, 0, len(dm.domains))
	for domain := range dm.domains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	return domains
}
