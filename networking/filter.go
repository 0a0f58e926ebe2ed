package networking

import (
	"net/http"
	"strings"
)

// ResponseFilter filters HTTP responses
type ResponseFilter struct {
	wafMarkers []string
}

// NewResponseFilter creates a new response filter
func NewResponseFilter() *ResponseFilter {
	return &ResponseFilter{
		wafMarkers: []string{"cloudflare", "akamaighost", "sucuri", "incapsula"},
	}
}

// ShouldProcess reports whether a response holds a page worth parsing.
// Only 200 responses are, everything else is skipped.
func (rf *ResponseFilter) ShouldProcess(resp *http.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusOK
}

// IsRateLimited checks if a response indicates rate limiting
func (rf *ResponseFilter) IsRateLimited(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusServiceUnavailable && resp.Header.Get("Retry-After") != "")
}

// IsWAFBlocked checks if a response indicates WAF blocking
func (rf *ResponseFilter) IsWAFBlocked(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		return false
	}

	server := strings.ToLower(resp.Header.Get("Server"))
	for _, marker := range rf.wafMarkers {
		if strings.Contains(server, marker) {
			return true
		}
	}
	return resp.Header.Get("Cf-Ray") != ""
}
