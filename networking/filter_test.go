package networking

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func response(status int, headers map[string]string) *http.Response {
	resp := &http.Response{StatusCode: status, Header: make(http.Header)}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestResponseFilter(t *testing.T) {
	rf := NewResponseFilter()

	assert.True(t, rf.ShouldProcess(response(200, nil)))
	assert.False(t, rf.ShouldProcess(response(404, nil)))
	assert.False(t, rf.ShouldProcess(response(201, nil)))
	assert.False(t, rf.ShouldProcess(nil))

	assert.True(t, rf.IsRateLimited(response(429, nil)))
	assert.True(t, rf.IsRateLimited(response(503, map[string]string{"Retry-After": "30"})))
	assert.False(t, rf.IsRateLimited(response(503, nil)))

	assert.True(t, rf.IsWAFBlocked(response(403, map[string]string{"Server": "cloudflare"})))
	assert.True(t, rf.IsWAFBlocked(response(403, map[string]string{"CF-RAY": "abc"})))
	assert.False(t, rf.IsWAFBlocked(response(403, nil)))
	assert.False(t, rf.IsWAFBlocked(response(200, map[string]string{"Server": "cloudflare"})))
}
