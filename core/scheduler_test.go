package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rafabd1/LPParser/core/extractor"
	"github.com/rafabd1/LPParser/networking"
	"github.com/rafabd1/LPParser/output"
	"github.com/rafabd1/LPParser/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponse struct {
	body string
	err  error
}

// fakeFetcher replays a scripted sequence of responses per URL,
// repeating the last one once the script runs out
type fakeFetcher struct {
	mu      sync.Mutex
	scripts map[string][]fakeResponse
	calls   map[string]int
}

func newFakeFetcher(scripts map[string][]fakeResponse) *fakeFetcher {
	return &fakeFetcher{scripts: scripts, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	script := f.scripts[url]
	if len(script) == 0 {
		return nil, utils.NewStatusError(http.StatusNotFound, url)
	}

	i := min(f.calls[url], len(script)-1)
	f.calls[url]++
	if script[i].err != nil {
		return nil, script[i].err
	}
	return []byte(script[i].body), nil
}

func (f *fakeFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func newTestScheduler(t *testing.T, fetcher PageFetcher, writer *output.Writer) *Scheduler {
	t.Helper()

	processor := NewProcessor(nil, extractor.NewExceptionSet([]string{"dmca@telegram.org"}), newTestLogger(t))
	s := NewScheduler(networking.NewDomainManager(), fetcher, processor, writer, newTestLogger(t))
	s.SetConcurrency(4)
	s.SetMaxRequeues(2)
	s.SetBlockDurations(5*time.Millisecond, 5*time.Millisecond)
	s.idleWait = 2 * time.Millisecond
	return s
}

func wafError(url string) error {
	err := utils.NewStatusError(http.StatusForbidden, url)
	err.Type = utils.WAFError
	return err
}

func TestScheduler_Outcomes(t *testing.T) {
	page := credentialPage(2024, "<p>a@b.com</p><p>pass1</p>")
	fetcher := newFakeFetcher(map[string][]fakeResponse{
		"https://one.test/found":   {{body: page}},
		"https://one.test/empty":   {{body: credentialPage(2024, "<p>nothing</p>")}},
		"https://one.test/gone":    {{err: utils.NewStatusError(http.StatusGone, "https://one.test/gone")}},
		"https://one.test/teapot":  {{err: utils.NewStatusError(http.StatusTeapot, "https://one.test/teapot")}},
		"https://two.test/limited": {{err: utils.NewStatusError(http.StatusTooManyRequests, "https://two.test/limited")}, {body: page}},
		"https://three.test/waf":   {{err: wafError("https://three.test/waf")}, {body: page}},
		"https://one.test/down":    {{err: utils.NewStatusError(http.StatusBadGateway, "https://one.test/down")}},
		"https://one.test/broken":  {{err: errors.New("malformed response")}},
	})

	path := filepath.Join(t.TempDir(), "out.yml")
	writer, err := output.NewWriter(path)
	require.NoError(t, err)

	s := newTestScheduler(t, fetcher, writer)
	urls := []string{
		"https://one.test/found",
		"https://one.test/empty",
		"https://one.test/gone",
		"https://one.test/teapot",
		"https://two.test/limited",
		"https://three.test/waf",
		"https://one.test/down",
		"https://one.test/broken",
		"https://one.test/unknown",
	}

	stats, err := s.Schedule(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, 9, stats.TotalURLs)
	assert.Equal(t, 9, stats.ProcessedURLs)
	assert.Equal(t, 3, stats.TotalFindings)
	assert.Equal(t, 3, stats.SkippedURLs)
	assert.Equal(t, 2, stats.FailedURLs)
	assert.Equal(t, 1, stats.RateLimitHits)
	assert.Equal(t, 1, stats.WAFBlockHits)
	assert.Equal(t, 2, stats.BlockedDomains)
	assert.Equal(t, 1+1+2, stats.Requeues)
	assert.Equal(t, map[string]int{"two.test": 1, "three.test": 1}, stats.DomainRetries)
	assert.False(t, stats.EndTime.Before(stats.StartTime))

	assert.Equal(t, 3, fetcher.Calls("https://one.test/down"))
	assert.Equal(t, 1, fetcher.Calls("https://one.test/broken"))

	require.NoError(t, writer.Close())
	findings, err := output.ReadFindings(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []output.Finding{
		{Login: "a@b.com", Password: "pass1", URL: "https://one.test/found"},
		{Login: "a@b.com", Password: "pass1", URL: "https://two.test/limited"},
		{Login: "a@b.com", Password: "pass1", URL: "https://three.test/waf"},
	}, findings)
}

func TestScheduler_ReleaseFilterCounted(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]fakeResponse{
		"https://one.test/old": {{body: credentialPage(2019, "<p>a@b.com</p><p>pass1</p>")}},
		"https://one.test/new": {{body: credentialPage(2024, "<p>a@b.com</p><p>pass1</p>")}},
	})

	s := newTestScheduler(t, fetcher, nil)
	s.processor.SetReleaseFilter(func(year int) bool { return year == 2024 }, 2025)

	stats, err := s.Schedule(context.Background(), []string{"https://one.test/old", "https://one.test/new"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilteredPages)
	assert.Equal(t, 1, stats.TotalFindings)
}

func TestScheduler_EmptyQueue(t *testing.T) {
	s := newTestScheduler(t, newFakeFetcher(nil), nil)

	stats, err := s.Schedule(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ProcessedURLs)
}

func TestScheduler_ProgressBarShowsFindings(t *testing.T) {
	url := "https://telegra.ph/post-01-01"
	fetcher := newFakeFetcher(map[string][]fakeResponse{
		url: {{body: credentialPage(2024, "<p>neo@matrix.io</p><p>red2pill</p>")}},
	})
	s := newTestScheduler(t, fetcher, nil)
	pb := output.NewProgressBar(2, 10)
	s.SetProgressBar(pb)

	_, err := s.Schedule(context.Background(), []string{url, "https://telegra.ph/post-01-02"})
	require.NoError(t, err)

	assert.Equal(t, 2, pb.Current())
	assert.True(t, strings.HasSuffix(pb.String(), " | Found: 1"), pb.String())
}

func TestScheduler_WithHTTPServer(t *testing.T) {
	var limited int32
	mux := http.NewServeMux()
	mux.HandleFunc("/post-01-01", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(credentialPage(2024, "<p>login: neo@matrix.io</p><p>password: red2pill</p>")))
	})
	mux.HandleFunc("/post-01-02", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&limited, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(credentialPage(2024, "<p>trinity@matrix.io:wh1terabbit</p>")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := networking.NewClient(5, 0)
	s := newTestScheduler(t, client, nil)

	stats, err := s.Schedule(context.Background(), []string{
		srv.URL + "/post-01-01",
		srv.URL + "/post-01-02",
		srv.URL + "/post-01-03",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.ProcessedURLs)
	assert.Equal(t, 2, stats.TotalFindings)
	assert.Equal(t, 1, stats.SkippedURLs)
	assert.Equal(t, 1, stats.RateLimitHits)
}

func TestScheduler_Cancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := newTestScheduler(t, networking.NewClient(30, 0), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	stats, err := s.Schedule(ctx, []string{srv.URL + "/a", srv.URL + "/b"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, stats.ProcessedURLs, stats.TotalURLs)
}

func TestScheduler_Stop(t *testing.T) {
	release := make(chan struct{})
	fetcher := &blockingFetcher{release: release}

	s := newTestScheduler(t, fetcher, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Schedule(context.Background(), []string{"https://one.test/a"})
		done <- err
	}()

	require.Eventually(t, func() bool { return fetcher.started.Load() }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	close(release)
}

type blockingFetcher struct {
	started atomic.Bool
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.started.Store(true)
	select {
	case <-ctx.Done():
		return nil, utils.NewError(utils.NetworkError, "request canceled", ctx.Err())
	case <-f.release:
		return nil, errors.New("released")
	}
}
