package core

import (
	"io"
	"testing"
	"time"

	"github.com/rafabd1/LPParser/config"
	"github.com/rafabd1/LPParser/output"
)

var testLaunch = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestLogger(t *testing.T) *output.Logger {
	t.Helper()
	logger := output.NewLoggerWithOutput(output.NewTerminalController(io.Discard, false), false, true)
	t.Cleanup(logger.Close)
	return logger
}

func testConfig(sites ...string) *config.Configuration {
	cfg := config.Default()
	cfg.LaunchTime = testLaunch
	cfg.Websites = sites
	cfg.Offset = config.Offset{Enabled: false, Value: 1}
	return &cfg
}

func credentialPage(year int, body string) string {
	return `<html><head><title>Account</title></head><body>
<article>
<time datetime="x">March 3, ` + itoa(year) + `</time>
` + body + `
</article>
<script>var leaked = "x@y.zz";</script>
</body></html>`
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
