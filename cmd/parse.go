package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rafabd1/LPParser/config"
	"github.com/rafabd1/LPParser/core"
	"github.com/rafabd1/LPParser/networking"
	"github.com/rafabd1/LPParser/output"
	"github.com/rafabd1/LPParser/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runParse(cmd *cobra.Command, args []string) error {
	vip := viper.GetViper()
	launchTime := time.Now()

	logger := output.NewLogger(vip.GetBool("verbose"), vip.GetBool("silent"))
	defer logger.Close()

	cfg, err := config.LoadConfig(vip.GetString("config"), launchTime)
	if err != nil {
		return configError(err)
	}
	applyOverrides(cfg, vip)
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	extra, err := readExceptionsFile(vip.GetString("exceptions-file"))
	if err != nil {
		return err
	}
	cfg.Exceptions = append(cfg.Exceptions, extra...)

	processor, err := core.NewProcessorFromConfig(cfg, logger)
	if err != nil {
		return configError(err)
	}

	client, err := newClient(cfg, vip.GetFloat64("host-rate"), logger)
	if err != nil {
		return configError(err)
	}

	outputPath := vip.GetString("output")
	if outputPath == "" {
		outputPath = output.DefaultOutputPath(launchTime)
	}
	writer, err := output.NewWriter(outputPath)
	if err != nil {
		return err
	}

	urls := core.GenerateURLs(cfg)
	logger.Info("HTTP config: %d sec timeout | %d max retries | %s", cfg.HTTP.Timeout, cfg.HTTP.MaxRetries, rateLimitLabel(cfg.HTTP.RateLimit))
	logger.Info("Websites: %d | Offset: %d | Months: %d | URLs: %d", len(cfg.Websites), cfg.Offset.Value, core.TotalMonths(cfg), len(urls))
	if cfg.ReleaseDate.Enabled {
		logger.Info("Release years: %v", cfg.ReleaseDate.Years)
	}
	logger.Info("Output: results will be saved to %s", outputPath)
	logger.Debug("Patterns: login %s | password %s | %d exceptions",
		processor.LoginPattern(), processor.PasswordPattern(), len(cfg.Exceptions))

	domainManager := networking.NewDomainManager()
	scheduler := core.NewScheduler(domainManager, client, processor, writer, logger)
	scheduler.SetConcurrency(cfg.HTTP.Concurrency)
	scheduler.SetMaxRequeues(max(cfg.HTTP.MaxRetries, core.DefaultMaxRequeues))

	var progressBar *output.ProgressBar
	if !vip.GetBool("no-progress") && !vip.GetBool("silent") {
		progressBar = output.NewProgressBar(len(urls), 50)
		scheduler.SetProgressBar(progressBar)
		logger.SetProgressBar(progressBar)
		progressBar.Start()
	}

	color.New(color.FgYellow).Fprintln(logger.Writer(), "\nParsing has started...\nDo not turn off the program until the process is completed!")

	stats, scheduleErr := scheduler.Schedule(cmd.Context(), urls)

	if progressBar != nil {
		logger.SetProgressBar(nil)
		progressBar.Stop()
		progressBar.Finalize()
	}

	// findings gathered before an interrupt are still saved
	if err := writer.Close(); err != nil {
		logger.Error("Failed to write output file: %v", err)
	}
	logger.Flush()

	printSummary(logger.Writer(), stats, writer, domainManager)

	if scheduleErr != nil && !utils.IsContextCanceled(scheduleErr) {
		return scheduleErr
	}
	return nil
}

func newClient(cfg *config.Configuration, hostRate float64, logger *output.Logger) (*networking.Client, error) {
	client := networking.NewClient(cfg.HTTP.Timeout, cfg.HTTP.MaxRetries)

	if cfg.HTTP.Insecure {
		client.SetInsecureSkipVerify(true)
		logger.Info("SSL/TLS certificate verification disabled")
	}
	if cfg.HTTP.UserAgent != "" {
		client.SetRequestHeader("User-Agent", cfg.HTTP.UserAgent)
	}

	headers, invalid := parseHeaders(cfg.HTTP.Headers)
	if len(invalid) > 0 {
		return nil, utils.NewError(utils.ConfigError, fmt.Sprintf("invalid header format (should be 'Name: Value'): %q", invalid), nil)
	}
	for name, value := range headers {
		client.SetRequestHeader(name, value)
		logger.Debug("Set custom header: %s: %s", name, value)
	}

	client.SetGlobalRateLimit(cfg.HTTP.RateLimit)
	client.SetPerHostRateLimit(hostRate)

	return client, nil
}

func rateLimitLabel(rateLimit int) string {
	if rateLimit > 0 {
		return fmt.Sprintf("%d req/s", rateLimit)
	}
	return "no rate limit"
}

// configError prefixes configuration problems the way users see them
func configError(err error) error {
	var notFound *config.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("the config file is missing: %s", notFound.Path)
	}
	return fmt.Errorf("the config file is incorrect: %w", err)
}

func printSummary(w io.Writer, stats core.SchedulerStats, writer *output.Writer, dm *networking.DomainManager) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	title := "Successfully completed!"
	if stats.ProcessedURLs < stats.TotalURLs {
		title = "Interrupted!"
		green = color.New(color.FgYellow, color.Bold).SprintFunc()
	}

	fmt.Fprintf(w, "\n%s\n", green(title))
	fmt.Fprintln(w, cyan(fmt.Sprintf("Time elapsed: %s", utils.FormatDuration(stats.Duration()))))
	fmt.Fprintf(w, "%s\n", stats)
	if stats.RateLimitHits > 0 || stats.WAFBlockHits > 0 {
		fmt.Fprintf(w, "Encountered rate limiting %d times, WAF blocks %d times\n", stats.RateLimitHits, stats.WAFBlockHits)
		printHostSummary(w, dm)
	}
	fmt.Fprintf(w, "--> %s (%d findings)\n", writer.Path(), writer.GetCount())
}

// printHostSummary lists per-host results, only useful once a host pushed back
func printHostSummary(w io.Writer, dm *networking.DomainManager) {
	status := dm.GetDomainStatus()
	for _, domain := range dm.GetDomainList() {
		st := status[domain]
		line := fmt.Sprintf("  %s: %d/%d fetched, %d failed, %d blocks",
			domain, st.SuccessfulURLs, st.TotalURLs, st.FailedURLs, st.TotalBlocks)
		if until := dm.BlockedUntil(domain); !until.IsZero() {
			line += fmt.Sprintf(" (blocked until %s)", until.Format("15:04:05"))
		}
		fmt.Fprintln(w, line)
	}
}
