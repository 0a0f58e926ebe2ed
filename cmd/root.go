package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rafabd1/LPParser/config"
	"github.com/rafabd1/LPParser/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lpparser",
	Short: "LP-Parser - Collect login/password pairs from dated pages",
	Long: `LP-Parser crawls the dated pages of the configured websites
(<site>-MM-DD[-N]) and extracts the first login/password pair found on each.
Sites, offsets, release years, exceptions and patterns come from the config
file, HTTP settings can be overridden with flags or LPPARSER_* variables.`,
	SilenceUsage: true,
	RunE:         runParse,
}

// Execute runs the CLI until ctx is canceled
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	vip := viper.GetViper()
	vip.SetEnvPrefix("lpparser")
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	// --- General Behavior ---
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable verbose logging output")
	pf.Bool("silent", false, "Only print findings and errors")
	pf.Bool("no-progress", false, "Disable the progress bar display")
	bindFlags(vip, pf, "verbose", "silent", "no-progress")

	initParseFlags(rootCmd, vip)
}

func initParseFlags(cmd *cobra.Command, vip *viper.Viper) {
	f := cmd.Flags()

	f.StringP("config", "c", config.DefaultConfigPath, "Path to the YAML config file")
	f.StringP("output", "o", "", "Output file (.yml, .json or .txt; default: parser-output/<launch time>.yml)")
	f.String("exceptions-file", "", "File with extra logins to ignore, one per line")
	bindFlags(vip, f, "config", "output", "exceptions-file")

	// --- Performance ---
	f.IntP("concurrency", "n", 0, "Number of concurrent workers (overrides config)")
	f.IntP("rate-limit", "l", 0, "Max requests per second across all sites (0 = unlimited)")
	f.Float64("host-rate", 0, "Max requests per second to a single host (0 = unlimited)")
	bindFlags(vip, f, "concurrency", "rate-limit", "host-rate")

	// --- Networking ---
	f.IntP("timeout", "t", 0, "HTTP request timeout in seconds (overrides config)")
	f.IntP("retries", "r", 0, "Maximum number of retries for failed HTTP requests (overrides config)")
	f.StringSliceP("header", "H", []string{}, "Custom headers to include in requests (e.g., 'Cookie: session=...')")
	f.String("user-agent", "", "User-Agent header (overrides config)")
	f.Bool("insecure", false, "Disable TLS certificate verification")
	bindFlags(vip, f, "timeout", "retries", "header", "user-agent", "insecure")
}

func bindFlags(vip *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := vip.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

/*
   Applies flag and environment values on top of the config file.
   Only values the user actually set are taken.
*/
func applyOverrides(cfg *config.Configuration, vip *viper.Viper) {
	if vip.IsSet("timeout") {
		cfg.HTTP.Timeout = vip.GetInt("timeout")
	}
	if vip.IsSet("retries") {
		cfg.HTTP.MaxRetries = vip.GetInt("retries")
	}
	if vip.IsSet("concurrency") {
		cfg.HTTP.Concurrency = vip.GetInt("concurrency")
	}
	if vip.IsSet("rate-limit") {
		cfg.HTTP.RateLimit = vip.GetInt("rate-limit")
	}
	if vip.IsSet("user-agent") {
		cfg.HTTP.UserAgent = vip.GetString("user-agent")
	}
	if vip.GetBool("insecure") {
		cfg.HTTP.Insecure = true
	}
	cfg.HTTP.Headers = append(cfg.HTTP.Headers, vip.GetStringSlice("header")...)
}

// readExceptionsFile loads extra exceptions, none when path is empty
func readExceptionsFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	lines, err := utils.ReadLinesFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("the exceptions file is unreadable: %w", err)
	}
	return lines, nil
}

// parseHeaders splits "Name: Value" entries, returning the invalid ones separately
func parseHeaders(raw []string) (map[string]string, []string) {
	headers := make(map[string]string, len(raw))
	var invalid []string

	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			invalid = append(invalid, h)
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, invalid
}
