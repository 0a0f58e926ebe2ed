package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rafabd1/LPParser/config"
	"github.com/rafabd1/LPParser/core"
	"github.com/rafabd1/LPParser/core/extractor"
	"github.com/rafabd1/LPParser/output"
	"github.com/rafabd1/LPParser/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] <file|dir>...",
	Short: "Extract a login/password pair from local files",
	Long: `Runs the extractor over local files. HTML files are read as page text,
any other file line by line. Directories are walked recursively.
Patterns and exceptions come from the config file when it exists,
extra exceptions can be added with --exception or --exceptions-file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringP("config", "c", config.DefaultConfigPath, "Config file to take patterns and exceptions from (optional)")
	f.StringArrayP("exception", "e", []string{}, "Login to ignore (repeatable)")
	f.String("exceptions-file", "", "File with extra logins to ignore, one per line")
	f.StringP("output", "o", "", "Output file (.yml, .json or .txt); findings are printed when empty")
	f.IntP("concurrency", "n", 10, "Number of files processed at once")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	vip := viper.GetViper()
	flags := cmd.Flags()

	logger := output.NewLogger(vip.GetBool("verbose"), vip.GetBool("silent"))
	defer logger.Close()

	configPath, _ := flags.GetString("config")
	extra, _ := flags.GetStringArray("exception")
	exceptionsFile, _ := flags.GetString("exceptions-file")
	outputPath, _ := flags.GetString("output")
	concurrency, _ := flags.GetInt("concurrency")

	fromFile, err := readExceptionsFile(exceptionsFile)
	if err != nil {
		return err
	}
	extra = append(extra, fromFile...)

	ext, exceptions, err := extractorFromConfig(configPath, extra, logger)
	if err != nil {
		return err
	}

	var writer *output.Writer
	if outputPath != "" {
		writer, err = output.NewWriter(outputPath)
		if err != nil {
			return err
		}
	}

	scanner := core.NewLocalScanner(core.NewProcessor(ext, exceptions, logger), writer, logger)
	scanner.SetConcurrency(concurrency)

	findings, scanErr := scanner.ScanFiles(cmd.Context(), args)

	if writer != nil {
		if err := writer.Close(); err != nil {
			return err
		}
	}
	logger.Flush()

	if writer == nil {
		out := cmd.OutOrStdout()
		for _, f := range findings {
			fmt.Fprintf(out, "%s:%s %s\n", f.Login, f.Password, f.URL)
		}
	}

	stats := scanner.GetStats()
	logger.Info("Scanned %d files, %s (%d skipped, %d failed), %d findings",
		stats.ProcessedFiles, utils.FormatByteSize(stats.TotalBytes), stats.SkippedFiles, stats.FailedFiles, stats.TotalFindings)

	return scanErr
}

/*
   Loads patterns and exceptions from the config file. A missing file
   means the default patterns, a broken one is an error.
*/
func extractorFromConfig(path string, extra []string, logger *output.Logger) (*extractor.Extractor, extractor.ExceptionSet, error) {
	cfg, err := config.LoadConfig(path, time.Now())
	if err != nil {
		var notFound *config.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, configError(err)
		}
		logger.Debug("No config at %s, using default patterns", path)
		return extractor.Default(), extractor.NewExceptionSet(extra), nil
	}

	ext, err := cfg.Extractor()
	if err != nil {
		return nil, nil, configError(err)
	}
	return ext, extractor.NewExceptionSet(append(cfg.Exceptions, extra...)), nil
}
