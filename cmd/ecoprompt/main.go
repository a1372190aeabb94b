// Package main provides the ecoprompt command-line interface and HTTP server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/teilomillet/ecoprompt"
	"github.com/teilomillet/ecoprompt/config"
	"github.com/teilomillet/ecoprompt/energy"
	"github.com/teilomillet/ecoprompt/metrics"
	"github.com/teilomillet/ecoprompt/server"
	"github.com/teilomillet/ecoprompt/types"
	"github.com/teilomillet/ecoprompt/utils"
)

// cmdFlags holds all command-line flags
type cmdFlags struct {
	mode              string
	size              string
	outputFormat      string
	logLevel          string
	apiKey            string
	provider          string
	model             string
	embeddingProvider string
	corpusFile        string
	envFile           string
	serve             bool
	listCorpus        bool
	args              []string
}

func parseFlags() *cmdFlags {
	flags := &cmdFlags{}
	flag.StringVar(&flags.mode, "mode", "local", "Optimization mode (local, remote)")
	flag.StringVar(&flags.size, "size", "small", "Target model size (small, medium, large)")
	flag.StringVar(&flags.outputFormat, "output-format", "text", "Output format (text, json)")
	flag.StringVar(&flags.logLevel, "log-level", "", "Log level (off, error, warn, info, debug); overrides LLM_LOG_LEVEL")
	flag.StringVar(&flags.apiKey, "api-key", "", "API key for the remote provider")
	flag.StringVar(&flags.provider, "provider", "", "Remote provider (google, gemini, openai)")
	flag.StringVar(&flags.model, "model", "", "Remote model")
	flag.StringVar(&flags.embeddingProvider, "embedding-provider", "", "Embedding provider for local mode (ollama, gemini, openai, hash)")
	flag.StringVar(&flags.corpusFile, "corpus", "", "YAML file with reference prompts")
	flag.StringVar(&flags.envFile, "env-file", ".env", "File with environment variables such as GEMINI_API_KEY; empty to skip")
	flag.BoolVar(&flags.serve, "serve", false, "Start the HTTP API instead of analyzing one prompt")
	flag.BoolVar(&flags.listCorpus, "list-corpus", false, "Print the reference corpus and exit")
	flag.Parse()
	flags.args = flag.Args()
	return flags
}

func main() {
	flags := parseFlags()

	cfg, err := buildConfig(flags, os.Stderr)
	if err != nil {
		exitWithError("Error loading configuration: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, cfg, os.Stdin, os.Stdout); err != nil {
		var e *types.Error
		if errors.As(err, &e) {
			exitWithError("Error: %v\n%s\n", err, e.Hint())
		}
		exitWithError("Error: %v\n", err)
	}
}

// exitWithError prints an error message and exits
func exitWithError(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

// buildConfig reads the env file and the environment, then lets non-empty flags
// override them. Variables already set in the environment win over the file.
func buildConfig(flags *cmdFlags, warnings io.Writer) (*config.Config, error) {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil {
			_, _ = fmt.Fprintf(warnings, "Warning: Error loading %s file: %v\n", flags.envFile, err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	var opts []config.ConfigOption
	if flags.provider != "" {
		opts = append(opts, config.SetProvider(flags.provider))
	}
	if flags.model != "" {
		opts = append(opts, config.SetModel(flags.model))
	}
	if flags.apiKey != "" {
		opts = append(opts, config.SetAPIKey(flags.apiKey))
	}
	if flags.embeddingProvider != "" {
		opts = append(opts, config.SetEmbeddingProvider(flags.embeddingProvider))
	}
	if flags.corpusFile != "" {
		opts = append(opts, config.SetCorpusFile(flags.corpusFile))
	}
	if flags.logLevel != "" {
		level, err := utils.ParseLogLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.SetLogLevel(level))
	}
	config.ApplyOptions(cfg, opts...)
	return cfg, cfg.Validate()
}

func run(ctx context.Context, flags *cmdFlags, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	if flags.outputFormat != "text" && flags.outputFormat != "json" {
		return fmt.Errorf("unknown output format %q: expected text or json", flags.outputFormat)
	}

	if cfg.Logger == nil {
		cfg.Logger = utils.NewLogger(cfg.LogLevel)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	analyzer, err := ecoprompt.New(cfg, ecoprompt.WithMetrics(m))
	if err != nil {
		return err
	}
	defer analyzer.Close()

	if flags.listCorpus {
		return printCorpus(analyzer, flags.outputFormat, stdout)
	}

	if flags.serve {
		if err := analyzer.Warm(ctx); err != nil {
			// Local requests will report the same failure; remote mode still works.
			cfg.Logger.Error("Reference table unavailable", "error", err)
		}
		return server.New(analyzer, reg, cfg.Logger).ListenAndServe(ctx, cfg.ListenAddr)
	}

	prompt, err := readPrompt(flags.args, stdin)
	if err != nil {
		return err
	}

	report, err := analyzer.Analyze(ctx, ecoprompt.Request{
		Prompt: prompt,
		Mode:   types.Mode(flags.mode),
		Size:   energy.Size(flags.size),
	})
	if err != nil {
		return err
	}

	if flags.outputFormat == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	report.WriteText(stdout)
	return nil
}

// readPrompt joins the positional arguments; a single "-" reads the prompt from stdin.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: %s [flags] <prompt | ->", os.Args[0])
	}
	if len(args) > 1 || args[0] != "-" {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	return string(data), nil
}

func printCorpus(analyzer *ecoprompt.Analyzer, format string, w io.Writer) error {
	prompts := analyzer.Corpus().Prompts()
	if format == "json" {
		return json.NewEncoder(w).Encode(map[string][]string{"prompts": prompts})
	}
	for i, p := range prompts {
		fmt.Fprintf(w, "%3d  %s\n", i+1, p)
	}
	return nil
}
