package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nainya/agentops/internal/config"
	"github.com/nainya/agentops/internal/logger"
	"github.com/nainya/agentops/pkg/agentops"
	"github.com/nainya/agentops/pkg/compose"
	"github.com/nainya/agentops/pkg/corpus"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	cfgFile   string
	policyDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "agentops",
		Short: "Policy Q&A and citation engine for hotel associates",
		Long: `agentops answers associate questions and drafts guest replies from a
fixed policy corpus, citing the policies it quotes inline as [POL-ID].`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&opts.policyDir, "policy-dir", "", "directory of policy Markdown files (default: built-in corpus)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts, agentops.ModeAnswer),
		newAskCmd(opts, agentops.ModeDraft),
		newCorpusCmd(opts),
	)
	return root
}

// load reads configuration and applies flag overrides
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.policyDir != "" {
		cfg.PolicyDir = o.policyDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// loadCorpus builds the corpus from the configured directory or the built-in policies.
// Rejected sources are logged and counted; an empty corpus is an error.
func loadCorpus(cfg *config.Config, log *logger.Logger) (*corpus.Corpus, int, error) {
	source := "builtin"
	var (
		sources []corpus.Source
		err     error
	)
	if cfg.PolicyDir != "" {
		source = cfg.PolicyDir
		sources, err = corpus.ReadDir(cfg.PolicyDir)
	} else {
		sources, err = corpus.Builtin()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read policies: %w", err)
	}

	c, err := corpus.Load(sources)
	skipped := corpus.LoadErrors(err)
	clog := log.CorpusLogger(source)
	for _, le := range skipped {
		clog.Warn().Int("index", le.Index).Str("id", le.ID).Err(le.Err).Msg("Skipped policy source")
	}
	log.LogCorpusLoaded(source, c.Len(), c.SectionCount(), len(skipped))

	if c.Len() == 0 {
		return nil, len(skipped), fmt.Errorf("no policies loaded from %s", source)
	}
	return c, len(skipped), nil
}

func newEngine(c *corpus.Corpus, cfg *config.Config) *agentops.Engine {
	return agentops.NewEngine(c,
		agentops.WithTopK(cfg.TopK),
		agentops.WithComposer(compose.Composer{
			MaxPassages:  cfg.MaxPassages,
			MaxSentences: cfg.MaxSentences,
		}),
	)
}

// cliLogger keeps CLI stdout clean: logs go to stderr at warn unless configured lower
func cliLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	level := cfg.Log.Level
	if logger.ParseLevel(level) < logger.ParseLevel("warn") {
		level = "warn"
	}
	return logger.NewLogger(logger.Config{Level: level, Pretty: true, Output: w})
}
