package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/internal/config"
	"github.com/goliatone/go-blocks/internal/logging"
	"github.com/goliatone/go-blocks/pkg/content"
)

// app carries what every subcommand needs once the root pre-run resolved it.
type app struct {
	configPath string
	logLevel   string
	dev        bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "blocks",
		Short:         "Decorate content-driven pages with blocks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var options []config.Option
			if a.configPath != "" {
				options = append(options, config.WithFile(a.configPath))
			}
			cfg, err := config.Load(options...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = a.logLevel
			}
			if cmd.Flags().Changed("dev") {
				cfg.LogDev = a.dev
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML site file (default $"+config.FileEnv+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.dev, "dev", false, "development logging")

	root.AddCommand(newRenderCommand(a), newServeCommand(a), newFormCommand(a))
	return root
}

// parseSource turns a CLI argument into a Source. Local files resolve inside
// root, or inside the file's own directory when root is empty, so that
// root-relative references such as /articles.json stay within the site. The
// returned directory is the root the loader must serve.
func parseSource(raw, root string) (content.Source, string, error) {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		src, err := content.SourceFromURL(path)
		return src, root, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("source %q: %w", raw, err)
	}
	if root == "" {
		root = filepath.Dir(abs)
	}
	if root, err = filepath.Abs(root); err != nil {
		return nil, "", fmt.Errorf("root %q: %w", root, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, "", fmt.Errorf("source %q is outside %s", raw, root)
	}
	return content.SourceFromFS(filepath.ToSlash(rel)), root, nil
}
