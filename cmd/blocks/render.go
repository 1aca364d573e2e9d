package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCommand(a *app) *cobra.Command {
	var (
		output    string
		blockName string
		dir       string
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "render <file|url>",
		Short: "Decorate a page and print the resulting HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("dir") {
				cfg.Dir = dir
			}
			src, root, err := parseSource(args[0], cfg.Dir)
			if err != nil {
				return err
			}
			cfg.Dir = root
			harness, err := newHarness(cfg, a.logger)
			if err != nil {
				return err
			}

			var out []byte
			if blockName != "" {
				data, res, err := harness.RenderBlock(cmd.Context(), src, blockName)
				if err != nil {
					return err
				}
				a.logger.Debug("block rendered", zap.String("block", res.Name), zap.String("status", res.Status))
				if strict && res.Err != nil {
					return res.Err
				}
				out = data
			} else {
				data, report, err := harness.Render(cmd.Context(), src)
				if err != nil {
					return err
				}
				for _, failed := range report.Failed() {
					a.logger.Warn("block failed", zap.String("block", failed.Name), zap.Error(failed.Err))
				}
				if strict {
					if err := report.Err(); err != nil {
						return err
					}
				}
				out = data
			}

			if output != "" {
				if err := os.WriteFile(output, out, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Page written to %s\n", output)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&blockName, "block", "", "render only the first block with this name")
	cmd.Flags().StringVar(&dir, "dir", "", "site root for local pages (defaults to the page directory)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any block fails to decorate")
	return cmd
}
