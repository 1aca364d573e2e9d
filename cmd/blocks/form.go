package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/form"
	"github.com/goliatone/go-blocks/pkg/prompt"
)

func newFormCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Work with form definitions",
	}
	cmd.AddCommand(newFormFillCommand(a))
	return cmd
}

func newFormFillCommand(a *app) *cobra.Command {
	var pageRef string
	cmd := &cobra.Command{
		Use:   "fill <url>",
		Short: "Fill a form definition from the terminal and submit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			src, root, err := parseSource(args[0], cfg.Dir)
			if err != nil {
				return err
			}
			cfg.Dir = root
			pageURL, err := formPageURL(pageRef, a.cfg.Origin, src)
			if err != nil {
				return err
			}
			prefill, err := a.cfg.PrefillRegistry()
			if err != nil {
				return err
			}

			f, err := form.Load(cmd.Context(), newLoader(cfg, a.logger), src,
				form.WithLogger(a.logger),
				form.WithPageURL(pageURL),
				form.WithPrefill(prefill),
				form.WithSubmitter(form.NewHTTPSubmitter(nil, a.cfg.FetchTimeout, a.logger)),
			)
			if err != nil {
				return err
			}
			defer f.Close()

			filler := prompt.NewFiller(prompt.NewSurveyDriver(cmd.OutOrStdout()), prompt.WithLogger(a.logger))
			result, err := filler.Run(cmd.Context(), f)
			if err != nil {
				return err
			}
			if result.Redirect != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", result.Redirect)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pageRef, "page", "", "page URL the form lives on (defaults to the form origin)")
	return cmd
}

// formPageURL picks the page relative actions resolve against: the explicit
// page, then the configured origin, then the form's own URL.
func formPageURL(pageRef, origin string, src content.Source) (*url.URL, error) {
	for _, candidate := range []string{pageRef, origin} {
		if candidate == "" {
			continue
		}
		parsed, err := url.Parse(candidate)
		if err != nil {
			return nil, fmt.Errorf("form: page url %q: %w", candidate, err)
		}
		return parsed, nil
	}
	if src.Kind() == content.SourceKindURL {
		return url.Parse(src.Location())
	}
	return nil, fmt.Errorf("form: --page is required for local form definitions")
}
