package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kepka-migrator/config"
)

// NewRootCommand builds the command tree. Running without a subcommand migrates.
// Settings come from the environment only; the commands take no flags.
func NewRootCommand(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           "kepka-migrator",
		Short:         "Migrate artworks and photoshoots from Storyblok to Directus",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(ctx)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Run the migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(ctx)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Fetch and normalize source records without writing to Directus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(ctx, cmd.OutOrStdout())
		},
	})

	return root
}

func setup(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	InitLogger(cfg.Logger)
	return Initialize(ctx, *cfg)
}

func runMigrate(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	_, runErr := a.Migration.Run(ctx)
	a.PushMetrics(context.WithoutCancel(ctx))
	return runErr
}

func runInspect(ctx context.Context, out io.Writer) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, urls, err := a.Migration.Inspect(ctx)
	if err != nil {
		return err
	}

	for _, r := range records {
		fmt.Fprintf(out, "%-10s %-40s %-40s %d images\n", r.Kind, r.Slug, r.Title, len(r.AssetRefs))
	}
	fmt.Fprintf(out, "\n%d records, %d unique images\n", len(records), len(urls))
	return nil
}
