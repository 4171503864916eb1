package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
)

var (
	fetchForce   bool
	fetchKinds   []string
	fetchRebuild bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download raw resources from the reference database",
	Long: `Download the raw resource files. Only missing files are fetched unless
--force is given. Aggregated sets are not rebuilt from new raw data unless
--rebuild is given, which deletes ` + armor.DerivedFileName + ` and aggregates again.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVarP(&fetchForce, "force", "f", false, "Re-download resources that already exist")
	fetchCmd.Flags().StringSliceVarP(&fetchKinds, "kind", "k", nil, "Resource kinds to fetch (default: all configured)")
	fetchCmd.Flags().BoolVar(&fetchRebuild, "rebuild", false, "Delete and rebuild the aggregated armor file")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	kinds := a.resources
	if len(fetchKinds) > 0 {
		if kinds, err = parseResources(fetchKinds); err != nil {
			return err
		}
	}

	if fetchForce {
		if err := a.raw.FetchAll(ctx, kinds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d resources\n", len(kinds))
	} else {
		fetched, err := a.raw.EnsureAll(ctx, kinds)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d missing resources\n", len(fetched))
	}

	if !fetchRebuild {
		if a.cache.Exists() {
			fmt.Fprintf(cmd.OutOrStdout(), "Existing %s kept; use --rebuild to aggregate new data\n", armor.DerivedFileName)
		}
		return nil
	}

	if err := os.Remove(a.cache.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", a.cache.Path(), err)
	}
	idx, err := a.cache.Load()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Aggregated %d armor sets into %s\n", idx.Len(), a.cache.Path())
	return nil
}
