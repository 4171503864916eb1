package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
)

var queryRank string

var queryCmd = &cobra.Command{
	Use:   "query <set|head|chest|gloves|waist|legs> <name words...>",
	Short: "Run one query against local data and print JSON",
	Example: `  palico-bot query set rathalos soul --rank high
  palico-bot query head kulu`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryRank, "rank", "r", "", "Rank filter: low, high or master (lr, hr, mr)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	rank, err := mhw.ParseRank(queryRank)
	if err != nil {
		return err
	}

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

	if err := a.catalog.Init(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize armor data: %w", err)
	}

	resp, err := a.catalog.Resolve(strings.Join(args[1:], " "), args[0], rank)
	if err != nil {
		return err
	}
	if resp.Kind == catalog.KindNone {
		return fmt.Errorf("unknown thing type %q", args[0])
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
