package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/palico-bot/internal/export"
)

var (
	exportFormat    string
	exportOut       string
	exportOverwrite bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export aggregated armor sets to JSON, CSV or XLSX",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.FormatXLSX), "Output format: json, csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: armor_sets_<timestamp>.<format>)")
	exportCmd.Flags().BoolVar(&exportOverwrite, "overwrite", false, "Replace an existing output file")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(exportFormat)
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

	if _, err := a.raw.EnsureAll(cmd.Context(), a.resources); err != nil {
		return err
	}
	idx, err := a.cache.Load()
	if err != nil {
		return err
	}

	path := exportOut
	if path == "" {
		path = export.GenerateFilename("armor_sets", format)
	}

	exporter := export.NewExporter(export.Options{
		Format:     format,
		FilePath:   path,
		PrettyJSON: true,
		Overwrite:  exportOverwrite,
	})
	if err := exporter.Export(idx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d armor sets to %s\n", idx.Len(), path)
	return nil
}
