package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vutto/pricing-service/internal/catalog"
	"github.com/vutto/pricing-service/internal/marginconfig"
	"github.com/vutto/pricing-service/internal/parsers/table"
)

var exportFormat string

var marginsCmd = &cobra.Command{
	Use:   "margins",
	Short: "Export or import the margin configuration sheet",
}

var marginsExportCmd = &cobra.Command{
	Use:     "export <file>",
	Short:   "Write the margin configuration to a CSV or XLSX file",
	Example: "  pricing-service margins export margins.xlsx",
	Args:    cobra.ExactArgs(1),
	RunE:    runMarginsExport,
}

var marginsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the margin configuration from a CSV or XLSX file",
	Long: `Validate the sheet against the margin document schema and replace the
stored configuration. The previous version is archived.`,
	Args: cobra.ExactArgs(1),
	RunE: runMarginsImport,
}

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Export or import variant cluster assignments",
}

var clustersExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write variant cluster info to a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE:  runClustersExport,
}

var clustersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Apply cluster assignments and SD factors from a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE:  runClustersImport,
}

func init() {
	rootCmd.AddCommand(marginsCmd, clustersCmd)
	marginsCmd.AddCommand(marginsExportCmd, marginsImportCmd)
	clustersCmd.AddCommand(clustersExportCmd, clustersImportCmd)

	for _, c := range []*cobra.Command{marginsExportCmd, clustersExportCmd} {
		c.Flags().StringVar(&exportFormat, "format", "", "csv or xlsx (defaults to the file extension)")
	}
}

func outputFormat(path string) (table.Format, error) {
	if exportFormat != "" {
		return table.ParseFormat(exportFormat)
	}
	return table.FormatFromFilename(path), nil
}

func runMarginsExport(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(args[0])
	if err != nil {
		return err
	}
	rows, err := svc.Margins.Document(cmd.Context())
	if err != nil {
		return err
	}
	data, err := marginconfig.Export(rows, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	logger.Info().Int("rows", len(rows)).Str("file", args[0]).Msg("Margins exported")
	return nil
}

func runMarginsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	rows, err := marginconfig.Import(data, table.FormatFromFilename(args[0]))
	if err != nil {
		return err
	}
	if err := svc.Margins.Replace(cmd.Context(), rows, "cli:"+filepath.Base(args[0])); err != nil {
		return err
	}
	logger.Info().Int("rows", len(rows)).Msg("Margins imported")
	return nil
}

func runClustersExport(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(args[0])
	if err != nil {
		return err
	}
	t, err := svc.Catalog.ClusterInfo(cmd.Context())
	if err != nil {
		return err
	}
	data, err := table.Write(t, format, "Clusters")
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	logger.Info().Int("rows", len(t.Rows)).Str("file", args[0]).Msg("Cluster info exported")
	return nil
}

func runClustersImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	t, err := table.Read(data, table.FormatFromFilename(args[0]))
	if err != nil {
		return err
	}
	res, err := svc.Catalog.ApplyClusterInfo(cmd.Context(), catalog.ClusterUpdatesFromTable(t))
	if err != nil {
		return err
	}
	return printJSON(res)
}
