package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vutto/pricing-service/internal/pricing"
)

var (
	warningsYear    int
	warningsRefresh bool
)

var warningsCmd = &cobra.Command{
	Use:   "warnings <make model>",
	Short: "Show live inventory warnings for a model",
	Long: `Check the model's cluster against the live inventory sheet. With --year
the registration year is checked against the model's year window instead.`,
	Example: `  pricing-service warnings "Bajaj Pulsar 150"
  pricing-service warnings "Bajaj Pulsar 150" --year 2017
  pricing-service warnings "Bajaj Pulsar 150" --refresh`,
	Args: cobra.ExactArgs(1),
	RunE: runWarnings,
}

func init() {
	rootCmd.AddCommand(warningsCmd)

	warningsCmd.Flags().IntVar(&warningsYear, "year", 0, "Registration year to check")
	warningsCmd.Flags().BoolVar(&warningsRefresh, "refresh", false, "Reload the live inventory sheet before checking")
}

func runWarnings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	makeModel := args[0]

	if warningsRefresh {
		snap, err := svc.Inventory.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("failed to refresh inventory: %w", err)
		}
		logger.Info().Int("rows", len(snap.Rows)).Time("updated_at", snap.UpdatedAt).Msg("Inventory refreshed")
	}

	if warningsYear > 0 {
		warnings, err := svc.Checker.YearWarnings(ctx, makeModel, warningsYear)
		if err != nil {
			return err
		}
		printWarnings(warnings)
		return nil
	}

	inv, err := svc.Checker.ModelWarnings(ctx, makeModel)
	if err != nil {
		return err
	}
	if inv.CurrentInventoryLevels != nil && inv.ModelInventoryMaxLevels != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tMAX\t<2018\t2018-2022\t>2022")
		fmt.Fprintln(w, "-------\t---\t-----\t---------\t-----")
		years := pricing.YearInventoryLevels{}
		if inv.YearInventoryLevels != nil {
			years = *inv.YearInventoryLevels
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n",
			*inv.CurrentInventoryLevels, *inv.ModelInventoryMaxLevels,
			years.Before2018, years.Between2018To2022, years.After2022)
		w.Flush()
	}
	printWarnings(inv.Warnings)
	return nil
}

func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		fmt.Println("No warnings")
		return
	}
	for _, w := range warnings {
		fmt.Println("- " + w)
	}
}
