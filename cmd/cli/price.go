package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vutto/pricing-service/internal/pricing"
)

var (
	priceReq     pricing.QuoteRequest
	priceListing string
	priceFeature map[string]string
)

var priceCmd = &cobra.Command{
	Use:   "price <make model>",
	Short: "Quote a used vehicle",
	Long: `Run the pricing engine for a vehicle. Without --variant the model-level
procurement range across all variants is printed.`,
	Example: `  pricing-service price "Honda Activa 6G" --variant STD --year 2021 --km 12000 --owner 1
  pricing-service price "Royal Enfield Classic 350" --year 2019 --km 30000 --augment`,
	Args: cobra.ExactArgs(1),
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	f := priceCmd.Flags()
	f.StringVar(&priceReq.Variant, "variant", "", "Variant name")
	f.StringVar(&priceReq.Type, "type", "", "Vehicle type")
	f.IntVar(&priceReq.Km, "km", 0, "Odometer reading")
	f.IntVar(&priceReq.Year, "year", 0, "Registration year")
	f.IntVar(&priceReq.Month, "month", 0, "Registration month (defaults to the configured month)")
	f.IntVar(&priceReq.Owner, "owner", 1, "Ownership serial")
	f.Float64Var(&priceReq.RefurbCost, "refurb-cost", 0, "Refurbishment cost")
	f.Float64Var(&priceReq.RefurbCostPercent, "refurb-percent", 0, "Refurbishment cost as a fraction of the used price")
	f.Float64Var(&priceReq.OnRoadPrice, "on-road-price", 0, "Override the catalog on-road price")
	f.BoolVar(&priceReq.SkipInventoryMarginInflation, "skip-inflation", false, "Ignore live inventory levels")
	f.BoolVar(&priceReq.AugmentRange, "augment", false, "Print only the procurement range")
	f.StringVar(&priceListing, "listing-date", "", "Listing date for markup revisions (YYYY-MM-DD)")
	f.StringToStringVar(&priceFeature, "feature", nil, "Custom feature values, e.g. --feature abs=Dual")
}

func runPrice(cmd *cobra.Command, args []string) error {
	req := priceReq
	req.MakeModel = args[0]
	req.CustomFeature = priceFeature
	if priceListing != "" {
		listed, err := time.Parse(time.DateOnly, priceListing)
		if err != nil {
			return fmt.Errorf("invalid listing date %q: %w", priceListing, err)
		}
		req.ListingDate = &listed
	}

	result, err := svc.Engine.Quote(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(result.Payload(req.AugmentRange))
}
