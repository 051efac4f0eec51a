package revision

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/vutto/pricing-service/internal/database"
)

func formatPrice(p *int64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatInt(*p, 10)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// bikeDetails renders one vehicle with its suggested price.
func bikeDetails(b *database.Bike, suggested int64) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "reg_no\t%s\n", b.RegNo)
	fmt.Fprintf(w, "brand_name\t%s\n", b.BrandName)
	fmt.Fprintf(w, "model_name\t%s\n", b.ModelName)
	fmt.Fprintf(w, "variant_name\t%s\n", b.VariantName)
	fmt.Fprintf(w, "km_driven\t%d\n", b.KmDriven)
	fmt.Fprintf(w, "listed_at\t%s\n", formatTime(b.ListedAt))
	fmt.Fprintf(w, "registration_year\t%d\n", b.RegistrationYear)
	fmt.Fprintf(w, "ownership\t%d\n", b.Ownership)
	fmt.Fprintf(w, "suggested price\t%d\n", suggested)
	w.Flush()
	return "Bike details:\n" + buf.String()
}

// staleListingAlert reminds the team of a vehicle listed too long.
func staleListingAlert(b *database.Bike, days int) (string, string) {
	subject := fmt.Sprintf("Bike %s id:%d has been listed for more than %d days", b.RegNo, b.ID, days)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "reg_no\t%s\n", b.RegNo)
	fmt.Fprintf(w, "brand_name\t%s\n", b.BrandName)
	fmt.Fprintf(w, "model_name\t%s\n", b.ModelName)
	fmt.Fprintf(w, "variant_name\t%s\n", b.VariantName)
	fmt.Fprintf(w, "km_driven\t%d\n", b.KmDriven)
	fmt.Fprintf(w, "listed_at\t%s\n", formatTime(b.ListedAt))
	fmt.Fprintf(w, "registration_year\t%d\n", b.RegistrationYear)
	fmt.Fprintf(w, "initial_listing_price\t%s\n", formatPrice(b.InitialListingPrice))
	fmt.Fprintf(w, "minimum selling price\t%s\n", formatPrice(b.MSP))
	fmt.Fprintf(w, "ownership\t%d\n", b.Ownership)
	fmt.Fprintf(w, "current price\t%s\n", formatPrice(b.Price))
	w.Flush()
	return subject, "Bike details:\n" + buf.String()
}

type revisionRow struct {
	bike      database.Bike
	suggested int64
}

// revisionSummary lists the vehicles that received a revision request.
func revisionSummary(rows []revisionRow) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "reg_no\tbrand_name\tmodel_name\tvariant_name\tkm_driven\tlisted_at\tregistration_year\townership\tcurrent price\tsuggested price after revision")
	for _, r := range rows {
		b := r.bike
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%s\t%d\n",
			b.RegNo, b.BrandName, b.ModelName, b.VariantName, b.KmDriven,
			formatTime(b.ListedAt), b.RegistrationYear, b.Ownership,
			formatPrice(b.Price), r.suggested)
	}
	w.Flush()
	return "Bikes details:\n" + buf.String()
}
