package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vutto/pricing-service/internal/revision"
)

var (
	reviseModification bool
	reviseReason       string
	reviseEmail        string
	revisePrice        int64
	reviseStatus       string
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Create and resolve price requests",
}

var reviseScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the price revision scan over all listed vehicles",
	Long: `Walk every listed vehicle, open REVISION requests where the listing price
moved and send reminders for requests that are still pending.`,
	Args: cobra.NoArgs,
	RunE: runReviseScan,
}

var reviseListingCmd = &cobra.Command{
	Use:     "listing <bike id>",
	Short:   "Open a LISTING price request for a vehicle",
	Example: "  pricing-service revise listing 1042 --modification",
	Args:    cobra.ExactArgs(1),
	RunE:    runReviseListing,
}

var reviseManualCmd = &cobra.Command{
	Use:     "manual <bike id>",
	Short:   "Open a MANUAL price request with a user price",
	Example: `  pricing-service revise manual 1042 --price 54000 --reason "Dent on tank" --email ops@vutto.in`,
	Args:    cobra.ExactArgs(1),
	RunE:    runReviseManual,
}

var reviseStatusCmd = &cobra.Command{
	Use:   "status <request id>",
	Short: "Accept, modify or reject a pending price request",
	Example: `  pricing-service revise status 88 --status ACCEPTED --email ops@vutto.in
  pricing-service revise status 88 --status MODIFIED --price 52500 --email ops@vutto.in`,
	Args: cobra.ExactArgs(1),
	RunE: runReviseStatus,
}

func init() {
	rootCmd.AddCommand(reviseCmd)
	reviseCmd.AddCommand(reviseScanCmd, reviseListingCmd, reviseManualCmd, reviseStatusCmd)

	reviseListingCmd.Flags().BoolVar(&reviseModification, "modification", false, "Open a MODIFICATION request instead")

	reviseManualCmd.Flags().Int64Var(&revisePrice, "price", 0, "Requested listing price")
	reviseManualCmd.Flags().StringVar(&reviseReason, "reason", "", "Reason for the change")
	reviseManualCmd.Flags().StringVar(&reviseEmail, "email", "", "Requester email")

	reviseStatusCmd.Flags().StringVar(&reviseStatus, "status", "", "ACCEPTED, MODIFIED or REJECTED")
	reviseStatusCmd.Flags().Int64Var(&revisePrice, "price", 0, "Modified price (MODIFIED only)")
	reviseStatusCmd.Flags().StringVar(&reviseReason, "reason", "", "Reason for the decision")
	reviseStatusCmd.Flags().StringVar(&reviseEmail, "email", "", "Approver email")
	_ = reviseStatusCmd.MarkFlagRequired("status")
}

func runReviseScan(cmd *cobra.Command, args []string) error {
	summary, err := svc.Scanner.Run(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SCANNED\tCREATED\tAUTO REJECTED\tALERTED\tFAILED")
	fmt.Fprintln(w, "-------\t-------\t-------------\t-------\t------")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", summary.Scanned, summary.Created, summary.AutoRejected, summary.Alerted, summary.Failed)
	w.Flush()

	if summary.Failed > 0 {
		return fmt.Errorf("%d vehicles failed to price", summary.Failed)
	}
	return nil
}

func runReviseListing(cmd *cobra.Command, args []string) error {
	bikeID, err := parseID(args[0])
	if err != nil {
		return err
	}
	req, err := svc.Revisions.CreateListingRequest(cmd.Context(), bikeID, reviseModification)
	if err != nil {
		return err
	}
	return printJSON(req)
}

func runReviseManual(cmd *cobra.Command, args []string) error {
	bikeID, err := parseID(args[0])
	if err != nil {
		return err
	}
	req, err := svc.Revisions.CreateManualRequest(cmd.Context(), bikeID, reviseReason, reviseEmail, revisePrice)
	if err != nil {
		return err
	}
	return printJSON(req)
}

func runReviseStatus(cmd *cobra.Command, args []string) error {
	requestID, err := parseID(args[0])
	if err != nil {
		return err
	}
	in := revision.ChangeStatusInput{
		RequestID:     requestID,
		Status:        reviseStatus,
		ModifiedPrice: revisePrice,
		Email:         reviseEmail,
		Reason:        reviseReason,
	}
	if err := svc.Revisions.ChangeStatus(cmd.Context(), in); err != nil {
		return err
	}
	logger.Info().Int64("request_id", requestID).Str("status", reviseStatus).Msg("Price request resolved")
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
