package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatflowers/bizpay/internal/app/service/click"
)

// signCmd prints the sign_string Click would send, for replaying callbacks
// against a local server.
func signCmd() *cobra.Command {
	var (
		req    click.CallbackRequest
		secret string
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute a callback sign_string",
		RunE: func(cmd *cobra.Command, args []string) error {
			action := click.ParseAction(req.Action)
			if action == click.ActionUnknown {
				return fmt.Errorf("unknown action %d", req.Action)
			}
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), click.Sign(&req, action, secret))
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&req.ClickTransID, "click-trans-id", 0, "Click transaction id")
	f.Int64Var(&req.ServiceID, "service-id", 0, "Click service id")
	f.StringVar(&req.MerchantTransID, "order-id", "", "Merchant order id (merchant_trans_id)")
	f.Int64Var(&req.MerchantPrepareID, "prepare-id", 0, "merchant_prepare_id, Complete only")
	f.StringVar(&req.Amount, "amount", "", "Amount exactly as sent, e.g. 1000.00")
	f.IntVar(&req.Action, "action", 0, "0 = Prepare, 1 = Complete")
	f.StringVar(&req.SignTime, "sign-time", "", "sign_time, YYYY-MM-DD HH:mm:ss")
	f.StringVar(&secret, "secret", "", "Merchant secret key")
	_ = cmd.MarkFlagRequired("order-id")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
