package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fatflowers/bizpay/internal/platform/click/click_merchant"
	"github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/money"
)

// credentialFlags binds merchant credentials. The secret falls back to
// CLICK_SECRET_KEY so it stays out of shell history.
func credentialFlags(cmd *cobra.Command, cred *click_merchant.Credentials) {
	f := cmd.Flags()
	f.Int64Var(&cred.ServiceID, "service-id", 0, "Click service id")
	f.Int64Var(&cred.MerchantID, "merchant-id", 0, "Click merchant id")
	f.Int64Var(&cred.MerchantUserID, "merchant-user-id", 0, "Click merchant user id")
	f.StringVar(&cred.SecretKey, "secret", "", "Merchant secret key (default $CLICK_SECRET_KEY)")
	_ = cmd.MarkFlagRequired("service-id")
}

func resolveSecret(cred *click_merchant.Credentials) error {
	if cred.SecretKey == "" {
		cred.SecretKey = os.Getenv("CLICK_SECRET_KEY")
	}
	if cred.SecretKey == "" {
		return fmt.Errorf("--secret or CLICK_SECRET_KEY is required")
	}
	return nil
}

func newMerchantClient() (*click_merchant.Client, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	return click_merchant.NewClient(&click_merchant.ClientOptions{
		CheckoutURL: cfg.Click.CheckoutURL,
		APIURL:      cfg.Click.APIURL,
		Timeout:     cfg.Click.Timeout,
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func urlCmd() *cobra.Command {
	var (
		cred      click_merchant.Credentials
		amount    string
		orderID   string
		returnURL string
	)
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Build a hosted checkout link",
		RunE: func(cmd *cobra.Command, args []string) error {
			minor, err := money.ParseMinor(amount)
			if err != nil {
				return err
			}
			client, err := newMerchantClient()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.PaymentURL(click_merchant.PaymentURLParams{
				ServiceID:  cred.ServiceID,
				MerchantID: cred.MerchantID,
				Amount:     minor,
				OrderID:    orderID,
				ReturnURL:  returnURL,
			}))
			return nil
		},
	}
	credentialFlags(cmd, &cred)
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in major units, e.g. 1500.00")
	cmd.Flags().StringVar(&orderID, "order-id", "", "Merchant order id")
	cmd.Flags().StringVar(&returnURL, "return-url", "", "Where Click redirects after payment")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func invoiceCmd() *cobra.Command {
	var (
		cred   click_merchant.Credentials
		amount string
		phone  string
		order  string
	)
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Push an invoice to a payer's phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveSecret(&cred); err != nil {
				return err
			}
			minor, err := money.ParseMinor(amount)
			if err != nil {
				return err
			}
			client, err := newMerchantClient()
			if err != nil {
				return err
			}
			res := client.CreateInvoice(context.Background(), cred, click_merchant.InvoiceRequest{
				Amount:      minor,
				PhoneNumber: phone,
				OrderID:     order,
			})
			return printJSON(cmd, res)
		},
	}
	credentialFlags(cmd, &cred)
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in major units")
	cmd.Flags().StringVar(&phone, "phone", "", "Payer phone, e.g. 998901234567")
	cmd.Flags().StringVar(&order, "order-id", "", "Merchant order id")
	_ = cmd.MarkFlagRequired("merchant-user-id")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func statusCmd() *cobra.Command {
	var (
		cred      click_merchant.Credentials
		paymentID int64
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query Click for the status of a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveSecret(&cred); err != nil {
				return err
			}
			client, err := newMerchantClient()
			if err != nil {
				return err
			}
			return printJSON(cmd, client.CheckPaymentStatus(context.Background(), cred, paymentID))
		},
	}
	credentialFlags(cmd, &cred)
	cmd.Flags().Int64Var(&paymentID, "payment-id", 0, "Click payment id")
	_ = cmd.MarkFlagRequired("merchant-user-id")
	_ = cmd.MarkFlagRequired("payment-id")
	return cmd
}
