package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fatflowers/bizpay/pkg/authtoken"
	"github.com/fatflowers/bizpay/pkg/config"
)

func tokenCmd() *cobra.Command {
	var (
		businessID string
		role       string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the merchant or admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := authtoken.Role(role)
			if r != authtoken.RoleMerchant && r != authtoken.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}
			if r == authtoken.RoleMerchant && businessID == "" {
				return fmt.Errorf("--business-id is required for merchant tokens")
			}
			cfg, err := config.New()
			if err != nil {
				return err
			}
			tok, err := authtoken.Generate(cfg.Auth.JWTSecret, cfg.Auth.Issuer, businessID, r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&businessID, "business-id", "", "Business the token acts for")
	cmd.Flags().StringVar(&role, "role", string(authtoken.RoleMerchant), "merchant or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
