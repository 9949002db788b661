package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	payAdapters "content-marketplace/internal/infra/adapters/payment"
	sig "content-marketplace/internal/infra/payment"

	"github.com/spf13/cobra"
)

// splitURL accepts a full URL or a bare query string.
func splitURL(raw string) (base string, params url.Values, err error) {
	base, query, found := strings.Cut(raw, "?")
	if !found {
		base, query = "", raw
	}
	params, err = url.ParseQuery(query)
	if err != nil {
		return "", nil, fmt.Errorf("parse query: %w", err)
	}
	return base, params, nil
}

func signURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-url <url-or-query>",
		Short: "Sign vnp_* parameters with the configured hash secret",
		Long: `Re-encodes the parameters canonically, drops any existing signature and appends a
fresh vnp_SecureHash. Useful for replaying sandbox callbacks against a local server:

  paymentctl sign-url "http://localhost:8080/api/v1/payments/vnpay/ipn?vnp_TxnRef=...&vnp_Amount=19900000&vnp_ResponseCode=00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			gw, err := payAdapters.NewVNPayGateway(cfg.Payment.VNPay)
			if err != nil {
				return err
			}
			base, params, err := splitURL(args[0])
			if err != nil {
				return err
			}
			params.Del(sig.FieldSecureHash)
			params.Del(sig.FieldSecureHashType)

			signed := sig.Canonicalize(params) + "&" + sig.FieldSecureHash + "=" + gw.SignParams(params)
			if base != "" {
				signed = base + "?" + signed
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
}

func verifyURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-url <url-or-query>",
		Short: "Check the signature of a VNPay return/IPN URL and print the decoded callback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			gw, err := payAdapters.NewVNPayGateway(cfg.Payment.VNPay)
			if err != nil {
				return err
			}
			_, params, err := splitURL(args[0])
			if err != nil {
				return err
			}
			cb, err := gw.ParseCallback(params)
			if err != nil {
				return fmt.Errorf("rejected: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cb)
		},
	}
}
