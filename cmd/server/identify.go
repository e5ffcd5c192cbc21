package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	contacthandler "id-recon/internal/contact/handler"
	"id-recon/internal/contact/models"
)

func newIdentifyCommand(root *rootOptions) *cobra.Command {
	var email, phone string

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Reconcile one observation against the configured store",
		Example: `  recon identify --email doc@hillvalley.edu --phone 123456
  RECON_DB_DRIVER=sqlite recon identify --phone 123456`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, root.cfg, root.logger, false)
			if err != nil {
				return err
			}
			defer b.Close()

			svc, err := newContactService(root.cfg, b, root.logger, nil)
			if err != nil {
				return err
			}
			view, err := svc.Identify(ctx, models.IdentifyRequest{Email: email, PhoneNumber: phone})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(contacthandler.ToIdentifyResponse(view))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address observed")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number observed")
	return cmd
}

func newVerifyCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored contacts against the linkage invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, root.cfg, root.logger, false)
			if err != nil {
				return err
			}
			defer b.Close()

			svc, err := newContactService(root.cfg, b, root.logger, nil)
			if err != nil {
				return err
			}
			violations, err := svc.Verify(ctx)
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d linkage violation(s)", len(violations))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "linkage ok")
			return nil
		},
	}
}
