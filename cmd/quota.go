package cmd

import (
	"fmt"

	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/spf13/cobra"
)

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show free generation usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			gate, flags, err := openGate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer flags.Close()

			status := gate.Status()
			out := cmd.OutOrStdout()
			if status.Unlocked {
				fmt.Fprintf(out, "Unlimited generations (unlocked by %s). %d used.\n", status.Email, status.Used)
				return nil
			}
			fmt.Fprintf(out, "%d of %d free generations used, %d remaining.\n", status.Used, status.Limit, status.Remaining)
			return nil
		},
	}
}

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <email>",
		Short: "Unlock unlimited generations with an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			gate, flags, err := openGate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer flags.Close()

			if err := gate.Unlock(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Unlimited generations unlocked for %s\n", args[0])
			return nil
		},
	}
}
