package commands

import (
	"fmt"

	"reviewcms/notify"

	"github.com/spf13/cobra"
)

var genVapidCmd = &cobra.Command{
	Use:   "gen-vapid",
	Short: "Generate a VAPID key pair for web push",
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKey, privateKey, err := notify.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("failed to generate VAPID keys: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "========================================")
		fmt.Fprintln(out, "VAPID PUBLIC KEY:")
		fmt.Fprintln(out, publicKey)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "VAPID PRIVATE KEY:")
		fmt.Fprintln(out, privateKey)
		fmt.Fprintln(out, "========================================")
		fmt.Fprintln(out, "Copy these and add them to your .env file:")
		fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", publicKey)
		fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", privateKey)
		fmt.Fprintln(out, "VAPID_SUBJECT=mailto:you@example.com")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genVapidCmd)
}
