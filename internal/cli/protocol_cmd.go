package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskgate/deskgate/internal/protocol"
)

// newProtocolCmd creates the protocol command group.
func newProtocolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Manage the custom URI protocol handler",
	}

	cmd.AddCommand(newProtocolShowCmd())
	cmd.AddCommand(newProtocolRegisterCmd())

	return cmd
}

func newProtocolShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configured protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := protocol.FromConfig(cfg.Protocol)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Protocol Handler\n")
			fmt.Fprintf(out, "  Enabled:       %t\n", opts.Enabled)
			fmt.Fprintf(out, "  Auto-register: %t\n", opts.AutoRegister)
			fmt.Fprintf(out, "  Handler:       %s\n", opts.Handler())
			fmt.Fprintf(out, "  Description:   %s\n", opts.EffectiveDescription())
			return nil
		},
	}
}

func newProtocolRegisterCmd() *cobra.Command {
	var executable string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this executable as the protocol handler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := protocol.FromConfig(cfg.Protocol)

			if err := protocol.Register(opts, executable); err != nil {
				return fmt.Errorf("failed to register %s: %w", opts.Handler(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s handler\n", opts.Handler())
			return nil
		},
	}

	cmd.Flags().StringVar(&executable, "executable", "", "Executable to register (default: this binary)")
	return cmd
}
