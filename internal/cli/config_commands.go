package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskgate/deskgate/internal/config"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage deskgate configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if identity != "" {
				cfg.Instance.Identity = identity
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[instance]\n")
			fmt.Fprintf(out, "  identity:             %s\n", cfg.Instance.Identity)
			fmt.Fprintf(out, "  connect_timeout_ms:   %d\n", cfg.Instance.ConnectTimeoutMs)
			fmt.Fprintf(out, "  read_timeout_seconds: %d\n", cfg.Instance.ReadTimeoutSeconds)
			fmt.Fprintf(out, "  runtime_dir:          %s\n", cfg.EffectiveRuntimeDir())
			fmt.Fprintf(out, "[protocol]\n")
			fmt.Fprintf(out, "  enabled:              %t\n", cfg.Protocol.Enabled)
			fmt.Fprintf(out, "  auto_register:        %t\n", cfg.Protocol.AutoRegister)
			fmt.Fprintf(out, "  name:                 %s\n", cfg.Protocol.Name)
			fmt.Fprintf(out, "  description:          %s\n", cfg.Protocol.Description)
			fmt.Fprintf(out, "[navigation]\n")
			fmt.Fprintf(out, "  argument_name:        %s\n", cfg.Navigation.ArgumentName)
			fmt.Fprintf(out, "  command:              %s\n", cfg.Navigation.Command)
			fmt.Fprintf(out, "[logging]\n")
			fmt.Fprintf(out, "  level:                %s\n", cfg.Logging.Level)

			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "\nWarning: %v\n", err)
			}
			return nil
		},
	}
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.NewConfig()
			if identity != "" {
				cfg.Instance.Identity = identity
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	}
}
