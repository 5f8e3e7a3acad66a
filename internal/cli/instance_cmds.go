package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/deskgate/deskgate/internal/args"
	"github.com/deskgate/deskgate/internal/config"
	"github.com/deskgate/deskgate/internal/gate"
	"github.com/deskgate/deskgate/internal/ipc"
	"github.com/deskgate/deskgate/internal/navigation"
	"github.com/deskgate/deskgate/internal/notify"
	"github.com/deskgate/deskgate/internal/protocol"
	"github.com/deskgate/deskgate/internal/singleinstance"
)

// newRunCmd creates the "run" command, the launch entry point.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [arguments...]",
		Short: "Launch, or forward arguments to the running instance",
		Long: `Launch the application instance.

If another instance is already running and arguments were given, they are
forwarded to it and this process exits. If the running instance cannot be
reached, this process continues as an independent instance.

The leader serves forwarded arguments until interrupted (Ctrl+C).`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := GetLogger()
			ctx := GetContext()

			inst, err := singleinstance.New(singleinstance.Options{
				Identity:       cfg.Instance.Identity,
				Args:           rawArgs,
				Dir:            cfg.EffectiveRuntimeDir(),
				ConnectTimeout: cfg.ConnectTimeout(),
				ReadTimeout:    cfg.ReadTimeout(),
				Logger:         log,
			})
			if err != nil {
				return err
			}
			defer inst.Close()

			if !inst.IsFirstInstance() {
				if inst.PassArgumentsToFirstInstance(ctx) {
					log.Info().Strs("args", inst.Arguments()).Msg("Arguments forwarded to the running instance")
					return nil
				}
				log.Warn().Msg("Running instance is unreachable; continuing as an independent instance")
			}

			handler, err := newNavigationHandler(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if inst.OwnsLock() {
				autoRegisterProtocol(cfg)

				inst.Subscribe(handler.HandleArguments)
				if err := inst.ListenForArgumentsFromSuccessiveInstances(); err != nil {
					return fmt.Errorf("failed to listen for arguments: %w", err)
				}
			}

			if err := handler.HandleStartup(ctx, inst.Arguments()); err != nil {
				log.Warn().Err(err).Msg("Startup navigation failed")
			}

			log.Info().
				Str("identity", inst.Identity()).
				Bool("leader", inst.OwnsLock()).
				Msg("Instance running; press Ctrl+C to exit")

			<-ctx.Done()
			return nil
		},
	}
}

// newSendCmd creates the "send" command.
func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <arguments...>",
		Short: "Forward arguments to the running instance",
		Long: `Forward arguments to the running instance without ever becoming one.
Exits with an error if no instance is reachable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			normalized := args.Normalize(rawArgs)
			if len(normalized) == 0 {
				return fmt.Errorf("nothing to send: all arguments are empty")
			}

			client := ipc.NewClient(ipc.Address(cfg.EffectiveRuntimeDir(), cfg.Instance.Identity))
			client.SetTimeout(cfg.ConnectTimeout())

			if err := client.Send(GetContext(), normalized); err != nil {
				return fmt.Errorf("failed to forward arguments: %w", err)
			}

			GetLogger().Debug().Strs("args", normalized).Msg("Arguments forwarded")
			return nil
		},
	}
}

// newStatusCmd creates the "status" command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an instance is running",
		Long: `Show whether an instance is running.

When no instance holds the lock, status takes it briefly to find out. A
"deskgate run" started in that moment sees the lock held, fails to reach a
leader and starts as an independent instance. Avoid running status in a loop
alongside launches.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dir := cfg.EffectiveRuntimeDir()
			address := ipc.Address(dir, cfg.Instance.Identity)

			// Probing the lock takes it briefly when it is free
			g, err := gate.Acquire(cfg.Instance.Identity, gate.WithDir(dir))
			if err != nil {
				return err
			}
			held := !g.Owned()
			if err := g.Release(); err != nil {
				return err
			}

			client := ipc.NewClient(address)
			client.SetTimeout(cfg.ConnectTimeout())
			answering := client.Probe(GetContext())
			pid, alive := singleinstance.LeaderPID(dir, cfg.Instance.Identity)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "deskgate Instance Status\n")
			fmt.Fprintf(out, "  Identity:  %s\n", cfg.Instance.Identity)
			fmt.Fprintf(out, "  Lock:      %s\n", lockState(held))
			fmt.Fprintf(out, "  Endpoint:  %s\n", address)
			fmt.Fprintf(out, "  Listening: %t\n", answering)
			if pid > 0 {
				fmt.Fprintf(out, "  Leader:    PID %d (%s)\n", pid, processState(alive))
			}
			return nil
		},
	}
}

func lockState(held bool) string {
	if held {
		return "held by a running instance"
	}
	return "free"
}

func processState(alive bool) string {
	if alive {
		return "running"
	}
	return "not running"
}

// newNavigationHandler builds the handler that turns received arguments into
// shortcuts. Without a configured command, shortcuts are printed to out.
func newNavigationHandler(cfg *config.Config, out io.Writer) (*navigation.Handler, error) {
	var nav navigation.Navigator = navigation.LogNavigator{W: out}
	if cfg.Navigation.Command != "" {
		cmdNav, err := navigation.NewCommandNavigator(cfg.Navigation.Command, GetLogger())
		if err != nil {
			return nil, err
		}
		nav = cmdNav
	}
	if cfg.Navigation.Notify {
		nav = notify.NewNotifier(cfg.Instance.Identity, true, GetLogger()).Wrap(nav)
	}

	return &navigation.Handler{
		Cleaner: args.Cleaner{
			ProtocolHandler: cfg.ProtocolHandler(),
			ArgumentName:    cfg.Navigation.ArgumentName,
		},
		Navigator: nav,
		Logger:    GetLogger(),
	}, nil
}

// autoRegisterProtocol registers the protocol handler when configured to.
// Failures are logged; the instance still runs.
func autoRegisterProtocol(cfg *config.Config) {
	opts := protocol.FromConfig(cfg.Protocol)
	if !opts.Enabled || !opts.AutoRegister {
		return
	}
	if err := protocol.Register(opts, ""); err != nil {
		GetLogger().Warn().Err(err).Str("protocol", opts.Handler()).Msg("Failed to register protocol handler")
		return
	}
	GetLogger().Debug().Str("protocol", opts.Handler()).Msg("Protocol handler registered")
}
