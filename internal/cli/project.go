package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/api"
	"github.com/leeovery/termtodo/internal/config"
	"github.com/leeovery/termtodo/internal/doctor"
	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/storage"
)

func (a *App) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize termtodo in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(a.startDir())
			if err != nil {
				return fmt.Errorf("resolving absolute path: %w", err)
			}
			dataDir := filepath.Join(root, DataDirName)

			if _, err := os.Stat(dataDir); err == nil {
				return fmt.Errorf("termtodo already initialized in this directory")
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("could not create %s/ directory: %w", DataDirName, err)
			}

			if err := a.initProject(dataDir); err != nil {
				os.RemoveAll(dataDir)
				return err
			}

			if a.fc.Quiet {
				return nil
			}
			return a.formatter().FormatMessage(a.Stdout, fmt.Sprintf("Initialized termtodo in %s/", dataDir))
		},
	}
}

func (a *App) initProject(dataDir string) error {
	if err := config.WriteDefault(filepath.Join(dataDir, config.FileName)); err != nil {
		return err
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}
	s, err := a.openStoreAt(dataDir, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Init(a.Version)
}

func (a *App) settingsCmd() *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		return a.withStore(func(s *storage.Store) error {
			prefs, err := s.GetSettings()
			if err != nil {
				return err
			}
			return a.formatter().FormatSettings(a.Stdout, prefs)
		})
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show every setting",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := settings.ParsePatch(args[0], args[1])
				if err != nil {
					return err
				}
				return a.withStore(func(s *storage.Store) error {
					prefs, err := s.SetSettings(p)
					if err != nil {
						return err
					}
					if a.fc.Quiet {
						return nil
					}
					return a.formatter().FormatSettings(a.Stdout, prefs)
				})
			},
		},
		&cobra.Command{
			Use:   "username [name]",
			Short: "Show or set the username",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(func(s *storage.Store) error {
					if len(args) == 1 {
						if err := s.SetUsername(args[0]); err != nil {
							return err
						}
					}
					name, err := s.Username()
					if err != nil {
						return err
					}
					return a.formatter().FormatMessage(a.Stdout, name)
				})
			},
		},
	)
	return cmd
}

type doctorOutput struct {
	doctor.DiagnosticReport
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

func (a *App) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check stored tasks for integrity problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report doctor.DiagnosticReport
			err := a.withStore(func(s *storage.Store) error {
				tasks, err := s.GetTasks()
				if err != nil {
					return err
				}
				report = doctor.NewDefaultRunner().RunAll(cmd.Context(), tasks)
				return nil
			})
			if err != nil {
				return err
			}

			if a.fc.Format == FormatJSON {
				out := doctorOutput{DiagnosticReport: report, Errors: report.ErrorCount(), Warnings: report.WarningCount()}
				if err := writeJSON(a.Stdout, out); err != nil {
					return err
				}
			} else {
				doctor.FormatReport(a.Stdout, report)
			}

			if code := doctor.ExitCode(report); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
}

func (a *App) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task store over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withStore(func(s *storage.Store) error {
				srv := api.New(s, api.WithLogger(a.log.Named("api")), api.WithClock(a.Now))
				a.log.Info("serving", zap.String("addr", addr))
				return srv.Run(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")
	return cmd
}
