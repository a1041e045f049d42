// Package cli implements the termtodo command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/config"
	"github.com/leeovery/termtodo/internal/kv"
	"github.com/leeovery/termtodo/internal/logging"
	"github.com/leeovery/termtodo/internal/storage"
)

// lockFileName is the flock target inside the data directory.
const lockFileName = "lock"

// App is the termtodo CLI application.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	// Dir is the directory discovery starts from. --dir overrides it.
	Dir     string
	Version string
	// Now is the clock used for new tasks and exports. Defaults to UTC now.
	Now func() time.Time
	// IsTTY reports whether Stdout is a terminal. Defaults to DetectTTY.
	IsTTY func() bool

	flags   globalFlags
	dataDir string
	cfg     config.Config
	log     *zap.Logger
	logDone func() error
	fc      FormatConfig
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	dir     string
	quiet   bool
	verbose bool
	toon    bool
	pretty  bool
	json    bool
}

// exitError carries a non-zero exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Run executes the command line and returns the process exit code.
// args[0] is the program name.
func (a *App) Run(args []string) int {
	a.defaults()

	root := a.rootCmd()
	root.SetArgs(args[1:])
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)
	root.SetIn(a.Stdin)

	err := root.Execute()
	if a.logDone != nil {
		_ = a.logDone()
	}
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(a.Stderr, "Error: %s\n", err)
	return 1
}

func (a *App) defaults() {
	if a.Stdout == nil {
		a.Stdout = os.Stdout
	}
	if a.Stderr == nil {
		a.Stderr = os.Stderr
	}
	if a.Stdin == nil {
		a.Stdin = os.Stdin
	}
	if a.Dir == "" {
		a.Dir = "."
	}
	if a.Version == "" {
		a.Version = "dev"
	}
	if a.Now == nil {
		a.Now = func() time.Time { return time.Now().UTC() }
	}
	if a.IsTTY == nil {
		a.IsTTY = func() bool { return DetectTTY(a.Stdout) }
	}
}

func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "termtodo",
		Short:         "A task list for the terminal",
		Version:       a.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.dir, "dir", "", "start project discovery from this directory")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug detail to stderr")
	pf.BoolVar(&a.flags.toon, "toon", false, "force TOON output")
	pf.BoolVar(&a.flags.pretty, "pretty", false, "force human-readable output")
	pf.BoolVar(&a.flags.json, "json", false, "force JSON output")

	root.AddCommand(
		a.initCmd(),
		a.addCmd(),
		a.listCmd(),
		a.showCmd(),
		a.updateCmd(),
		a.statusCmd(),
		a.toggleCmd(),
		a.removeCmd(),
		a.subtaskCmd(),
		a.tagsCmd(),
		a.statsCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.settingsCmd(),
		a.backupCmd(),
		a.restoreCmd(),
		a.doctorCmd(),
		a.serveCmd(),
	)
	return root
}

// setup discovers the project, loads its config, builds the logger and
// resolves the output format. Outside a project the defaults apply, so init
// and help still work.
func (a *App) setup() error {
	a.cfg = config.Default()
	a.dataDir = ""
	if dataDir, err := DiscoverDataDir(a.startDir()); err == nil {
		a.dataDir = dataDir
		cfg, err := config.Load(dataDir)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	logger, done, err := logging.New(a.cfg.Log, logging.Options{Verbose: a.flags.verbose, Console: a.Stderr})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	a.log, a.logDone = logger, done

	format, err := ResolveFormat(a.flags.toon, a.flags.pretty, a.flags.json, a.cfg.Output.Format, a.IsTTY())
	if err != nil {
		return err
	}
	a.fc = FormatConfig{Format: format, Quiet: a.flags.quiet, Verbose: a.flags.verbose}
	a.log.Debug("resolved project",
		zap.String("data_dir", a.dataDir),
		zap.String("backend", a.cfg.Storage.Backend),
		zap.String("format", string(format)),
	)
	return nil
}

func (a *App) startDir() string {
	if a.flags.dir != "" {
		return a.flags.dir
	}
	return a.Dir
}

// openStore opens the discovered project's task store. Callers must close it.
func (a *App) openStore() (*storage.Store, error) {
	if a.dataDir == "" {
		_, err := DiscoverDataDir(a.startDir())
		return nil, err
	}
	return a.openStoreAt(a.dataDir, a.cfg)
}

func (a *App) openStoreAt(dataDir string, cfg config.Config) (*storage.Store, error) {
	backend, err := kv.Open(cfg.Storage.Backend, dataDir)
	if err != nil {
		return nil, err
	}
	return storage.New(
		kv.Namespace(backend, cfg.Storage.Namespace),
		storage.WithLockFile(filepath.Join(dataDir, lockFileName)),
		storage.WithLockTimeout(cfg.Storage.LockTimeout),
		storage.WithLogger(a.log.Named("storage")),
		storage.WithClock(a.Now),
	), nil
}

// withStore opens the store, runs fn and closes the store.
func (a *App) withStore(fn func(s *storage.Store) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (a *App) formatter() Formatter {
	return a.fc.Formatter()
}
