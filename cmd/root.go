package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pcswitch/config"
	"pcswitch/core"
	"pcswitch/logger"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var Version = "1.0.0"

// Env is everything the commands touch outside the process.
type Env struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Fs     afero.Fs
	Runner core.Runner
	IsRoot func() bool
}

func DefaultEnv() Env {
	return Env{
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Fs:     afero.NewOsFs(),
		Runner: core.ExecRunner{},
		IsRoot: func() bool { return os.Geteuid() == 0 },
	}
}

type options struct {
	cfgFile      string
	logPathFlag  string
	logLevelFlag string

	tor     bool
	chisel  bool
	cs      bool
	add     string
	list    bool
	del     bool
	backup  bool
	restore bool
	check   bool

	act action
}

// exitError carries a process exit code. An empty message means the user
// has already been told what went wrong.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func fatalf(format string, v ...interface{}) error {
	msg := fmt.Sprintf(format, v...)
	logger.Error("%s", msg)
	return &exitError{code: 1, msg: msg}
}

// report prints err on env.Err and returns it with the message consumed, so
// Execute does not print it again.
func report(env Env, err error) error {
	if err == nil {
		return nil
	}
	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(env.Err, "[x] %s\n", msg)
	}
	return &exitError{code: code}
}

// ExitCode maps an Execute error to a process status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func NewRootCmd(env Env) *cobra.Command {
	o := &options{}
	a := &app{env: env}

	rootCmd := &cobra.Command{
		Use:   "pcswitch",
		Short: "Simple proxychains changer",
		Long: `pcswitch rewrites the proxychains config to switch between the Tor and
chisel presets or your own custom proxies, then checks the resulting
egress IP. Every option except --list and --check needs root.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			o.act = o.pick(cmd)
			if err := requireRoot(env, o.act); err != nil {
				return err
			}

			cfg, configUsedMsg, err := config.Load(o.cfgFile)
			if err != nil {
				return report(env, fmt.Errorf("failed to load configuration: %w", err))
			}
			if o.logPathFlag != "" {
				cfg.Logging.Path = o.logPathFlag
			}
			if o.logLevelFlag != "" {
				cfg.Logging.Level = strings.ToUpper(o.logLevelFlag)
			}
			logger.SetErrorOutput(env.Err)
			if err := logger.InitGlobalLoggers(cfg.Logging.Path, cfg.Logging.Level); err != nil {
				return report(env, fmt.Errorf("failed to initialize loggers: %w", err))
			}
			logger.Info(configUsedMsg)
			logger.Debug("Final configuration: %+v", cfg)
			a.init(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(env, a.dispatch(cmd, o))
		},
	}
	rootCmd.SetIn(env.In)
	rootCmd.SetOut(env.Out)
	rootCmd.SetErr(env.Err)

	rootCmd.PersistentFlags().StringVar(&o.cfgFile, "config", "", "config file (default is $HOME/.config/pcswitch/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&o.logPathFlag, "log-file", "", "path for the application log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&o.logLevelFlag, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR (overrides config/default)")

	flags := rootCmd.Flags()
	flags.BoolVar(&o.tor, "tor", false, "Change proxychains setting to tor network")
	flags.BoolVar(&o.chisel, "chisel", false, "Change proxychains setting to chisel network (default: socks5 127.0.0.1 1080)")
	flags.BoolVar(&o.cs, "cs", false, "Select a custom proxy you added before")
	flags.StringVar(&o.add, "add", "", "Add your custom proxy address to proxychains config")
	flags.BoolVarP(&o.list, "list", "l", false, "List the custom proxies you added")
	flags.BoolVarP(&o.del, "delete", "d", false, "Delete a custom proxy from proxychains config")
	flags.BoolVarP(&o.backup, "backup", "b", false, "Backup proxychains config")
	flags.BoolVarP(&o.restore, "restore", "r", false, "Restore the proxychains config you backed up before")
	flags.BoolVarP(&o.check, "check", "c", false, "Show the current egress IP and its location")

	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := DefaultEnv()
	rootCmd := NewRootCmd(env)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(env.Err, "[x] %s\n", msg)
		}
		stop()
		logger.CloseLogFiles()
		os.Exit(ExitCode(err))
	}
}
