// Package main provides the ncov-watch command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	configName = ".ncov-watch"
	envPrefix  = "NCOV_WATCH"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stderr)
	defer func() { _ = a.logger.Sync() }()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// app holds the state shared by all commands.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	logSink io.Writer
	cfgFile string
}

func newApp(logSink io.Writer) *app {
	return &app{
		v:       viper.New(),
		logger:  zap.NewNop(),
		logSink: logSink,
	}
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ncov-watch",
		Short: "Screen SARS-CoV-2 variant calls against mutation watchlists",
		Long: `ncov-watch reports which samples carry mutations from a watchlist.

Sample files are VCF files (*pass.vcf, *pass.vcf.gz) or iVar variant tables
(*variants.tsv). Files may be local paths or s3://bucket/key URIs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return a.initLogger()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default ~/.ncov-watch.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("s3-region", "", "AWS region for s3:// inputs")
	pf.String("s3-endpoint", "", "Custom S3 endpoint, e.g. a MinIO URL")
	pf.Bool("s3-path-style", false, "Use path-style S3 addressing")

	a.mustBind("log-level", pf.Lookup("log-level"))
	a.mustBind("s3.region", pf.Lookup("s3-region"))
	a.mustBind("s3.endpoint", pf.Lookup("s3-endpoint"))
	a.mustBind("s3.path-style", pf.Lookup("s3-path-style"))

	root.AddCommand(a.newScreenCmd())
	root.AddCommand(a.newWatchlistsCmd())
	root.AddCommand(a.newQueryCmd())
	root.AddCommand(a.newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ncov-watch version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig reads the config file and environment.
// A missing default config file is not an error.
func (a *app) initConfig() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	a.v.SetConfigName(configName)
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(home)

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// initLogger builds the console logger. Logs go to stderr so they never mix
// with report output.
func (a *app) initLogger() error {
	level, err := zapcore.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(a.logSink), level)
	a.logger = zap.New(core)
	return nil
}

// defaultConfigPath returns the path config set writes to when no config
// file was read.
func (a *app) defaultConfigPath() (string, error) {
	if used := a.v.ConfigFileUsed(); used != "" {
		return used, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// mustBind binds a viper key to a flag. Binding only fails for a nil flag,
// which is a programming error.
func (a *app) mustBind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// bindFlags binds command flags to config keys. Commands bind in PreRunE
// because screen and query share the db key.
func (a *app) bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		a.mustBind(key, cmd.Flags().Lookup(name))
	}
}
