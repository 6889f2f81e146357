package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/functest-config/internal/application"
	"github.com/eugenenazirov/functest-config/internal/config"
	"github.com/eugenenazirov/functest-config/internal/logging"
	"github.com/eugenenazirov/functest-config/internal/render"
	"github.com/eugenenazirov/functest-config/internal/storage"
)

var signalNotify = signal.Notify

type cli struct {
	app        *kingpin.Application
	configFile *string
	set        *map[string]string
	logLevel   *string

	show       *kingpin.CmdClause
	showFormat *string

	get    *kingpin.CmdClause
	getKey *string

	keys *kingpin.CmdClause

	materialize       *kingpin.CmdClause
	materializeFormat *string
	materializeOut    *string
	materializeDryRun *bool

	serve         *kingpin.CmdClause
	serveListen   *string
	serveRPS      *float64
	serveBurst    *int
	serveGrace    *time.Duration
	serveQuietLog *bool
}

func newCLI(stdout io.Writer) *cli {
	defaults := application.DefaultServerConfig()
	c := &cli{}

	c.app = kingpin.New("functest-config", "Settings table for the directory server functional tests")
	c.app.UsageWriter(stdout)
	c.configFile = c.app.Flag("config", "Path to a YAML or TOML file of KEY: value overrides").Envar("FUNCTEST_CONFIG").String()
	c.set = c.app.Flag("set", "Override a literal key (KEY=VALUE, repeatable)").Short('s').StringMap()
	c.logLevel = c.app.Flag("log-level", "Log level (debug, info, warn, error)").Default("info").String()

	c.show = c.app.Command("show", "Print the resolved table").Default()
	c.showFormat = c.show.Flag("format", "Output format: python, shell, env, yaml, json, toml").Short('f').Default(string(render.FormatPython)).String()

	c.get = c.app.Command("get", "Print the value of one key")
	c.getKey = c.get.Arg("key", "Key name").Required().String()

	c.keys = c.app.Command("keys", "List keys and their derivations")

	c.materialize = c.app.Command("materialize", "Write the password file and a rendered config to disk")
	c.materializeFormat = c.materialize.Flag("format", "Format of the rendered config").Short('f').Default(string(render.FormatPython)).String()
	c.materializeOut = c.materialize.Flag("out", "Rendered config path (defaults to TMPDIR/functest-config.<ext>)").Short('o').String()
	c.materializeDryRun = c.materialize.Flag("dry-run", "List the files that would be written").Bool()

	c.serve = c.app.Command("serve", "Publish the table over HTTP for remote test hosts")
	c.serveListen = c.serve.Flag("listen", "Listen address").Default(defaults.Addr).String()
	c.serveRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (0 disables)").Default(fmt.Sprint(defaults.RateLimitRPS)).Float64()
	c.serveBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (0 disables)").Default(fmt.Sprint(defaults.RateLimitBurst)).Int()
	c.serveGrace = c.serve.Flag("shutdown-grace", "Graceful shutdown timeout").Default(defaults.ShutdownGracePeriod.String()).Duration()
	c.serveQuietLog = c.serve.Flag("no-access-log", "Disable per-request logging").Bool()

	return c
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "functest-config: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	c := newCLI(stdout)
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(*c.logLevel)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.Load(&config.Overrides{
		ConfigFile: *c.configFile,
		Values:     *c.set,
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Debug("configuration loaded",
		zap.String("config_file", *c.configFile),
		zap.Int("overrides", len(*c.set)),
	)

	switch command {
	case c.show.FullCommand():
		format, err := render.ParseFormat(*c.showFormat)
		if err != nil {
			return err
		}
		return render.Render(stdout, cfg, format)

	case c.get.FullCommand():
		key, err := config.ParseKey(*c.getKey)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, cfg.Value(key))
		return err

	case c.keys.FullCommand():
		return printKeys(stdout, cfg)

	case c.materialize.FullCommand():
		return runMaterialize(c, cfg, stdout, logger)

	case c.serve.FullCommand():
		return runServe(c, cfg, logger)
	}

	return fmt.Errorf("unhandled command %q", command)
}

func printKeys(w io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range cfg.Entries() {
		origin := "literal"
		if source, ok := e.Key.Source(); ok {
			template, _ := e.Key.Template()
			origin = fmt.Sprintf("%q %% %s", template, source)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, origin, e.Key.EnvVar()); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runMaterialize(c *cli, cfg *config.Config, stdout io.Writer, logger *zap.Logger) error {
	format, err := render.ParseFormat(*c.materializeFormat)
	if err != nil {
		return err
	}

	var store storage.Storage = storage.NewFileStorage()
	memory := storage.NewMemoryStorage()
	if *c.materializeDryRun {
		store = memory
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := storage.Materialize(ctx, store, cfg, format, *c.materializeOut)
	if err != nil {
		return err
	}

	if *c.materializeDryRun {
		for _, f := range memory.Files() {
			if _, err := fmt.Fprintf(stdout, "would write %s (%d bytes, mode %04o)\n", f.Path, len(f.Data), f.Perm); err != nil {
				return err
			}
		}
		return nil
	}

	logger.Info("configuration materialized",
		zap.String("password_file", res.PasswordFile),
		zap.String("config_file", res.ConfigFile),
		zap.String("format", string(format)),
	)
	return nil
}

func runServe(c *cli, cfg *config.Config, logger *zap.Logger) error {
	serverCfg := application.DefaultServerConfig()
	serverCfg.Addr = *c.serveListen
	serverCfg.RateLimitRPS = *c.serveRPS
	serverCfg.RateLimitBurst = *c.serveBurst
	serverCfg.ShutdownGracePeriod = *c.serveGrace
	serverCfg.EnableRequestLogging = !*c.serveQuietLog

	app, err := application.New(cfg, serverCfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	shutdown(app.Server(), serverCfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
