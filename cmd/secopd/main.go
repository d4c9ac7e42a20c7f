// Command secopd runs one SECoP node from a TOML config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nabbar/secop/internal/buildinfo"
	"github.com/nabbar/secop/internal/config"
	"github.com/nabbar/secop/internal/demomodules"
	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/logger"
	"github.com/nabbar/secop/internal/node"
)

var (
	flagBind      string
	flagLogDir    string
	flagVerbose   bool
	flagDebugHTTP string
)

func main() {
	root := &cobra.Command{
		Use:           "secopd config",
		Short:         "serve a SECoP node from a TOML config file",
		Version:       buildinfo.Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVar(&flagBind, "bind", "0.0.0.0:10767", "listen address")
	root.Flags().StringVar(&flagLogDir, "log", "", "log directory (absent = console)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug-level logs")
	root.Flags().StringVar(&flagDebugHTTP, "debug-http", "", "introspection HTTP bind (disabled if empty)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "secopd:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configPath := args[0]

	log, err := buildLogger(flagLogDir, flagVerbose)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer log.Close()
	entry := log.Entry()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	info := dispatcher.NodeInfo{
		Description: cfg.Description,
		EquipmentID: cfg.EquipmentID,
		Firmware:    buildinfo.Version,
	}

	n := node.New(info, entry)
	n.RegisterFactory("cryo", demomodules.CryoFactory)
	n.RegisterFactory("link", demomodules.LinkFactory)

	if err := n.LoadConfig(cfg); err != nil {
		return fmt.Errorf("build modules: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(configPath, n.ApplyReload, entry)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer watcher.Close()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-hup:
				entry.Info("SIGHUP received, reloading config")
				watcher.Reload()
			case <-ctx.Done():
				signal.Stop(hup)
				return
			}
		}
	}()

	entry.WithField("bind", flagBind).Info("starting secop node")
	if flagDebugHTTP != "" {
		entry.WithField("bind", flagDebugHTTP).Info("introspection server enabled")
	}

	if err := n.Run(ctx, flagBind, flagDebugHTTP); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	entry.Info("shutdown complete")
	return nil
}

func buildLogger(dir string, verbose bool) (logger.Logger, error) {
	opt := logger.Options{Level: logrus.InfoLevel}
	if verbose {
		opt.Level = logrus.DebugLevel
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		opt.File = filepath.Join(dir, "secopd.log")
	}
	return logger.New(opt)
}
