package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tofu/tofu-labeller/internal/api"
	"github.com/tofu/tofu-labeller/internal/config"
	"github.com/tofu/tofu-labeller/internal/logging"
	"github.com/tofu/tofu-labeller/internal/ui"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the labelling agent (HTTP API and tray)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, *flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags rootFlags) error {
	startTime := time.Now()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting tofu labeller",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	printBanner(cmd.OutOrStdout(), cfg.Port(), a.authToken)

	server := api.NewServer(a.serverConfig(startTime))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Session:  a.session,
			Store:    a.store,
			Tracker:  a.tracker,
			Logger:   logging.WithComponent(logger, "tray"),
			OnExport: a.exportCSV,
			OnQuit:   cancel,
		})
		go tray.Run()
		defer tray.Quit()
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func printBanner(w io.Writer, port int, token string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Tofu Labeller", "v" + config.Version})
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	table.Append([]string{"API URL", fmt.Sprintf("http://127.0.0.1:%d", port)})
	table.Append([]string{"Auth Token", token})
	fmt.Fprintln(w)
	table.Render()
	fmt.Fprintln(w)
}
