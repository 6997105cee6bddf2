package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/gitguide/internal/config"
	"github.com/conneroisu/gitguide/internal/metrics"
	"github.com/conneroisu/gitguide/internal/server"
	"github.com/conneroisu/gitguide/internal/settings"
	"github.com/conneroisu/gitguide/internal/version"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the guide over HTTP",
	Long: `Serve the guide with its live table of contents.

Without --content-dir the built-in articles are served. With --watch,
edits under the content directory reload the catalog and every open tab.

Examples:
  gitguide serve                              # localhost:8080
  gitguide serve -p 3000 --host 0.0.0.0
  gitguide serve --content-dir ./guide --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload when files under --content-dir change")
	serveCmd.Flags().String("title", "Git Guide", "Site title shown in the navbar")
	serveCmd.Flags().String("theme", "", "Default theme for new visitors (light, dark)")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("content.watch", serveCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("site.title", serveCmd.Flags().Lookup("title"))
	_ = viper.BindPFlag("site.default_theme", serveCmd.Flags().Lookup("theme"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	theme, err := defaultTheme(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config:       cfg,
		DefaultTheme: theme,
		Logger:       logger,
		Metrics:      metrics.New(version.GetVersion(), runtime.Version()),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d articles at http://%s\n", srv.Catalog().Len(), cfg.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errc
}

// defaultTheme picks the theme for visitors without a cookie: the
// configured one, else the saved settings.
func defaultTheme(cfg *config.Config) (settings.Theme, error) {
	if cfg.Site.DefaultTheme != "" {
		return settings.Parse(cfg.Site.DefaultTheme)
	}
	saved, err := settings.NewStore(cfg.Site.SettingsFile).Load()
	if err != nil {
		return "", err
	}
	return saved.DefaultTheme, nil
}
