package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gitguide/internal/config"
	"github.com/conneroisu/gitguide/internal/settings"
)

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark]",
	Short: "Show or save the default theme",
	Long: `Without an argument, print the theme new visitors get. With one, save
it to the settings file ($XDG_CONFIG_HOME/gitguide/settings.yaml unless
site.settings_file says otherwise). A visitor's own toggle is kept in a
cookie and always wins.

Examples:
  gitguide theme
  gitguide theme dark`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(settings.ThemeLight), string(settings.ThemeDark)},
	RunE:      runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	store := settings.NewStore(cfg.Site.SettingsFile)

	saved, err := store.Load()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), saved.DefaultTheme)
		return nil
	}

	theme, err := settings.Parse(args[0])
	if err != nil {
		return err
	}
	saved.DefaultTheme = theme
	if err := store.Save(saved); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default theme set to %s (%s)\n", theme, store.Path())
	return nil
}
