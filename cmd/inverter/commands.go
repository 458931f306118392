package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"image-inverter/internal/config"
	"image-inverter/internal/settings"
)

// newRootCmd builds the command tree. The returned func closes whatever the
// command opened and must run even when the command failed.
func newRootCmd() (*cobra.Command, func() error) {
	var a *app

	root := &cobra.Command{
		Use:           "inverter",
		Short:         "Blend-invert images at an adjustable strength",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Logging)

			a, err = newApp(cfg, logger)
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().String("settings", "", "settings file (default _image_inversion_config.yml)")
	root.PersistentFlags().String("history-db", "", "export history database")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	getApp := func() *app { return a }
	root.AddCommand(
		newInvertCmd(getApp),
		newSettingsCmd(getApp),
		newHistoryCmd(getApp),
	)

	closeApp := func() error {
		if a == nil {
			return nil
		}
		return a.Close()
	}
	return root, closeApp
}

func newInvertCmd(getApp func() *app) *cobra.Command {
	var (
		output   string
		strength int
		dibPath  string
	)

	cmd := &cobra.Command{
		Use:   "invert INPUT",
		Short: "Invert an image and save the result",
		Long: "Invert INPUT at the stored strength, or at --strength which is then remembered,\n" +
			"and save it as PNG or JPEG (JPEG only for images without transparency).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.session.LoadFile(args[0]); err != nil {
				return err
			}
			if cmd.Flags().Changed("strength") {
				if _, err := a.session.SetStrength(strength); err != nil {
					return err
				}
			}

			if output == "" {
				output = filepath.Join(filepath.Dir(args[0]), a.session.Name()+"-inverted.png")
			}
			if err := a.session.SaveTo(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (strength %d%%)\n", output, a.session.Strength())

			if dibPath != "" {
				dib, err := a.session.ClipboardDIB()
				if err != nil {
					return err
				}
				if err := os.WriteFile(dibPath, dib, 0644); err != nil {
					return fmt.Errorf("write dib: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .png or .jpg (default NAME-inverted.png next to INPUT)")
	cmd.Flags().IntVarP(&strength, "strength", "s", settings.DefaultInvertStrength, "inversion strength 0-100")
	cmd.Flags().StringVar(&dibPath, "dib", "", "also write the clipboard DIB payload to this file")
	return cmd
}

func newSettingsCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			rec := a.settings.Record()
			fmt.Fprintf(cmd.OutOrStdout(), "file:     %s\ntheme:    %s\nstrength: %d\n",
				a.settings.Path(), rec.Theme, rec.InvertStrength)
			return nil
		},
	}

	var (
		theme    string
		strength int
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the theme or the default strength",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if cmd.Flags().Changed("theme") {
				if err := a.session.SetTheme(settings.Theme(theme)); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("strength") {
				if _, err := a.session.SetStrength(strength); err != nil {
					return err
				}
			}
			rec := a.settings.Record()
			fmt.Fprintf(cmd.OutOrStdout(), "theme: %s, strength: %d\n", rec.Theme, rec.InvertStrength)
			return nil
		},
	}
	set.Flags().StringVar(&theme, "theme", "", "dark or light")
	set.Flags().IntVar(&strength, "strength", settings.DefaultInvertStrength, "inversion strength 0-100")
	cmd.AddCommand(set)

	return cmd
}

func newHistoryCmd(getApp func() *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if a.history == nil {
				return fmt.Errorf("export history is disabled")
			}
			exports, err := a.history.Recent(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tNAME\tTARGET\tSTRENGTH\tSIZE\tPATH")
			for _, e := range exports {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%dx%d\t%s\n",
					e.ID, e.CreatedAt.Local().Format(time.DateTime), e.SourceName, e.Target,
					e.Strength, e.Width, e.Height, e.Path)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of exports to show")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if a.history == nil {
				return fmt.Errorf("export history is disabled")
			}
			e, err := a.history.Get(args[0])
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("export %s not found", args[0])
			}

			path := e.Path
			if path == "" {
				path = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"id:       %s\ntime:     %s\nname:     %s\ntarget:   %s\nformat:   %s\nstrength: %d%%\nsize:     %dx%d\npath:     %s\n",
				e.ID, e.CreatedAt.Local().Format(time.DateTime), e.SourceName, e.Target,
				e.Format, e.Strength, e.Width, e.Height, path)
			return nil
		},
	}
	cmd.AddCommand(show)
	return cmd
}
