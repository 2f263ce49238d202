// Package cli implements the lattesdoc command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lattesdoc/config"
	"lattesdoc/renderer"
	"lattesdoc/store"
)

type ctxKey string

const settingsKey ctxKey = "settings"

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "lattesdoc",
		Short:         "Render generated markdown documents to HTML, print documents and raw downloads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			settings, err := config.FromViper(v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), settingsKey, settings))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml|json)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newExportCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }
	return cmd
}

func getSettings(cmd *cobra.Command) config.Settings {
	s, ok := cmd.Context().Value(settingsKey).(config.Settings)
	if !ok {
		fmt.Fprintln(os.Stderr, "internal error: settings not loaded")
		os.Exit(1)
	}
	return s
}

func openStore(s config.Settings) (store.Store, error) {
	return store.Open(s.StoreBackend, s.StorePath())
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	var (
		b   []byte
		err error
	)
	if name == "" || name == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

// renderFlags overrides the configured render options for one command.
type renderFlags struct {
	engine       string
	orderedLists bool
	rules        bool
	linkText     string
	tableClass   string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.engine, "engine", "", "markdown engine: subset or goldmark")
	fs.BoolVar(&f.orderedLists, "ordered-lists", true, `render "1. item" lines as ordered lists`)
	fs.BoolVar(&f.rules, "rules", true, `render "---" lines as dividers`)
	fs.StringVar(&f.linkText, "link-text", "", "visible link text: label or url")
	fs.StringVar(&f.tableClass, "table-class", "", "class attribute for tables")
}

// build returns the configured engine with flag overrides applied.
func (f *renderFlags) build(cmd *cobra.Command, s config.Settings) (renderer.Engine, error) {
	name, opts := s.Engine, s.Render
	fs := cmd.Flags()
	if fs.Changed("engine") {
		name = f.engine
	}
	if fs.Changed("ordered-lists") {
		opts.OrderedLists = f.orderedLists
	}
	if fs.Changed("rules") {
		opts.HorizontalRules = f.rules
	}
	if fs.Changed("link-text") {
		mode, err := renderer.ParseLinkTextMode(f.linkText)
		if err != nil {
			return nil, err
		}
		opts.LinkText = mode
	}
	if fs.Changed("table-class") {
		opts.TableClass = f.tableClass
	}
	return renderer.NewEngine(name, opts)
}
