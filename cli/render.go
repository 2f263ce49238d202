package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"lattesdoc/export"
)

func newRenderCmd() *cobra.Command {
	var (
		printDoc bool
		title    string
		term     bool
		rf       renderFlags
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render markdown from a file or stdin to HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			text, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if term {
				r, err := glamour.NewTermRenderer(
					glamour.WithStandardStyle("dracula"),
					glamour.WithWordWrap(80),
				)
				if err != nil {
					return fmt.Errorf("create terminal renderer: %w", err)
				}
				s, err := r.Render(text)
				if err != nil {
					return fmt.Errorf("render for terminal: %w", err)
				}
				_, err = fmt.Fprint(out, s)
				return err
			}

			engine, err := rf.build(cmd, getSettings(cmd))
			if err != nil {
				return err
			}
			html := engine.Render(text)
			if !printDoc {
				if html == "" {
					return nil
				}
				_, err = fmt.Fprintln(out, html)
				return err
			}

			doc, err := export.PrintDocument(html, export.PrintOptions{Title: title})
			if err != nil {
				return err
			}
			return export.WriterPrinter{W: out}.Print(cmd.Context(), doc)
		},
	}
	cmd.Flags().BoolVar(&printDoc, "print", false, "wrap the output in a standalone printable document")
	cmd.Flags().StringVar(&title, "title", "", "title of the printable document")
	cmd.Flags().BoolVar(&term, "term", false, "render for the terminal instead of HTML")
	rf.register(cmd)
	return cmd
}
