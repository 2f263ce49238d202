package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lattesdoc/export"
	"lattesdoc/store"
)

func newPutCmd() *cobra.Command {
	var provider, model string
	cmd := &cobra.Command{
		Use:   "put <kind> <id> [file]",
		Short: "Store a generated document read from a file or stdin",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := store.ParseKind(args[0])
			if err != nil {
				return err
			}
			var name string
			if len(args) == 3 {
				name = args[2]
			}
			text, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			st, err := openStore(getSettings(cmd))
			if err != nil {
				return err
			}
			defer st.Close()

			doc := &store.Document{
				Kind:        kind,
				ID:          args[1],
				Text:        text,
				Provider:    provider,
				Model:       model,
				GeneratedAt: time.Now(),
			}
			if err := st.Put(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s/%s (%s)\n", kind, doc.ID, humanize.Bytes(uint64(len(text))))
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "text generation provider")
	cmd.Flags().StringVar(&model, "model", "", "text generation model")
	return cmd
}

func newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export <kind> <id>",
		Short: "Write a stored document's raw markdown to its download file name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := store.ParseKind(args[0])
			if err != nil {
				return err
			}
			settings := getSettings(cmd)
			st, err := openStore(settings)
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := st.Get(cmd.Context(), kind, args[1])
			if err != nil {
				return fmt.Errorf("get %s/%s: %w", kind, args[1], err)
			}

			content := export.Markdown(doc.Text)
			path := filepath.Join(dir, export.Filename(settings.ExportPrefixes[kind], doc.ID))
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(content))))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the file into")
	return cmd
}
