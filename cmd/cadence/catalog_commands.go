package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/content"
	"cadence/internal/logging"
	"cadence/internal/scan"
)

// loadCatalog merges scanned templates and notebooks with the manifest. The
// manifest is read last so hand-curated fields override scanned ones.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*content.Catalog, error) {
	templates, err := scan.Templates(cfg.Paths.TemplatesDir, scan.Options{BaseURL: cfg.Links.TemplateBaseURL, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("scan templates: %w", err)
	}
	notebooks, err := scan.Notebooks(cfg.Paths.NotebooksDir, cfg.Paths.PostsDir, scan.Options{BaseURL: cfg.Links.NotebookBaseURL, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("scan notebooks: %w", err)
	}
	manifest, err := content.LoadManifest(cfg.Paths.CatalogFile)
	if err != nil {
		return nil, err
	}
	catalog := content.NewCatalog(templates, notebooks, manifest)
	logger.Debug("catalog loaded",
		logging.Int("templates", len(templates)),
		logging.Int("notebooks", len(notebooks)),
		logging.Int("manifest", len(manifest)),
		logging.String("catalog", catalog.String()),
	)
	return catalog, nil
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect postable content",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items from the manifest and scanned directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			var want content.Type
			if strings.TrimSpace(typeFilter) != "" {
				t, ok := content.ParseType(typeFilter)
				if !ok {
					return fmt.Errorf("unknown content type %q (want one of %v)", typeFilter, content.AllTypes())
				}
				want = t
			}
			catalog, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}
			items := make([]content.Item, 0, catalog.Len())
			for _, item := range catalog.Items() {
				if want != "" && item.Type != want {
					continue
				}
				items = append(items, item)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.ID,
					string(item.Type),
					item.Category,
					yesNo(item.HasSpecializedMarkup),
					item.Title,
				})
			}
			fmt.Fprint(out, renderTable([]string{"ID", "Type", "Category", "Markup", "Title"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "Only list items of this content type (template or notebook)")
	return cmd
}
