package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
)

func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the recipe catalog",
	}
	cmd.AddCommand(c.catalogImportCommand())
	cmd.AddCommand(c.catalogShowCommand())
	cmd.AddCommand(c.catalogExportCommand())
	return cmd
}

func (c *CLI) catalogImportCommand() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "import <catalog.toml>",
		Short: "Load a TOML catalog into the catalog database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := catalog.LoadTOML(args[0])
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidCatalog, err, "load %s", args[0])
			}

			path, err := c.Config.catalogPath(db)
			if err != nil {
				return err
			}
			if strings.EqualFold(filepath.Ext(path), ".toml") {
				return errs.New(errs.ErrCodeInvalidPath, "catalog database %s must not be a .toml file", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}

			store, err := catalog.OpenStore(path)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(ctx, cat); err != nil {
				return err
			}

			printSuccess("Imported %d goods and %d recipes", cat.GoodCount(), cat.RecipeCount())
			printFile(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "catalog database (default from config)")
	return cmd
}

func (c *CLI) catalogShowCommand() *cobra.Command {
	var (
		path    string
		recipes bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openCatalog(cmd.Context(), path)
			if err != nil {
				return err
			}
			printKeyValue("Goods", fmt.Sprint(cat.GoodCount()))
			printKeyValue("Recipes", fmt.Sprint(cat.RecipeCount()))
			printKeyValue("Milestones", strings.Join(milestones(cat), ", "))
			printKeyValue("Fingerprint", cat.Fingerprint()[:12])
			if !recipes {
				return nil
			}
			fmt.Fprintln(stdout)
			for _, r := range cat.Recipes() {
				line := StyleValue.Render(r.Name) + StyleDim.Render(" cost "+formatAmount(r.Cost))
				if r.Milestone != "" {
					line += " " + StyleHighlight.Render("["+r.Milestone+"]")
				}
				fmt.Fprintln(stdout, line)
				printDetail("%s %s %s", formatFlow(cat, r.Ingredients, 1), iconArrow, formatFlow(cat, r.Products, 1))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "catalog", "c", "", "catalog file or database (default from config)")
	cmd.Flags().BoolVar(&recipes, "recipes", false, "list every recipe")
	return cmd
}

func (c *CLI) catalogExportCommand() *cobra.Command {
	var path, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openCatalog(cmd.Context(), path)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return catalog.WriteTOML(stdout, cat)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := catalog.WriteTOML(f, cat); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "catalog", "c", "", "catalog file or database (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// milestones lists the distinct milestones in catalog order.
func milestones(cat *catalog.Catalog) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range cat.Recipes() {
		if r.Milestone != "" && !seen[r.Milestone] {
			seen[r.Milestone] = true
			out = append(out, r.Milestone)
		}
	}
	return out
}
