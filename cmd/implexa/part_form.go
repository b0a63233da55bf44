package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var createPartFormCmd = &cobra.Command{
	Use:     "create-part-form",
	GroupID: "parts",
	Short:   "Create a new part using an interactive form",
	Long: `Create a new part using an interactive terminal form.

The form offers the seeded category and subcategory catalogs as select
fields, so you don't have to remember the codes.

Keyboard navigation:
  - Tab/Shift+Tab: Move between fields
  - Enter: Submit the form (on the last field or submit button)
  - Ctrl+C: Cancel and exit
  - Arrow keys: Navigate within select fields`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		categories, err := boundary.ListCategories(ctx)
		if err != nil {
			return err
		}
		categoryOptions := make([]huh.Option[string], 0, len(categories))
		for _, c := range categories {
			categoryOptions = append(categoryOptions, huh.NewOption(c.Code+" - "+c.Name, c.Code))
		}

		var raw struct {
			Category    string
			Subcategory string
			Name        string
			Description string
		}
		confirmed := true

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Category").
					Description("Top-level classification").
					Options(categoryOptions...).
					Value(&raw.Category),

				huh.NewSelect[string]().
					Title("Subcategory").
					Description("Refines the category; drives the part number").
					OptionsFunc(func() []huh.Option[string] {
						subs, err := boundary.ListSubcategories(ctx, raw.Category)
						if err != nil {
							return nil
						}
						opts := make([]huh.Option[string], 0, len(subs))
						for _, sc := range subs {
							opts = append(opts, huh.NewOption(sc.Code+" - "+sc.Name, sc.Code))
						}
						return opts
					}, &raw.Category).
					Value(&raw.Subcategory),

				huh.NewInput().
					Title("Name").
					Description("Short part name (required)").
					Placeholder("e.g., 10K Resistor 1/4W").
					Value(&raw.Name).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("name is required")
						}
						return nil
					}),

				huh.NewText().
					Title("Description").
					Description("Free-text detail, rendered as markdown (optional)").
					CharLimit(5000).
					Value(&raw.Description),

				huh.NewConfirm().
					Title("Create this part?").
					Affirmative("Create").
					Negative("Cancel").
					Value(&confirmed),
			),
		).WithTheme(huh.ThemeDracula())

		if err := form.Run(); err != nil {
			if err == huh.ErrUserAborted {
				fmt.Fprintln(os.Stderr, "part creation canceled")
				return nil
			}
			return err
		}
		if !confirmed {
			fmt.Fprintln(os.Stderr, "part creation canceled")
			return nil
		}

		part, revision, err := boundary.CreatePart(ctx, currentUser(), raw.Category, raw.Subcategory, strings.TrimSpace(raw.Name), raw.Description)
		if err != nil {
			return err
		}
		printResult(map[string]any{"part": part, "revision": revision}, func() {
			fmt.Printf("created %s %q (revision %s, %s)\n", part.DisplayPartNumber(), part.Name, revision.Version, revision.Status)
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createPartFormCmd)
}
