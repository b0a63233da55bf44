package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/ui"
)

var createPartCmd = &cobra.Command{
	Use:     "create-part <category> <subcategory> <name>",
	GroupID: "parts",
	Short:   "Create a new part and its Draft revision",
	Args:    cobra.RangeArgs(3, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		part, revision, err := boundary.CreatePart(cmd.Context(), currentUser(), args[0], args[1], args[2], description)
		if err != nil {
			return err
		}
		printResult(map[string]any{"part": part, "revision": revision}, func() {
			fmt.Printf("created %s %q (revision %s, %s)\n", part.DisplayPartNumber(), part.Name, revision.Version, revision.Status)
		})
		return nil
	},
}

var getPartCmd = &cobra.Command{
	Use:     "get-part <part_id>",
	GroupID: "parts",
	Short:   "Show a part's metadata",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "part_id")
		if err != nil {
			return err
		}
		part, err := boundary.GetPart(cmd.Context(), id)
		if err != nil {
			return err
		}
		printResult(part, func() {
			rows := [][]string{
				{"Part Number", part.DisplayPartNumber()},
				{"Name", part.Name},
				{"Created", part.CreatedDate.Format("2006-01-02")},
				{"Modified", part.ModifiedDate.Format("2006-01-02")},
			}
			fmt.Println(ui.NewTable([]string{"Field", "Value"}, rows))
			if part.Description != "" {
				fmt.Println(ui.RenderMarkdown(part.Description, ui.GetWidth()))
			}
		})
		return nil
	},
}

var listPartsCmd = &cobra.Command{
	Use:     "list-parts",
	GroupID: "parts",
	Short:   "List parts, optionally filtered by category or search term",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		term, _ := cmd.Flags().GetString("search")
		parts, err := boundary.ListParts(cmd.Context(), category, term)
		if err != nil {
			return err
		}
		printResult(parts, func() {
			rows := make([][]string, 0, len(parts))
			for _, p := range parts {
				rows = append(rows, []string{p.DisplayPartNumber(), p.Name, p.ModifiedDate.Format("2006-01-02")})
			}
			fmt.Println(ui.NewTable([]string{"Part Number", "Name", "Modified"}, rows))
		})
		return nil
	},
}

func init() {
	createPartCmd.Flags().String("description", "", "free-text description")
	listPartsCmd.Flags().String("category", "", "filter by category code")
	listPartsCmd.Flags().String("search", "", "fuzzy-match against name and description")
	rootCmd.AddCommand(createPartCmd, getPartCmd, listPartsCmd)
}
