package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/types"
	"github.com/implexa/implexa/internal/ui"
)

var upsertManufacturerPartCmd = &cobra.Command{
	Use:     "upsert-manufacturer-part <part_id> <manufacturer> <mpn>",
	GroupID: "properties",
	Short:   "Add or update a manufacturer cross-reference",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, err := parseInt64(args[0], "part_id")
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		status, _ := cmd.Flags().GetString("status")
		mp := types.ManufacturerPart{
			PartID:       partID,
			Manufacturer: args[1],
			MPN:          args[2],
			Description:  description,
			Status:       types.MPNStatus(status),
		}
		id, err := boundary.UpsertManufacturerPart(cmd.Context(), mp)
		if err != nil {
			return err
		}
		printResult(map[string]int64{"mpn_id": id}, func() {
			fmt.Printf("upserted manufacturer part %s/%s for part %d\n", args[1], args[2], partID)
		})
		return nil
	},
}

var listManufacturerPartsCmd = &cobra.Command{
	Use:     "list-manufacturer-parts <part_id>",
	GroupID: "properties",
	Short:   "List manufacturer cross-references for a part",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, err := parseInt64(args[0], "part_id")
		if err != nil {
			return err
		}
		mpns, err := boundary.ListManufacturerParts(cmd.Context(), partID)
		if err != nil {
			return err
		}
		printResult(mpns, func() {
			rows := make([][]string, 0, len(mpns))
			for _, m := range mpns {
				rows = append(rows, []string{m.Manufacturer, m.MPN, string(m.Status), m.Description})
			}
			fmt.Println(ui.NewTable([]string{"Manufacturer", "MPN", "Status", "Description"}, rows))
		})
		return nil
	},
}

func init() {
	upsertManufacturerPartCmd.Flags().String("description", "", "free-text description")
	upsertManufacturerPartCmd.Flags().String("status", string(types.MPNActive), "Active, Preferred, Alternate, or Obsolete")
	rootCmd.AddCommand(upsertManufacturerPartCmd, listManufacturerPartsCmd)
}
