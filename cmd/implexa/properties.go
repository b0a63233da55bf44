package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/types"
	"github.com/implexa/implexa/internal/ui"
)

// ownerFlags registers the mutually exclusive --part-id/--revision-id
// pair shared by every Property/File operation.
func ownerFlags(cmd *cobra.Command) {
	cmd.Flags().String("part-id", "", "owning part ID")
	cmd.Flags().String("revision-id", "", "owning revision ID")
}

func ownerFromFlags(cmd *cobra.Command) (*int64, *int64) {
	partRaw, _ := cmd.Flags().GetString("part-id")
	revRaw, _ := cmd.Flags().GetString("revision-id")
	return parseOptionalInt64(partRaw), parseOptionalInt64(revRaw)
}

var setPropertyCmd = &cobra.Command{
	Use:     "set-property <key> <value>",
	GroupID: "properties",
	Short:   "Set (or update) a property on a part or revision",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, revisionID := ownerFromFlags(cmd)
		propType, _ := cmd.Flags().GetString("type")
		p := types.Property{
			PartID:     partID,
			RevisionID: revisionID,
			Key:        args[0],
			Value:      args[1],
			Type:       types.PropertyType(propType),
		}
		id, err := boundary.SetProperty(cmd.Context(), p)
		if err != nil {
			return err
		}
		printResult(map[string]int64{"property_id": id}, func() {
			fmt.Printf("set property %q = %q\n", args[0], args[1])
		})
		return nil
	},
}

var deletePropertyCmd = &cobra.Command{
	Use:     "delete-property <key>",
	GroupID: "properties",
	Short:   "Delete a property from a part or revision",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, revisionID := ownerFromFlags(cmd)
		if err := boundary.DeleteProperty(cmd.Context(), partID, revisionID, args[0]); err != nil {
			return err
		}
		printResult(map[string]string{"deleted": args[0]}, func() {
			fmt.Printf("deleted property %q\n", args[0])
		})
		return nil
	},
}

var listPropertiesCmd = &cobra.Command{
	Use:     "list-properties",
	GroupID: "properties",
	Short:   "List properties on a part or revision",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, revisionID := ownerFromFlags(cmd)
		properties, err := boundary.ListProperties(cmd.Context(), partID, revisionID)
		if err != nil {
			return err
		}
		printResult(properties, func() {
			rows := make([][]string, 0, len(properties))
			for _, p := range properties {
				rows = append(rows, []string{p.Key, p.Value, string(p.Type)})
			}
			fmt.Println(ui.NewTable([]string{"Key", "Value", "Type"}, rows))
		})
		return nil
	},
}

func init() {
	ownerFlags(setPropertyCmd)
	setPropertyCmd.Flags().String("type", string(types.PropertyString), "string, number, boolean, or date")
	ownerFlags(deletePropertyCmd)
	ownerFlags(listPropertiesCmd)
	rootCmd.AddCommand(setPropertyCmd, deletePropertyCmd, listPropertiesCmd)
}
