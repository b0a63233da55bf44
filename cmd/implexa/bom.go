package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/types"
)

var createRelationshipCmd = &cobra.Command{
	Use:     "create-relationship <parent_part_id> <child_part_id>",
	GroupID: "bom",
	Short:   "Add a BOM edge between two parts",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID, err := parseInt64(args[0], "parent_part_id")
		if err != nil {
			return err
		}
		childID, err := parseInt64(args[1], "child_part_id")
		if err != nil {
			return err
		}
		relType, _ := cmd.Flags().GetString("type")
		quantity, _ := cmd.Flags().GetInt("quantity")
		rel := types.Relationship{
			ParentPartID: parentID,
			ChildPartID:  childID,
			Type:         types.RelationshipType(relType),
			Quantity:     quantity,
		}
		id, err := boundary.CreateRelationship(cmd.Context(), rel)
		if err != nil {
			return err
		}
		printResult(map[string]int64{"relationship_id": id}, func() {
			fmt.Printf("created relationship %d: %d -> %d (%s, qty %d)\n", id, parentID, childID, relType, quantity)
		})
		return nil
	},
}

var deleteRelationshipCmd = &cobra.Command{
	Use:     "delete-relationship <relationship_id>",
	GroupID: "bom",
	Short:   "Remove a BOM edge",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "relationship_id")
		if err != nil {
			return err
		}
		if err := boundary.DeleteRelationship(cmd.Context(), id); err != nil {
			return err
		}
		printResult(map[string]int64{"deleted": id}, func() {
			fmt.Printf("deleted relationship %d\n", id)
		})
		return nil
	},
}

func init() {
	createRelationshipCmd.Flags().String("type", string(types.RelationshipBOM), "bom, reference, or alternate")
	createRelationshipCmd.Flags().Int("quantity", 1, "quantity of the child used per parent")
	rootCmd.AddCommand(createRelationshipCmd, deleteRelationshipCmd)
}
