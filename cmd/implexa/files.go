package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/types"
	"github.com/implexa/implexa/internal/ui"
)

var attachFileCmd = &cobra.Command{
	Use:     "attach-file <path>",
	GroupID: "properties",
	Short:   "Register a repo-relative file path against a part or revision",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, revisionID := ownerFromFlags(cmd)
		fileType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")
		f := types.File{
			PartID:      partID,
			RevisionID:  revisionID,
			Path:        args[0],
			Type:        fileType,
			Description: description,
		}
		id, err := boundary.AttachFile(cmd.Context(), f)
		if err != nil {
			return err
		}
		printResult(map[string]int64{"file_id": id}, func() {
			fmt.Printf("attached file %s\n", args[0])
		})
		return nil
	},
}

var detachFileCmd = &cobra.Command{
	Use:     "detach-file <file_id>",
	GroupID: "properties",
	Short:   "Remove a file registration",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "file_id")
		if err != nil {
			return err
		}
		if err := boundary.DetachFile(cmd.Context(), id); err != nil {
			return err
		}
		printResult(map[string]int64{"deleted": id}, func() {
			fmt.Printf("detached file %d\n", id)
		})
		return nil
	},
}

var listFilesCmd = &cobra.Command{
	Use:     "list-files",
	GroupID: "properties",
	Short:   "List files registered against a part or revision",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		partID, revisionID := ownerFromFlags(cmd)
		files, err := boundary.ListFiles(cmd.Context(), partID, revisionID)
		if err != nil {
			return err
		}
		printResult(files, func() {
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{f.Path, f.Type, f.Description})
			}
			fmt.Println(ui.NewTable([]string{"Path", "Type", "Description"}, rows))
		})
		return nil
	},
}

func init() {
	ownerFlags(attachFileCmd)
	attachFileCmd.Flags().String("type", "", "file category, e.g. design, datasheet")
	attachFileCmd.Flags().String("description", "", "free-text description")
	ownerFlags(listFilesCmd)
	rootCmd.AddCommand(attachFileCmd, detachFileCmd, listFilesCmd)
}
