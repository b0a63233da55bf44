package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createRepositoryCmd = &cobra.Command{
	Use:     "create-repository <path>",
	GroupID: "repository",
	Short:   "Initialize a new repository and activate it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template, _ := cmd.Flags().GetString("template")
		if err := boundary.CreateRepository(cmd.Context(), args[0], template); err != nil {
			return err
		}
		printResult(map[string]string{"path": args[0], "template": template}, func() {
			fmt.Printf("created and opened repository at %s (template %q)\n", args[0], template)
		})
		return nil
	},
}

var openRepositoryCmd = &cobra.Command{
	Use:     "open-repository <path>",
	GroupID: "repository",
	Short:   "Activate an existing repository",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := boundary.OpenRepository(cmd.Context(), args[0]); err != nil {
			return err
		}
		printResult(map[string]string{"path": args[0]}, func() {
			fmt.Printf("opened repository at %s\n", args[0])
		})
		return nil
	},
}

var closeRepositoryCmd = &cobra.Command{
	Use:     "close-repository",
	GroupID: "repository",
	Short:   "Revert to the in-memory metadata store",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := boundary.CloseRepository(cmd.Context()); err != nil {
			return err
		}
		printResult(map[string]bool{"closed": true}, func() {
			fmt.Println("repository closed")
		})
		return nil
	},
}

func init() {
	createRepositoryCmd.Flags().String("template", "standard", "directory template: minimal, standard, or extended")
	rootCmd.AddCommand(createRepositoryCmd, openRepositoryCmd, closeRepositoryCmd)
}
