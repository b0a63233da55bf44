package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/ui"
)

var submitForReviewCmd = &cobra.Command{
	Use:     "submit-for-review <revision_id>",
	GroupID: "review",
	Short:   "Move a Draft revision into review",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "revision_id")
		if err != nil {
			return err
		}
		reviewers, _ := cmd.Flags().GetStringSlice("reviewer")
		if err := boundary.SubmitForReview(cmd.Context(), currentUser(), id, reviewers); err != nil {
			return err
		}
		printResult(map[string]any{"revision_id": id, "reviewers": reviewers}, func() {
			fmt.Printf("revision %d submitted for review\n", id)
		})
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:     "approve <revision_id>",
	GroupID: "review",
	Short:   "Approve a revision InReview",
	Args:    cobra.ExactArgs(1),
	RunE:    verdictRunE(false),
}

var rejectCmd = &cobra.Command{
	Use:     "reject <revision_id>",
	GroupID: "review",
	Short:   "Reject a revision InReview, returning it to Draft",
	Args:    cobra.ExactArgs(1),
	RunE:    verdictRunE(true),
}

func verdictRunE(reject bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "revision_id")
		if err != nil {
			return err
		}
		comments, _ := cmd.Flags().GetString("comments")
		verb := "approve"
		fn := boundary.Approve
		if reject {
			verb = "reject"
			fn = boundary.Reject
		}
		if err := fn(cmd.Context(), currentUser(), id, comments); err != nil {
			return err
		}
		printResult(map[string]any{"revision_id": id, "verdict": verb}, func() {
			fmt.Printf("revision %d %sd\n", id, verb)
		})
		return nil
	}
}

var releaseRevisionCmd = &cobra.Command{
	Use:     "release-revision <revision_id>",
	GroupID: "review",
	Short:   "Merge an approved revision's review branch into main",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "revision_id")
		if err != nil {
			return err
		}
		if err := boundary.ReleaseRevision(cmd.Context(), currentUser(), id); err != nil {
			return err
		}
		printResult(map[string]any{"revision_id": id, "status": "Released"}, func() {
			fmt.Printf("revision %d released\n", id)
		})
		return nil
	},
}

var createRevisionCmd = &cobra.Command{
	Use:     "create-revision <part_id>",
	GroupID: "review",
	Short:   "Start a new Draft revision of a Released part",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "part_id")
		if err != nil {
			return err
		}
		rev, err := boundary.CreateRevision(cmd.Context(), currentUser(), id)
		if err != nil {
			return err
		}
		printResult(rev, func() {
			fmt.Printf("created revision %s (%s) for part %d\n", rev.Version, rev.Status, rev.PartID)
		})
		return nil
	},
}

var markObsoleteCmd = &cobra.Command{
	Use:     "mark-obsolete <part_id>",
	GroupID: "review",
	Short:   "Mark a part's latest Released revision Obsolete (Admin only)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "part_id")
		if err != nil {
			return err
		}
		if err := boundary.MarkObsolete(cmd.Context(), currentUser(), id); err != nil {
			return err
		}
		printResult(map[string]any{"part_id": id, "status": "Obsolete"}, func() {
			fmt.Printf("part %d marked obsolete\n", id)
		})
		return nil
	},
}

var getRevisionsCmd = &cobra.Command{
	Use:     "get-revisions <part_id>",
	GroupID: "review",
	Short:   "List a part's revision history",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64(args[0], "part_id")
		if err != nil {
			return err
		}
		revisions, err := boundary.GetRevisions(cmd.Context(), id)
		if err != nil {
			return err
		}
		printResult(revisions, func() {
			rows := make([][]string, 0, len(revisions))
			for _, r := range revisions {
				commit := r.CommitHash
				if len(commit) > 10 {
					commit = commit[:10]
				}
				rows = append(rows, []string{r.Version, string(r.Status), r.CreatedBy, commit})
			}
			fmt.Println(ui.NewTable([]string{"Version", "Status", "Created By", "Commit"}, rows))
		})
		return nil
	},
}

func init() {
	submitForReviewCmd.Flags().StringSlice("reviewer", nil, "reviewer username (repeatable)")
	approveCmd.Flags().String("comments", "", "reviewer comments")
	rejectCmd.Flags().String("comments", "", "reason for rejection")
	rootCmd.AddCommand(submitForReviewCmd, approveCmd, rejectCmd, releaseRevisionCmd, createRevisionCmd, markObsoleteCmd, getRevisionsCmd)
}
