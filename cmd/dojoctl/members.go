package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dojo/internal/application/listutil"
	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
)

func newMembersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List and import the member roster",
	}
	cmd.AddCommand(newMembersListCmd(a), newMembersImportCmd(a))
	return cmd
}

func newMembersListCmd(a *app) *cobra.Command {
	var from, to, status string
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Members with their attendance for a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.window(from, to)
			if err != nil {
				return err
			}
			res, err := projections.QueryGetMemberList(cmd.Context(), projections.GetMemberListQuery{
				Status: status,
				From:   w.From,
				To:     w.To,
				Page:   listutil.PageParams{Page: page, PerPage: perPage},
			}, projections.GetMemberListDeps{MemberStore: a.members, AttendanceStore: a.attendance})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			return renderMembers(a.out, res)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&status, "status", "", "active, inactive or archived (default all)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", listutil.DefaultPerPage, "rows per page")
	return cmd
}

func newMembersImportCmd(a *app) *cobra.Command {
	var dryRun, update bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create members from a roster CSV (columns NAME, EMAIL and optionally ID, STATUS, PAYMENT_TOKEN)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := orchestrators.ExecuteImportMembers(cmd.Context(), orchestrators.ImportMembersInput{
				Reader:     f,
				Source:     filepath.Base(args[0]),
				DryRun:     dryRun,
				UpdateMode: update,
			}, orchestrators.ImportMembersDeps{MemberStore: a.members, GenerateID: uuid.NewString})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			prefix := ""
			if res.DryRun {
				prefix = "dry run: "
			}
			fmt.Fprintf(a.out, "%s%d rows: %d created, %d updated, %d skipped, %d errors\n",
				prefix, res.Total, res.Created, res.Updated, res.Skipped, len(res.Errors))
			for _, e := range res.Errors {
				fmt.Fprintf(a.out, "  row %d: %s\n", e.Row, e.Message)
			}
			if len(res.Unknown) > 0 {
				fmt.Fprintf(a.out, "  ignored columns: %v\n", res.Unknown)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")
	cmd.Flags().BoolVar(&update, "update", false, "update members whose email already exists")
	return cmd
}
