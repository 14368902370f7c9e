package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/services"
)

func newNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage community notes on answers",
	}

	cmd.AddCommand(
		newNotesAddCmd(),
		newNotesListCmd(),
		newNotesPendingCmd(),
		newNotesModerateCmd(),
	)
	return cmd
}

func newNotesAddCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "add <answer-id> <text>",
		Short: "File a community note against an answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				moderation := services.NewModerationService(d.DB)
				note, err := moderation.CreateNote(ctx, userID, args[0], args[1], nil)
				if err != nil {
					return err
				}
				fmt.Printf("Note filed (pending moderation): %s\n", note.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "Author user ID")
	return cmd
}

func newNotesListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list <answer-id>",
		Short: "List notes on an answer (approved only by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				moderation := services.NewModerationService(d.DB)
				notes, err := moderation.NotesForAnswer(ctx, args[0], !all)
				if err != nil {
					return err
				}
				printNotes(notes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include pending and rejected notes")
	return cmd
}

func newNotesPendingCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List notes awaiting moderation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				moderation := services.NewModerationService(d.DB)
				notes, err := moderation.PendingNotes(ctx, limit)
				if err != nil {
					return err
				}
				printNotes(notes)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultPendingLimit, "Maximum number of results")
	return cmd
}

func newNotesModerateCmd() *cobra.Command {
	var (
		actorID string
		role    string
	)

	cmd := &cobra.Command{
		Use:   "moderate <note-id> <status>",
		Short: "Approve or reject a community note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			status := entities.CommunityStatus(args[1])

			return withDeps(func(d *Deps) error {
				moderation := services.NewModerationService(d.DB)
				if err := moderation.Moderate(ctx, actorID, entities.UserRole(role), args[0], status); err != nil {
					return err
				}
				fmt.Printf("Note %s is now %s\n", args[0], status)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&actorID, "actor", "u", "cli", "Moderating user ID")
	cmd.Flags().StringVarP(&role, "role", "r", "MODERATOR", "Acting role (USER, MODERATOR, ADMIN)")
	return cmd
}

func printNotes(notes []entities.CommunityNote) {
	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return
	}
	for _, n := range notes {
		fmt.Printf("%s  [%s] by %s: %s\n", n.ID, n.Status, n.UserID, n.Note)
	}
}
