package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnswersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answers <question-id>",
		Short: "Show the answers generated for a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswers(cmd, args[0])
		},
	}
	return cmd
}

func runAnswers(cmd *cobra.Command, questionID string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		question, err := d.DB.FindQuestionByID(ctx, questionID)
		if err != nil {
			return err
		}

		answers, err := d.DB.ListAnswersForQuestion(ctx, questionID)
		if err != nil {
			return fmt.Errorf("listing answers: %w", err)
		}

		fmt.Printf("Question: %s\n\n", question.Text)

		if len(answers) == 0 {
			fmt.Println("No answers yet. The job may still be queued; check 'qadim jobs'.")
			return nil
		}

		for i, a := range answers {
			fmt.Printf("%d. [%s] confidence %d/100, controversy %d/100\n", i+1, a.Persona, a.Confidence, a.Controversy)
			fmt.Printf("   %s\n", a.Summary)
			for _, c := range a.Citations {
				fmt.Printf("   - [%s/%s] source %s: %s\n", c.AuthorityLevel, c.Status, c.SourceID, c.Snippet)
			}
			fmt.Println()
		}
		return nil
	})
}
