package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/queue"
)

func newAskCmd() *cobra.Command {
	var (
		language string
		persona  string
		userID   string
		notify   string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Submit a question for asynchronous answering",
		Long:  "Records the question and enqueues an answer-generation job. Use 'qadim answers' to read the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args[0], language, persona, userID, notify)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "EN", "Question language (AR, EN, FR)")
	cmd.Flags().StringVarP(&persona, "persona", "p", "NEUTRAL", "Answer persona (NEUTRAL, ZAATAR)")
	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "Requester ID")
	cmd.Flags().StringVarP(&notify, "notify", "n", "", "Email to notify when the answer is ready")

	return cmd
}

func runAsk(cmd *cobra.Command, text, language, persona, userID, notify string) error {
	ctx := cmd.Context()

	lang := entities.Language(language)
	if !lang.Valid() {
		return fmt.Errorf("invalid language %q (valid: AR, EN, FR)", language)
	}
	p := entities.Persona(persona)
	if !p.Valid() {
		return fmt.Errorf("invalid persona %q (valid: NEUTRAL, ZAATAR)", persona)
	}

	return withDeps(func(d *Deps) error {
		question := &entities.Question{
			ID:          uuid.New().String(),
			Text:        text,
			Language:    lang,
			RequesterID: userID,
			CreatedAt:   time.Now(),
		}
		if err := d.DB.CreateQuestion(ctx, question); err != nil {
			return fmt.Errorf("creating question: %w", err)
		}

		job, err := d.Queue.EnqueueAnswer(ctx, queue.AnswerPayload{
			QuestionID:   question.ID,
			QuestionText: question.Text,
			Language:     lang,
			Persona:      p,
			RequesterID:  userID,
			NotifyEmail:  notify,
		})
		if err != nil {
			return fmt.Errorf("enqueueing answer job: %w", err)
		}

		fmt.Printf("Question submitted: %s\n", question.ID)
		fmt.Printf("Answer job enqueued: %s\n", job.ID)
		return nil
	})
}
