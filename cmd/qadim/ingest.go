package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/queue"
)

func newIngestCmd() *cobra.Command {
	var (
		title     string
		author    string
		published string
		language  string
	)

	cmd := &cobra.Command{
		Use:   "ingest <source-id> <document-url>",
		Short: "Enqueue a document for ingestion",
		Long:  "Enqueues a document-ingestion job that fetches, chunks, embeds and indexes the document, then verifies its source.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], args[1], title, author, published, language)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (required)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Document author")
	cmd.Flags().StringVar(&published, "published", "", "Publication time (RFC 3339)")
	cmd.Flags().StringVarP(&language, "lang", "l", "EN", "Document language (AR, EN, FR)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runIngest(cmd *cobra.Command, sourceID, documentURL, title, author, published, language string) error {
	ctx := cmd.Context()

	lang := entities.Language(language)
	if !lang.Valid() {
		return fmt.Errorf("invalid language %q (valid: AR, EN, FR)", language)
	}

	return withDeps(func(d *Deps) error {
		if _, err := d.DB.FindSourceByID(ctx, sourceID); err != nil {
			return err
		}

		job, err := d.Queue.EnqueueIngestion(ctx, queue.IngestPayload{
			SourceID:    sourceID,
			DocumentURL: documentURL,
			Metadata: queue.IngestMetadata{
				Title:       title,
				Author:      author,
				PublishedAt: published,
				Language:    lang,
			},
		})
		if err != nil {
			return fmt.Errorf("enqueueing ingestion job: %w", err)
		}

		fmt.Printf("Ingestion job enqueued: %s\n", job.ID)
		return nil
	})
}
