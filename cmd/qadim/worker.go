package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/application/handlers"
	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
	"github.com/bobibcgroup/qadim/internal/domain/services"
	"github.com/bobibcgroup/qadim/internal/infrastructure/blobstore/s3"
	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
	embedder "github.com/bobibcgroup/qadim/internal/infrastructure/embedder/openai"
	llm "github.com/bobibcgroup/qadim/internal/infrastructure/llm/openai"
	"github.com/bobibcgroup/qadim/internal/infrastructure/mailer/smtp"
	"github.com/bobibcgroup/qadim/internal/infrastructure/relationaldb/sqlite"
	"github.com/bobibcgroup/qadim/internal/infrastructure/vectordb/qdrant"
	"github.com/bobibcgroup/qadim/internal/queue"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the job workers",
		Long:  "Starts one worker per queue and processes jobs until interrupted. In-flight jobs finish before shutdown.",
		RunE:  runWorker,
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	vectorDB, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return fmt.Errorf("creating qdrant repository: %w", err)
	}
	defer vectorDB.Close()

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	// Size the collection from the configured model, not the default.
	if err := vectorDB.EnsureCollection(ctx, emb.Dimensions()); err != nil {
		return fmt.Errorf("ensuring qdrant collection: %w", err)
	}

	generator, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	var blobs ports.BlobStore
	if cfg.S3.Bucket != "" {
		blobs, err = s3.NewStore(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("creating s3 store: %w", err)
		}
		logger.Info("raw document archival enabled", zap.String("bucket", cfg.S3.Bucket))
	}

	var mailer ports.Mailer
	if cfg.SMTP.Host != "" {
		mailer, err = smtp.NewMailer(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("creating smtp mailer: %w", err)
		}
	} else {
		logger.Info("smtp not configured, notifications are logged only")
		mailer = &logMailer{logger: logger}
	}

	policies := buildPolicies(cfg)
	notifyQueue := queue.NewWithPolicies(db, policies, logger)

	retrieval := services.NewRetrievalService(emb, vectorDB)
	answers := services.NewAnswerService(retrieval, generator, logger)
	ingestion := services.NewIngestionService(emb, vectorDB, db, blobs)
	fetcher := handlers.NewHTTPFetcher(cfg.Worker.RequestTimeout.Std())

	workers := queue.NewWorkersWithPolicies(db, policies, logger)
	workers.SetPollInterval(cfg.Worker.PollInterval.Std())
	workers.SetAudit(db)

	// Each job runs under the request timeout so a hung upstream call
	// surfaces as a retryable deadline error instead of stalling the queue.
	timeout := cfg.Worker.RequestTimeout.Std()
	if err := workers.Register(queue.QueueAnswerGeneration, withTimeout(handlers.NewAnswerHandler(answers, db, notifyQueue, logger), timeout)); err != nil {
		return err
	}
	if err := workers.Register(queue.QueueDocumentIngestion, withTimeout(handlers.NewIngestHandler(ingestion, fetcher, logger), timeout)); err != nil {
		return err
	}
	if err := workers.Register(queue.QueueNotification, withTimeout(handlers.NewNotifyHandler(mailer, logger), timeout)); err != nil {
		return err
	}

	workers.Start(ctx)
	<-ctx.Done()

	logger.Info("shutting down, draining in-flight jobs")
	workers.Close()
	return nil
}

// withTimeout bounds each handler invocation. A zero duration disables the
// bound.
func withTimeout(h queue.Handler, d time.Duration) queue.Handler {
	if d <= 0 {
		return h
	}
	return queue.HandlerFunc(func(ctx context.Context, job *entities.Job) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return h.Handle(ctx, job)
	})
}

// logMailer stands in when SMTP is not configured; messages are logged and
// the notification job completes.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("notification (smtp disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
