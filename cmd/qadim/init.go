package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
	embedder "github.com/bobibcgroup/qadim/internal/infrastructure/embedder/openai"
	"github.com/bobibcgroup/qadim/internal/infrastructure/vectordb/qdrant"
)

func newInitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new qadim database",
		Long:  "Creates a .qadim directory with default configuration and sets up the Qdrant collection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, seed)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Register a sample source corpus after initializing")
	return cmd
}

func runInit(cmd *cobra.Command, seed bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("qadim already initialized in %s", cwd)
	}

	if err := config.WriteDefault(cwd); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	repo, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureCollection(ctx, embedder.VectorSize); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	fmt.Printf("Created Qdrant collection: %s\n", cfg.Qdrant.Collection)

	if seed {
		err := withDeps(func(d *Deps) error {
			return seedSources(ctx, d.DB)
		})
		if err != nil {
			return fmt.Errorf("seeding sources: %w", err)
		}
		fmt.Println("Seeded sample sources. Ingest documents with `qadim ingest` to verify them.")
	}

	fmt.Println("Qadim initialized successfully!")

	return nil
}

// seedSources registers a small starter corpus. IDs are fixed so reseeding
// upserts instead of duplicating.
func seedSources(ctx context.Context, db ports.RelationalDB) error {
	samples := []entities.Source{
		{
			ID:             "seed-lebanese-national-archives",
			Title:          "Lebanese National Archives",
			Publisher:      "Republic of Lebanon",
			AuthorityLevel: entities.AuthorityOfficial,
			Credibility:    95,
			Year:           1920,
			Language:       entities.LanguageArabic,
		},
		{
			ID:             "seed-phoenician-maritime-studies",
			Title:          "Journal of Phoenician Maritime Studies",
			Publisher:      "American University of Beirut",
			AuthorityLevel: entities.AuthorityScholarly,
			Credibility:    92,
			Year:           2018,
			Language:       entities.LanguageEnglish,
		},
		{
			ID:             "seed-annahar-archive",
			Title:          "An-Nahar Historical Archive",
			Publisher:      "An-Nahar",
			AuthorityLevel: entities.AuthorityPress,
			Credibility:    70,
			Year:           1933,
			Language:       entities.LanguageArabic,
		},
		{
			ID:             "seed-village-oral-histories",
			Title:          "Mount Lebanon Oral Histories",
			AuthorityLevel: entities.AuthorityCommunity,
			Credibility:    45,
			Year:           1995,
			Language:       entities.LanguageFrench,
		},
	}

	for i := range samples {
		samples[i].Status = entities.SourceUnverified
		if err := db.SaveSource(ctx, &samples[i]); err != nil {
			return err
		}
	}
	return nil
}
