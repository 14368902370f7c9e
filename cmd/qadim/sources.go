package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/services"
	"github.com/bobibcgroup/qadim/internal/infrastructure/parsers"
	"github.com/bobibcgroup/qadim/internal/infrastructure/vectordb/qdrant"
)

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage evidence sources",
	}

	cmd.AddCommand(
		newSourcesAddCmd(),
		newSourcesListCmd(),
		newSourcesStatusCmd(),
		newSourcesImportCmd(),
	)
	return cmd
}

func newSourcesImportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-import sources from a JSON or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesImport(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "File format (json, csv); inferred from extension when omitted")
	return cmd
}

func runSourcesImport(cmd *cobra.Command, path, format string) error {
	ctx := cmd.Context()

	var parser parsers.Parser
	if format != "" {
		parser = parsers.ForFormat(format)
	} else {
		parser = parsers.ForFile(path)
	}
	if parser == nil {
		return fmt.Errorf("unsupported format for %s (supported: json, csv)", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return withDeps(func(d *Deps) error {
		imported := 0
		for _, r := range raw {
			source, err := sourceFromRaw(r)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", path, r.LineNum, err)
			}
			if err := d.DB.SaveSource(ctx, source); err != nil {
				return err
			}
			imported++
		}
		fmt.Printf("Imported %d sources from %s\n", imported, path)
		return nil
	})
}

func sourceFromRaw(r parsers.RawSource) (*entities.Source, error) {
	if r.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	level := entities.AuthorityLevel(r.Authority)
	if !level.Valid() {
		return nil, fmt.Errorf("invalid authority level %q", r.Authority)
	}
	lang := entities.Language(r.Language)
	if !lang.Valid() {
		return nil, fmt.Errorf("invalid language %q", r.Language)
	}

	credibility := 50
	if r.Credibility != nil {
		credibility = *r.Credibility
	}
	if credibility < 0 || credibility > 100 {
		return nil, fmt.Errorf("credibility must be between 0 and 100, got %d", credibility)
	}

	id := r.ID
	if id == "" {
		id = uuid.New().String()
	}

	return &entities.Source{
		ID:             id,
		Title:          r.Title,
		Publisher:      r.Publisher,
		URL:            r.URL,
		AuthorityLevel: level,
		Status:         entities.SourceUnverified,
		Credibility:    credibility,
		Year:           r.Year,
		Language:       lang,
	}, nil
}

func newSourcesAddCmd() *cobra.Command {
	var (
		title       string
		publisher   string
		url         string
		authority   string
		credibility int
		year        int
		language    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new source (UNVERIFIED until a document is ingested)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			level := entities.AuthorityLevel(authority)
			if !level.Valid() {
				return fmt.Errorf("invalid authority level %q (valid: OFFICIAL, SCHOLARLY, PRESS, COMMUNITY, CLAIM)", authority)
			}
			lang := entities.Language(language)
			if !lang.Valid() {
				return fmt.Errorf("invalid language %q (valid: AR, EN, FR)", language)
			}
			if credibility < 0 || credibility > 100 {
				return fmt.Errorf("credibility must be between 0 and 100, got %d", credibility)
			}

			return withDeps(func(d *Deps) error {
				source := &entities.Source{
					ID:             uuid.New().String(),
					Title:          title,
					Publisher:      publisher,
					URL:            url,
					AuthorityLevel: level,
					Status:         entities.SourceUnverified,
					Credibility:    credibility,
					Year:           year,
					Language:       lang,
				}
				if err := d.DB.SaveSource(ctx, source); err != nil {
					return err
				}
				fmt.Printf("Source registered: %s\n", source.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Source title (required)")
	cmd.Flags().StringVarP(&publisher, "publisher", "p", "", "Publisher name")
	cmd.Flags().StringVar(&url, "url", "", "Source URL")
	cmd.Flags().StringVarP(&authority, "authority", "a", "PRESS", "Authority level (OFFICIAL, SCHOLARLY, PRESS, COMMUNITY, CLAIM)")
	cmd.Flags().IntVarP(&credibility, "credibility", "c", 50, "Editorial credibility score (0-100)")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Publication year")
	cmd.Flags().StringVarP(&language, "lang", "l", "EN", "Source language (AR, EN, FR)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newSourcesListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filter := entities.SourceStatus(status)
			if status != "" && !filter.Valid() {
				return fmt.Errorf("invalid status %q (valid: VERIFIED, UNVERIFIED, CONTESTED)", status)
			}

			return withDeps(func(d *Deps) error {
				sources, err := d.DB.ListSources(ctx, filter, limit, 0)
				if err != nil {
					return fmt.Errorf("listing sources: %w", err)
				}
				if len(sources) == 0 {
					fmt.Println("No sources found.")
					return nil
				}
				for _, s := range sources {
					docs, err := d.DB.CountDocumentsBySource(ctx, s.ID)
					if err != nil {
						return err
					}
					fmt.Printf("%s  [%s/%s] %s (credibility %d, %d documents)\n",
						s.ID, s.AuthorityLevel, s.Status, s.Title, s.Credibility, docs)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (VERIFIED, UNVERIFIED, CONTESTED)")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of results")

	return cmd
}

func newSourcesStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <source-id> <status>",
		Short: "Transition a source's verification status",
		Long:  "Sets a source to VERIFIED, UNVERIFIED or CONTESTED. A demoted source keeps its documents, but they are excluded from retrieval until the source is verified again.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			status := entities.SourceStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("invalid status %q (valid: VERIFIED, UNVERIFIED, CONTESTED)", args[1])
			}

			return withDeps(func(d *Deps) error {
				vectorDB, err := qdrant.NewRepository(d.Config.Qdrant)
				if err != nil {
					return fmt.Errorf("connecting to qdrant: %w", err)
				}
				defer vectorDB.Close()

				if err := services.NewSourceService(d.DB, vectorDB).SetStatus(ctx, args[0], status); err != nil {
					return err
				}
				fmt.Printf("Source %s is now %s\n", args[0], status)
				return nil
			})
		},
	}
	return cmd
}
