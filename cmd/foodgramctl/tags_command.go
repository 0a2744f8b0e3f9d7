package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"foodgram/internal/catalog/models"
	catalogservice "foodgram/internal/catalog/service"
	catalogstore "foodgram/internal/catalog/store"
	dErrors "foodgram/pkg/domain-errors"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag catalog utilities",
	}

	tagsCmd.AddCommand(&cobra.Command{
		Use:   "load <file.yaml>",
		Short: "Create tags listed in a YAML file",
		Long: `Creates each tag in a YAML list of {name, color, slug} entries.
Tags whose name, color or slug is already taken are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open tags file: %w", err)
			}
			defer f.Close()
			reqs, err := readTags(f)
			if err != nil {
				return err
			}

			db, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			svc := catalogservice.New(catalogstore.NewPostgres(db), catalogservice.WithLogger(ctx.log))

			created, skipped := 0, 0
			for _, req := range reqs {
				if _, err := svc.CreateTag(cmd.Context(), req); err != nil {
					if dErrors.HasCode(err, dErrors.CodeConflict) {
						ctx.log.Warn("tag skipped", "slug", req.Slug, "reason", err.Error())
						skipped++
						continue
					}
					return fmt.Errorf("create tag %q: %w", req.Slug, err)
				}
				created++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d tags, skipped %d\n", created, skipped)
			return nil
		},
	})
	return tagsCmd
}

// readTags parses the YAML list and validates each entry like the API would.
func readTags(r io.Reader) ([]*models.CreateTagRequest, error) {
	var reqs []*models.CreateTagRequest
	if err := yaml.NewDecoder(r).Decode(&reqs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	for i, req := range reqs {
		req.Normalize()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("tag %d: %w", i+1, err)
		}
	}
	return reqs, nil
}
