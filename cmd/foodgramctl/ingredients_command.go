package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"foodgram/pkg/platform/validation"
)

type ingredientRow struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func newIngredientsCommand(ctx *commandContext) *cobra.Command {
	ingredientsCmd := &cobra.Command{
		Use:   "ingredients",
		Short: "Ingredient catalog utilities",
	}

	var format string
	loadCmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Bulk-load ingredients from a JSON or CSV file",
		Long: `Loads ingredients with COPY. JSON files hold an array of
{"name", "measurement_unit"} objects; CSV files hold name,measurement_unit rows
with an optional header. Ingredients that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open ingredients file: %w", err)
			}
			defer f.Close()

			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[0])), ".")
			}
			rows, err := readIngredients(f, format)
			if err != nil {
				return err
			}
			if ctx.databaseURL == "" {
				return errors.New("database URL is required (set DATABASE_URL or --database-url)")
			}
			inserted, err := copyIngredients(cmd.Context(), ctx.databaseURL, rows)
			if err != nil {
				return err
			}
			ctx.log.Info("ingredients loaded", "read", len(rows), "inserted", inserted)
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d of %d ingredients\n", inserted, len(rows))
			return nil
		},
	}
	loadCmd.Flags().StringVar(&format, "format", "", "Input format: json or csv (default: from file extension)")

	ingredientsCmd.AddCommand(loadCmd)
	return ingredientsCmd
}

// readIngredients parses and checks every row, reporting the first bad one by
// its 1-based position.
func readIngredients(r io.Reader, format string) ([]ingredientRow, error) {
	var rows []ingredientRow
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode ingredients: %w", err)
		}
	case "csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = 2
		reader.TrimLeadingSpace = true
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read ingredients: %w", err)
		}
		if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "name") {
			records = records[1:]
		}
		for _, rec := range records {
			rows = append(rows, ingredientRow{Name: rec[0], MeasurementUnit: rec[1]})
		}
	default:
		return nil, fmt.Errorf("unsupported ingredients format %q", format)
	}

	for i := range rows {
		rows[i].Name = strings.TrimSpace(rows[i].Name)
		rows[i].MeasurementUnit = strings.TrimSpace(rows[i].MeasurementUnit)
		switch {
		case rows[i].Name == "" || rows[i].MeasurementUnit == "":
			return nil, fmt.Errorf("ingredient %d: name and measurement_unit are required", i+1)
		case len([]rune(rows[i].Name)) > validation.MaxNameLength:
			return nil, fmt.Errorf("ingredient %d: name longer than %d characters", i+1, validation.MaxNameLength)
		case len([]rune(rows[i].MeasurementUnit)) > validation.MaxUnitLength:
			return nil, fmt.Errorf("ingredient %d: measurement_unit longer than %d characters", i+1, validation.MaxUnitLength)
		}
	}
	return rows, nil
}

// copyIngredients streams rows into a temp table with COPY, then inserts the
// ones not yet in the catalog.
func copyIngredients(ctx context.Context, dsn string, rows []ingredientRow) (int64, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE ingredients_import (
			name             VARCHAR(200) NOT NULL,
			measurement_unit VARCHAR(20)  NOT NULL
		) ON COMMIT DROP`); err != nil {
		return 0, fmt.Errorf("create import table: %w", err)
	}

	src := make([][]any, len(rows))
	for i, row := range rows {
		src[i] = []any{row.Name, row.MeasurementUnit}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"ingredients_import"}, []string{"name", "measurement_unit"}, pgx.CopyFromRows(src)); err != nil {
		return 0, fmt.Errorf("copy ingredients: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO ingredients (name, measurement_unit)
		SELECT DISTINCT ON (LOWER(name), measurement_unit) name, measurement_unit
		FROM ingredients_import
		ORDER BY LOWER(name), measurement_unit
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("insert ingredients: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected(), nil
}
