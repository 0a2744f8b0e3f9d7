package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"foodgram/internal/catalog/models"
	"foodgram/internal/platform/postgres"
	"foodgram/pkg/domain"
	txcontext "foodgram/pkg/platform/tx"
)

// PostgresStore persists the catalog in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.DBTX {
	return txcontext.Executor(ctx, s.db)
}

func (s *PostgresStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	var id int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`INSERT INTO tags (name, color, slug) VALUES ($1, $2, $3) RETURNING id`,
		tag.Name, tag.Color, tag.Slug,
	).Scan(&id)
	if err != nil {
		return tagError(err, "create tag")
	}
	tag.ID = domain.TagID(id)
	return nil
}

func (s *PostgresStore) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE tags SET name = $2, color = $3, slug = $4 WHERE id = $1`,
		int64(tag.ID), tag.Name, tag.Color, tag.Slug)
	if err != nil {
		return tagError(err, "update tag")
	}
	return expectOne(res)
}

func tagError(err error, op string) error {
	if postgres.IsUniqueViolation(err) {
		switch postgres.ConstraintName(err) {
		case "tags_color_key":
			return ErrTagColorTaken
		case "tags_slug_key":
			return ErrTagSlugTaken
		default:
			return ErrTagNameTaken
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *PostgresStore) DeleteTag(ctx context.Context, id domain.TagID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectOne(res)
}

func (s *PostgresStore) FindTag(ctx context.Context, id domain.TagID) (*models.Tag, error) {
	var t models.Tag
	var tagID int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = $1`, int64(id),
	).Scan(&tagID, &t.Name, &t.Color, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	t.ID = domain.TagID(tagID)
	return &t, nil
}

func (s *PostgresStore) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.queryTags(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name, id`)
}

func (s *PostgresStore) TagsByIDs(ctx context.Context, ids []domain.TagID) (map[domain.TagID]*models.Tag, error) {
	out := make(map[domain.TagID]*models.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	tags, err := s.queryTags(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ANY($1::bigint[])`, pq.Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		out[t.ID] = t
	}
	return out, nil
}

func (s *PostgresStore) TagIDsBySlugs(ctx context.Context, slugs []string) ([]domain.TagID, error) {
	if len(slugs) == 0 {
		return []domain.TagID{}, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id FROM tags WHERE slug = ANY($1::text[]) ORDER BY id`, pq.Array(slugs))
	if err != nil {
		return nil, fmt.Errorf("resolve tag slugs: %w", err)
	}
	defer rows.Close()
	out := []domain.TagID{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tag id: %w", err)
		}
		out = append(out, domain.TagID(id))
	}
	return out, rows.Err()
}

func (s *PostgresStore) queryTags(ctx context.Context, query string, args ...any) ([]*models.Tag, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	out := []*models.Tag{}
	for rows.Next() {
		var t models.Tag
		var id int64
		if err := rows.Scan(&id, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.ID = domain.TagID(id)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateIngredient(ctx context.Context, ing *models.Ingredient) error {
	var id int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2) RETURNING id`,
		ing.Name, ing.MeasurementUnit,
	).Scan(&id)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrIngredientTaken
		}
		return fmt.Errorf("create ingredient: %w", err)
	}
	ing.ID = domain.IngredientID(id)
	return nil
}

func (s *PostgresStore) DeleteIngredient(ctx context.Context, id domain.IngredientID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, int64(id))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrIngredientInUse
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return expectOne(res)
}

func (s *PostgresStore) FindIngredient(ctx context.Context, id domain.IngredientID) (*models.Ingredient, error) {
	var i models.Ingredient
	var ingID int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, int64(id),
	).Scan(&ingID, &i.Name, &i.MeasurementUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ingredient: %w", err)
	}
	i.ID = domain.IngredientID(ingID)
	return &i, nil
}

func (s *PostgresStore) SearchIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error) {
	return s.queryIngredients(ctx, `
		SELECT id, name, measurement_unit FROM ingredients
		WHERE LOWER(name) LIKE $1 ESCAPE '\'
		ORDER BY name, measurement_unit, id
	`, prefixPattern(prefix))
}

func (s *PostgresStore) IngredientsByIDs(ctx context.Context, ids []domain.IngredientID) (map[domain.IngredientID]*models.Ingredient, error) {
	out := make(map[domain.IngredientID]*models.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.queryIngredients(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ANY($1::bigint[])`, pq.Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	for _, i := range found {
		out[i.ID] = i
	}
	return out, nil
}

func (s *PostgresStore) queryIngredients(ctx context.Context, query string, args ...any) ([]*models.Ingredient, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()
	out := []*models.Ingredient{}
	for rows.Next() {
		var i models.Ingredient
		var id int64
		if err := rows.Scan(&id, &i.Name, &i.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		i.ID = domain.IngredientID(id)
		out = append(out, &i)
	}
	return out, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func int64s[T ~int64](ids []T) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
