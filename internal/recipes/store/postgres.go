package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"foodgram/internal/platform/postgres"
	"foodgram/internal/recipes/models"
	"foodgram/pkg/domain"
	txcontext "foodgram/pkg/platform/tx"
)

// PostgresStore persists recipes in PostgreSQL. Writes touching the join
// tables run in one transaction.
type PostgresStore struct {
	db *sql.DB
	tx *postgres.TxRunner
}

// NewPostgres constructs a PostgreSQL-backed recipe store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTxRunner(db)}
}

const recipeColumns = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date`

func (s *PostgresStore) execer(ctx context.Context) txcontext.DBTX {
	return txcontext.Executor(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, recipe *models.Recipe) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var id int64
		err := s.execer(ctx).QueryRowContext(ctx, `
			INSERT INTO recipes (author_id, name, image, text, cooking_time, pub_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, int64(recipe.AuthorID), recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.PubDate,
		).Scan(&id)
		if err != nil {
			return writeError(err, "create recipe")
		}
		recipe.ID = domain.RecipeID(id)
		return s.writeJoins(ctx, recipe)
	})
}

func (s *PostgresStore) Update(ctx context.Context, recipe *models.Recipe) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE recipes SET name = $2, image = $3, text = $4, cooking_time = $5
			WHERE id = $1
		`, int64(recipe.ID), recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime)
		if err != nil {
			return writeError(err, "update recipe")
		}
		if err := expectOne(res); err != nil {
			return err
		}
		for _, table := range []string{"recipe_tags", "recipe_ingredients"} {
			if _, err := s.execer(ctx).ExecContext(ctx,
				`DELETE FROM `+table+` WHERE recipe_id = $1`, int64(recipe.ID)); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return s.writeJoins(ctx, recipe)
	})
}

// writeJoins bulk inserts the tag and ingredient rows of recipe.
func (s *PostgresStore) writeJoins(ctx context.Context, recipe *models.Recipe) error {
	if len(recipe.TagIDs) > 0 {
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO recipe_tags (recipe_id, tag_id)
			SELECT $1, UNNEST($2::bigint[])
		`, int64(recipe.ID), pq.Array(int64s(recipe.TagIDs)))
		if err != nil {
			return writeError(err, "insert recipe tags")
		}
	}
	if len(recipe.Ingredients) > 0 {
		ids := make([]int64, len(recipe.Ingredients))
		amounts := make([]int64, len(recipe.Ingredients))
		for i, ing := range recipe.Ingredients {
			ids[i] = int64(ing.IngredientID)
			amounts[i] = int64(ing.Amount)
		}
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
			SELECT $1, t.ingredient_id, t.amount
			FROM UNNEST($2::bigint[], $3::integer[]) AS t(ingredient_id, amount)
		`, int64(recipe.ID), pq.Array(ids), pq.Array(amounts))
		if err != nil {
			return writeError(err, "insert recipe ingredients")
		}
	}
	return nil
}

func writeError(err error, op string) error {
	switch {
	case postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == "recipes_author_name_key":
		return ErrNameTaken
	case postgres.IsForeignKeyViolation(err):
		return ErrUnknownReference
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.RecipeID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return expectOne(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.RecipeID) (*models.Recipe, error) {
	recipe, err := scanRecipe(s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadJoins(ctx, []*models.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.Filter, limit, offset int) ([]*models.Recipe, int, error) {
	where, args := filterClause(f)

	var count int
	if err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + recipeColumns + ` FROM recipes r` + where +
		` ORDER BY r.pub_date DESC, r.id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	recipes, err := s.queryRecipes(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadJoins(ctx, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

func filterClause(f models.Filter) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if !f.AuthorID.IsZero() {
		conds = append(conds, "r.author_id = "+next(int64(f.AuthorID)))
	}
	if f.ByTags {
		conds = append(conds, "EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY("+
			next(pq.Array(int64s(f.TagIDs)))+"::bigint[]))")
	}
	if !f.FavoritedBy.IsZero() {
		conds = append(conds, "EXISTS (SELECT 1 FROM favorites fv WHERE fv.recipe_id = r.id AND fv.user_id = "+
			next(int64(f.FavoritedBy))+")")
	}
	if !f.InCartOf.IsZero() {
		conds = append(conds, "EXISTS (SELECT 1 FROM shopping_cart sc WHERE sc.recipe_id = r.id AND sc.user_id = "+
			next(int64(f.InCartOf))+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// loadJoins fills the tag and ingredient rows of recipes in two queries.
func (s *PostgresStore) loadJoins(ctx context.Context, recipes []*models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	byID := make(map[domain.RecipeID]*models.Recipe, len(recipes))
	ids := make([]int64, len(recipes))
	for i, r := range recipes {
		byID[r.ID] = r
		ids[i] = int64(r.ID)
		r.TagIDs = []domain.TagID{}
		r.Ingredients = []models.IngredientAmount{}
	}

	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT recipe_id, tag_id FROM recipe_tags WHERE recipe_id = ANY($1::bigint[]) ORDER BY tag_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}
	for rows.Next() {
		var recipeID, tagID int64
		if err := rows.Scan(&recipeID, &tagID); err != nil {
			rows.Close()
			return fmt.Errorf("scan recipe tag: %w", err)
		}
		r := byID[domain.RecipeID(recipeID)]
		r.TagIDs = append(r.TagIDs, domain.TagID(tagID))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}

	rows, err = s.execer(ctx).QueryContext(ctx, `
		SELECT recipe_id, ingredient_id, amount FROM recipe_ingredients
		WHERE recipe_id = ANY($1::bigint[])
		ORDER BY ingredient_id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load recipe ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID, ingredientID int64
		var amount int
		if err := rows.Scan(&recipeID, &ingredientID, &amount); err != nil {
			return fmt.Errorf("scan recipe ingredient: %w", err)
		}
		r := byID[domain.RecipeID(recipeID)]
		r.Ingredients = append(r.Ingredients, models.IngredientAmount{IngredientID: domain.IngredientID(ingredientID), Amount: amount})
	}
	return rows.Err()
}

func (s *PostgresStore) AddFavorite(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.addMark(ctx, "favorites", user, recipe, ErrAlreadyFavorited)
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.removeMark(ctx, "favorites", user, recipe)
}

func (s *PostgresStore) AddToCart(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.addMark(ctx, "shopping_cart", user, recipe, ErrAlreadyInCart)
}

func (s *PostgresStore) RemoveFromCart(ctx context.Context, user domain.UserID, recipe domain.RecipeID) error {
	return s.removeMark(ctx, "shopping_cart", user, recipe)
}

// table is always one of the two constant names above.
func (s *PostgresStore) addMark(ctx context.Context, table string, user domain.UserID, recipe domain.RecipeID, dup error) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, recipe_id) VALUES ($1, $2)`, int64(user), int64(recipe))
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err):
		return dup
	case postgres.IsForeignKeyViolation(err):
		return ErrNotFound
	default:
		return fmt.Errorf("insert into %s: %w", table, err)
	}
}

func (s *PostgresStore) removeMark(ctx context.Context, table string, user domain.UserID, recipe domain.RecipeID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = $1 AND recipe_id = $2`, int64(user), int64(recipe))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return expectOne(res)
}

func (s *PostgresStore) Marks(ctx context.Context, user domain.UserID, ids []domain.RecipeID) (map[domain.RecipeID]models.Marks, error) {
	out := make(map[domain.RecipeID]models.Marks, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT r.id,
			EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = $1),
			EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = $1)
		FROM UNNEST($2::bigint[]) AS r(id)
	`, int64(user), pq.Array(int64s(ids)))
	if err != nil {
		return nil, fmt.Errorf("load recipe marks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var m models.Marks
		if err := rows.Scan(&id, &m.Favorited, &m.InCart); err != nil {
			return nil, fmt.Errorf("scan recipe marks: %w", err)
		}
		out[domain.RecipeID(id)] = m
	}
	return out, rows.Err()
}

func (s *PostgresStore) FavoritesCount(ctx context.Context, ids []domain.RecipeID) (map[domain.RecipeID]int, error) {
	out := make(map[domain.RecipeID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT recipe_id, COUNT(*) FROM favorites
		WHERE recipe_id = ANY($1::bigint[])
		GROUP BY recipe_id
	`, pq.Array(int64s(ids)))
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan favorites count: %w", err)
		}
		out[domain.RecipeID(id)] = n
	}
	return out, rows.Err()
}

func (s *PostgresStore) CartLines(ctx context.Context, user domain.UserID) ([]models.CartLine, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT ri.ingredient_id, SUM(ri.amount)
		FROM shopping_cart c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		WHERE c.user_id = $1
		GROUP BY ri.ingredient_id
		ORDER BY ri.ingredient_id
	`, int64(user))
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping cart: %w", err)
	}
	defer rows.Close()
	out := []models.CartLine{}
	for rows.Next() {
		var id, amount int64
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		out = append(out, models.CartLine{IngredientID: domain.IngredientID(id), Amount: amount})
	}
	return out, rows.Err()
}

func (s *PostgresStore) ByAuthors(ctx context.Context, authors []domain.UserID, limit int) (map[domain.UserID][]*models.Recipe, map[domain.UserID]int, error) {
	recipes := make(map[domain.UserID][]*models.Recipe, len(authors))
	counts := make(map[domain.UserID]int, len(authors))
	if len(authors) == 0 {
		return recipes, counts, nil
	}
	ids := pq.Array(int64s(authors))

	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT author_id, COUNT(*) FROM recipes
		WHERE author_id = ANY($1::bigint[])
		GROUP BY author_id
	`, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("count author recipes: %w", err)
	}
	for rows.Next() {
		var author int64
		var n int
		if err := rows.Scan(&author, &n); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan author count: %w", err)
		}
		counts[domain.UserID(author)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("count author recipes: %w", err)
	}
	if limit == 0 {
		return recipes, counts, nil
	}

	found, err := s.queryRecipes(ctx, `
		SELECT id, author_id, name, image, text, cooking_time, pub_date FROM (
			SELECT r.*, ROW_NUMBER() OVER (PARTITION BY r.author_id ORDER BY r.pub_date DESC, r.id DESC) AS rn
			FROM recipes r
			WHERE r.author_id = ANY($1::bigint[])
		) ranked
		WHERE $2 < 0 OR rn <= $2
		ORDER BY author_id, rn
	`, ids, limit)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range found {
		recipes[r.AuthorID] = append(recipes[r.AuthorID], r)
	}
	return recipes, counts, nil
}

func (s *PostgresStore) IngredientInUse(ctx context.Context, id domain.IngredientID) (bool, error) {
	var used bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipe_ingredients WHERE ingredient_id = $1)`, int64(id)).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check ingredient usage: %w", err)
	}
	return used, nil
}

func (s *PostgresStore) queryRecipes(ctx context.Context, query string, args ...any) ([]*models.Recipe, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()
	out := []*models.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var r models.Recipe
	var id, author int64
	err := row.Scan(&id, &author, &r.Name, &r.Image, &r.Text, &r.CookingTime, &r.PubDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}
	r.ID = domain.RecipeID(id)
	r.AuthorID = domain.UserID(author)
	return &r, nil
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
