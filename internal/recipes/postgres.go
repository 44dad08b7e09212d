package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/botmama/botmama/core/logger"
	"log/slog"
)

// pq error code for unique_violation.
const uniqueViolation = "23505"

// ErrDuplicate signals a unique-constraint collision (recipe name reuse by
// the same owner). Callers validate beforehand; this is the backstop.
var ErrDuplicate = errors.New("recipes: duplicate")

// PostgresRepository implements Repository on top of sqlx/lib/pq.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository wraps an open database handle.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UpsertUser(ctx context.Context, user User) error {
	const q = `
		INSERT INTO users (user_id, chat_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id)
		DO UPDATE SET display_name = EXCLUDED.display_name`
	if _, err := r.db.ExecContext(ctx, q, user.ID, user.ChatID, user.DisplayName); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateRecipe(ctx context.Context, ownerID int64, name string) (int64, error) {
	const q = `
		INSERT INTO recipes (owner_id, recipe_name)
		VALUES ($1, $2)
		RETURNING recipe_id`
	var id int64
	if err := r.db.GetContext(ctx, &id, q, ownerID, name); err != nil {
		return 0, wrapWriteErr("create recipe", err)
	}
	logger.SVCRecipes.LogAttrs(ctx, slog.LevelDebug, "recipes.create",
		slog.Int64("recipe_id", id),
		slog.Int64("user_id", ownerID),
	)
	return id, nil
}

func (r *PostgresRepository) RecipeID(ctx context.Context, ownerID int64, name string) (int64, error) {
	const q = `SELECT recipe_id FROM recipes WHERE owner_id = $1 AND recipe_name = $2`
	var id int64
	err := r.db.GetContext(ctx, &id, q, ownerID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve recipe id: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) RenameRecipe(ctx context.Context, recipeID int64, newName string) error {
	const q = `UPDATE recipes SET recipe_name = $2 WHERE recipe_id = $1`
	res, err := r.db.ExecContext(ctx, q, recipeID, newName)
	if err != nil {
		return wrapWriteErr("rename recipe", err)
	}
	return requireRow(res, "rename recipe")
}

func (r *PostgresRepository) SetYield(ctx context.Context, recipeID int64, yield *string) error {
	const q = `UPDATE recipes SET yield_text = $2 WHERE recipe_id = $1`
	res, err := r.db.ExecContext(ctx, q, recipeID, yield)
	if err != nil {
		return fmt.Errorf("set yield: %w", err)
	}
	return requireRow(res, "set yield")
}

func (r *PostgresRepository) SetPhoto(ctx context.Context, recipeID int64, ref *string) error {
	const q = `UPDATE recipes SET photo_ref = $2 WHERE recipe_id = $1`
	res, err := r.db.ExecContext(ctx, q, recipeID, ref)
	if err != nil {
		return fmt.Errorf("set photo: %w", err)
	}
	return requireRow(res, "set photo")
}

func (r *PostgresRepository) SetVisibility(ctx context.Context, recipeID int64, public bool) error {
	const q = `UPDATE recipes SET is_public = $2 WHERE recipe_id = $1`
	res, err := r.db.ExecContext(ctx, q, recipeID, public)
	if err != nil {
		return fmt.Errorf("set visibility: %w", err)
	}
	return requireRow(res, "set visibility")
}

func (r *PostgresRepository) ListRecipeNames(ctx context.Context, ownerID int64) ([]string, error) {
	const q = `SELECT recipe_name FROM recipes WHERE owner_id = $1 ORDER BY recipe_name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, q, ownerID); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return names, nil
}

func (r *PostgresRepository) GetRecipe(ctx context.Context, ownerID int64, name string) (*Recipe, error) {
	const q = `
		SELECT recipe_id, owner_id, recipe_name, yield_text, photo_ref, is_public
		FROM recipes
		WHERE owner_id = $1 AND recipe_name = $2`
	var rec Recipe
	err := r.db.GetContext(ctx, &rec, q, ownerID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	const qi = `
		SELECT ingredient_id, recipe_id, name
		FROM ingredients
		WHERE recipe_id = $1
		ORDER BY ingredient_id`
	if err := r.db.SelectContext(ctx, &rec.Ingredients, qi, rec.ID); err != nil {
		return nil, fmt.Errorf("get ingredients: %w", err)
	}

	const qs = `
		SELECT step_id, recipe_id, details
		FROM steps
		WHERE recipe_id = $1
		ORDER BY step_id`
	if err := r.db.SelectContext(ctx, &rec.Steps, qs, rec.ID); err != nil {
		return nil, fmt.Errorf("get steps: %w", err)
	}

	return &rec, nil
}

func (r *PostgresRepository) DeleteRecipe(ctx context.Context, recipeID int64) error {
	const q = `DELETE FROM recipes WHERE recipe_id = $1`
	res, err := r.db.ExecContext(ctx, q, recipeID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if err := requireRow(res, "delete recipe"); err != nil {
		return err
	}
	logger.SVCRecipes.LogAttrs(ctx, slog.LevelDebug, "recipes.delete",
		slog.Int64("recipe_id", recipeID),
	)
	return nil
}

func (r *PostgresRepository) AddIngredient(ctx context.Context, recipeID int64, name string) error {
	const q = `INSERT INTO ingredients (recipe_id, name) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, q, recipeID, name); err != nil {
		return fmt.Errorf("add ingredient: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateIngredient(ctx context.Context, ingredientID int64, name string) error {
	const q = `UPDATE ingredients SET name = $2 WHERE ingredient_id = $1`
	res, err := r.db.ExecContext(ctx, q, ingredientID, name)
	if err != nil {
		return fmt.Errorf("update ingredient: %w", err)
	}
	return requireRow(res, "update ingredient")
}

func (r *PostgresRepository) DeleteIngredient(ctx context.Context, ingredientID int64) error {
	const q = `DELETE FROM ingredients WHERE ingredient_id = $1`
	res, err := r.db.ExecContext(ctx, q, ingredientID)
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return requireRow(res, "delete ingredient")
}

func (r *PostgresRepository) AddStep(ctx context.Context, recipeID int64, details string) error {
	const q = `INSERT INTO steps (recipe_id, details) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, q, recipeID, details); err != nil {
		return fmt.Errorf("add step: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateStep(ctx context.Context, stepID int64, details string) error {
	const q = `UPDATE steps SET details = $2 WHERE step_id = $1`
	res, err := r.db.ExecContext(ctx, q, stepID, details)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	return requireRow(res, "update step")
}

func (r *PostgresRepository) DeleteStep(ctx context.Context, stepID int64) error {
	const q = `DELETE FROM steps WHERE step_id = $1`
	res, err := r.db.ExecContext(ctx, q, stepID)
	if err != nil {
		return fmt.Errorf("delete step: %w", err)
	}
	return requireRow(res, "delete step")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func wrapWriteErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
