package recipes

import "context"

// Repository is the durable storage contract the conversation flows depend
// on. Every call is atomic with respect to a single caller and commits
// before returning. Lookups that expect exactly one row return ErrNotFound
// when nothing matches.
type Repository interface {
	// UpsertUser records or refreshes a chat participant.
	UpsertUser(ctx context.Context, user User) error

	// CreateRecipe inserts an empty recipe (name only) and returns its id.
	CreateRecipe(ctx context.Context, ownerID int64, name string) (int64, error)
	// RecipeID resolves a recipe id from its owner-scoped name.
	RecipeID(ctx context.Context, ownerID int64, name string) (int64, error)
	// RenameRecipe changes the recipe's name. Name collisions surface as a
	// unique-constraint error; callers validate beforehand.
	RenameRecipe(ctx context.Context, recipeID int64, newName string) error
	// SetYield stores the yield text; nil clears it.
	SetYield(ctx context.Context, recipeID int64, yield *string) error
	// SetPhoto stores the photo reference; nil clears it.
	SetPhoto(ctx context.Context, recipeID int64, ref *string) error
	// SetVisibility flips the recipe between public and private.
	SetVisibility(ctx context.Context, recipeID int64, public bool) error
	// ListRecipeNames returns the owner's recipe names sorted alphabetically.
	ListRecipeNames(ctx context.Context, ownerID int64) ([]string, error)
	// GetRecipe fetches a recipe with its ingredients (stable order) and
	// steps (insertion order).
	GetRecipe(ctx context.Context, ownerID int64, name string) (*Recipe, error)
	// DeleteRecipe removes the recipe; ingredients and steps cascade.
	DeleteRecipe(ctx context.Context, recipeID int64) error

	// AddIngredient appends one ingredient to the recipe.
	AddIngredient(ctx context.Context, recipeID int64, name string) error
	// UpdateIngredient renames one ingredient in place.
	UpdateIngredient(ctx context.Context, ingredientID int64, name string) error
	// DeleteIngredient removes one ingredient.
	DeleteIngredient(ctx context.Context, ingredientID int64) error

	// AddStep appends one step to the recipe.
	AddStep(ctx context.Context, recipeID int64, details string) error
	// UpdateStep rewrites one step's text in place.
	UpdateStep(ctx context.Context, stepID int64, details string) error
	// DeleteStep removes one step.
	DeleteStep(ctx context.Context, stepID int64) error
}
