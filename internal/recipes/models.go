package recipes

import "errors"

// ErrNotFound signals that a lookup expecting exactly one row matched none.
var ErrNotFound = errors.New("recipes: not found")

// User mirrors a Telegram account the bot has talked to.
type User struct {
	ID          int64  `db:"user_id"`
	ChatID      int64  `db:"chat_id"`
	DisplayName string `db:"display_name"`
}

// Recipe is a single recipe owned by one user.
// YieldText and PhotoRef are optional and nil when unset.
type Recipe struct {
	ID        int64   `db:"recipe_id"`
	OwnerID   int64   `db:"owner_id"`
	Name      string  `db:"recipe_name"`
	YieldText *string `db:"yield_text"`
	PhotoRef  *string `db:"photo_ref"`
	IsPublic  bool    `db:"is_public"`

	Ingredients []Ingredient
	Steps       []Step
}

// Ingredient belongs to exactly one recipe. Names are unique within a
// recipe; the flow layer checks this before insert.
type Ingredient struct {
	ID       int64  `db:"ingredient_id"`
	RecipeID int64  `db:"recipe_id"`
	Name     string `db:"name"`
}

// Step belongs to exactly one recipe and keeps insertion order via its id.
type Step struct {
	ID       int64  `db:"step_id"`
	RecipeID int64  `db:"recipe_id"`
	Details  string `db:"details"`
}
