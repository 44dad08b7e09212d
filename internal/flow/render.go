package flow

import (
	"strconv"
	"strings"

	"github.com/botmama/botmama/core/telegram/format"
	"github.com/botmama/botmama/internal/recipes"
)

// IngredientList renders the recipe's ingredients as a bulleted block.
func IngredientList(rec *recipes.Recipe) string {
	var b strings.Builder
	b.WriteString("Ingredients\n")
	for _, ing := range rec.Ingredients {
		b.WriteString("- ")
		b.WriteString(ing.Name)
		b.WriteString("\n")
	}
	return b.String()
}

// StepList renders the recipe's directions as a numbered block.
func StepList(rec *recipes.Recipe) string {
	var b strings.Builder
	b.WriteString("Directions\n")
	for i, step := range rec.Steps {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(step.Details)
		b.WriteString("\n")
	}
	return b.String()
}

// FullRecipe renders the complete recipe text: name, yield when present,
// ingredients, directions.
func FullRecipe(rec *recipes.Recipe) string {
	yield := format.DerefString(rec.YieldText, "")
	if yield == "" {
		return rec.Name + "\n\n" + IngredientList(rec) + "\n" + StepList(rec)
	}
	return rec.Name + "\n\n" + "Serves " + yield + "\n\n" + IngredientList(rec) + "\n" + StepList(rec)
}
