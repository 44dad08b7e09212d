package flow

import (
	"testing"

	"github.com/botmama/botmama/internal/recipes"
)

func sampleRecipe(yield *string) *recipes.Recipe {
	return &recipes.Recipe{
		ID:        1,
		OwnerID:   testUser,
		Name:      "Pancakes",
		YieldText: yield,
		Ingredients: []recipes.Ingredient{
			{ID: 10, RecipeID: 1, Name: "flour"},
			{ID: 11, RecipeID: 1, Name: "egg"},
		},
		Steps: []recipes.Step{
			{ID: 20, RecipeID: 1, Details: "Mix."},
			{ID: 21, RecipeID: 1, Details: "Fry."},
		},
	}
}

func TestIngredientList(t *testing.T) {
	got := IngredientList(sampleRecipe(nil))
	want := "Ingredients\n- flour\n- egg\n"
	if got != want {
		t.Fatalf("IngredientList = %q, want %q", got, want)
	}
}

func TestStepList(t *testing.T) {
	got := StepList(sampleRecipe(nil))
	want := "Directions\n1. Mix.\n2. Fry.\n"
	if got != want {
		t.Fatalf("StepList = %q, want %q", got, want)
	}
}

func TestFullRecipeWithYield(t *testing.T) {
	yield := "4"
	got := FullRecipe(sampleRecipe(&yield))
	want := "Pancakes\n\nServes 4\n\nIngredients\n- flour\n- egg\n\nDirections\n1. Mix.\n2. Fry.\n"
	if got != want {
		t.Fatalf("FullRecipe = %q, want %q", got, want)
	}
}

func TestFullRecipeWithoutYield(t *testing.T) {
	got := FullRecipe(sampleRecipe(nil))
	want := "Pancakes\n\nIngredients\n- flour\n- egg\n\nDirections\n1. Mix.\n2. Fry.\n"
	if got != want {
		t.Fatalf("FullRecipe = %q, want %q", got, want)
	}
}

func TestEmptyListsRenderHeadersOnly(t *testing.T) {
	rec := &recipes.Recipe{Name: "Toast"}
	if got := IngredientList(rec); got != "Ingredients\n" {
		t.Fatalf("IngredientList = %q", got)
	}
	if got := StepList(rec); got != "Directions\n" {
		t.Fatalf("StepList = %q", got)
	}
}
