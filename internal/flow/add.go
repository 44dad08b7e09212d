package flow

import (
	"context"
	"errors"

	"github.com/botmama/botmama/internal/media"
	"github.com/botmama/botmama/internal/recipes"
)

// NewAddFlow builds the Add-Recipe flow:
// name → [photo] → [yield] → ingredients* → steps* → end.
func NewAddFlow() *Definition {
	return &Definition{
		Family:       FamilyAdd,
		EntryCommand: CmdAdd,
		Entry:        addEntry,
		States: map[State][]Transition{
			AddName: {
				{Match: MatchText(), Handle: addName},
			},
			AddPhoto: {
				{Match: MatchPhoto(), Handle: addPhotoUpload},
				{Match: MatchCommand(CmdSkip), Handle: addSkipPhoto},
			},
			AddYield: {
				{Match: MatchCommand(CmdSkip), Handle: addSkipYield},
				{Match: MatchText(), Handle: addYield},
			},
			AddIngredients: {
				{Match: MatchCommand(CmdDone), Handle: addIngredientsDone},
				{Match: MatchText(), Handle: addIngredient},
			},
			AddSteps: {
				{Match: MatchCommand(CmdDone), Handle: addStepsDone},
				{Match: MatchText(), Handle: addStep},
			},
		},
		Global: []Transition{
			{Match: MatchCommand(CmdCancel), Handle: addCancel},
		},
		OnTimeout: addCleanup,
	}
}

func addEntry(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	say(ctx, d, s, "Please tell me the name of your new recipe or type /cancel if you change your mind anytime!")
	return Goto(AddName), nil
}

func addName(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	names, err := d.Repo.ListRecipeNames(ctx, s.UserID)
	if err != nil {
		return Stay(), err
	}
	if containsString(names, ev.Text) {
		say(ctx, d, s, "Recipe name already exists! Please choose a different name.")
		return Stay(), nil
	}

	id, err := d.Repo.CreateRecipe(ctx, s.UserID, ev.Text)
	if errors.Is(err, recipes.ErrDuplicate) {
		say(ctx, d, s, "Recipe name already exists! Please choose a different name.")
		return Stay(), nil
	}
	if err != nil {
		return Stay(), err
	}

	s.Add.RecipeName = ev.Text
	s.Add.RecipeID = id
	say(ctx, d, s, "Looking good! Send Mama a photo of the dish, or type /skip if you do not have one.")
	return Goto(AddPhoto), nil
}

func addPhotoUpload(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	if d.Media != nil {
		key := media.Key(s.UserID, s.Add.RecipeName)
		ref, err := d.Media.Store(ctx, key, ev.Photo)
		if err != nil {
			return Stay(), err
		}
		if err := d.Repo.SetPhoto(ctx, s.Add.RecipeID, &ref); err != nil {
			return Stay(), err
		}
		s.Add.PhotoKey = key
	}
	say(ctx, d, s, "Perfect! Next, please state the yield of your recipe. Type /skip if you are not sure.")
	return Goto(AddYield), nil
}

func addSkipPhoto(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	say(ctx, d, s, "Perfect! Next, please state the yield of your recipe. Type /skip if you are not sure.")
	return Goto(AddYield), nil
}

func addYield(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	yield := ev.Text
	if err := d.Repo.SetYield(ctx, s.Add.RecipeID, &yield); err != nil {
		return Stay(), err
	}
	say(ctx, d, s, "Okay! Your recipe serves "+yield+".\n"+
		"Please tell Mama what ingredients are needed next.\nType /done when you have entered all the ingredients.")
	return Goto(AddIngredients), nil
}

func addSkipYield(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	say(ctx, d, s, "It's okay. Please tell Mama what ingredients are needed next.\n"+
		"Type /done when you have entered all the ingredients.")
	return Goto(AddIngredients), nil
}

func addIngredient(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, s.Add.RecipeName)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}
	if hasIngredient(rec, ev.Text) {
		say(ctx, d, s, "Ingredient has already been added.\nType /done if you have entered all the ingredients needed.")
		return Stay(), nil
	}

	if err := d.Repo.AddIngredient(ctx, s.Add.RecipeID, ev.Text); err != nil {
		return Stay(), err
	}
	rec, err = d.Repo.GetRecipe(ctx, s.UserID, s.Add.RecipeName)
	if err != nil {
		return Stay(), err
	}
	say(ctx, d, s, IngredientList(rec))
	return Stay(), nil
}

func addIngredientsDone(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	say(ctx, d, s, "Impressive! Now please write down the steps to the recipe. Type /done when you have entered all the steps you need.")
	return Goto(AddSteps), nil
}

func addStep(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	if err := d.Repo.AddStep(ctx, s.Add.RecipeID, ev.Text); err != nil {
		return Stay(), err
	}
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, s.Add.RecipeName)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}
	say(ctx, d, s, StepList(rec))
	return Stay(), nil
}

func addStepsDone(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, s.Add.RecipeName)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}
	say(ctx, d, s, "Terrific! This is your new recipe:\n\n"+FullRecipe(rec))
	if rec.PhotoRef != nil {
		showMedia(ctx, d, s, *rec.PhotoRef)
	}
	return End(), nil
}

// addCancel rolls back the partially built recipe and ends the flow.
func addCancel(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	if _, err := addCleanup(ctx, ev, s, d); err != nil {
		return Stay(), err
	}
	say(ctx, d, s, "It's OK! You can always come back to Mama whenever you are ready!")
	return End(), nil
}

// addCleanup deletes the partial recipe and its uploaded photo, shared by
// explicit cancellation and idle timeout.
func addCleanup(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	if s.Add.RecipeID != 0 {
		if err := d.Repo.DeleteRecipe(ctx, s.Add.RecipeID); err != nil && !isNotFound(err) {
			return Stay(), err
		}
		if s.Add.PhotoKey != "" && d.Media != nil {
			_ = d.Media.Delete(ctx, s.Add.PhotoKey)
		}
	}
	return End(), nil
}
