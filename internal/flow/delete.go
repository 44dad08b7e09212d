package flow

import "context"

const (
	choiceYes = "yes"
	choiceNo  = "no"
)

// NewDeleteFlow builds the Delete-Recipe flow: choose → confirm → end.
func NewDeleteFlow() *Definition {
	return &Definition{
		Family:       FamilyDelete,
		EntryCommand: CmdDelete,
		Entry:        deleteEntry,
		States: map[State][]Transition{
			DeleteChoose: {
				{Match: MatchAnyChoice(), Handle: deleteChoose},
			},
			DeleteConfirm: {
				{Match: MatchChoice(choiceYes), Handle: deleteConfirmYes},
				{Match: MatchChoice(choiceNo), Handle: deleteConfirmNo},
			},
		},
		Global: []Transition{
			{Match: MatchCommand(CmdExit), Handle: exitQuietly},
		},
		CommandFallback: exitQuietly,
	}
}

func deleteEntry(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	names, err := d.Repo.ListRecipeNames(ctx, s.UserID)
	if err != nil {
		return End(), err
	}
	if len(names) == 0 {
		say(ctx, d, s, "Your recipe book is already empty.")
		return End(), nil
	}
	say(ctx, d, s, "Please select a recipe to delete.", nameChoices(names)...)
	return Goto(DeleteChoose), nil
}

func deleteChoose(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, ev.Text)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}

	s.Delete.RecipeName = rec.Name
	s.Delete.RecipeID = rec.ID
	rewrite(ctx, d, s,
		"Are you sure you want to delete '"+rec.Name+"'? Mama won't be able to recover any deleted recipes!",
		NamedChoice(choiceYes), NamedChoice(choiceNo))
	return Goto(DeleteConfirm), nil
}

func deleteConfirmYes(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, s.Delete.RecipeName)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}

	if err := d.Repo.DeleteRecipe(ctx, s.Delete.RecipeID); err != nil && !isNotFound(err) {
		return Stay(), err
	}
	if rec.PhotoRef != nil && d.Media != nil {
		_ = d.Media.Delete(ctx, *rec.PhotoRef)
	}
	rewrite(ctx, d, s, s.Delete.RecipeName+" has been deleted from your recipes.")
	return End(), nil
}

func deleteConfirmNo(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rewrite(ctx, d, s, "Seems like you've changed your mind!")
	return End(), nil
}
