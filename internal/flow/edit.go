package flow

import (
	"context"
	"strconv"
	"strings"

	"github.com/botmama/botmama/internal/media"
	"github.com/botmama/botmama/internal/recipes"
)

const (
	btnBack       = "<< back"
	btnBackToList = "<< back to list of recipes"

	partRecipeName  = "recipe name"
	partServings    = "servings"
	partAddServings = "add servings"
	partPhoto       = "photo"
	partAddPhoto    = "add photo"
	partIngredients = "ingredients"
	partDirections  = "directions"
	partMakePublic  = "make public"
	partMakePrivate = "make private"

	opAdd    = "add"
	opEdit   = "edit"
	opDelete = "delete"
)

// NewEditFlow builds the Edit-Recipe flow, the deepest graph: recipe
// choice → part menu → field editors and the shared item editor used for
// both ingredients and directions.
func NewEditFlow() *Definition {
	return &Definition{
		Family:       FamilyEdit,
		EntryCommand: CmdEdit,
		Entry:        editEntry,
		States: map[State][]Transition{
			EditChoose: {
				{Match: MatchAnyChoice(), Handle: editChoose},
			},
			EditPart: {
				{Match: MatchChoice(partRecipeName), Handle: editAskName},
				{Match: MatchChoice(partServings), Handle: editAskServings},
				{Match: MatchChoice(partAddServings), Handle: editAskServings},
				{Match: MatchChoice(partPhoto), Handle: editAskPhoto},
				{Match: MatchChoice(partAddPhoto), Handle: editAskPhoto},
				{Match: MatchChoice(partIngredients), Handle: editOpenIngredients},
				{Match: MatchChoice(partDirections), Handle: editOpenSteps},
				{Match: MatchChoice(partMakePublic), Handle: editToggleVisibility},
				{Match: MatchChoice(partMakePrivate), Handle: editToggleVisibility},
				{Match: MatchChoice(btnBackToList), Handle: editBackToList},
			},
			EditRename: {
				{Match: MatchChoice(btnBack), Handle: editBackToPartMenu},
				{Match: MatchText(), Handle: editSaveName},
			},
			EditServings: {
				{Match: MatchChoice(btnBack), Handle: editBackToPartMenu},
				{Match: MatchText(), Handle: editSaveServings},
			},
			EditPhotoUpload: {
				{Match: MatchChoice(btnBack), Handle: editBackToPartMenu},
				{Match: MatchPhoto(), Handle: editSavePhoto},
			},
			EditItemMenu: {
				{Match: MatchChoice(opAdd), Handle: editItemAskAdd},
				{Match: MatchChoice(opEdit), Handle: editItemAskPick(EditItemPickUpdate)},
				{Match: MatchChoice(opDelete), Handle: editItemAskPick(EditItemPickDelete)},
				{Match: MatchChoice(btnBack), Handle: editBackToPartMenu},
			},
			EditItemAdd: {
				{Match: MatchChoice(btnBack), Handle: editBackToItemMenu},
				{Match: MatchText(), Handle: editItemAdd},
			},
			EditItemPickUpdate: {
				{Match: MatchChoice(btnBack), Handle: editBackToItemMenu},
				{Match: MatchAnyChoice(), Handle: editItemPickForUpdate},
			},
			EditItemSave: {
				{Match: MatchChoice(btnBack), Handle: editItemBackToPickList},
				{Match: MatchText(), Handle: editItemSave},
			},
			EditItemPickDelete: {
				{Match: MatchChoice(btnBack), Handle: editBackToItemMenu},
				{Match: MatchAnyChoice(), Handle: editItemDelete},
			},
		},
		Global: []Transition{
			{Match: MatchCommand(CmdExit), Handle: exitQuietly},
		},
		CommandFallback: exitQuietly,
		OnTimeout:       editTimeout,
	}
}

func editEntry(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	names, err := d.Repo.ListRecipeNames(ctx, s.UserID)
	if err != nil {
		return End(), err
	}
	if len(names) == 0 {
		say(ctx, d, s, "Hmm, it seems like you do not have any recipes stored currently. Type /add to start adding new recipes!")
		return End(), nil
	}
	say(ctx, d, s, "Which recipe would you like to edit?", nameChoices(names)...)
	return Goto(EditChoose), nil
}

func editChoose(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, ev.Text)
	if isNotFound(err) {
		rewrite(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}

	s.Edit.RecipeName = rec.Name
	s.Edit.RecipeID = rec.ID
	rewrite(ctx, d, s,
		FullRecipe(rec)+"\nYou are currently editing '"+rec.Name+"'.\n"+
			"Which part of the recipe would you like to edit?",
		editPartChoices(rec)...)
	return Goto(EditPart), nil
}

// editPartChoices rebuilds the part menu from the current recipe so
// optional-field labels always reflect presence.
func editPartChoices(rec *recipes.Recipe) []Choice {
	servingsLabel := partAddServings
	if rec.YieldText != nil {
		servingsLabel = partServings
	}
	photoLabel := partAddPhoto
	if rec.PhotoRef != nil {
		photoLabel = partPhoto
	}
	visibilityLabel := partMakePublic
	if rec.IsPublic {
		visibilityLabel = partMakePrivate
	}
	return []Choice{
		NamedChoice(partRecipeName),
		NamedChoice(servingsLabel),
		NamedChoice(photoLabel),
		NamedChoice(partIngredients),
		NamedChoice(partDirections),
		NamedChoice(visibilityLabel),
		NamedChoice(btnBackToList),
	}
}

// editShowPartMenu re-renders the part menu under the given heading.
func editShowPartMenu(ctx context.Context, d Deps, s *Session, heading string) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	rewrite(ctx, d, s, heading, editPartChoices(rec)...)
	return Goto(EditPart), nil
}

func editBackToPartMenu(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	return editShowPartMenu(ctx, d, s, "Which part of the recipe would you like to edit?")
}

func editBackToList(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	names, err := d.Repo.ListRecipeNames(ctx, s.UserID)
	if err != nil {
		return Stay(), err
	}
	rewrite(ctx, d, s, "Which recipe would you like to edit?", nameChoices(names)...)
	return Goto(EditChoose), nil
}

func editAskName(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rewrite(ctx, d, s,
		"Your recipe name is currently '"+s.Edit.RecipeName+"'.\n"+
			"What would you like the new name of your recipe to be?",
		NamedChoice(btnBack))
	return Goto(EditRename), nil
}

func editSaveName(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	newName := strings.TrimSpace(ev.Text)
	current := s.Edit.RecipeName

	names, err := d.Repo.ListRecipeNames(ctx, s.UserID)
	if err != nil {
		return Stay(), err
	}
	if newName == "" || newName == current || containsString(names, newName) {
		say(ctx, d, s, "Sorry, please choose a different name.", NamedChoice(btnBack))
		return Stay(), nil
	}

	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	if err := d.Repo.RenameRecipe(ctx, s.Edit.RecipeID, newName); err != nil {
		if isNotFound(err) {
			say(ctx, d, s, msgRecipeGone)
			return End(), nil
		}
		return Stay(), err
	}

	// The photo key embeds the recipe name; move the blob along.
	if rec.PhotoRef != nil && d.Media != nil {
		newKey := media.Key(s.UserID, newName)
		if ref, err := d.Media.Rename(ctx, *rec.PhotoRef, newKey); err == nil {
			if err := d.Repo.SetPhoto(ctx, s.Edit.RecipeID, &ref); err != nil {
				return Stay(), err
			}
		}
	}

	s.Edit.RecipeName = newName
	return editShowPartMenu(ctx, d, s,
		"The name of your recipe has been changed from '"+current+"' to '"+newName+"'.\n"+
			"What else would you like to edit?")
}

func editAskServings(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	if rec.YieldText != nil {
		rewrite(ctx, d, s,
			"Your recipe currently serves "+*rec.YieldText+".\n"+
				"What is the new yield of your recipe?",
			NamedChoice(btnBack))
	} else {
		rewrite(ctx, d, s, "What is the yield of your recipe?", NamedChoice(btnBack))
	}
	return Goto(EditServings), nil
}

func editSaveServings(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	newYield := ev.Text
	if err := d.Repo.SetYield(ctx, s.Edit.RecipeID, &newYield); err != nil {
		return Stay(), err
	}
	heading := "Okay! Your recipe serves " + newYield + ".\nWhat else would you like to edit?"
	if rec.YieldText != nil {
		heading = "Your recipe now serves " + newYield + " instead of " + *rec.YieldText + ".\n" +
			"What else would you like to edit?"
	}
	return editShowPartMenu(ctx, d, s, heading)
}

func editAskPhoto(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rewrite(ctx, d, s, "Send Mama the new photo of the dish.", NamedChoice(btnBack))
	return Goto(EditPhotoUpload), nil
}

func editSavePhoto(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	if d.Media != nil {
		key := media.Key(s.UserID, s.Edit.RecipeName)
		ref, err := d.Media.Store(ctx, key, ev.Photo)
		if err != nil {
			return Stay(), err
		}
		if err := d.Repo.SetPhoto(ctx, s.Edit.RecipeID, &ref); err != nil {
			return Stay(), err
		}
	}
	return editShowPartMenu(ctx, d, s, "The photo has been updated!\nWhat else would you like to edit?")
}

func editToggleVisibility(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	public := !rec.IsPublic
	if err := d.Repo.SetVisibility(ctx, s.Edit.RecipeID, public); err != nil {
		return Stay(), err
	}
	heading := "Your recipe is now private.\nWhat else would you like to edit?"
	if public {
		heading = "Your recipe is now public.\nWhat else would you like to edit?"
	}
	return editShowPartMenu(ctx, d, s, heading)
}

func editOpenIngredients(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	s.Edit.Items = ItemIngredients
	return editShowItemMenu(ctx, d, s, "")
}

func editOpenSteps(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	s.Edit.Items = ItemSteps
	return editShowItemMenu(ctx, d, s, "")
}

// editShowItemMenu renders the add/edit/delete menu over the current item
// list, optionally under a status heading.
func editShowItemMenu(ctx context.Context, d Deps, s *Session, heading string) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	question := "What would you like to do with the list of ingredients?"
	if s.Edit.Items == ItemSteps {
		question = "What would you like to do with the directions?"
	}
	text := itemList(s.Edit.Items, rec) + "\n" + question
	if heading != "" {
		text = heading + "\n\n" + text
	}
	rewrite(ctx, d, s, text, itemOpChoices(s.Edit.Items)...)
	return Goto(EditItemMenu), nil
}

func editBackToItemMenu(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	return editShowItemMenu(ctx, d, s, "")
}

func editItemAskAdd(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	prompt := "Please tell Mama what ingredient you would like to add."
	if s.Edit.Items == ItemSteps {
		prompt = "Please tell Mama what's the next step to the recipe."
	}
	rewrite(ctx, d, s, prompt, NamedChoice(btnBack))
	return Goto(EditItemAdd), nil
}

func editItemAdd(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	if s.Edit.Items == ItemIngredients {
		if hasIngredient(rec, ev.Text) {
			say(ctx, d, s, "Ingredient already exists! Please enter a different ingredient.", NamedChoice(btnBack))
			return Stay(), nil
		}
		if err := d.Repo.AddIngredient(ctx, s.Edit.RecipeID, ev.Text); err != nil {
			return Stay(), err
		}
	} else {
		if err := d.Repo.AddStep(ctx, s.Edit.RecipeID, ev.Text); err != nil {
			return Stay(), err
		}
	}
	return editShowItemMenuUpdated(ctx, d, s, "What else would you like to do?")
}

// editShowItemMenuUpdated is editShowItemMenu with the "updated" banner.
func editShowItemMenuUpdated(ctx context.Context, d Deps, s *Session, question string) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	say(ctx, d, s,
		updatedBanner(s.Edit.Items)+"\n\n"+itemList(s.Edit.Items, rec)+"\n"+question,
		itemOpChoices(s.Edit.Items)...)
	return Goto(EditItemMenu), nil
}

func editItemAskPick(next EditState) Handler {
	return func(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
		rec, res, err := editRecipeOrGone(ctx, d, s)
		if rec == nil {
			return res, err
		}
		verb := "edit"
		if next == EditItemPickDelete {
			verb = "delete"
		}
		prompt := "Please select an ingredient to " + verb + ":"
		if s.Edit.Items == ItemSteps {
			prompt = itemList(s.Edit.Items, rec) + "\nPlease select a step to " + verb + ":"
		}
		rewrite(ctx, d, s, prompt, itemPickChoices(s.Edit.Items, rec)...)
		return Goto(next), nil
	}
}

func editItemPickForUpdate(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	id, label, ok := resolveItem(s.Edit.Items, rec, ev.Text)
	if !ok {
		rewrite(ctx, d, s, "Sorry, Mama couldn't find it. Please select again:",
			itemPickChoices(s.Edit.Items, rec)...)
		return Stay(), nil
	}
	s.Edit.PickedID = id
	s.Edit.PickedLabel = label

	prompt := "What would you like to change " + label + " to?"
	if s.Edit.Items == ItemSteps {
		prompt = "What would you like to change the step '" + label + "' to?"
	}
	rewrite(ctx, d, s, prompt, NamedChoice(btnBack))
	return Goto(EditItemSave), nil
}

func editItemBackToPickList(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	return editItemAskPick(EditItemPickUpdate)(ctx, ev, s, d)
}

func editItemSave(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	if s.Edit.Items == ItemIngredients {
		if hasIngredient(rec, ev.Text) {
			say(ctx, d, s, "This ingredient already exists in the ingredient list. Please send a different one.",
				NamedChoice(btnBack))
			return Stay(), nil
		}
		if err := d.Repo.UpdateIngredient(ctx, s.Edit.PickedID, ev.Text); err != nil {
			if isNotFound(err) {
				return editItemAskPick(EditItemPickUpdate)(ctx, ev, s, d)
			}
			return Stay(), err
		}
	} else {
		if err := d.Repo.UpdateStep(ctx, s.Edit.PickedID, ev.Text); err != nil {
			if isNotFound(err) {
				return editItemAskPick(EditItemPickUpdate)(ctx, ev, s, d)
			}
			return Stay(), err
		}
	}

	rec, res, err = editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	noun := "ingredient"
	if s.Edit.Items == ItemSteps {
		noun = "step"
	}
	say(ctx, d, s,
		updatedBanner(s.Edit.Items)+"\n\n"+itemList(s.Edit.Items, rec)+"\n"+
			"Select another "+noun+" to update, or press back to return to the previous menu.",
		itemPickChoices(s.Edit.Items, rec)...)
	return Goto(EditItemPickUpdate), nil
}

func editItemDelete(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, res, err := editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	id, _, ok := resolveItem(s.Edit.Items, rec, ev.Text)
	if ok {
		if s.Edit.Items == ItemIngredients {
			err = d.Repo.DeleteIngredient(ctx, id)
		} else {
			err = d.Repo.DeleteStep(ctx, id)
		}
		if err != nil && !isNotFound(err) {
			return Stay(), err
		}
	}

	rec, res, err = editRecipeOrGone(ctx, d, s)
	if rec == nil {
		return res, err
	}
	noun := "ingredient"
	if s.Edit.Items == ItemSteps {
		noun = "step"
	}
	rewrite(ctx, d, s,
		updatedBanner(s.Edit.Items)+"\n\n"+itemList(s.Edit.Items, rec)+"\n"+
			"Select another "+noun+" to delete, or press back to return to the previous menu.",
		itemPickChoices(s.Edit.Items, rec)...)
	return Stay(), nil
}

func editTimeout(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	say(ctx, d, s, "Editing has been cancelled.")
	return End(), nil
}

func editRecipeOrGone(ctx context.Context, d Deps, s *Session) (*recipes.Recipe, Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, s.Edit.RecipeName)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return nil, End(), nil
	}
	if err != nil {
		return nil, Stay(), err
	}
	return rec, Result{}, nil
}

func itemList(kind ItemKind, rec *recipes.Recipe) string {
	if kind == ItemSteps {
		return StepList(rec)
	}
	return IngredientList(rec)
}

func updatedBanner(kind ItemKind) string {
	if kind == ItemSteps {
		return "The directions have been updated!"
	}
	return "List of ingredients has been updated!"
}

func itemOpChoices(kind ItemKind) []Choice {
	noun := "an ingredient"
	if kind == ItemSteps {
		noun = "a step"
	}
	return []Choice{
		{Label: "add " + noun, Value: opAdd},
		{Label: "edit " + noun, Value: opEdit},
		{Label: "delete " + noun, Value: opDelete},
		NamedChoice(btnBack),
	}
}

// itemPickChoices lists ingredients by name and steps by number; values
// carry the database id so selections survive list mutations.
func itemPickChoices(kind ItemKind, rec *recipes.Recipe) []Choice {
	var out []Choice
	if kind == ItemSteps {
		for i, step := range rec.Steps {
			out = append(out, Choice{Label: strconv.Itoa(i + 1), Value: strconv.FormatInt(step.ID, 10)})
		}
	} else {
		for _, ing := range rec.Ingredients {
			out = append(out, Choice{Label: ing.Name, Value: strconv.FormatInt(ing.ID, 10)})
		}
	}
	return append(out, NamedChoice(btnBack))
}

// resolveItem maps a picked value (id, or a typed ingredient name as a
// keyboard-less fallback) back to the item.
func resolveItem(kind ItemKind, rec *recipes.Recipe, value string) (int64, string, bool) {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		if kind == ItemSteps {
			for _, step := range rec.Steps {
				if step.ID == id {
					return step.ID, step.Details, true
				}
			}
		} else {
			for _, ing := range rec.Ingredients {
				if ing.ID == id {
					return ing.ID, ing.Name, true
				}
			}
		}
	}
	if kind == ItemIngredients {
		for _, ing := range rec.Ingredients {
			if ing.Name == value {
				return ing.ID, ing.Name, true
			}
		}
	}
	return 0, "", false
}
