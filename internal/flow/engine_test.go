package flow

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/botmama/botmama/internal/media"
)

const (
	testUser int64 = 7
	testChat int64 = 77
)

func newTestEngine(t *testing.T, idle time.Duration, repo *fakeRepo, store media.Store) (*Engine, *recordingPresenter) {
	t.Helper()
	pres := &recordingPresenter{}
	deps := Deps{Repo: repo, Media: store, Presenter: pres}
	e := NewEngine(deps, idle, NewAddFlow(), NewViewFlow(), NewEditFlow(), NewDeleteFlow())
	t.Cleanup(e.Close)
	return e, pres
}

func mustHandle(t *testing.T, e *Engine, ev Event) {
	t.Helper()
	handled, err := e.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("dispatch %+v: %v", ev, err)
	}
	if !handled {
		t.Fatalf("dispatch %+v: not handled", ev)
	}
}

func cmd(raw string) Event        { return CommandEvent(testUser, testChat, raw) }
func text(s string) Event         { return TextEvent(testUser, testChat, s) }
func button(payload string) Event { return ButtonEvent(testUser, testChat, payload) }

// waitInactive polls until the user has no session for the family.
func waitInactive(t *testing.T, e *Engine, family Family) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !e.Active(testUser, family) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session for %s still active", family)
}

func TestAddFlowFullRun(t *testing.T) {
	repo := newFakeRepo()
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))
	mustHandle(t, e, cmd("/skip"))
	mustHandle(t, e, text("4"))
	mustHandle(t, e, text("flour"))
	mustHandle(t, e, text("egg"))
	mustHandle(t, e, cmd("/done"))
	mustHandle(t, e, text("Mix and fry."))
	mustHandle(t, e, cmd("/done"))

	if e.Active(testUser, FamilyAdd) {
		t.Fatalf("add session still active after /done")
	}
	rec := repo.mustRecipe(testUser, "Pancakes")
	if rec == nil {
		t.Fatalf("recipe not stored")
	}
	if rec.YieldText == nil || *rec.YieldText != "4" {
		t.Fatalf("yield = %v, want 4", rec.YieldText)
	}
	if len(rec.Ingredients) != 2 || rec.Ingredients[0].Name != "flour" || rec.Ingredients[1].Name != "egg" {
		t.Fatalf("ingredients = %+v", rec.Ingredients)
	}
	if len(rec.Steps) != 1 || rec.Steps[0].Details != "Mix and fry." {
		t.Fatalf("steps = %+v", rec.Steps)
	}
	if got := pres.last().text; !strings.HasPrefix(got, "Terrific! This is your new recipe:") {
		t.Fatalf("final message = %q", got)
	}
	if !strings.Contains(pres.last().text, "Serves 4") {
		t.Fatalf("final message misses yield: %q", pres.last().text)
	}
}

func TestAddRejectsDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, nil, nil)
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))

	if got := pres.last().text; got != "Recipe name already exists! Please choose a different name." {
		t.Fatalf("message = %q", got)
	}
	if !e.Active(testUser, FamilyAdd) {
		t.Fatalf("session ended on invalid name")
	}

	// A fresh name proceeds to the photo prompt.
	mustHandle(t, e, text("Waffles"))
	if !strings.HasPrefix(pres.last().text, "Looking good!") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestAddRejectsDuplicateIngredient(t *testing.T) {
	repo := newFakeRepo()
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))
	mustHandle(t, e, cmd("/skip"))
	mustHandle(t, e, cmd("/skip"))
	mustHandle(t, e, text("flour"))
	mustHandle(t, e, text("flour"))

	if got := pres.last().text; !strings.HasPrefix(got, "Ingredient has already been added.") {
		t.Fatalf("message = %q", got)
	}
	rec := repo.mustRecipe(testUser, "Pancakes")
	if len(rec.Ingredients) != 1 {
		t.Fatalf("ingredients = %+v", rec.Ingredients)
	}
}

func TestAddCancelRollsBack(t *testing.T) {
	repo := newFakeRepo()
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))
	mustHandle(t, e, cmd("/cancel"))

	if e.Active(testUser, FamilyAdd) {
		t.Fatalf("session still active after /cancel")
	}
	if repo.mustRecipe(testUser, "Pancakes") != nil {
		t.Fatalf("cancelled recipe left behind")
	}
	if got := pres.last().text; got != "It's OK! You can always come back to Mama whenever you are ready!" {
		t.Fatalf("message = %q", got)
	}
}

func TestAddStoresPhoto(t *testing.T) {
	repo := newFakeRepo()
	disk, err := media.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	e, pres := newTestEngine(t, 0, repo, disk)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))
	mustHandle(t, e, PhotoEvent(testUser, testChat, []byte("jpeg-bytes")))

	rec := repo.mustRecipe(testUser, "Pancakes")
	if rec.PhotoRef == nil {
		t.Fatalf("photo ref not stored")
	}
	if got := pres.last().text; !strings.HasPrefix(got, "Perfect!") {
		t.Fatalf("message = %q", got)
	}

	mustHandle(t, e, cmd("/skip"))
	mustHandle(t, e, text("flour"))
	mustHandle(t, e, cmd("/done"))
	mustHandle(t, e, text("Fry."))
	mustHandle(t, e, cmd("/done"))

	if pres.last().media == "" {
		t.Fatalf("final summary did not send the photo")
	}
}

func TestViewWithoutRecipes(t *testing.T) {
	repo := newFakeRepo()
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/view"))
	if e.Active(testUser, FamilyView) {
		t.Fatalf("session active with empty recipe book")
	}
	if !strings.HasPrefix(pres.last().text, "You currently do not have any recipes stored.") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestViewRecipe(t *testing.T) {
	repo := newFakeRepo()
	yield := "2"
	repo.seed(testUser, "Pancakes", &yield, []string{"flour", "egg"}, []string{"Mix.", "Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/view"))
	if got := pres.last(); got.text != "Which recipe would you like to view?" || len(got.choices) != 1 {
		t.Fatalf("prompt = %+v", got)
	}

	mustHandle(t, e, button("Pancakes"))
	if e.Active(testUser, FamilyView) {
		t.Fatalf("view session survived the answer")
	}
	want := "Pancakes\n\nServes 2\n\nIngredients\n- flour\n- egg\n\nDirections\n1. Mix.\n2. Fry.\n"
	if got := pres.last().text; got != want {
		t.Fatalf("rendered = %q, want %q", got, want)
	}
}

func TestDeleteConfirmNoKeepsRecipe(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/delete"))
	mustHandle(t, e, button("Pancakes"))
	if !strings.HasPrefix(pres.last().text, "Are you sure you want to delete 'Pancakes'?") {
		t.Fatalf("confirm prompt = %q", pres.last().text)
	}
	mustHandle(t, e, button(choiceNo))

	if e.Active(testUser, FamilyDelete) {
		t.Fatalf("delete session survived the answer")
	}
	if repo.mustRecipe(testUser, "Pancakes") == nil {
		t.Fatalf("recipe deleted despite no")
	}
	if got := pres.last().text; got != "Seems like you've changed your mind!" {
		t.Fatalf("message = %q", got)
	}
}

func TestDeleteConfirmYesRemovesRecipe(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/delete"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(choiceYes))

	if repo.mustRecipe(testUser, "Pancakes") != nil {
		t.Fatalf("recipe survived deletion")
	}
	if got := pres.last().text; got != "Pancakes has been deleted from your recipes." {
		t.Fatalf("message = %q", got)
	}
}

func TestEditRenameValidatesAndRenames(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	repo.seed(testUser, "Waffles", nil, nil, nil)
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partRecipeName))

	// Colliding with another recipe re-prompts in place.
	mustHandle(t, e, text("Waffles"))
	if got := pres.last().text; got != "Sorry, please choose a different name." {
		t.Fatalf("message = %q", got)
	}
	if !e.Active(testUser, FamilyEdit) {
		t.Fatalf("edit session gone after invalid name")
	}

	mustHandle(t, e, text("Crepes"))
	if repo.mustRecipe(testUser, "Crepes") == nil {
		t.Fatalf("rename not persisted")
	}
	if repo.mustRecipe(testUser, "Pancakes") != nil {
		t.Fatalf("old name still present")
	}
	if !strings.HasPrefix(pres.last().text, "The name of your recipe has been changed from 'Pancakes' to 'Crepes'.") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestEditRenameMovesPhoto(t *testing.T) {
	repo := newFakeRepo()
	rec := repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	disk, err := media.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	ref, err := disk.Store(context.Background(), media.Key(testUser, "Pancakes"), []byte("jpeg"))
	if err != nil {
		t.Fatalf("store photo: %v", err)
	}
	if err := repo.SetPhoto(context.Background(), rec.ID, &ref); err != nil {
		t.Fatalf("set photo: %v", err)
	}
	e, _ := newTestEngine(t, 0, repo, disk)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partRecipeName))
	mustHandle(t, e, text("Crepes"))

	got := repo.mustRecipe(testUser, "Crepes")
	if got.PhotoRef == nil || *got.PhotoRef != media.Key(testUser, "Crepes") {
		t.Fatalf("photo ref = %v", got.PhotoRef)
	}
	if err := disk.Delete(context.Background(), *got.PhotoRef); err != nil {
		t.Fatalf("moved photo missing: %v", err)
	}
}

func TestEditServings(t *testing.T) {
	repo := newFakeRepo()
	yield := "2"
	repo.seed(testUser, "Pancakes", &yield, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partServings))
	mustHandle(t, e, text("6"))

	rec := repo.mustRecipe(testUser, "Pancakes")
	if rec.YieldText == nil || *rec.YieldText != "6" {
		t.Fatalf("yield = %v", rec.YieldText)
	}
	if !strings.HasPrefix(pres.last().text, "Your recipe now serves 6 instead of 2.") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestEditToggleVisibility(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partMakePublic))

	if rec := repo.mustRecipe(testUser, "Pancakes"); !rec.IsPublic {
		t.Fatalf("recipe still private")
	}
	if !strings.HasPrefix(pres.last().text, "Your recipe is now public.") {
		t.Fatalf("message = %q", pres.last().text)
	}
	// The menu now offers the reverse toggle.
	var labels []string
	for _, c := range pres.last().choices {
		labels = append(labels, c.Label)
	}
	if !containsString(labels, partMakePrivate) || containsString(labels, partMakePublic) {
		t.Fatalf("menu labels = %v", labels)
	}
}

func TestEditDeleteIngredient(t *testing.T) {
	repo := newFakeRepo()
	rec := repo.seed(testUser, "Pancakes", nil, []string{"flour", "egg"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partIngredients))
	mustHandle(t, e, button(opDelete))

	eggID := rec.Ingredients[1].ID
	mustHandle(t, e, button(strconv.FormatInt(eggID, 10)))

	got := repo.mustRecipe(testUser, "Pancakes")
	if len(got.Ingredients) != 1 || got.Ingredients[0].Name != "flour" {
		t.Fatalf("ingredients = %+v", got.Ingredients)
	}
	if !strings.HasPrefix(pres.last().text, "List of ingredients has been updated!") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestEditUpdateStep(t *testing.T) {
	repo := newFakeRepo()
	rec := repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Mix.", "Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partDirections))
	mustHandle(t, e, button(opEdit))

	mixID := rec.Steps[0].ID
	mustHandle(t, e, button(strconv.FormatInt(mixID, 10)))
	if got := pres.last().text; got != "What would you like to change the step 'Mix.' to?" {
		t.Fatalf("prompt = %q", got)
	}
	mustHandle(t, e, text("Whisk thoroughly."))

	got := repo.mustRecipe(testUser, "Pancakes")
	if got.Steps[0].Details != "Whisk thoroughly." {
		t.Fatalf("steps = %+v", got.Steps)
	}
	if !strings.HasPrefix(pres.last().text, "The directions have been updated!") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestEditAddIngredientRejectsDuplicate(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partIngredients))
	mustHandle(t, e, button(opAdd))
	mustHandle(t, e, text("flour"))

	if got := pres.last().text; got != "Ingredient already exists! Please enter a different ingredient." {
		t.Fatalf("message = %q", got)
	}
	mustHandle(t, e, text("egg"))
	got := repo.mustRecipe(testUser, "Pancakes")
	if len(got.Ingredients) != 2 {
		t.Fatalf("ingredients = %+v", got.Ingredients)
	}
}

func TestUnknownCommandExitsFlowQuietly(t *testing.T) {
	cases := []struct {
		entry  string
		family Family
	}{
		{CmdView, FamilyView},
		{CmdEdit, FamilyEdit},
		{CmdDelete, FamilyDelete},
	}
	for _, tc := range cases {
		t.Run(tc.family.String(), func(t *testing.T) {
			repo := newFakeRepo()
			repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
			e, _ := newTestEngine(t, 0, repo, nil)

			mustHandle(t, e, cmd(tc.entry))
			if !e.Active(testUser, tc.family) {
				t.Fatalf("%s session not started", tc.family)
			}
			mustHandle(t, e, cmd("/start"))
			if e.Active(testUser, tc.family) {
				t.Fatalf("%s session survived unrelated command", tc.family)
			}
			if repo.mustRecipe(testUser, "Pancakes") == nil {
				t.Fatalf("recipe changed by quiet exit")
			}
		})
	}
}

func TestExitCommandEndsEditFlow(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, _ := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, cmd(CmdExit))
	if e.Active(testUser, FamilyEdit) {
		t.Fatalf("edit session survived /exit")
	}
	if repo.mustRecipe(testUser, "Pancakes") == nil {
		t.Fatalf("recipe changed by /exit")
	}
}

func TestEditRecipeRemovedMidFlow(t *testing.T) {
	repo := newFakeRepo()
	yield := "2"
	rec := repo.seed(testUser, "Pancakes", &yield, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))

	// The recipe vanishes between two transitions.
	if err := repo.DeleteRecipe(context.Background(), rec.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	mustHandle(t, e, button(partServings))

	if got := pres.last().text; got != "Sorry, Mama couldn't find the recipe." {
		t.Fatalf("message = %q", got)
	}
	if e.Active(testUser, FamilyEdit) {
		t.Fatalf("edit session survived missing recipe")
	}
}

func TestViewRecipeRemovedMidFlow(t *testing.T) {
	repo := newFakeRepo()
	rec := repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/view"))
	if err := repo.DeleteRecipe(context.Background(), rec.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	mustHandle(t, e, button("Pancakes"))

	if got := pres.last().text; got != "Sorry, Mama couldn't find the recipe." {
		t.Fatalf("message = %q", got)
	}
	if e.Active(testUser, FamilyView) {
		t.Fatalf("view session survived missing recipe")
	}
}

func TestDeleteRecipeRemovedMidFlow(t *testing.T) {
	repo := newFakeRepo()
	rec := repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/delete"))
	mustHandle(t, e, button("Pancakes"))
	if err := repo.DeleteRecipe(context.Background(), rec.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	mustHandle(t, e, button(choiceYes))

	if got := pres.last().text; got != "Sorry, Mama couldn't find the recipe." {
		t.Fatalf("message = %q", got)
	}
	if e.Active(testUser, FamilyDelete) {
		t.Fatalf("delete session survived missing recipe")
	}
}

func TestEntryCommandRestartsFlow(t *testing.T) {
	repo := newFakeRepo()
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))
	// Re-entering discards the session silently; the already persisted
	// recipe stays.
	mustHandle(t, e, cmd("/add"))
	if got := pres.last().text; !strings.HasPrefix(got, "Please tell me the name of your new recipe") {
		t.Fatalf("message = %q", got)
	}
	if repo.mustRecipe(testUser, "Pancakes") == nil {
		t.Fatalf("persisted recipe lost on restart")
	}
	mustHandle(t, e, text("Waffles"))
	if repo.mustRecipe(testUser, "Waffles") == nil {
		t.Fatalf("second recipe not created")
	}
}

func TestFamiliesRunIndependently(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser, "Pancakes", nil, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, cmd("/view"))
	if !e.Active(testUser, FamilyAdd) || !e.Active(testUser, FamilyView) {
		t.Fatalf("expected both sessions active")
	}

	// A button press belongs to the view session; the add flow only takes
	// free text here.
	mustHandle(t, e, button("Pancakes"))
	if e.Active(testUser, FamilyView) {
		t.Fatalf("view session survived the answer")
	}
	if !e.Active(testUser, FamilyAdd) {
		t.Fatalf("add session consumed the view answer")
	}
	if !strings.HasPrefix(pres.last().text, "Pancakes\n") {
		t.Fatalf("message = %q", pres.last().text)
	}
}

func TestStorageErrorKeepsSessionState(t *testing.T) {
	repo := newFakeRepo()
	e, _ := newTestEngine(t, 0, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))
	mustHandle(t, e, cmd("/skip"))
	mustHandle(t, e, cmd("/skip"))

	repo.failOnce("AddIngredient", errors.New("connection reset"))
	handled, err := e.Dispatch(context.Background(), text("flour"))
	if !handled {
		t.Fatalf("failed transition reported unhandled")
	}
	if err == nil {
		t.Fatalf("storage error swallowed")
	}
	if !e.Active(testUser, FamilyAdd) {
		t.Fatalf("session destroyed on storage error")
	}

	// Retrying the same input succeeds from the same state.
	mustHandle(t, e, text("flour"))
	rec := repo.mustRecipe(testUser, "Pancakes")
	if len(rec.Ingredients) != 1 {
		t.Fatalf("ingredients = %+v", rec.Ingredients)
	}
}

func TestIdleTimeoutRollsBackAdd(t *testing.T) {
	repo := newFakeRepo()
	e, _ := newTestEngine(t, 40*time.Millisecond, repo, nil)

	mustHandle(t, e, cmd("/add"))
	mustHandle(t, e, text("Pancakes"))

	waitInactive(t, e, FamilyAdd)
	if repo.mustRecipe(testUser, "Pancakes") != nil {
		t.Fatalf("expired add flow left a partial recipe")
	}
}

func TestIdleTimeoutCancelsEdit(t *testing.T) {
	repo := newFakeRepo()
	yield := "2"
	repo.seed(testUser, "Pancakes", &yield, []string{"flour"}, []string{"Fry."})
	e, pres := newTestEngine(t, 40*time.Millisecond, repo, nil)

	mustHandle(t, e, cmd("/edit"))
	mustHandle(t, e, button("Pancakes"))
	mustHandle(t, e, button(partServings))
	mustHandle(t, e, text("6"))

	waitInactive(t, e, FamilyEdit)
	// The committed change survives the timeout.
	rec := repo.mustRecipe(testUser, "Pancakes")
	if rec.YieldText == nil || *rec.YieldText != "6" {
		t.Fatalf("yield = %v", rec.YieldText)
	}
	if got := pres.last().text; got != "Editing has been cancelled." {
		t.Fatalf("message = %q", got)
	}
}

func TestEventsResetIdleTimer(t *testing.T) {
	repo := newFakeRepo()
	e, _ := newTestEngine(t, 150*time.Millisecond, repo, nil)

	mustHandle(t, e, cmd("/add"))
	time.Sleep(100 * time.Millisecond)
	mustHandle(t, e, text("Pancakes"))
	time.Sleep(100 * time.Millisecond)

	// 200ms after entry but only 100ms after the last event.
	if !e.Active(testUser, FamilyAdd) {
		t.Fatalf("session expired despite recent activity")
	}
	waitInactive(t, e, FamilyAdd)
}

func TestExpiredSessionIgnoresLateEvents(t *testing.T) {
	repo := newFakeRepo()
	e, _ := newTestEngine(t, 40*time.Millisecond, repo, nil)

	mustHandle(t, e, cmd("/add"))
	waitInactive(t, e, FamilyAdd)

	handled, err := e.Dispatch(context.Background(), text("Pancakes"))
	if err != nil {
		t.Fatalf("dispatch after expiry: %v", err)
	}
	if handled {
		t.Fatalf("expired session handled a late event")
	}
}
