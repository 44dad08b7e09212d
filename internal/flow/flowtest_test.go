package flow

import (
	"context"
	"sort"
	"sync"

	"github.com/botmama/botmama/internal/recipes"
)

// fakeRepo is an in-memory recipes.Repository for flow tests. errOn lets a
// test fail exactly one upcoming call by method name.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*recipes.Recipe
	users  map[int64]recipes.User
	errOn  map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:  make(map[int64]*recipes.Recipe),
		users: make(map[int64]recipes.User),
		errOn: make(map[string]error),
	}
}

func (r *fakeRepo) failOnce(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errOn[method] = err
}

// take consumes a pending failure for the method. Callers hold r.mu.
func (r *fakeRepo) take(method string) error {
	if err, ok := r.errOn[method]; ok {
		delete(r.errOn, method)
		return err
	}
	return nil
}

func (r *fakeRepo) UpsertUser(ctx context.Context, user recipes.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("UpsertUser"); err != nil {
		return err
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeRepo) CreateRecipe(ctx context.Context, ownerID int64, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("CreateRecipe"); err != nil {
		return 0, err
	}
	for _, rec := range r.byID {
		if rec.OwnerID == ownerID && rec.Name == name {
			return 0, recipes.ErrDuplicate
		}
	}
	r.nextID++
	id := r.nextID
	r.byID[id] = &recipes.Recipe{ID: id, OwnerID: ownerID, Name: name}
	return id, nil
}

func (r *fakeRepo) RecipeID(ctx context.Context, ownerID int64, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("RecipeID"); err != nil {
		return 0, err
	}
	for _, rec := range r.byID {
		if rec.OwnerID == ownerID && rec.Name == name {
			return rec.ID, nil
		}
	}
	return 0, recipes.ErrNotFound
}

func (r *fakeRepo) RenameRecipe(ctx context.Context, recipeID int64, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("RenameRecipe"); err != nil {
		return err
	}
	rec, ok := r.byID[recipeID]
	if !ok {
		return recipes.ErrNotFound
	}
	rec.Name = newName
	return nil
}

func (r *fakeRepo) SetYield(ctx context.Context, recipeID int64, yield *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("SetYield"); err != nil {
		return err
	}
	rec, ok := r.byID[recipeID]
	if !ok {
		return recipes.ErrNotFound
	}
	rec.YieldText = yield
	return nil
}

func (r *fakeRepo) SetPhoto(ctx context.Context, recipeID int64, ref *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("SetPhoto"); err != nil {
		return err
	}
	rec, ok := r.byID[recipeID]
	if !ok {
		return recipes.ErrNotFound
	}
	rec.PhotoRef = ref
	return nil
}

func (r *fakeRepo) SetVisibility(ctx context.Context, recipeID int64, public bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("SetVisibility"); err != nil {
		return err
	}
	rec, ok := r.byID[recipeID]
	if !ok {
		return recipes.ErrNotFound
	}
	rec.IsPublic = public
	return nil
}

func (r *fakeRepo) ListRecipeNames(ctx context.Context, ownerID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("ListRecipeNames"); err != nil {
		return nil, err
	}
	var names []string
	for _, rec := range r.byID {
		if rec.OwnerID == ownerID {
			names = append(names, rec.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakeRepo) GetRecipe(ctx context.Context, ownerID int64, name string) (*recipes.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("GetRecipe"); err != nil {
		return nil, err
	}
	for _, rec := range r.byID {
		if rec.OwnerID == ownerID && rec.Name == name {
			out := *rec
			out.Ingredients = append([]recipes.Ingredient(nil), rec.Ingredients...)
			out.Steps = append([]recipes.Step(nil), rec.Steps...)
			return &out, nil
		}
	}
	return nil, recipes.ErrNotFound
}

func (r *fakeRepo) DeleteRecipe(ctx context.Context, recipeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("DeleteRecipe"); err != nil {
		return err
	}
	if _, ok := r.byID[recipeID]; !ok {
		return recipes.ErrNotFound
	}
	delete(r.byID, recipeID)
	return nil
}

func (r *fakeRepo) AddIngredient(ctx context.Context, recipeID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("AddIngredient"); err != nil {
		return err
	}
	rec, ok := r.byID[recipeID]
	if !ok {
		return recipes.ErrNotFound
	}
	r.nextID++
	rec.Ingredients = append(rec.Ingredients, recipes.Ingredient{ID: r.nextID, RecipeID: recipeID, Name: name})
	return nil
}

func (r *fakeRepo) UpdateIngredient(ctx context.Context, ingredientID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("UpdateIngredient"); err != nil {
		return err
	}
	for _, rec := range r.byID {
		for i := range rec.Ingredients {
			if rec.Ingredients[i].ID == ingredientID {
				rec.Ingredients[i].Name = name
				return nil
			}
		}
	}
	return recipes.ErrNotFound
}

func (r *fakeRepo) DeleteIngredient(ctx context.Context, ingredientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("DeleteIngredient"); err != nil {
		return err
	}
	for _, rec := range r.byID {
		for i := range rec.Ingredients {
			if rec.Ingredients[i].ID == ingredientID {
				rec.Ingredients = append(rec.Ingredients[:i], rec.Ingredients[i+1:]...)
				return nil
			}
		}
	}
	return recipes.ErrNotFound
}

func (r *fakeRepo) AddStep(ctx context.Context, recipeID int64, details string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("AddStep"); err != nil {
		return err
	}
	rec, ok := r.byID[recipeID]
	if !ok {
		return recipes.ErrNotFound
	}
	r.nextID++
	rec.Steps = append(rec.Steps, recipes.Step{ID: r.nextID, RecipeID: recipeID, Details: details})
	return nil
}

func (r *fakeRepo) UpdateStep(ctx context.Context, stepID int64, details string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("UpdateStep"); err != nil {
		return err
	}
	for _, rec := range r.byID {
		for i := range rec.Steps {
			if rec.Steps[i].ID == stepID {
				rec.Steps[i].Details = details
				return nil
			}
		}
	}
	return recipes.ErrNotFound
}

func (r *fakeRepo) DeleteStep(ctx context.Context, stepID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.take("DeleteStep"); err != nil {
		return err
	}
	for _, rec := range r.byID {
		for i := range rec.Steps {
			if rec.Steps[i].ID == stepID {
				rec.Steps = append(rec.Steps[:i], rec.Steps[i+1:]...)
				return nil
			}
		}
	}
	return recipes.ErrNotFound
}

// mustRecipe fetches a recipe directly, bypassing the flow under test.
func (r *fakeRepo) mustRecipe(ownerID int64, name string) *recipes.Recipe {
	rec, err := r.GetRecipe(context.Background(), ownerID, name)
	if err != nil {
		return nil
	}
	return rec
}

// seed inserts a fully populated recipe and returns it.
func (r *fakeRepo) seed(ownerID int64, name string, yield *string, ingredients []string, steps []string) *recipes.Recipe {
	ctx := context.Background()
	id, err := r.CreateRecipe(ctx, ownerID, name)
	if err != nil {
		panic(err)
	}
	if yield != nil {
		_ = r.SetYield(ctx, id, yield)
	}
	for _, ing := range ingredients {
		_ = r.AddIngredient(ctx, id, ing)
	}
	for _, st := range steps {
		_ = r.AddStep(ctx, id, st)
	}
	return r.mustRecipe(ownerID, name)
}

type sentMessage struct {
	chatID  int64
	text    string
	choices []Choice
	edited  bool
	media   string
}

// recordingPresenter captures everything the flows say.
type recordingPresenter struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (p *recordingPresenter) SendText(ctx context.Context, chatID int64, text string, choices ...Choice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{chatID: chatID, text: text, choices: choices})
	return nil
}

func (p *recordingPresenter) EditLast(ctx context.Context, chatID int64, text string, choices ...Choice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{chatID: chatID, text: text, choices: choices, edited: true})
	return nil
}

func (p *recordingPresenter) SendMedia(ctx context.Context, chatID int64, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{chatID: chatID, media: ref})
	return nil
}

func (p *recordingPresenter) last() sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return sentMessage{}
	}
	return p.sent[len(p.sent)-1]
}

func (p *recordingPresenter) texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, m := range p.sent {
		out = append(out, m.text)
	}
	return out
}
