package flow

import "context"

// NewViewFlow builds the View-Recipe flow: choose → render → end.
func NewViewFlow() *Definition {
	return &Definition{
		Family:       FamilyView,
		EntryCommand: CmdView,
		Entry:        viewEntry,
		States: map[State][]Transition{
			ViewChoose: {
				{Match: MatchAnyChoice(), Handle: viewSend},
			},
		},
		Global: []Transition{
			{Match: MatchCommand(CmdExit), Handle: exitQuietly},
		},
		CommandFallback: exitQuietly,
	}
}

func viewEntry(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	names, err := d.Repo.ListRecipeNames(ctx, s.UserID)
	if err != nil {
		return End(), err
	}
	if len(names) == 0 {
		say(ctx, d, s, "You currently do not have any recipes stored. Use /add to leave your recipes with Mama!")
		return End(), nil
	}
	say(ctx, d, s, "Which recipe would you like to view?", nameChoices(names)...)
	return Goto(ViewChoose), nil
}

func viewSend(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	rec, err := d.Repo.GetRecipe(ctx, s.UserID, ev.Text)
	if isNotFound(err) {
		say(ctx, d, s, msgRecipeGone)
		return End(), nil
	}
	if err != nil {
		return Stay(), err
	}
	say(ctx, d, s, FullRecipe(rec))
	if rec.PhotoRef != nil {
		showMedia(ctx, d, s, *rec.PhotoRef)
	}
	return End(), nil
}

// exitQuietly ends the flow without a message when an unrelated command
// arrives mid-conversation.
func exitQuietly(ctx context.Context, ev Event, s *Session, d Deps) (Result, error) {
	return End(), nil
}
