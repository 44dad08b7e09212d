package flow

// Family identifies one top-level conversation flow. At most one session
// per (user, family) is active at a time; different families are
// independent.
type Family int

const (
	FamilyDelete Family = iota
	FamilyEdit
	FamilyView
	FamilyAdd
)

// familyPriority is the order in which an event is offered to a user's
// active sessions when it is not a flow entry command.
var familyPriority = [...]Family{FamilyDelete, FamilyEdit, FamilyView, FamilyAdd}

func (f Family) String() string {
	switch f {
	case FamilyDelete:
		return "delete"
	case FamilyEdit:
		return "edit"
	case FamilyView:
		return "view"
	case FamilyAdd:
		return "add"
	}
	return "unknown"
}

// State is a named step inside one flow. Concrete state types are scoped
// per flow so states of unrelated flows cannot be confused.
type State interface {
	FlowFamily() Family
	String() string
}

// AddState enumerates the Add-Recipe flow steps.
type AddState int

const (
	AddName AddState = iota
	AddPhoto
	AddYield
	AddIngredients
	AddSteps
)

func (AddState) FlowFamily() Family { return FamilyAdd }

func (s AddState) String() string {
	switch s {
	case AddName:
		return "add.name"
	case AddPhoto:
		return "add.photo"
	case AddYield:
		return "add.yield"
	case AddIngredients:
		return "add.ingredients"
	case AddSteps:
		return "add.steps"
	}
	return "add.unknown"
}

// ViewState enumerates the View-Recipe flow steps.
type ViewState int

const (
	ViewChoose ViewState = iota
)

func (ViewState) FlowFamily() Family { return FamilyView }

func (s ViewState) String() string {
	if s == ViewChoose {
		return "view.choose"
	}
	return "view.unknown"
}

// EditState enumerates the Edit-Recipe flow steps. The item-editor states
// serve both ingredients and directions; EditContext.Items says which.
type EditState int

const (
	EditChoose EditState = iota
	EditPart
	EditRename
	EditServings
	EditPhotoUpload
	EditItemMenu
	EditItemAdd
	EditItemPickUpdate
	EditItemSave
	EditItemPickDelete
)

func (EditState) FlowFamily() Family { return FamilyEdit }

func (s EditState) String() string {
	switch s {
	case EditChoose:
		return "edit.choose"
	case EditPart:
		return "edit.part"
	case EditRename:
		return "edit.rename"
	case EditServings:
		return "edit.servings"
	case EditPhotoUpload:
		return "edit.photo"
	case EditItemMenu:
		return "edit.item_menu"
	case EditItemAdd:
		return "edit.item_add"
	case EditItemPickUpdate:
		return "edit.item_pick_update"
	case EditItemSave:
		return "edit.item_save"
	case EditItemPickDelete:
		return "edit.item_pick_delete"
	}
	return "edit.unknown"
}

// DeleteState enumerates the Delete-Recipe flow steps.
type DeleteState int

const (
	DeleteChoose DeleteState = iota
	DeleteConfirm
)

func (DeleteState) FlowFamily() Family { return FamilyDelete }

func (s DeleteState) String() string {
	switch s {
	case DeleteChoose:
		return "delete.choose"
	case DeleteConfirm:
		return "delete.confirm"
	}
	return "delete.unknown"
}
