package shared

// ActorKind classifies who performed an action.
type ActorKind string

const (
	ActorSystem   ActorKind = "SYSTEM"
	ActorAdmin    ActorKind = "ADMIN"
	ActorDriver   ActorKind = "DRIVER"
	ActorCustomer ActorKind = "CUSTOMER"
)

// Actor is the identity attributed to a mutation and to its tracking entry.
// It is passed explicitly into every orchestrator call.
type Actor struct {
	ID   string
	Name string
	Kind ActorKind
}

// SystemActor is used for transitions the service performs on its own.
var SystemActor = Actor{ID: "system", Name: "system", Kind: ActorSystem}

// Label is the value stored in the tracking timeline's actor column.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return string(ActorSystem)
}

func (a Actor) IsStaff() bool {
	return a.Kind == ActorAdmin || a.Kind == ActorSystem
}
