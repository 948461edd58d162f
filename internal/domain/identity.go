package domain

// Identity is the caller on whose behalf an audit action is recorded.
// A nil ActorID is the system.
type Identity struct {
	ActorID       *string
	SourceAddress string
	ClientAgent   string
}

func (i Identity) IsSystem() bool {
	return i.ActorID == nil
}

// SameActor reports whether both identities name the same actor, system included.
func (i Identity) SameActor(other Identity) bool {
	if i.ActorID == nil || other.ActorID == nil {
		return i.ActorID == nil && other.ActorID == nil
	}
	return *i.ActorID == *other.ActorID
}
