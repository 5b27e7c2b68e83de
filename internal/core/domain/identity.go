package domain

// Identity is one of the two fixed principals of the system.
type Identity string

const (
	User1 Identity = "user_1"
	User2 Identity = "user_2"
)

// Valid reports whether id is one of the known identities.
func (id Identity) Valid() bool {
	return id == User1 || id == User2
}

func (id Identity) String() string {
	return string(id)
}
