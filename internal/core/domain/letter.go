package domain

import "time"

const (
	// EditWindow is how long after creation a letter stays mutable.
	EditWindow = 5 * time.Minute

	MaxBodyLength      = 10000
	MinSignatureLength = 2
)

// Mutation names the kind of change being authorized.
type Mutation string

const (
	MutationEdit   Mutation = "edit"
	MutationDelete Mutation = "delete"
)

// Letter is a single entry in the shared list.
type Letter struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Signature string    `json:"signature"`
	AuthorID  Identity  `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LetterChanges holds the mutable fields of a letter.
type LetterChanges struct {
	Subject   string
	Body      string
	Signature string
	UpdatedAt time.Time
}

// EditableUntil is the instant after which the letter can no longer be
// edited or deleted. It depends on CreatedAt only.
func (l *Letter) EditableUntil() time.Time {
	return l.CreatedAt.Add(EditWindow)
}

// MutableAt reports whether the letter is still inside its edit window at now.
func (l *Letter) MutableAt(now time.Time) bool {
	return now.Sub(l.CreatedAt) <= EditWindow
}

// CanMutate decides whether actor may apply op to letter at now. Checks run
// in a fixed order and the first failure wins: missing letter, foreign
// author, expired window.
func CanMutate(letter *Letter, actor Identity, now time.Time, op Mutation) error {
	if letter == nil {
		return ErrLetterNotFound
	}
	if letter.AuthorID != actor {
		return &AccessError{Op: op, Err: ErrNotAuthor}
	}
	if !letter.MutableAt(now) {
		return &AccessError{Op: op, Err: ErrWindowExpired}
	}
	return nil
}
