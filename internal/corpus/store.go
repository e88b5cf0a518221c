// Package corpus holds the ordered, append-only sequence of indexed document texts.
package corpus

import "strconv"

// Store is an append-only list of raw document texts. A document's position is its identity.
// Store is not safe for concurrent use; the engine serialises access.
type Store struct {
	texts      []string
	generation uint64
}

// NewStore creates an empty store.
func NewStore() *Store { return &Store{} }

// Append stores the documents in order and returns how many were added.
// Any string is accepted, including the empty string.
func (s *Store) Append(documents []string) int {
	s.texts = append(s.texts, documents...)
	if len(documents) > 0 {
		s.generation++
	}
	return len(documents)
}

// Len returns the number of stored documents.
func (s *Store) Len() int { return len(s.texts) }

// At returns the text of the document at position i.
func (s *Store) At(i int) string { return s.texts[i] }

// Texts returns a copy of every stored text in corpus order.
func (s *Store) Texts() []string {
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

// Generation changes every time documents are appended. Snapshots built from the store
// record it to detect that they are stale.
func (s *Store) Generation() uint64 { return s.generation }

// DocID renders a corpus position as the external document identifier.
func DocID(position int) string { return strconv.Itoa(position) }
