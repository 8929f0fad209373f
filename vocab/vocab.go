package vocab

const (
	// PadID fills positions past the end of the text.
	PadID = 0
	// UnknownID replaces runes that are not in the alphabet.
	UnknownID = 1

	reserved = 2
)

// DefaultAlphabet is the character-CNN alphabet: lowercase letters, digits,
// punctuation and space.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789-,;.!?:'\"/\\|_@#$%^&*~`+=<>()[]{} "

// Vocabulary is a fixed rune-to-id mapping.
type Vocabulary struct {
	ids   map[rune]int
	runes []rune
}

// New builds a vocabulary over alphabet. Alphabet runes receive ids starting
// at 2 in order of first appearance; repeated runes keep their first id.
func New(alphabet string) *Vocabulary {
	v := &Vocabulary{
		ids:   make(map[rune]int, len(alphabet)),
		runes: make([]rune, 0, len(alphabet)),
	}
	for _, r := range alphabet {
		if _, ok := v.ids[r]; ok {
			continue
		}
		v.ids[r] = reserved + len(v.runes)
		v.runes = append(v.runes, r)
	}
	return v
}

// Default returns a vocabulary over DefaultAlphabet.
func Default() *Vocabulary {
	return New(DefaultAlphabet)
}

// ID returns the id of r, or UnknownID.
func (v *Vocabulary) ID(r rune) int {
	if id, ok := v.ids[r]; ok {
		return id
	}
	return UnknownID
}

// Rune returns the rune for id. ok is false for reserved and unassigned ids.
func (v *Vocabulary) Rune(id int) (r rune, ok bool) {
	i := id - reserved
	if i < 0 || i >= len(v.runes) {
		return 0, false
	}
	return v.runes[i], true
}

// Size returns the number of ids, including the reserved ones.
func (v *Vocabulary) Size() int {
	return reserved + len(v.runes)
}

// Alphabet returns the distinct alphabet runes in id order.
func (v *Vocabulary) Alphabet() string {
	return string(v.runes)
}
