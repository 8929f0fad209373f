// Package vocab maps text to fixed-length sequences of character ids.
//
// A Vocabulary assigns every rune of an alphabet a dense id. Two ids are
// reserved: PadID fills sequences shorter than the target length and
// UnknownID stands in for runes outside the alphabet.
//
//	v := vocab.Default()
//	vz, _ := vocab.NewVectorizer(v, 1014)
//	ids := vz.Transform("hello world") // len(ids) == 1014
//
// Vocabulary and Vectorizer are immutable and safe for concurrent use.
package vocab
