package graph

import (
	"github.com/mus-format/mus-go/ord"
)

// TripleMUS is the binary codec used by the snapshot store.
var TripleMUS = tripleMUS{}

type tripleMUS struct{}

func (tripleMUS) Marshal(t Triple, bs []byte) (n int) {
	n = ord.String.Marshal(t.Subject, bs)
	n += ord.String.Marshal(t.Predicate, bs[n:])
	n += ord.String.Marshal(t.Object, bs[n:])
	n += ord.String.Marshal(t.Sentence, bs[n:])
	n += ord.String.Marshal(t.Source, bs[n:])
	return n
}

func (tripleMUS) Unmarshal(bs []byte) (t Triple, n int, err error) {
	t.Subject, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	t.Predicate, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Object, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Sentence, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (tripleMUS) Size(t Triple) (size int) {
	size = ord.String.Size(t.Subject)
	size += ord.String.Size(t.Predicate)
	size += ord.String.Size(t.Object)
	size += ord.String.Size(t.Sentence)
	size += ord.String.Size(t.Source)
	return size
}

func (tripleMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 5; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
