package memstore

import (
	"math"

	"github.com/google/btree"
)

type member struct {
	Score float64
	Name  string
}

// sortedSet keeps members ordered by (score, name); scores is the reverse
// lookup needed to find the tree item of a member.
type sortedSet struct {
	tree   *btree.BTreeG[member]
	scores map[string]float64
}

func newSortedSet() *sortedSet {
	return &sortedSet{
		tree:   btree.NewG(32, memberLess),
		scores: map[string]float64{},
	}
}

// memberLess is a strict order even with NaN scores, which sort first.
func memberLess(a, b member) bool {
	aNaN, bNaN := math.IsNaN(a.Score), math.IsNaN(b.Score)
	if aNaN != bNaN {
		return aNaN
	}
	if !aNaN && a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Name < b.Name
}

func (z *sortedSet) Add(score float64, name string) {
	if old, exists := z.scores[name]; exists {
		z.tree.Delete(member{Score: old, Name: name})
	}
	z.scores[name] = score
	z.tree.ReplaceOrInsert(member{Score: score, Name: name})
}

func (z *sortedSet) Remove(name string) {
	old, exists := z.scores[name]
	if !exists {
		return
	}
	delete(z.scores, name)
	z.tree.Delete(member{Score: old, Name: name})
}

func (z *sortedSet) Len() int {
	return z.tree.Len()
}

// At walks the tree up to rank i. Linear, but ranks are only read one at a
// time by view cursors.
func (z *sortedSet) At(i int, reverse bool) (string, bool) {
	if i < 0 || i >= z.tree.Len() {
		return "", false
	}

	var found string
	n := 0
	iterator := func(m member) bool {
		if n == i {
			found = m.Name
			return false
		}
		n++
		return true
	}

	if reverse {
		z.tree.Descend(iterator)
	} else {
		z.tree.Ascend(iterator)
	}

	return found, true
}
