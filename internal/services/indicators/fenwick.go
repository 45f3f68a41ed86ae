package indicators

// fenwick is a binary indexed tree of counts over positions [0, n).
type fenwick struct {
	tree []int
}

func newFenwick(n int) *fenwick {
	return &fenwick{tree: make([]int, n+1)}
}

func (f *fenwick) add(pos, delta int) {
	for i := pos + 1; i < len(f.tree); i += i & -i {
		f.tree[i] += delta
	}
}

// prefix returns the total count at positions [0, pos].
func (f *fenwick) prefix(pos int) int {
	sum := 0
	for i := pos + 1; i > 0; i -= i & -i {
		sum += f.tree[i]
	}
	return sum
}
