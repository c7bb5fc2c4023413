package history

import "sort"

// Map is the per-generation mapping from transcript message index to the
// supplemental context string injected after it. Recomputed in full at every
// generation start and read-only afterwards.
type Map struct {
	entries map[int]string
}

func newMap() Map {
	return Map{entries: make(map[int]string)}
}

func (m Map) Context(idx int) (string, bool) {
	text, ok := m.entries[idx]
	return text, ok
}

func (m Map) Len() int {
	return len(m.entries)
}

func (m Map) targets() []int {
	out := make([]int, 0, len(m.entries))
	for idx := range m.entries {
		out = append(out, idx)
	}

	sort.Ints(out)

	return out
}

// TargetsAsc returns target indices in encounter order.
func (m Map) TargetsAsc() []int {
	return m.targets()
}

// TargetsDesc returns target indices highest first, the order flat-prompt
// insertions must run in so earlier offsets stay valid.
func (m Map) TargetsDesc() []int {
	out := m.targets()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out
}
