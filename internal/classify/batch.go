package classify

import "rolemap/internal/taxonomy"

// Item pairs one input role with its candidate set. A role that got no
// candidates still travels through classification with an empty set.
type Item struct {
	Role       string
	Candidates []taxonomy.Occupation
}

// Chunk splits items into batches of at most size, preserving order.
// The final batch may be shorter. size must be positive; the agent
// validates it at construction.
func Chunk(items []Item, size int) [][]Item {
	if len(items) == 0 {
		return nil
	}
	batches := make([][]Item, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
