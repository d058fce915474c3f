package preloadlib

// Window is a clipped, inclusive range of slide indices around the current
// position. It is derived on demand and never stored.
type Window struct {
	From, To int
}

// PriorityWindow computes the high-priority slide range for a 0-based
// position on a deck of deckSize slides. With AnchorForward the range is
// [pos, pos+lookahead]; with AnchorBidirectional it is
// [pos-lookahead, pos+lookahead]. The result is clipped to [0, deckSize-1].
// An empty deck yields the empty window [0, -1].
func PriorityWindow(pos, lookahead, deckSize int, mode AnchorMode) Window {
	if deckSize <= 0 {
		return Window{0, -1}
	}
	from := pos
	if mode == AnchorBidirectional {
		from = pos - lookahead
	}
	to := pos + lookahead
	if from < 0 {
		from = 0
	}
	if from > deckSize-1 {
		from = deckSize - 1
	}
	if to > deckSize-1 {
		to = deckSize - 1
	}
	if to < 0 {
		to = 0
	}
	return Window{From: from, To: to}
}

// Contains reports whether the 0-based index i falls inside the window.
func (w Window) Contains(i int) bool {
	return i >= w.From && i <= w.To
}

// URLs flattens the per-slide index entries covered by the window into one
// deduplicated, order-preserving list.
func (w Window) URLs(index [][]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for i := w.From; i <= w.To && i < len(index); i++ {
		if i < 0 {
			continue
		}
		for _, u := range index[i] {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
