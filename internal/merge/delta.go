package merge

// Delta returns the keys to add and to remove to turn current into desired.
// Both results keep input order and contain no duplicates.
func Delta(current, desired []int64) (add, remove []int64) {
	have := make(map[int64]bool, len(current))
	for _, k := range current {
		have[k] = true
	}
	want := make(map[int64]bool, len(desired))
	for _, k := range desired {
		if !want[k] && !have[k] {
			add = append(add, k)
		}
		want[k] = true
	}
	seen := make(map[int64]bool, len(current))
	for _, k := range current {
		if !want[k] && !seen[k] {
			remove = append(remove, k)
		}
		seen[k] = true
	}
	return add, remove
}
