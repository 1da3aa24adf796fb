package verify

import "sort"

// SamplePositions selects deterministic row positions for content checking:
// the first n rows, the last n rows, and n rows at a regular stride through
// the interior. Positions are returned sorted and deduplicated, so small
// datasets degrade to a full scan.
func SamplePositions(rows, n int) []int {
	if rows <= 0 || n <= 0 {
		return nil
	}
	if rows <= 3*n {
		positions := make([]int, rows)
		for i := range positions {
			positions[i] = i
		}
		return positions
	}

	seen := make(map[int]struct{}, 3*n)
	add := func(p int) {
		if p >= 0 && p < rows {
			seen[p] = struct{}{}
		}
	}

	for i := 0; i < n; i++ {
		add(i)
		add(rows - 1 - i)
	}

	stride := rows / (n + 1)
	for i := 1; i <= n; i++ {
		add(i * stride)
	}

	positions := make([]int, 0, len(seen))
	for p := range seen {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	return positions
}
