package drawalg

// assignSides places the teams of grp into slots, minimising the total
// position imbalance. Ties between equally good assignments are broken by
// the seeded source.
func assignSides(grp []string, in *Input) Pairing {
	n := len(grp)
	counts := make([][]int, n)
	for i, id := range grp {
		counts[i] = make([]int, n)
		if h, ok := in.History[id]; ok {
			copy(counts[i], h.Counts())
		}
	}

	var best [][]int
	bestCost := -1
	permute(n, func(perm []int) {
		cost := 0
		for team, slot := range perm {
			cost += imbalanceAfter(counts[team], slot)
		}
		switch {
		case bestCost < 0 || cost < bestCost:
			bestCost = cost
			best = [][]int{append([]int(nil), perm...)}
		case cost == bestCost:
			best = append(best, append([]int(nil), perm...))
		}
	})

	choice := best[0]
	if len(best) > 1 {
		choice = best[in.Rand.IntN(len(best))]
	}

	ordered := make([]string, n)
	for team, slot := range choice {
		ordered[slot] = grp[team]
	}
	return slotted(in.TeamsPerSide, ordered)
}

// imbalanceAfter is n·Σc² − (Σc)² for the counts after one more
// appearance in slot, which is n² times the variance of the counts.
func imbalanceAfter(counts []int, slot int) int {
	n := len(counts)
	sum, sq := 0, 0
	for i, c := range counts {
		if i == slot {
			c++
		}
		sum += c
		sq += c * c
	}
	return n*sq - sum*sum
}

// permute calls fn with every permutation of 0..n-1 in lexicographic
// order. fn must not retain perm.
func permute(n int, fn func(perm []int)) {
	perm := make([]int, n)
	used := make([]bool, n)
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			fn(perm)
			return
		}
		for v := 0; v < n; v++ {
			if used[v] {
				continue
			}
			used[v] = true
			perm[k] = v
			rec(k + 1)
			used[v] = false
		}
	}
	rec(0)
}
