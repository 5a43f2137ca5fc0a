package relation

// GroupBy buckets rows by keyFn, preserving first-seen group order — the
// grouping step the hourly aggregator runs per (hospitalization_id,
// event_time_hour, nth_hour).
func GroupBy(rows []Row, keyFn func(Row) string) (order []string, groups map[string][]Row) {
	groups = make(map[string][]Row)
	for _, r := range rows {
		k := keyFn(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	return order, groups
}

// DenseRank assigns a 1-based rank to rows, separately per partition
// returned by partitionFn, starting a new rank whenever keyFn's value differs
// from the previous row of the same partition. This is a dense rank over
// distinct keys when rows are sorted by key within each partition. Used for
// day_number (dense rank over event date, grouped by hospitalization_id).
func DenseRank(rows []Row, partitionFn, keyFn func(Row) string) []int {
	last := make(map[string]string)
	seen := make(map[string]bool)
	rank := make(map[string]int)
	out := make([]int, len(rows))
	for i, r := range rows {
		p := partitionFn(r)
		k := keyFn(r)
		if !seen[p] || last[p] != k {
			rank[p]++
			last[p] = k
			seen[p] = true
		}
		out[i] = rank[p]
	}
	return out
}
