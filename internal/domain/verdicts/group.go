package verdicts

import "sort"

// GroupRecords buckets records by the key found in their filename. Records
// whose filename carries no key are dropped. Buckets keep input order and are
// returned sorted by key.
func GroupRecords(records []Record, m *SubjectMatcher) []Group {
	index := make(map[GroupKey]int)
	var groups []Group
	for _, r := range records {
		key, ok := m.Match(r.Filename)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Key.Less(groups[b].Key)
	})
	return groups
}
