package insight

import "sort"

// RankActionItems sorts action items by priority, then by confidence, both
// descending. Items that compare equal keep their rule order.
func RankActionItems(items []ActionItem) []ActionItem {
	sorted := make([]ActionItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority.Rank() != sorted[j].Priority.Rank() {
			return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}
