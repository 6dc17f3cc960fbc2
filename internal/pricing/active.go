package pricing

// IsEffectivelyActive ANDs the item's flag with its directly attached parents. A subcategory's
// own category is not consulted; deactivation cascades keep that chain consistent.
func IsEffectivelyActive(item bool, sub, cat *bool) bool {
	if !item {
		return false
	}
	if sub != nil && !*sub {
		return false
	}
	if cat != nil && !*cat {
		return false
	}
	return true
}
