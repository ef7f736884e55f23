package badges

// Evaluate returns the names of catalog badges the user qualifies for but
// does not hold yet, in catalog order.
// Badges with an unknown criteria type are never granted.
func Evaluate(catalog []Badge, held []string, c Counters) []string {
	heldSet := make(map[string]struct{}, len(held))
	for _, name := range held {
		heldSet[name] = struct{}{}
	}

	var earned []string
	for _, b := range catalog {
		if _, ok := heldSet[b.Name]; ok {
			continue
		}
		value, ok := c.value(b.CriteriaType)
		if !ok || value < b.CriteriaValue {
			continue
		}
		earned = append(earned, b.Name)
		// catalog names are unique, but never grant twice
		heldSet[b.Name] = struct{}{}
	}
	return earned
}

// CriteriaOf returns the criteria type of the named badge.
func CriteriaOf(catalog []Badge, name string) CriteriaType {
	for _, b := range catalog {
		if b.Name == name {
			return b.CriteriaType
		}
	}
	return ""
}
