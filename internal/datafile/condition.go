package datafile

// Condition is a single targeting predicate: does the entity attribute
// named by LHS satisfy Comparator against RHS? LHS is a path, e.g.
// ["user", "plan"] for a user's plan attribute, or the single-element path
// ["segment"] meaning "membership in the segment named by RHS".
type Condition struct {
	LHS        []string `json:"lhs"`
	Comparator string   `json:"op"`
	RHS        any      `json:"rhs"`
}

// IsSegmentCondition reports whether this condition tests segment
// membership rather than an entity attribute.
func (c Condition) IsSegmentCondition() bool {
	return len(c.LHS) == 1 && c.LHS[0] == "segment"
}

// Rule is an ordered list of conditions (all must match) paired with the
// Outcome to use when they do.
type Rule struct {
	ID         string      `json:"id,omitempty"`
	Conditions []Condition `json:"conditions"`
	Outcome    Outcome     `json:"outcome"`
}

// TargetList is a mapping from entity kind (e.g. "user") to attribute name
// to the list of values that target a match — on the wire, exactly that
// bare mapping, with no wrapper. For a flag's `targets`, the entry's
// position in the enclosing array is itself the variant index; for
// a Segment's include/exclude, a TargetList match means segment
// membership directly.
type TargetList map[string]map[string][]string

// Matches reports whether any attribute value for any entity kind in the
// target list is present in attrs (attrs is keyed the same way: entity
// kind -> attribute name -> the entity's value for that attribute).
func (t TargetList) Matches(attrs map[string]map[string]string) bool {
	for kind, attrValues := range t {
		entity, ok := attrs[kind]
		if !ok {
			continue
		}
		for attr, candidates := range attrValues {
			actual, ok := entity[attr]
			if !ok {
				continue
			}
			for _, c := range candidates {
				if c == actual {
					return true
				}
			}
		}
	}
	return false
}
