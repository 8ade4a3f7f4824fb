package controller

// List item types.
type rowItem struct {
	count string
	label string
}

func (r rowItem) FilterValue() string {
	return r.label
}
