package controller

import "testing"

func TestRowItem_FilterValue(t *testing.T) {
	item := rowItem{count: "6", label: "Sarcoma002/1.2/1.2.3  IM-0006.dcm"}
	if got := item.FilterValue(); got != item.label {
		t.Fatalf("FilterValue() = %q, want %q", got, item.label)
	}
}
