package models

import (
	"errors"
	"strings"
	"testing"
)

func TestMergeKey(t *testing.T) {
	plain := CartItem{ItemID: "margherita"}
	if got := plain.MergeKey(); got != "margherita" {
		t.Errorf("MergeKey() without options = %q, want item id", got)
	}

	a := CartItem{ItemID: "margherita", Options: map[string]string{"size": "large", "crust": "thin"}}
	b := CartItem{ItemID: "margherita", Options: map[string]string{"crust": "thin", "size": "large"}}
	if a.MergeKey() != b.MergeKey() {
		t.Errorf("MergeKey() depends on option insertion order: %q vs %q", a.MergeKey(), b.MergeKey())
	}

	c := CartItem{ItemID: "margherita", Options: map[string]string{"size": "small", "crust": "thin"}}
	if a.MergeKey() == c.MergeKey() {
		t.Errorf("MergeKey() collides for different option values: %q", a.MergeKey())
	}

	d := CartItem{ItemID: "pepperoni", Options: map[string]string{"size": "large", "crust": "thin"}}
	if a.MergeKey() == d.MergeKey() {
		t.Errorf("MergeKey() collides for different items: %q", a.MergeKey())
	}
}

func TestFindMergeTarget(t *testing.T) {
	cart := Cart{
		UserID: "user-1",
		Items: []CartItem{
			{LineID: "l1", ItemID: "margherita", Quantity: 1},
			{LineID: "l2", ItemID: "margherita", Quantity: 1, Options: map[string]string{"size": "large"}},
		},
	}

	same := CartItem{ItemID: "margherita", Options: map[string]string{"size": "large"}}
	if i := cart.FindMergeTarget(&same); i != 1 {
		t.Errorf("FindMergeTarget() = %d, want 1", i)
	}

	fresh := CartItem{ItemID: "margherita", Options: map[string]string{"size": "small"}}
	if i := cart.FindMergeTarget(&fresh); i != -1 {
		t.Errorf("FindMergeTarget() = %d, want -1 for a new option set", i)
	}
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantErr  bool
	}{
		{"minimum", 1, false},
		{"maximum", MaxLineQuantity, false},
		{"zero", 0, true},
		{"negative", -3, true},
		{"above cap", MaxLineQuantity + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuantity(tt.quantity)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuantity) {
					t.Errorf("ValidateQuantity(%d) = %v, want ErrInvalidQuantity", tt.quantity, err)
				}
			} else if err != nil {
				t.Errorf("ValidateQuantity(%d) unexpected error: %v", tt.quantity, err)
			}
		})
	}
}

func TestValidateLineNote(t *testing.T) {
	if err := ValidateLineNote(strings.Repeat("x", MaxLineNoteLength)); err != nil {
		t.Errorf("note at the cap should pass: %v", err)
	}
	if err := ValidateLineNote(strings.Repeat("x", MaxLineNoteLength+1)); err == nil {
		t.Error("note above the cap should fail")
	}
}

func TestCartSnapshot(t *testing.T) {
	cart := Cart{
		UserID:  "user-1",
		Version: 3,
		Items: []CartItem{
			{LineID: "l1", ItemID: "margherita", Quantity: 2, Options: map[string]string{"size": "large"}},
		},
	}

	snap := cart.Snapshot()
	snap.Items[0].Quantity = 99
	snap.Items[0].Options["size"] = "small"

	if cart.Items[0].Quantity != 2 {
		t.Errorf("snapshot quantity mutation leaked into the original")
	}
	if cart.Items[0].Options["size"] != "large" {
		t.Errorf("snapshot options mutation leaked into the original")
	}
}
