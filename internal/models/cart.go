package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// MaxLineQuantity caps a single cart line, matching the menu-side limit.
	MaxLineQuantity = 20
	// MaxLineNoteLength caps the free-text note attached to a line.
	MaxLineNoteLength = 200
)

// CartItem is one line of a user's cart. LineID is assigned when the line is
// appended and is the handle callers use to update or remove it.
type CartItem struct {
	LineID   string            `json:"line_id"`
	ItemID   string            `json:"item_id"`
	Quantity int               `json:"quantity"`
	Options  map[string]string `json:"options,omitempty"`
	Note     string            `json:"note,omitempty"`
}

// Cart is a user's pending selection. Version is the optimistic stamp bumped
// by the store on every successful mutation.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MergeKey identifies lines that must be merged rather than duplicated:
// same item with an identical option set.
func (ci *CartItem) MergeKey() string {
	if len(ci.Options) == 0 {
		return ci.ItemID
	}
	keys := make([]string, 0, len(ci.Options))
	for k := range ci.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(ci.ItemID)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, ci.Options[k])
	}
	return b.String()
}

// FindLine returns the index of the line with the given id, or -1.
func (c *Cart) FindLine(lineID string) int {
	for i := range c.Items {
		if c.Items[i].LineID == lineID {
			return i
		}
	}
	return -1
}

// FindMergeTarget returns the index of the line a new (itemID, options) pair
// merges into, or -1 when the pair needs a fresh line.
func (c *Cart) FindMergeTarget(item *CartItem) int {
	key := item.MergeKey()
	for i := range c.Items {
		if c.Items[i].MergeKey() == key {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Snapshot returns a deep copy so callers cannot mutate stored state.
func (c *Cart) Snapshot() *Cart {
	cp := &Cart{
		UserID:    c.UserID,
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
		Items:     make([]CartItem, len(c.Items)),
	}
	copy(cp.Items, c.Items)
	for i := range cp.Items {
		if len(c.Items[i].Options) > 0 {
			opts := make(map[string]string, len(c.Items[i].Options))
			for k, v := range c.Items[i].Options {
				opts[k] = v
			}
			cp.Items[i].Options = opts
		}
	}
	return cp
}

// ValidateQuantity checks the bounds shared by add and update operations.
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidQuantity, quantity)
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d, got %d", ErrInvalidQuantity, MaxLineQuantity, quantity)
	}
	return nil
}

// ValidateLineNote checks the note length cap.
func ValidateLineNote(note string) error {
	if len(note) > MaxLineNoteLength {
		return fmt.Errorf("note must not exceed %d characters", MaxLineNoteLength)
	}
	return nil
}
