package models

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"placed to in_preparation", StatusPlaced, StatusInPreparation, true},
		{"placed to cancelled", StatusPlaced, StatusCancelled, true},
		{"placed to ready", StatusPlaced, StatusReady, false},
		{"placed to delivered", StatusPlaced, StatusDelivered, false},
		{"in_preparation to ready", StatusInPreparation, StatusReady, true},
		{"in_preparation to cancelled", StatusInPreparation, StatusCancelled, true},
		{"in_preparation to delivered", StatusInPreparation, StatusDelivered, false},
		{"in_preparation to placed", StatusInPreparation, StatusPlaced, false},
		{"ready to delivered", StatusReady, StatusDelivered, true},
		{"ready to cancelled", StatusReady, StatusCancelled, false},
		{"ready to in_preparation", StatusReady, StatusInPreparation, false},
		{"delivered is terminal", StatusDelivered, StatusPlaced, false},
		{"delivered to cancelled", StatusDelivered, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusPlaced, false},
		{"cancelled to in_preparation", StatusCancelled, StatusInPreparation, false},
		{"no self transition", StatusPlaced, StatusPlaced, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		StatusPlaced:        false,
		StatusInPreparation: false,
		StatusReady:         false,
		StatusDelivered:     true,
		StatusCancelled:     true,
	}

	for status, want := range terminal {
		if got := IsTerminal(status); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, valid := range []string{"placed", "in_preparation", "ready", "delivered", "cancelled"} {
		status, err := ParseOrderStatus(valid)
		if err != nil {
			t.Errorf("ParseOrderStatus(%q) returned error: %v", valid, err)
		}
		if string(status) != valid {
			t.Errorf("ParseOrderStatus(%q) = %q", valid, status)
		}
	}

	for _, invalid := range []string{"", "pending", "PLACED", "done"} {
		if _, err := ParseOrderStatus(invalid); err == nil {
			t.Errorf("ParseOrderStatus(%q) expected error, got nil", invalid)
		}
	}
}

func TestCalculateTotal(t *testing.T) {
	lines := []OrderLine{
		{ItemID: "margherita", Quantity: 2, UnitPrice: 5.00, Subtotal: 10.00},
		{ItemID: "cola", Quantity: 1, UnitPrice: 2.50, Subtotal: 2.50},
	}

	if got := CalculateTotal(lines); got != 12.50 {
		t.Errorf("CalculateTotal() = %.2f, want 12.50", got)
	}

	if got := CalculateTotal(nil); got != 0 {
		t.Errorf("CalculateTotal(nil) = %.2f, want 0", got)
	}
}
