package domain

import "testing"

func TestCanAfford(t *testing.T) {
	u := User{Credits: 2}
	if !u.CanAfford(1) || !u.CanAfford(2) {
		t.Fatalf("balance of 2 should cover spends up to 2")
	}
	if u.CanAfford(3) {
		t.Fatalf("balance of 2 should not cover a spend of 3")
	}
	if !(User{}).CanAfford(0) {
		t.Fatalf("zero spend should always be affordable")
	}
}
