package hashid

import "testing"

func TestNewDeterministic(t *testing.T) {
	a := New(5, true, 100, "Seller")
	b := New(5, true, 100, "Seller")
	if a != b {
		t.Errorf("same fields hashed differently: %q vs %q", a, b)
	}
	if len(a) != 40 {
		t.Errorf("id length = %d, want 40 hex chars", len(a))
	}
}

func TestListingFieldSensitivity(t *testing.T) {
	base := Listing(5, false, true, 100, 1, 3, "Seller")
	variants := []string{
		Listing(6, false, true, 100, 1, 3, "Seller"),
		Listing(5, true, true, 100, 1, 3, "Seller"),
		Listing(5, false, false, 100, 1, 3, "Seller"),
		Listing(5, false, true, 101, 1, 3, "Seller"),
		Listing(5, false, true, 100, 2, 3, "Seller"),
		Listing(5, false, true, 100, 1, 4, "Seller"),
		Listing(5, false, true, 100, 1, 3, "Other"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base id", i)
		}
	}
}

func TestHistoryFieldSensitivity(t *testing.T) {
	base := History(5, 1, false, 100, 1700000000)
	if History(5, 1, false, 100, 1700000000) != base {
		t.Error("identical purchase hashed differently")
	}
	if History(5, 1, false, 100, 1700000001) == base {
		t.Error("purchase date not part of the id")
	}
	if History(5, 2, false, 100, 1700000000) == base {
		t.Error("stack size not part of the id")
	}
}

func TestFieldBoundariesMatter(t *testing.T) {
	// Joined with a separator, so field contents cannot bleed into each
	// other: ("ab", "c") must differ from ("a", "bc").
	if New("ab", "c") == New("a", "bc") {
		t.Error("field boundary lost in hash input")
	}
}
