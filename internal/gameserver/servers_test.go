package gameserver

import "testing"

func TestServerIDRoundTrip(t *testing.T) {
	for i, name := range List {
		id, err := ServerID(name)
		if err != nil {
			t.Fatalf("ServerID(%q): %v", name, err)
		}
		if id != i {
			t.Errorf("ServerID(%q) = %d, want %d", name, id, i)
		}
		back, err := ServerName(id)
		if err != nil {
			t.Fatalf("ServerName(%d): %v", id, err)
		}
		if back != name {
			t.Errorf("ServerName(%d) = %q, want %q", id, back, name)
		}
	}
}

func TestServerIDUnknown(t *testing.T) {
	if _, err := ServerID("Atlantis"); err == nil {
		t.Error("expected error for unknown server")
	}
	if _, err := ServerName(-1); err == nil {
		t.Error("expected error for negative id")
	}
	if _, err := ServerName(len(List)); err == nil {
		t.Error("expected error for out-of-range id")
	}
}

func TestEveryServerHasADataCenter(t *testing.T) {
	seen := make(map[string]string)
	for dc, servers := range DataCenters {
		for _, s := range servers {
			if prev, dup := seen[s]; dup {
				t.Errorf("server %q listed in both %q and %q", s, prev, dc)
			}
			seen[s] = dc
			if _, err := ServerID(s); err != nil {
				t.Errorf("data center %q references unknown server %q", dc, s)
			}
		}
	}
	for _, s := range List {
		if _, ok := seen[s]; !ok {
			t.Errorf("server %q belongs to no data center", s)
		}
	}
}

func TestRegionForServer(t *testing.T) {
	cases := map[string]int{
		"Tonberry":  1, // Elemental, JP
		"Gilgamesh": 2, // Aether, NA
		"Cerberus":  3, // Chaos, EU
	}
	for server, want := range cases {
		if got := Region(server); got != want {
			t.Errorf("Region(%q) = %d, want %d", server, got, want)
		}
	}
}

func TestDataCenterServerIDs(t *testing.T) {
	ids, err := DataCenterServerIDs("Gilgamesh")
	if err != nil {
		t.Fatalf("DataCenterServerIDs: %v", err)
	}
	if len(ids) != len(DataCenters["Aether"]) {
		t.Fatalf("got %d ids, want %d", len(ids), len(DataCenters["Aether"]))
	}
	self, _ := ServerID("Gilgamesh")
	found := false
	for _, id := range ids {
		if id == self {
			found = true
		}
	}
	if !found {
		t.Error("data center ids must include the server itself")
	}
}
