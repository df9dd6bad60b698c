// Package gameserver is a static lookup of game servers, their data
// centers and regions. No state, no external calls.
package gameserver

import "fmt"

// List maps server id (index) to server name. New servers must be
// appended, never inserted, or stored server ids shift.
var List = []string{
	"Adamantoise", "Aegis", "Alexander", "Anima", "Asura", "Atomos",
	"Bahamut", "Balmung", "Behemoth", "Belias", "Brynhildr", "Cactuar",
	"Carbuncle", "Cerberus", "Chocobo", "Coeurl", "Diabolos", "Durandal",
	"Excalibur", "Exodus", "Faerie", "Famfrit", "Fenrir", "Garuda",
	"Gilgamesh", "Goblin", "Gungnir", "Hades", "Hyperion", "Ifrit",
	"Ixion", "Jenova", "Kujata", "Lamia", "Leviathan", "Lich",
	"Louisoix", "Malboro", "Mandragora", "Masamune", "Mateus",
	"Midgardsormr", "Moogle", "Odin", "Omega", "Pandaemonium", "Phoenix",
	"Ragnarok", "Ramuh", "Ridill", "Sargatanas", "Shinryu", "Shiva",
	"Siren", "Tiamat", "Titan", "Tonberry", "Typhon", "Ultima", "Ultros",
	"Unicorn", "Valefor", "Yojimbo", "Zalera", "Zeromus", "Zodiark",
}

// DataCenters maps a data center to its member servers.
var DataCenters = map[string][]string{
	// jp
	"Elemental": {"Aegis", "Atomos", "Carbuncle", "Garuda", "Gungnir", "Kujata", "Ramuh", "Tonberry", "Typhon", "Unicorn"},
	"Gaia":      {"Alexander", "Bahamut", "Durandal", "Fenrir", "Ifrit", "Ridill", "Tiamat", "Ultima", "Valefor", "Yojimbo", "Zeromus"},
	"Mana":      {"Anima", "Asura", "Belias", "Chocobo", "Hades", "Ixion", "Mandragora", "Masamune", "Pandaemonium", "Shinryu", "Titan"},
	// na
	"Aether":  {"Adamantoise", "Cactuar", "Faerie", "Gilgamesh", "Jenova", "Midgardsormr", "Sargatanas", "Siren"},
	"Primal":  {"Behemoth", "Excalibur", "Exodus", "Famfrit", "Hyperion", "Lamia", "Leviathan", "Ultros"},
	"Crystal": {"Balmung", "Brynhildr", "Coeurl", "Diabolos", "Goblin", "Malboro", "Mateus", "Zalera"},
	// eu
	"Chaos": {"Cerberus", "Louisoix", "Moogle", "Omega", "Ragnarok"},
	"Light": {"Lich", "Odin", "Phoenix", "Shiva", "Zodiark"},
}

// Regions maps a data center to a region id (1 = JP, 2 = NA, 3 = EU).
var Regions = map[string]int{
	"Elemental": 1, "Gaia": 1, "Mana": 1,
	"Aether": 2, "Primal": 2, "Crystal": 2,
	"Chaos": 3, "Light": 3,
}

// ServerID returns the id for a server name.
func ServerID(name string) (int, error) {
	for i, s := range List {
		if s == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown server: %s", name)
}

// ServerName returns the name for a server id.
func ServerName(id int) (string, error) {
	if id < 0 || id >= len(List) {
		return "", fmt.Errorf("unknown server id: %d", id)
	}
	return List[id], nil
}

// DataCenter returns the data center a server belongs to.
func DataCenter(server string) string {
	for dc, servers := range DataCenters {
		for _, s := range servers {
			if s == server {
				return dc
			}
		}
	}
	return "Chaos"
}

// Region returns the region id for a server.
func Region(server string) int {
	return Regions[DataCenter(server)]
}

// DataCenterServers returns all servers sharing a data center with the
// given server, itself included.
func DataCenterServers(server string) []string {
	return DataCenters[DataCenter(server)]
}

// DataCenterServerIDs returns the server ids for DataCenterServers.
func DataCenterServerIDs(server string) ([]int, error) {
	servers := DataCenterServers(server)
	ids := make([]int, 0, len(servers))
	for _, s := range servers {
		id, err := ServerID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
