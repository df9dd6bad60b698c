package config

import "testing"

func TestPacingRange(t *testing.T) {
	cfg := UpdaterConfig{
		PacingHours: map[string]string{"9": "1-3", "15": "2-8", "bad": "x-y", "16": "5-2"},
	}

	min, max, ok := cfg.PacingRange(9)
	if !ok || min != 1 || max != 3 {
		t.Errorf("PacingRange(9) = %d, %d, %v", min, max, ok)
	}
	if _, _, ok := cfg.PacingRange(3); ok {
		t.Error("hour without an entry must report ok=false")
	}
	if _, _, ok := cfg.PacingRange(16); ok {
		t.Error("inverted range must report ok=false")
	}
}

func TestTopPriority(t *testing.T) {
	cfg := QueueConfig{Priorities: []int{3, 1, 5}}
	if got := cfg.TopPriority(); got != 1 {
		t.Errorf("TopPriority = %d, want 1", got)
	}
	empty := QueueConfig{}
	if got := empty.TopPriority(); got != 1 {
		t.Errorf("TopPriority on empty config = %d, want 1", got)
	}
}

func TestConsumersAndNames(t *testing.T) {
	cfg := QueueConfig{
		Consumers: map[string]int{"1": 10},
		Names:     map[string]string{"1": "Legendary"},
	}
	if got := cfg.ConsumersFor(1); got != 10 {
		t.Errorf("ConsumersFor(1) = %d, want 10", got)
	}
	if got := cfg.ConsumersFor(2); got != 0 {
		t.Errorf("ConsumersFor(2) = %d, want 0", got)
	}
	if got := cfg.NameFor(1); got != "Legendary" {
		t.Errorf("NameFor(1) = %q", got)
	}
	if got := cfg.NameFor(9); got != "Unknown Queue" {
		t.Errorf("NameFor(9) = %q", got)
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 3306, Name: "market", User: "app", Password: "secret"}
	want := "app:secret@tcp(db:3306)/market?parseTime=true"
	if got := db.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
