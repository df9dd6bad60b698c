package model

// MarketRecord is the stored document for one (server, item) pair.
// Listings are a full-replacement snapshot of the live board; History
// only ever grows and stays ordered newest-first.
type MarketRecord struct {
	ItemID      int            `json:"item" bson:"item"`
	ServerID    int            `json:"server" bson:"server"`
	LodestoneID string         `json:"lodestone_id" bson:"lodestone_id"`
	Listings    []Listing      `json:"listings" bson:"listings"`
	History     []HistoryEntry `json:"history" bson:"history"`
	Updated     int64          `json:"updated" bson:"updated"`
}

// Listing is one live sale offer. ID is content-derived; listings have
// no identity across cycles.
type Listing struct {
	ID           string `json:"id" bson:"id"`
	PricePerUnit int    `json:"price_per_unit" bson:"price_per_unit"`
	PriceTotal   int    `json:"price_total" bson:"price_total"`
	Quantity     int    `json:"quantity" bson:"quantity"`
	IsHQ         bool   `json:"is_hq" bson:"is_hq"`
	IsCrafted    bool   `json:"is_crafted" bson:"is_crafted"`
	Town         int    `json:"town" bson:"town"`
	RetainerID   string `json:"retainer_id,omitempty" bson:"retainer_id,omitempty"`
	CreatorID    string `json:"creator_id,omitempty" bson:"creator_id,omitempty"`
	RetainerName string `json:"retainer_name" bson:"retainer_name"`
}

// HistoryEntry is one completed purchase. Immutable once stored.
type HistoryEntry struct {
	ID           string `json:"id" bson:"id"`
	PricePerUnit int    `json:"price_per_unit" bson:"price_per_unit"`
	PriceTotal   int    `json:"price_total" bson:"price_total"`
	Quantity     int    `json:"quantity" bson:"quantity"`
	IsHQ         bool   `json:"is_hq" bson:"is_hq"`
	PurchaseDate int64  `json:"purchase_date" bson:"purchase_date"`
	CharacterID  string `json:"character_id,omitempty" bson:"character_id,omitempty"`
}
