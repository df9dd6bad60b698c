// Package provider talks to the third-party market data service. The
// worker only sees the Client interface plus the failure-code helpers;
// transport, timeout and retry policy live in the implementation.
package provider

import (
	"context"
	"strings"

	"marketboard-updater/internal/model"
)

// Known provider failure codes, matched as substrings of error text.
const (
	CodeMaintenance = "319201"
	CodeCongestion  = "210010"
	CodeAuthExpired = "111001"
)

// Client fetches market data using a provider session credential.
type Client interface {
	// GetCurrentListings fetches the live sale offers for an item.
	GetCurrentListings(ctx context.Context, itemID int, cred model.Credential) (*ListingsResponse, error)

	// GetHistory fetches the transaction history for an item.
	GetHistory(ctx context.Context, itemID int, cred model.Credential) (*HistoryResponse, error)
}

// ListingsResponse is the provider's current-listings payload.
type ListingsResponse struct {
	State       string         `json:"state,omitempty"`
	Error       string         `json:"error,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	LodestoneID string         `json:"eorzeadbItemId,omitempty"`
	Entries     []ListingEntry `json:"entries"`
}

// ListingEntry is one live sale offer as the provider reports it.
type ListingEntry struct {
	IsCrafted        bool   `json:"isCrafted"`
	HQ               bool   `json:"hq"`
	SellPrice        int    `json:"sellPrice"`
	Stack            int    `json:"stack"`
	RegisterTown     int    `json:"registerTown"`
	SellRetainerName string `json:"sellRetainerName"`
	SignatureName    string `json:"signatureName,omitempty"`
}

// HistoryResponse is the provider's transaction-history payload.
type HistoryResponse struct {
	State   string       `json:"state,omitempty"`
	Error   string       `json:"error,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	History []HistoryRow `json:"history"`
}

// HistoryRow is one completed purchase as the provider reports it.
type HistoryRow struct {
	Stack            int    `json:"stack"`
	HQ               bool   `json:"hq"`
	SellPrice        int    `json:"sellPrice"`
	BuyRealDate      int64  `json:"buyRealDate"`
	BuyCharacterName string `json:"buyCharacterName,omitempty"`
}

// Rejected reports whether the provider explicitly rejected the request.
func (r *ListingsResponse) Rejected() bool { return r != nil && r.State == "rejected" }

// Rejected reports whether the provider explicitly rejected the request.
func (r *HistoryResponse) Rejected() bool { return r != nil && r.State == "rejected" }

// IsMaintenance reports whether the error carries the server-wide
// maintenance or congestion code.
func IsMaintenance(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, CodeMaintenance) || strings.Contains(msg, CodeCongestion)
}

// IsAuthExpired reports whether the error carries the authorization
// expired code.
func IsAuthExpired(err error) bool {
	return err != nil && strings.Contains(err.Error(), CodeAuthExpired)
}
