package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"marketboard-updater/internal/model"
	"marketboard-updater/internal/provider"
	"marketboard-updater/internal/repository"
	"marketboard-updater/pkg/hashid"
)

// MergeEngine reconciles freshly fetched market data with the stored
// record. Listings are a full-replacement snapshot; history is
// append-only and merged at the overlap boundary.
type MergeEngine struct {
	market  repository.MarketRepository
	traders repository.TraderRepository
}

// NewMergeEngine creates a merge engine.
func NewMergeEngine(market repository.MarketRepository, traders repository.TraderRepository) *MergeEngine {
	return &MergeEngine{market: market, traders: traders}
}

// Store merges the fetched payloads into the stored record for the
// work unit's (server, item) pair and persists the result.
func (m *MergeEngine) Store(ctx context.Context, unit model.WorkUnit, prices *provider.ListingsResponse, history *provider.HistoryResponse) error {
	rec, err := m.market.Get(ctx, unit.ServerID, unit.ItemID)
	if err != nil {
		return fmt.Errorf("failed to load market record: %w", err)
	}
	if rec == nil {
		rec = &model.MarketRecord{ItemID: unit.ItemID, ServerID: unit.ServerID}
	}

	rec.LodestoneID = prices.LodestoneID
	rec.Updated = time.Now().Unix()

	if err := m.mergeListings(ctx, unit, rec, prices); err != nil {
		return err
	}
	if err := m.mergeHistory(ctx, unit, rec, history); err != nil {
		return err
	}

	if err := m.market.Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist market record: %w", err)
	}
	return nil
}

// mergeListings replaces the stored snapshot with the fetched one.
// Listings have no identity across cycles, so the old set is discarded
// unconditionally, even when the new set is empty.
func (m *MergeEngine) mergeListings(ctx context.Context, unit model.WorkUnit, rec *model.MarketRecord, prices *provider.ListingsResponse) error {
	rec.Listings = nil

	if prices.Error != "" || len(prices.Entries) == 0 {
		return nil
	}

	for _, row := range prices.Entries {
		id := hashid.Listing(unit.ItemID, row.IsCrafted, row.HQ, row.SellPrice, row.Stack, row.RegisterTown, row.SellRetainerName)

		retainerID, err := m.traders.GetOrCreateRetainer(ctx, unit.ServerID, row.SellRetainerName)
		if err != nil {
			return fmt.Errorf("failed to resolve retainer %q: %w", row.SellRetainerName, err)
		}
		creatorID, err := m.traders.GetOrCreateCharacter(ctx, unit.ServerID, row.SignatureName)
		if err != nil {
			return fmt.Errorf("failed to resolve creator %q: %w", row.SignatureName, err)
		}

		rec.Listings = append(rec.Listings, model.Listing{
			ID:           id,
			PricePerUnit: row.SellPrice,
			PriceTotal:   row.SellPrice * row.Stack,
			Quantity:     row.Stack,
			IsHQ:         row.HQ,
			IsCrafted:    row.IsCrafted,
			Town:         row.RegisterTown,
			RetainerID:   retainerID,
			CreatorID:    creatorID,
			RetainerName: row.SellRetainerName,
		})
	}

	sort.Slice(rec.Listings, func(i, j int) bool {
		return rec.Listings[i].PricePerUnit < rec.Listings[j].PricePerUnit
	})
	return nil
}

// mergeHistory prepends unseen purchase rows. The provider feed is
// newest-first and assumed contiguous with stored history, so the scan
// stops at the first id already present; everything older is known.
func (m *MergeEngine) mergeHistory(ctx context.Context, unit model.WorkUnit, rec *model.MarketRecord, history *provider.HistoryResponse) error {
	if history == nil || history.Error != "" || len(history.History) == 0 {
		return nil
	}

	for _, row := range history.History {
		id := hashid.History(unit.ItemID, row.Stack, row.HQ, row.SellPrice, row.BuyRealDate)

		if historyContains(rec.History, id) {
			break
		}

		characterID, err := m.traders.GetOrCreateCharacter(ctx, unit.ServerID, row.BuyCharacterName)
		if err != nil {
			return fmt.Errorf("failed to resolve buyer %q: %w", row.BuyCharacterName, err)
		}

		entry := model.HistoryEntry{
			ID:           id,
			PricePerUnit: row.SellPrice,
			PriceTotal:   row.SellPrice * row.Stack,
			Quantity:     row.Stack,
			IsHQ:         row.HQ,
			PurchaseDate: row.BuyRealDate,
			CharacterID:  characterID,
		}
		rec.History = append([]model.HistoryEntry{entry}, rec.History...)
	}

	// Guards against provider ordering anomalies.
	sort.SliceStable(rec.History, func(i, j int) bool {
		return rec.History[i].PurchaseDate > rec.History[j].PurchaseDate
	})
	return nil
}

func historyContains(history []model.HistoryEntry, id string) bool {
	for _, entry := range history {
		if entry.ID == id {
			return true
		}
	}
	return false
}
