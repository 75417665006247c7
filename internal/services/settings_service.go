package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/metrics"
	"studio/internal/pricing"
	"studio/internal/repositories"
	"studio/internal/utils"

	"github.com/redis/go-redis/v9"
)

// PriceSource hands out the current price table.
type PriceSource interface {
	Current(ctx context.Context) pricing.PriceTable
}

// StaticPrices always returns the same table.
type StaticPrices pricing.PriceTable

func (s StaticPrices) Current(context.Context) pricing.PriceTable { return pricing.PriceTable(s) }

const (
	SourceDB       = "db"
	SourceCache    = "cache"
	SourceMemory   = "memory"
	SourceDefaults = "defaults"

	settingsCacheKey = "studio:settings:pricing"
	settingsCacheTTL = 7 * 24 * time.Hour
)

// SettingsService owns the price table. Reads fall back from the database to
// the Redis last-known-good copy, then to the last table served by this
// process, then to the built-in defaults.
type SettingsService struct {
	Repo      repositories.SettingsRepository
	Cache     *redis.Client
	RequestID string

	mu   sync.RWMutex
	last *pricing.PriceTable
	src  string
}

func NewSettingsService(repo repositories.SettingsRepository, cache *redis.Client) *SettingsService {
	return &SettingsService{Repo: repo, Cache: cache}
}

// Current returns the last refreshed table, loading it on first use.
func (s *SettingsService) Current(ctx context.Context) pricing.PriceTable {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last != nil {
		return *last
	}
	table, _ := s.Refresh(ctx)
	return table
}

// Source reports where the current table came from.
func (s *SettingsService) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.src
}

// Refresh reloads the table through the fallback chain.
func (s *SettingsService) Refresh(ctx context.Context) (pricing.PriceTable, string) {
	stored, err := s.Repo.Load(ctx)
	switch {
	case err == nil:
		table := pricing.FromSettings(stored)
		if merged, seeded, changed := pricing.MergeEquipment(table.Equipment, pricing.DefaultEquipment(), table.SeededEquipment); changed {
			table.Equipment = merged
			table.SeededEquipment = seeded
			if err := s.Repo.Save(ctx, table.Settings()); err != nil {
				utils.LogError(s.RequestID, "settings", "merge_equipment", "save failed", err)
			} else {
				utils.LogEvent(s.RequestID, "settings", "merge_equipment", fmt.Sprintf("items=%d", len(merged)))
			}
		}
		if len(table.Rooms) == 0 {
			table.Rooms = pricing.DefaultRooms()
		}
		s.remember(ctx, table, SourceDB)
		return table, SourceDB

	case domain.IsNotFound(err):
		table := pricing.DefaultPriceTable()
		table.UpdatedAt = utils.NowUTC()
		if err := s.Repo.Save(ctx, table.Settings()); err != nil {
			utils.LogError(s.RequestID, "settings", "init_defaults", "save failed", err)
		}
		s.remember(ctx, table, SourceDefaults)
		return table, SourceDefaults
	}

	utils.LogError(s.RequestID, "settings", "load", "falling back", err)
	if table, ok := s.fromCache(ctx); ok {
		s.remember(ctx, table, SourceCache)
		return table, SourceCache
	}
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last != nil {
		metrics.SettingsSource.WithLabelValues(SourceMemory).Inc()
		return *last, SourceMemory
	}
	table := pricing.DefaultPriceTable()
	s.remember(ctx, table, SourceDefaults)
	return table, SourceDefaults
}

func (s *SettingsService) remember(ctx context.Context, table pricing.PriceTable, source string) {
	metrics.SettingsSource.WithLabelValues(source).Inc()
	s.mu.Lock()
	s.last = &table
	s.src = source
	s.mu.Unlock()
	if source == SourceDB {
		s.toCache(ctx, table)
	}
}

func (s *SettingsService) fromCache(ctx context.Context) (pricing.PriceTable, bool) {
	if s.Cache == nil {
		return pricing.PriceTable{}, false
	}
	raw, err := s.Cache.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		return pricing.PriceTable{}, false
	}
	var table pricing.PriceTable
	if err := json.Unmarshal(raw, &table); err != nil || len(table.Rooms) == 0 {
		return pricing.PriceTable{}, false
	}
	return table, true
}

func (s *SettingsService) toCache(ctx context.Context, table pricing.PriceTable) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, settingsCacheKey, raw, settingsCacheTTL).Err(); err != nil {
		utils.LogError(s.RequestID, "settings", "cache_write", "redis set failed", err)
	}
}

// Watch refreshes the table every interval until ctx is done.
func (s *SettingsService) Watch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// UpdateRooms replaces room tariffs, keeping equipment.
func (s *SettingsService) UpdateRooms(ctx context.Context, actor domain.Actor, rooms []models.Room) (pricing.PriceTable, error) {
	table := s.Current(ctx)
	table.Rooms = rooms
	return s.save(ctx, actor, table)
}

// UpdateEquipment replaces the equipment list, keeping rooms.
func (s *SettingsService) UpdateEquipment(ctx context.Context, actor domain.Actor, equipment []models.Equipment) (pricing.PriceTable, error) {
	table := s.Current(ctx)
	table.Equipment = equipment
	return s.save(ctx, actor, table)
}

func (s *SettingsService) save(ctx context.Context, actor domain.Actor, table pricing.PriceTable) (pricing.PriceTable, error) {
	if !actor.IsOwner() {
		return pricing.PriceTable{}, domain.ForbiddenError{Msg: "only the owner can change prices"}
	}
	if err := validateTable(table); err != nil {
		return pricing.PriceTable{}, err
	}
	table.UpdatedAt = utils.NowUTC()
	if err := s.Repo.Save(ctx, table.Settings()); err != nil {
		return pricing.PriceTable{}, domain.InternalError{Msg: "failed to save settings", Err: err}
	}
	s.remember(ctx, table, SourceDB)
	utils.LogEvent(actor.RequestID, "settings", "save", fmt.Sprintf("rooms=%d equipment=%d", len(table.Rooms), len(table.Equipment)))
	return table, nil
}

func validateTable(t pricing.PriceTable) error {
	if len(t.Rooms) == 0 {
		return domain.ValidationError{Field: "rooms", Msg: "at least one room is required"}
	}
	seen := map[string]bool{}
	for _, r := range t.Rooms {
		if r.ID == "" || r.Name == "" {
			return domain.ValidationError{Field: "rooms", Msg: "room id and name are required"}
		}
		if seen["room:"+r.ID] {
			return domain.ValidationError{Field: "rooms", Msg: "duplicate room id " + r.ID}
		}
		seen["room:"+r.ID] = true
		tr := r.Tariffs
		if tr.WeekdayDayPrice < 0 || tr.WeekdayDayResidentPrice < 0 || tr.WeekdayEveningPrice < 0 || tr.WeekdayEveningResidentPrice < 0 {
			return domain.ValidationError{Field: "rooms", Msg: "rates must not be negative"}
		}
	}
	for _, e := range t.Equipment {
		if e.ID == "" || e.Name == "" {
			return domain.ValidationError{Field: "equipment", Msg: "equipment id and name are required"}
		}
		if seen["eq:"+e.ID] {
			return domain.ValidationError{Field: "equipment", Msg: "duplicate equipment id " + e.ID}
		}
		seen["eq:"+e.ID] = true
		if e.PricePerHour < 0 {
			return domain.ValidationError{Field: "equipment", Msg: "price must not be negative"}
		}
	}
	return nil
}
