package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"wyckoff-trading-bot/internal/binance"
	"wyckoff-trading-bot/internal/cache"
	"wyckoff-trading-bot/internal/database"
	"wyckoff-trading-bot/internal/pipeline"
	"wyckoff-trading-bot/internal/signals"
	"wyckoff-trading-bot/internal/wyckoff"
)

// flatClient serves a featureless market: constant price, constant volume.
// No structure, no signals.
type flatClient struct{}

func (f *flatClient) GetKlines(symbol, interval string, limit int) ([]binance.Kline, error) {
	klines := make([]binance.Kline, limit)
	base := time.Unix(1700000000, 0)
	for i := range klines {
		klines[i] = binance.Kline{
			OpenTime:  base.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    100,
			CloseTime: base.Add(time.Duration(i+1) * time.Hour).UnixMilli(),
		}
	}
	return klines, nil
}

func (f *flatClient) Get24hrTickers() ([]binance.Ticker24hr, error) {
	return nil, nil
}

// recordingStore captures persisted snapshots and signals.
type recordingStore struct {
	mu        sync.Mutex
	snapshots []database.PhaseSnapshot
	signals   []signals.TradeSignal
}

func (r *recordingStore) SaveSignal(ctx context.Context, s signals.TradeSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
	return nil
}

func (r *recordingStore) SavePhaseSnapshot(ctx context.Context, snap database.PhaseSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snap)
	return nil
}

// mapCache is an in-memory ResultCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*wyckoff.PhaseResult
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*wyckoff.PhaseResult)}
}

func (m *mapCache) key(symbol, timeframe string) string { return symbol + ":" + timeframe }

func (m *mapCache) GetPhaseResult(ctx context.Context, symbol, timeframe string) (*wyckoff.PhaseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.entries[m.key(symbol, timeframe)]; ok {
		return r, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *mapCache) SetPhaseResult(ctx context.Context, symbol, timeframe string, result *wyckoff.PhaseResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(symbol, timeframe)] = result
}

func (m *mapCache) Invalidate(ctx context.Context, symbol, timeframe string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, m.key(symbol, timeframe))
}

// TestLastResultFallsBackToCache tests that a fresh scanner serves cached
// phase results until its first cycle populates the in-memory map
func TestLastResultFallsBackToCache(t *testing.T) {
	mc := newMapCache()
	mc.SetPhaseResult(context.Background(), "BTCUSDT", "1h", &wyckoff.PhaseResult{
		Symbol: "BTCUSDT",
		Phase:  wyckoff.PhaseD,
	})

	pipe := pipeline.New(wyckoff.DefaultDetectionConfig(), nil)
	sc := NewScanner(&flatClient{}, pipe, nil, mc, nil, Config{
		Symbols:   []string{"BTCUSDT"},
		Timeframe: "1h",
	})

	result, ok := sc.LastResult("BTCUSDT")
	if !ok {
		t.Fatal("Expected the cached result before the first scan")
	}
	if result.Phase != wyckoff.PhaseD {
		t.Errorf("Expected cached Phase D, got %s", result.Phase)
	}

	if _, ok := sc.LastResult("ETHUSDT"); ok {
		t.Error("Unknown symbol must miss both the map and the cache")
	}

	// After a scan the in-memory result wins over the stale cached one.
	sc.Scan()
	result, ok = sc.LastResult("BTCUSDT")
	if !ok {
		t.Fatal("Expected a result after scanning")
	}
	if result.Phase != wyckoff.PhaseNone {
		t.Errorf("In-memory result should shadow the cache, got %s", result.Phase)
	}
}

// TestScanCyclePersistsSnapshots tests that one manual scan cycle analyzes
// every configured symbol and persists a snapshot per symbol
func TestScanCyclePersistsSnapshots(t *testing.T) {
	store := &recordingStore{}
	pipe := pipeline.New(wyckoff.DefaultDetectionConfig(), nil)

	sc := NewScanner(&flatClient{}, pipe, store, nil, nil, Config{
		Symbols:      []string{"AAAUSDT", "BBBUSDT"},
		Timeframe:    "1h",
		AssetClass:   "stock",
		LookbackBars: 30,
		WorkerCount:  2,
	})

	sc.Scan()

	store.mu.Lock()
	defer store.mu.Unlock()

	if len(store.snapshots) != 2 {
		t.Fatalf("Expected a snapshot per symbol, got %d", len(store.snapshots))
	}
	if len(store.signals) != 0 {
		t.Errorf("Flat market must emit no signals, got %d", len(store.signals))
	}

	for _, snap := range store.snapshots {
		if snap.Phase != "NONE" {
			t.Errorf("Flat market should classify as NONE for %s, got %s", snap.Symbol, snap.Phase)
		}
		if snap.TradingAllowed {
			t.Errorf("Flat market must not allow trading for %s", snap.Symbol)
		}
	}

	result, ok := sc.LastResult("AAAUSDT")
	if !ok {
		t.Fatal("Expected a cached result for AAAUSDT")
	}
	if result.Phase != wyckoff.PhaseNone {
		t.Errorf("Expected Phase NONE, got %s", result.Phase)
	}

	if got := len(sc.LastResults()); got != 2 {
		t.Errorf("Expected 2 results in the snapshot map, got %d", got)
	}
}
