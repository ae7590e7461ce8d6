package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"wyckoff-trading-bot/internal/binance"
	"wyckoff-trading-bot/internal/database"
	"wyckoff-trading-bot/internal/events"
	"wyckoff-trading-bot/internal/pipeline"
	"wyckoff-trading-bot/internal/rangedetect"
	"wyckoff-trading-bot/internal/signals"
	"wyckoff-trading-bot/internal/wyckoff"
)

// SignalStore persists accepted signals and phase snapshots. Implemented
// by the database repository; nil-able for storage-less runs.
type SignalStore interface {
	SaveSignal(ctx context.Context, s signals.TradeSignal) error
	SavePhaseSnapshot(ctx context.Context, snap database.PhaseSnapshot) error
}

// ResultCache caches phase results between scan cycles and across process
// restarts. LastResult falls back to it when the in-memory map has no entry
// for a symbol yet.
type ResultCache interface {
	GetPhaseResult(ctx context.Context, symbol, timeframe string) (*wyckoff.PhaseResult, error)
	SetPhaseResult(ctx context.Context, symbol, timeframe string, result *wyckoff.PhaseResult)
	Invalidate(ctx context.Context, symbol, timeframe string)
}

// Config holds the scan loop settings.
type Config struct {
	Enabled      bool
	Symbols      []string
	Timeframe    string
	AssetClass   string
	LookbackBars int
	ScanInterval time.Duration
	WorkerCount  int
}

// Scanner runs the analysis pipeline across multiple symbols on a fixed
// interval. Each symbol gets its own classification pass; classifier state
// is never shared between symbols or cycles.
type Scanner struct {
	client   binance.MarketDataClient
	pipe     *pipeline.Pipeline
	store    SignalStore
	cache    ResultCache
	bus      *events.EventBus
	config   Config
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	results  map[string]*wyckoff.PhaseResult
}

// NewScanner creates a new scanner instance. store, cache and bus may be
// nil; the corresponding side effects are skipped.
func NewScanner(
	client binance.MarketDataClient,
	pipe *pipeline.Pipeline,
	store SignalStore,
	cache ResultCache,
	bus *events.EventBus,
	config Config,
) *Scanner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 4
	}
	if config.LookbackBars <= 0 {
		config.LookbackBars = 100
	}
	return &Scanner{
		client:   client,
		pipe:     pipe,
		store:    store,
		cache:    cache,
		bus:      bus,
		config:   config,
		stopChan: make(chan struct{}),
		results:  make(map[string]*wyckoff.PhaseResult),
	}
}

// Start begins the background scan loop
func (sc *Scanner) Start() {
	if !sc.config.Enabled {
		log.Info().Msg("scanner is disabled")
		return
	}

	sc.wg.Add(1)
	go sc.runScanLoop()
	log.Info().
		Int("symbols", len(sc.config.Symbols)).
		Dur("interval", sc.config.ScanInterval).
		Msg("scanner started")
}

// Stop terminates the scan loop and waits for in-flight work.
func (sc *Scanner) Stop() {
	close(sc.stopChan)
	sc.wg.Wait()
}

// LastResult returns the most recent phase result for a symbol. When the
// in-memory map has no entry (a fresh process that has not scanned yet), it
// falls back to the cache so restarts do not blank the API until the first
// cycle completes.
func (sc *Scanner) LastResult(symbol string) (*wyckoff.PhaseResult, bool) {
	sc.mu.RLock()
	r, ok := sc.results[symbol]
	sc.mu.RUnlock()
	if ok {
		return r, true
	}

	if sc.cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	cached, err := sc.cache.GetPhaseResult(ctx, symbol, sc.config.Timeframe)
	if err != nil {
		return nil, false
	}
	return cached, true
}

// LastResults returns the most recent phase result per symbol.
func (sc *Scanner) LastResults() map[string]*wyckoff.PhaseResult {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make(map[string]*wyckoff.PhaseResult, len(sc.results))
	for k, v := range sc.results {
		out[k] = v
	}
	return out
}

// runScanLoop executes scans at configured intervals
func (sc *Scanner) runScanLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately
	sc.scan()

	for {
		select {
		case <-ticker.C:
			sc.scan()
		case <-sc.stopChan:
			log.Info().Msg("scanner stopped")
			return
		}
	}
}

// Scan executes a single scan cycle (public method for manual triggering)
func (sc *Scanner) Scan() {
	sc.scan()
}

func (sc *Scanner) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startTime := time.Now()
	if sc.bus != nil {
		sc.bus.PublishScanStarted(len(sc.config.Symbols))
	}

	symbolChan := make(chan string, len(sc.config.Symbols))
	signalCount := make(chan int, len(sc.config.Symbols))
	var wg sync.WaitGroup

	for i := 0; i < sc.config.WorkerCount; i++ {
		wg.Add(1)
		go sc.worker(ctx, symbolChan, signalCount, &wg)
	}

	for _, symbol := range sc.config.Symbols {
		symbolChan <- symbol
	}
	close(symbolChan)

	go func() {
		wg.Wait()
		close(signalCount)
	}()

	total := 0
	for n := range signalCount {
		total += n
	}

	took := time.Since(startTime)
	if sc.bus != nil {
		sc.bus.PublishScanCompleted(len(sc.config.Symbols), total, took)
	}
	log.Info().
		Int("symbols", len(sc.config.Symbols)).
		Int("signals", total).
		Dur("took", took).
		Msg("scan cycle completed")
}

// worker processes symbols from the channel
func (sc *Scanner) worker(ctx context.Context, symbolChan <-chan string, signalCount chan<- int, wg *sync.WaitGroup) {
	defer wg.Done()

	for symbol := range symbolChan {
		select {
		case <-ctx.Done():
			return
		default:
			signalCount <- sc.scanSymbol(ctx, symbol)
		}
	}
}

// scanSymbol runs one full analysis pass for a symbol and returns the
// number of accepted signals.
func (sc *Scanner) scanSymbol(ctx context.Context, symbol string) int {
	klines, err := sc.client.GetKlines(symbol, sc.config.Timeframe, sc.config.LookbackBars)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("failed to fetch klines")
		if sc.bus != nil {
			sc.bus.PublishError("scanner", "kline fetch failed for "+symbol, err)
		}
		return 0
	}

	bars := binance.ToOHLCVBars(klines)
	rng := rangedetect.Detect(bars)

	result, err := sc.pipe.Analyze(symbol, sc.config.AssetClass, sc.config.Timeframe, bars, rng)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
		if sc.bus != nil {
			sc.bus.PublishError("scanner", "analysis failed for "+symbol, err)
		}
		// Drop the cached result so the API cannot keep serving a phase
		// the pipeline can no longer reproduce.
		if sc.cache != nil {
			sc.cache.Invalidate(ctx, symbol, sc.config.Timeframe)
		}
		return 0
	}

	sc.mu.Lock()
	sc.results[symbol] = result.Phase
	sc.mu.Unlock()

	if sc.cache != nil {
		sc.cache.SetPhaseResult(ctx, symbol, sc.config.Timeframe, result.Phase)
	}
	if sc.bus != nil {
		sc.bus.PublishPhaseUpdate(symbol, result.Phase.Phase.String(), result.Phase.Confidence, result.Phase.TradingAllowed)
	}

	sc.persist(ctx, symbol, result)

	for _, s := range result.Signals {
		if sc.bus != nil {
			sc.bus.PublishSignal(s.Symbol, s.PatternType, s.Phase.String(), s.ConfidenceScore, s.Price)
		}
	}

	return len(result.Signals)
}

// persist writes the scan outcome to storage. Persistence failures are
// logged and never interrupt the scan.
func (sc *Scanner) persist(ctx context.Context, symbol string, result *pipeline.Result) {
	if sc.store == nil {
		return
	}

	snap := database.PhaseSnapshot{
		Symbol:          symbol,
		Timeframe:       sc.config.Timeframe,
		Phase:           result.Phase.Phase.String(),
		Confidence:      result.Phase.Confidence,
		DurationBars:    result.Phase.DurationBars,
		TradingAllowed:  result.Phase.TradingAllowed,
		RejectionReason: result.Phase.RejectionReason,
		ScannedAt:       time.Now().UTC(),
	}
	if err := sc.store.SavePhaseSnapshot(ctx, snap); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("failed to persist phase snapshot")
	}

	for _, s := range result.Signals {
		if err := sc.store.SaveSignal(ctx, s); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Str("pattern_type", s.PatternType).Msg("failed to persist signal")
		}
	}
}
