package market

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Fetcher loads the public market list
type Fetcher interface {
	FetchMarkets(ctx context.Context, perPage int) ([]model.CoinData, error)
}

// TokenLister returns the custom tokens to list, newest first
type TokenLister interface {
	ListEnabled(ctx context.Context) ([]*model.CustomTokenConfig, error)
}

// SnapshotStore persists the last merged snapshot
type SnapshotStore interface {
	GetMarketSnapshot(ctx context.Context) (*model.MarketSnapshot, error)
	SaveMarketSnapshot(ctx context.Context, snap *model.MarketSnapshot) error
}

// Broadcaster pushes an event to every connected client
type Broadcaster interface {
	Broadcast(ctx context.Context, msgType model.WSMessageType, payload interface{})
}

// Options tune refresh and the simulated ticker
type Options struct {
	PerPage         int
	RefreshInterval time.Duration
	TickerInterval  time.Duration
	TickerJitter    float64
}

// stablecoins keep their peg on the simulated ticker
var stablecoins = map[string]bool{"usdt": true, "usdc": true, "dai": true, "busd": true}

const placeholderImage = "https://via.placeholder.com/64"

// MarketDataService keeps the merged market list in memory. Custom tokens
// come first, followed by the public list or the fallback dataset.
type MarketDataService struct {
	fetcher     Fetcher
	tokens      TokenLister
	store       SnapshotStore
	broadcaster Broadcaster
	fallback    []model.CoinData
	opts        Options
	log         *logger.Logger

	mu       sync.RWMutex
	snapshot model.MarketSnapshot
	bySymbol map[string]int
	byID     map[string]int
	// last successful public fetch, reused when only custom tokens change
	public       []model.CoinData
	publicSource string

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewMarketDataService(fetcher Fetcher, tokens TokenLister, store SnapshotStore, broadcaster Broadcaster, fallback []model.CoinData, opts Options) *MarketDataService {
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Minute
	}
	if opts.TickerInterval <= 0 {
		opts.TickerInterval = 3 * time.Second
	}
	now := uint64(time.Now().UnixNano())
	s := &MarketDataService{
		fetcher:     fetcher,
		tokens:      tokens,
		store:       store,
		broadcaster: broadcaster,
		fallback:    fallback,
		opts:        opts,
		log:         logger.GetLogger().WithComponent("market"),
		rng:         rand.New(rand.NewPCG(now, now>>7)),
	}
	s.setSnapshot(model.MarketSnapshot{
		Coins:     cloneCoins(fallback),
		Source:    model.MarketSourceFallback,
		UpdatedAt: time.Now().UTC(),
	})
	return s
}

// SetRand replaces the random source of the simulation
func (s *MarketDataService) SetRand(r *rand.Rand) {
	s.rngMu.Lock()
	s.rng = r
	s.rngMu.Unlock()
}

func (s *MarketDataService) float() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// Warm loads the last persisted snapshot so the API has data before the
// first refresh completes
func (s *MarketDataService) Warm(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap, err := s.store.GetMarketSnapshot(ctx)
	if err != nil {
		s.log.Warnf("Failed to load cached market snapshot: %v", err)
		return
	}
	if snap != nil && len(snap.Coins) > 0 {
		s.setSnapshot(*snap)
	}
}

// Refresh rebuilds the snapshot from custom tokens and the public list
func (s *MarketDataService) Refresh(ctx context.Context) error {
	return s.refresh(ctx, true)
}

// RefreshTokens rebuilds the snapshot with fresh custom tokens and the last
// known public list
func (s *MarketDataService) RefreshTokens(ctx context.Context) error {
	return s.refresh(ctx, false)
}

func (s *MarketDataService) refresh(ctx context.Context, fetchPublic bool) error {
	var (
		custom []model.CoinData
		public []model.CoinData
		source = model.MarketSourceLive
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tokens, err := s.tokens.ListEnabled(gctx)
		if err != nil {
			s.log.Warnf("Failed to load custom tokens: %v", err)
			return nil
		}
		custom = make([]model.CoinData, 0, len(tokens))
		for _, t := range tokens {
			custom = append(custom, t.ToCoinData())
		}
		return nil
	})
	if fetchPublic {
		g.Go(func() error {
			coins, err := s.fetcher.FetchMarkets(gctx, s.opts.PerPage)
			if err != nil || len(coins) == 0 {
				if err != nil {
					s.log.Warnf("Market fetch failed, using fallback data: %v", err)
				}
				public = cloneCoins(s.fallback)
				source = model.MarketSourceFallback
				return nil
			}
			for i := range coins {
				if coins[i].Image == "" {
					coins[i].Image = placeholderImage
				}
			}
			public = coins
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	if fetchPublic {
		s.public, s.publicSource = public, source
	} else {
		public, source = s.public, s.publicSource
		if public == nil {
			public, source = cloneCoins(s.fallback), model.MarketSourceFallback
		}
	}
	s.mu.Unlock()

	snap := model.MarketSnapshot{
		Coins:     merge(custom, public),
		Source:    source,
		UpdatedAt: time.Now().UTC(),
	}
	s.setSnapshot(snap)

	if s.store != nil {
		if err := s.store.SaveMarketSnapshot(ctx, &snap); err != nil {
			s.log.Warnf("Failed to cache market snapshot: %v", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ctx, model.MessageTypeMarketUpdate, snap.Coins)
	}
	s.log.Debugf("Market refreshed: %d coins (%s)", len(snap.Coins), source)
	return nil
}

// merge lists custom tokens first and drops public coins whose symbol a
// custom token already uses
func merge(custom, public []model.CoinData) []model.CoinData {
	out := make([]model.CoinData, 0, len(custom)+len(public))
	seen := make(map[string]bool, len(custom))
	for _, c := range custom {
		seen[strings.ToLower(c.Symbol)] = true
		out = append(out, c)
	}
	for _, c := range public {
		if seen[strings.ToLower(c.Symbol)] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func cloneCoins(coins []model.CoinData) []model.CoinData {
	return append([]model.CoinData(nil), coins...)
}

func (s *MarketDataService) setSnapshot(snap model.MarketSnapshot) {
	bySymbol := make(map[string]int, len(snap.Coins))
	byID := make(map[string]int, len(snap.Coins))
	for i, c := range snap.Coins {
		sym := strings.ToUpper(c.Symbol)
		if _, dup := bySymbol[sym]; !dup {
			bySymbol[sym] = i
		}
		byID[c.ID] = i
	}

	s.mu.Lock()
	s.snapshot = snap
	s.bySymbol = bySymbol
	s.byID = byID
	s.mu.Unlock()
}

// Snapshot returns a copy of the current market list
func (s *MarketDataService) Snapshot() model.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshot
	snap.Coins = cloneCoins(s.snapshot.Coins)
	return snap
}

// Coin finds a coin by market id or by symbol
func (s *MarketDataService) Coin(idOrSymbol string) (model.CoinData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.byID[idOrSymbol]; ok {
		return s.snapshot.Coins[i], true
	}
	if i, ok := s.bySymbol[strings.ToUpper(idOrSymbol)]; ok {
		return s.snapshot.Coins[i], true
	}
	return model.CoinData{}, false
}

// PriceOf returns the current USD price of a listed symbol. USDT is the
// quote asset and always prices at 1.
func (s *MarketDataService) PriceOf(symbol string) (decimal.Decimal, bool) {
	if strings.EqualFold(symbol, model.QuoteSymbol) {
		return decimal.NewFromInt(1), true
	}
	coin, ok := s.Coin(symbol)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(coin.CurrentPrice), true
}

// Tick moves every non-custom, non-stable price by up to +/-jitter and
// broadcasts the new list. A published coin slice is never written again:
// the ticked prices go into a fresh copy that replaces it.
func (s *MarketDataService) Tick(ctx context.Context) {
	jitter := s.opts.TickerJitter
	if jitter <= 0 {
		return
	}

	s.mu.Lock()
	coins := cloneCoins(s.snapshot.Coins)
	for i := range coins {
		c := &coins[i]
		if c.IsCustom || stablecoins[strings.ToLower(c.Symbol)] || c.CurrentPrice <= 0 {
			continue
		}
		c.CurrentPrice *= 1 + (s.float()*2-1)*jitter
		if c.CurrentPrice > c.High24h {
			c.High24h = c.CurrentPrice
		}
		if c.Low24h == 0 || c.CurrentPrice < c.Low24h {
			c.Low24h = c.CurrentPrice
		}
	}
	s.snapshot.Coins = coins
	s.snapshot.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ctx, model.MessageTypeMarketUpdate, coins)
	}
}

// Run refreshes and ticks until ctx is cancelled
func (s *MarketDataService) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.log.Errorf("Initial market refresh failed: %v", err)
	}

	refresh := time.NewTicker(s.opts.RefreshInterval)
	defer refresh.Stop()
	ticker := time.NewTicker(s.opts.TickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refresh.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Errorf("Market refresh failed: %v", err)
			}
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
