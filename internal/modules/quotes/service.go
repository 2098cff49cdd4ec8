package quotes

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
)

// volatilityWindow is how many daily candles feed the volatility estimate.
// 21 trading days covers the 14-day ATR window with smoothing warmup.
const volatilityWindow = 21

// CandleStore is the history access the service needs.
type CandleStore interface {
	SaveCandles(candles []Candle) error
	GetCandles(symbol string, limit int) ([]Candle, error)
	LatestClose(symbol string) (float64, bool, error)
}

// Service maintains the in-memory quote board and answers price and
// volatility questions for the planners.
type Service struct {
	candles CandleStore
	log     zerolog.Logger

	mu    sync.RWMutex
	board map[string]Quote
}

// NewService creates a quote service.
func NewService(candles CandleStore, log zerolog.Logger) *Service {
	return &Service{
		candles: candles,
		log:     log.With().Str("component", "quote_service").Logger(),
		board:   make(map[string]Quote),
	}
}

// UpdateQuote stores the latest quote snapshot for a symbol.
func (s *Service) UpdateQuote(q Quote) error {
	q.Symbol = domain.NormalizeSymbol(q.Symbol)
	if q.Symbol == "" {
		return fmt.Errorf("quote requires a symbol")
	}
	if q.EffectivePrice() <= 0 {
		return fmt.Errorf("quote for %s carries no usable price", q.Symbol)
	}
	if q.AsOf.IsZero() {
		q.AsOf = time.Now()
	}

	s.mu.Lock()
	s.board[q.Symbol] = q
	s.mu.Unlock()
	return nil
}

// Quote returns the stored quote for a symbol, or found=false.
func (s *Service) Quote(symbol string) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.board[domain.NormalizeSymbol(symbol)]
	return q, ok
}

// EffectivePrice returns the current price for a symbol: live quote first,
// then the latest stored daily close. found=false means the engine has no
// price at all and planners cannot run for the symbol.
func (s *Service) EffectivePrice(symbol string) (float64, bool, error) {
	if q, ok := s.Quote(symbol); ok {
		if price := q.EffectivePrice(); price > 0 {
			return price, true, nil
		}
	}

	close, found, err := s.candles.LatestClose(symbol)
	if err != nil {
		return 0, false, err
	}
	if !found || close <= 0 {
		return 0, false, nil
	}
	return close, true, nil
}

// VolatilityPercent returns the volatility estimate for a symbol in
// percent: ATR(14) of daily candles when enough history exists, the
// standard deviation of log returns when it is thin, zero when there is
// effectively no history.
func (s *Service) VolatilityPercent(symbol string) (float64, error) {
	candles, err := s.candles.GetCandles(symbol, volatilityWindow)
	if err != nil {
		return 0, err
	}
	v := Volatility(candles)
	s.log.Debug().
		Str("symbol", domain.NormalizeSymbol(symbol)).
		Int("candles", len(candles)).
		Float64("volatility_pct", v).
		Msg("computed volatility")
	return v, nil
}

// ImportCandles stores a batch of daily history.
func (s *Service) ImportCandles(candles []Candle) error {
	return s.candles.SaveCandles(candles)
}

// Board returns a copy of every stored quote.
func (s *Service) Board() []Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Quote, 0, len(s.board))
	for _, q := range s.board {
		out = append(out, q)
	}
	return out
}
