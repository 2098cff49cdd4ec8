package planning

import (
	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/modules/lots"
)

// LotSource supplies resolved, annotated lots.
type LotSource interface {
	AnnotatedLots(symbol string, price float64) ([]lots.AnnotatedLot, error)
}

// PriceSource supplies the current price and volatility for a symbol.
type PriceSource interface {
	EffectivePrice(symbol string) (float64, bool, error)
	VolatilityPercent(symbol string) (float64, error)
}

// CommitmentSource reports shares already committed to open orders.
type CommitmentSource interface {
	CommittedQuantity(symbol string) (float64, error)
}

// Service wires the planners to their collaborators: lot resolution,
// quotes, and the open-order book.
type Service struct {
	lots   LotSource
	prices PriceSource
	orders CommitmentSource
	sell   *SellPlanner
	buy    *BuyPlanner
	log    zerolog.Logger
}

// NewService creates a planning service.
func NewService(lotSource LotSource, prices PriceSource, orders CommitmentSource, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		lots:   lotSource,
		prices: prices,
		orders: orders,
		sell:   NewSellPlanner(cfg, log),
		buy:    NewBuyPlanner(cfg, log),
		log:    log.With().Str("component", "planning_service").Logger(),
	}
}

// PlanSell computes the sell recommendations for a symbol. A symbol with no
// price or no open lots yields an empty plan; data-integrity errors from
// lot resolution propagate.
func (s *Service) PlanSell(symbol string) ([]SellRecommendation, error) {
	price, annotated, volatility, err := s.gather(symbol)
	if err != nil || price <= 0 {
		return nil, err
	}
	return s.sell.Plan(annotated, price, volatility), nil
}

// PlanBuy computes the buy recommendation for a symbol, or nil when there
// is nothing sensible to recommend.
func (s *Service) PlanBuy(symbol string) (*BuyRecommendation, error) {
	price, annotated, volatility, err := s.gather(symbol)
	if err != nil || price <= 0 {
		return nil, err
	}

	committed, err := s.orders.CommittedQuantity(symbol)
	if err != nil {
		return nil, err
	}
	available := Available(lots.TotalQuantity(annotated), committed)

	return s.buy.Plan(symbol, volatility, annotated, available, price), nil
}

// SharesAvailable reports the quantity free to plan against for a symbol.
func (s *Service) SharesAvailable(symbol string) (float64, error) {
	price, annotated, _, err := s.gather(symbol)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, nil
	}

	committed, err := s.orders.CommittedQuantity(symbol)
	if err != nil {
		return 0, err
	}
	return Available(lots.TotalQuantity(annotated), committed), nil
}

func (s *Service) gather(symbol string) (float64, []lots.AnnotatedLot, float64, error) {
	price, found, err := s.prices.EffectivePrice(symbol)
	if err != nil {
		return 0, nil, 0, err
	}
	if !found {
		s.log.Debug().Str("symbol", symbol).Msg("no price available, nothing to plan")
		return 0, nil, 0, nil
	}

	annotated, err := s.lots.AnnotatedLots(symbol, price)
	if err != nil {
		return 0, nil, 0, err
	}

	volatility, err := s.prices.VolatilityPercent(symbol)
	if err != nil {
		return 0, nil, 0, err
	}
	return price, annotated, volatility, nil
}
