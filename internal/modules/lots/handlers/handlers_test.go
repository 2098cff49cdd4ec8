package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htomlinson/tranche/internal/domain"
	"github.com/htomlinson/tranche/internal/modules/lots"
)

type stubTransactionStore struct {
	txs map[string][]domain.Transaction
}

func (s *stubTransactionStore) SaveBatch(txs []domain.Transaction) error {
	for _, tx := range txs {
		for _, symbol := range tx.Symbols() {
			s.txs[symbol] = append(s.txs[symbol], tx)
		}
	}
	return nil
}

func (s *stubTransactionStore) GetBySymbol(symbol string) ([]domain.Transaction, error) {
	return s.txs[domain.NormalizeSymbol(symbol)], nil
}

func (s *stubTransactionStore) Symbols() ([]string, error) {
	var symbols []string
	for symbol := range s.txs {
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

type stubSnapshotStore struct{}

func (stubSnapshotStore) Save(lots.Snapshot) error                { return nil }
func (stubSnapshotStore) Get(string) (lots.Snapshot, bool, error) { return lots.Snapshot{}, false, nil }
func (stubSnapshotStore) Delete(string) error                     { return nil }

type stubPrices struct {
	price float64
	found bool
}

func (s stubPrices) EffectivePrice(string) (float64, bool, error) {
	return s.price, s.found, nil
}

func newRouter(store *stubTransactionStore, prices PriceSource) http.Handler {
	svc := lots.NewService(store, stubSnapshotStore{}, 8, zerolog.Nop())
	h := NewLotHandlers(svc, prices, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func tradeTx(id int64, symbol string, qty, price float64) domain.Transaction {
	return domain.Transaction{
		ActivityID: id,
		TradeDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(id)),
		Type:       domain.TransactionTypeTrade,
		TransferItems: []domain.TransferItem{
			{Symbol: symbol, Amount: qty, Price: price},
		},
	}
}

func TestGetLotsReturnsAnnotated(t *testing.T) {
	store := &stubTransactionStore{txs: map[string][]domain.Transaction{}}
	require.NoError(t, store.SaveBatch([]domain.Transaction{tradeTx(1, "AAPL", 10, 100)}))
	router := newRouter(store, stubPrices{price: 120, found: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/lots/AAPL", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Price         float64             `json:"price"`
		Lots          []lots.AnnotatedLot `json:"lots"`
		TotalQuantity float64             `json:"total_quantity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 120.0, body.Price)
	require.Len(t, body.Lots, 1)
	assert.InDelta(t, 20.0, body.Lots[0].GainLossPct, 1e-9)
	assert.InDelta(t, 10.0, body.TotalQuantity, 1e-9)
}

func TestGetLotsPriceOverride(t *testing.T) {
	store := &stubTransactionStore{txs: map[string][]domain.Transaction{}}
	require.NoError(t, store.SaveBatch([]domain.Transaction{tradeTx(1, "AAPL", 10, 100)}))
	// No live price at all: the override must carry the request.
	router := newRouter(store, stubPrices{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/lots/AAPL?price=110", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetLotsNoPriceIs404(t *testing.T) {
	store := &stubTransactionStore{txs: map[string][]domain.Transaction{}}
	router := newRouter(store, stubPrices{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/lots/AAPL", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLotsOversoldIs422WithWarning(t *testing.T) {
	store := &stubTransactionStore{txs: map[string][]domain.Transaction{}}
	require.NoError(t, store.SaveBatch([]domain.Transaction{
		tradeTx(1, "AAPL", 10, 100),
		tradeTx(2, "AAPL", -15, 110),
	}))
	router := newRouter(store, stubPrices{price: 120, found: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/lots/AAPL", nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "incomplete data", body["warning"])
	assert.Contains(t, body["error"], "AAPL")
}

func TestImportTransactions(t *testing.T) {
	store := &stubTransactionStore{txs: map[string][]domain.Transaction{}}
	router := newRouter(store, stubPrices{price: 100, found: true})

	payload, err := json.Marshal([]domain.Transaction{tradeTx(1, "MSFT", 5, 300)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/transactions", bytes.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.txs["MSFT"], 1)
}

func TestExportLotsCSV(t *testing.T) {
	store := &stubTransactionStore{txs: map[string][]domain.Transaction{}}
	require.NoError(t, store.SaveBatch([]domain.Transaction{tradeTx(1, "AAPL", 10, 100)}))
	router := newRouter(store, stubPrices{price: 120, found: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/lots/AAPL/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "open_date,quantity,cost_per_share")
	assert.Contains(t, rec.Body.String(), "2024-01-02")
}
