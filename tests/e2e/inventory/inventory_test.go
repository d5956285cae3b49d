//go:build e2e

package inventory_test

import (
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/tests/common/dbtest"
	"inventory-ledger/tests/common/httptest"
	"inventory-ledger/tests/e2e"

	"github.com/stretchr/testify/suite"
)

type InventoryE2ETestSuite struct {
	e2e.SharedSuite
}

func TestInventoryE2ETestSuite(t *testing.T) {
	suite.Run(t, new(InventoryE2ETestSuite))
}

func (s *InventoryE2ETestSuite) createItem(itemID string, initial int64) {
	s.T().Helper()
	body := map[string]any{"kind": "CREATED", "productVariantId": itemID, "sku": "SKU-" + itemID, "initialStock": initial}
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/catalog/notifications", body)

	var res resdto.CatalogResultResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
	s.Require().Equal("created", res.Action)
}

func (s *InventoryE2ETestSuite) reserve(orderID string, lines ...map[string]any) *resdto.ReservationResultResponse {
	s.T().Helper()
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/reservations",
		map[string]any{"orderId": orderID, "lines": lines})

	var res resdto.ReservationResultResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &res)
	s.Require().NotNil(res.Reservation)
	return &res
}

func line(itemID string, qty int64) map[string]any {
	return map[string]any{"warehouseId": "main", "itemId": itemID, "quantity": qty}
}

func (s *InventoryE2ETestSuite) stock(itemID string) resdto.StockItemResponse {
	s.T().Helper()
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/stock/main/"+itemID, nil)

	var res resdto.StockItemResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
	return res
}

func (s *InventoryE2ETestSuite) TestReservationLifecycle() {
	itemA := s.UniqueID("sku")
	itemB := s.UniqueID("sku")
	s.createItem(itemA, 10)
	s.createItem(itemB, 4)

	orderID := s.UniqueID("order")
	created := s.reserve(orderID, line(itemA, 3), line(itemB, 4))
	id := created.Reservation.ID.String()
	s.Equal("PENDING", created.Reservation.Status)

	s.Run("reserved quantities are no longer available", func() {
		a := s.stock(itemA)
		s.Equal(int64(10), a.OnHand)
		s.Equal(int64(3), a.Reserved)
		s.Equal(int64(7), a.Available)

		b := s.stock(itemB)
		s.Equal(int64(0), b.Available)
		s.Equal(int64(4), b.Reserved)
	})

	s.Run("repeating the order returns the open reservation", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/reservations",
			map[string]any{"orderId": orderID, "lines": []map[string]any{line(itemA, 3), line(itemB, 4)}})

		var res resdto.ReservationResultResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
		s.True(res.Replayed)
		s.Equal(id, res.Reservation.ID.String())
		s.Equal(int64(3), s.stock(itemA).Reserved)
	})

	s.Run("a reservation exceeding availability fails as a whole", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/reservations",
			map[string]any{"orderId": s.UniqueID("order"), "lines": []map[string]any{line(itemA, 1), line(itemB, 1)}})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Insufficient stock")

		s.Equal(int64(3), s.stock(itemA).Reserved)
	})

	s.Run("confirming deducts on-hand stock", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/reservations/"+id+"/confirm", nil)

		var res resdto.ReservationResultResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
		s.Equal("CONFIRMED", res.Reservation.Status)
		s.Require().NotNil(res.Changed)
		s.True(*res.Changed)

		onHand, reserved := dbtest.StockLevels(s.T(), s.DB, "main", itemA)
		s.Equal(int64(7), onHand)
		s.Equal(int64(0), reserved)
	})

	s.Run("releasing a confirmed reservation is a no-op", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/reservations/"+id+"/release", nil)

		var res resdto.ReservationResultResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
		s.Equal("CONFIRMED", res.Reservation.Status)
		s.Require().NotNil(res.Changed)
		s.False(*res.Changed)
	})

	s.Run("every event reaches the outbox and is published", func() {
		aggregateID := "stock-item/main/" + itemA
		s.Equal(3, dbtest.CountEvents(s.T(), s.DB, aggregateID))
		s.Eventually(func() bool {
			return dbtest.CountOutbox(s.T(), s.DB, aggregateID, "PUBLISHED") == 3
		}, 5*time.Second, 20*time.Millisecond)
	})

	s.Run("history is projected for the reservation and the item", func() {
		var types []string
		s.Eventually(func() bool {
			rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/reservations/"+id+"/history?limit=100", nil)
			if rec.Code != http.StatusOK {
				return false
			}
			var page resdto.HistoryPageResponse
			_ = httptest.DecodeResponseBody(s.T(), rec.Body, &page)
			types = types[:0]
			for _, e := range page.Entries {
				types = append(types, e.EventType)
			}
			return slices.Contains(types, "ReservationConfirmed")
		}, 5*time.Second, 20*time.Millisecond)
		s.Contains(types, "ReservationCreated")
		s.Contains(types, "StockReserved")

		var stockPage resdto.HistoryPageResponse
		s.Eventually(func() bool {
			rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet,
				"/api/stock/main/"+itemA+"/history?eventType=StockReserved", nil)
			stockPage = resdto.HistoryPageResponse{}
			_ = httptest.DecodeResponseBody(s.T(), rec.Body, &stockPage)
			return len(stockPage.Entries) == 1
		}, 5*time.Second, 20*time.Millisecond)
		s.Equal("StockReserved", stockPage.Entries[0].EventType)
	})
}

func (s *InventoryE2ETestSuite) TestAdjustments() {
	itemID := s.UniqueID("sku")
	s.createItem(itemID, 5)
	url := "/api/stock/main/" + itemID + "/adjustments"

	s.Run("a receipt raises on-hand stock", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, map[string]any{"delta": 7, "reason": "RECEIPT"})

		var res resdto.StockItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
		s.Equal(int64(12), res.OnHand)
	})

	s.Run("stock cannot go negative", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, map[string]any{"delta": -13, "reason": "DAMAGE"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")

		s.Equal(int64(12), s.stock(itemID).OnHand)
	})

	s.Run("reconcile rebuilds the same state from the stream", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/stock/main/"+itemID+"/reconcile", nil)

		var res resdto.StockItemResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
		s.Equal(int64(12), res.OnHand)
		s.Equal(int64(0), res.Reserved)
	})

	s.Run("unknown items return 404", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/stock/main/"+s.UniqueID("missing"), nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "")
	})
}

func (s *InventoryE2ETestSuite) TestConcurrentReservationsNeverOversell() {
	itemID := s.UniqueID("sku")
	s.createItem(itemID, 5)

	const orders = 12
	var wg sync.WaitGroup
	codes := make([]int, orders)
	for i := range orders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/reservations",
				map[string]any{"orderId": s.UniqueID("order"), "lines": []map[string]any{line(itemID, 1)}})
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	var created, conflicts int
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict, http.StatusServiceUnavailable:
			conflicts++
		}
	}
	s.LessOrEqual(created, 5)
	s.Equal(orders, created+conflicts)

	onHand, reserved := dbtest.StockLevels(s.T(), s.DB, "main", itemID)
	s.Equal(int64(5), onHand)
	s.Equal(int64(created), reserved)
}
