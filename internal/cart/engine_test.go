package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/parsifal-shop/storefront-client/internal/catalog"
	pkgerrors "github.com/parsifal-shop/storefront-client/pkg/errors"
	"github.com/parsifal-shop/storefront-client/pkg/kvstore"
	"github.com/parsifal-shop/storefront-client/pkg/logger"
)

// stubAPI keeps a server-side cart and mimics the REST surface the engine
// talks to.
type stubAPI struct {
	cart       []Line
	nextLineID int

	postErr  error
	patchErr error

	postCalls   int
	patchCalls  int
	deleteCalls int
	getCalls    int
}

func (s *stubAPI) Get(ctx context.Context, path string, out any) error {
	s.getCalls++
	raw, _ := json.Marshal(s.cart)
	return json.Unmarshal(raw, out)
}

func (s *stubAPI) Post(ctx context.Context, path string, in, out any) error {
	s.postCalls++
	if s.postErr != nil {
		return s.postErr
	}
	raw, _ := json.Marshal(in)
	var req struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}
	_ = json.Unmarshal(raw, &req)
	for i := range s.cart {
		if s.cart[i].ProductID == req.ProductID {
			s.cart[i].Quantity += req.Quantity
			return nil
		}
	}
	s.nextLineID++
	s.cart = append(s.cart, Line{ID: s.nextLineID, ProductID: req.ProductID, Quantity: req.Quantity})
	return nil
}

func (s *stubAPI) Patch(ctx context.Context, path string, in, out any) error {
	s.patchCalls++
	if s.patchErr != nil {
		return s.patchErr
	}
	var lineID int
	fmt.Sscanf(path, "/cart/%d", &lineID)
	raw, _ := json.Marshal(in)
	var req struct {
		Quantity int `json:"quantity"`
	}
	_ = json.Unmarshal(raw, &req)
	for i := range s.cart {
		if s.cart[i].ID == lineID {
			s.cart[i].Quantity = req.Quantity
		}
	}
	return nil
}

func (s *stubAPI) Delete(ctx context.Context, path string, out any) error {
	s.deleteCalls++
	if strings.HasPrefix(path, "/cart?sessionId=") {
		s.cart = nil
		return nil
	}
	var lineID int
	fmt.Sscanf(path, "/cart/%d", &lineID)
	kept := s.cart[:0]
	for _, line := range s.cart {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}
	s.cart = kept
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &strings.Builder{}})
}

func newTestEngine(t *testing.T, api *stubAPI) *Engine {
	t.Helper()
	engine, err := NewEngine(api, kvstore.Memory(), testLogger())
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	if err := engine.Reload(context.Background()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	return engine
}

func TestSessionIDPersistedAndReused(t *testing.T) {
	store := kvstore.Memory()
	first, err := NewEngine(&stubAPI{}, store, testLogger())
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	if first.SessionID() == "" {
		t.Fatal("expected generated session id")
	}
	second, err := NewEngine(&stubAPI{}, store, testLogger())
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	if first.SessionID() != second.SessionID() {
		t.Fatal("expected session id to be reused across engines")
	}
}

func TestAddToCartReloadsAndNotifies(t *testing.T) {
	api := &stubAPI{}
	engine := newTestEngine(t, api)

	var counts []int
	engine.OnCountChange(func(count int) { counts = append(counts, count) })

	product := &catalog.Product{ID: 7, Name: "Lamp", Stock: 5, Price: 100}
	if err := engine.AddToCart(context.Background(), product, 2); err != nil {
		t.Fatalf("AddToCart returned error: %v", err)
	}

	if engine.Count() != 2 {
		t.Fatalf("expected count 2 got %d", engine.Count())
	}
	if len(counts) != 1 || counts[0] != 2 {
		t.Fatalf("expected observer notified with 2, got %v", counts)
	}
	line, ok := engine.LineFor(7)
	if !ok || line.Quantity != 2 {
		t.Fatalf("expected line for product 7 with qty 2, got %+v (%v)", line, ok)
	}
}

// A line already at the stock ceiling rejects the increase locally, with no
// network call and no state change.
func TestIncreaseAtStockCeilingIsLocal(t *testing.T) {
	api := &stubAPI{cart: []Line{{ID: 1, ProductID: 7, Quantity: 3}}, nextLineID: 1}
	engine := newTestEngine(t, api)

	product := &catalog.Product{ID: 7, Name: "Lamp", Stock: 3}
	patchesBefore := api.patchCalls

	err := engine.IncreaseQuantity(context.Background(), 1, product)
	if !pkgerrors.Is(err, pkgerrors.CodeStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
	if api.patchCalls != patchesBefore {
		t.Fatal("expected no network call on local stock violation")
	}
	line, _ := engine.LineFor(7)
	if line.Quantity != 3 {
		t.Fatalf("expected quantity to remain 3, got %d", line.Quantity)
	}
}

func TestAddToCartOutOfStockIsLocal(t *testing.T) {
	api := &stubAPI{}
	engine := newTestEngine(t, api)

	err := engine.AddToCart(context.Background(), &catalog.Product{ID: 9, Name: "Sofa", Stock: 0}, 1)
	if !pkgerrors.Is(err, pkgerrors.CodeStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
	if api.postCalls != 0 {
		t.Fatal("expected no network call for out-of-stock product")
	}
}

// No accepted sequence of adds pushes a product past its stock.
func TestStockCeilingHoldsAcrossSequence(t *testing.T) {
	api := &stubAPI{}
	engine := newTestEngine(t, api)
	product := &catalog.Product{ID: 7, Name: "Lamp", Stock: 3}

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		err := engine.AddToCart(ctx, product, 1)
		if err != nil && !pkgerrors.Is(err, pkgerrors.CodeStockExceeded) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	line, _ := engine.LineFor(7)
	if line.Quantity > product.Stock {
		t.Fatalf("quantity %d exceeds stock %d", line.Quantity, product.Stock)
	}
	if line.Quantity != 3 {
		t.Fatalf("expected quantity pinned at 3, got %d", line.Quantity)
	}
}

func TestServerRejectionSurfacesMessageAndResyncs(t *testing.T) {
	api := &stubAPI{}
	engine := newTestEngine(t, api)
	api.postErr = pkgerrors.New(pkgerrors.CodeTransport, "inventory changed")

	getsBefore := api.getCalls
	err := engine.AddToCart(context.Background(), &catalog.Product{ID: 7, Name: "Lamp", Stock: 5}, 1)
	if err == nil {
		t.Fatal("expected error from server rejection")
	}
	if pkgerrors.UserMessage(err) != "inventory changed" {
		t.Fatalf("expected verbatim server message, got %q", pkgerrors.UserMessage(err))
	}
	if api.getCalls <= getsBefore {
		t.Fatal("expected forced resync after rejection")
	}
}

func TestDecreaseQuantityPatches(t *testing.T) {
	api := &stubAPI{cart: []Line{{ID: 1, ProductID: 7, Quantity: 3}}, nextLineID: 1}
	engine := newTestEngine(t, api)

	if err := engine.DecreaseQuantity(context.Background(), 1); err != nil {
		t.Fatalf("DecreaseQuantity returned error: %v", err)
	}
	if api.patchCalls != 1 || api.deleteCalls != 0 {
		t.Fatalf("expected one patch and no delete, got %d/%d", api.patchCalls, api.deleteCalls)
	}
	line, _ := engine.LineFor(7)
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
}

func TestDecreaseToZeroRemovesLine(t *testing.T) {
	api := &stubAPI{cart: []Line{{ID: 1, ProductID: 7, Quantity: 1}}, nextLineID: 1}
	engine := newTestEngine(t, api)

	if err := engine.DecreaseQuantity(context.Background(), 1); err != nil {
		t.Fatalf("DecreaseQuantity returned error: %v", err)
	}
	if api.patchCalls != 0 || api.deleteCalls != 1 {
		t.Fatalf("expected delete instead of patch, got %d/%d", api.patchCalls, api.deleteCalls)
	}
	if _, ok := engine.LineFor(7); ok {
		t.Fatal("expected line to be gone")
	}
}

func TestDecreaseUnknownLine(t *testing.T) {
	engine := newTestEngine(t, &stubAPI{})
	err := engine.DecreaseQuantity(context.Background(), 42)
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	api := &stubAPI{cart: []Line{
		{ID: 1, ProductID: 7, Quantity: 2},
		{ID: 2, ProductID: 8, Quantity: 1},
	}, nextLineID: 2}
	engine := newTestEngine(t, api)

	var lastCount = -1
	engine.OnCountChange(func(count int) { lastCount = count })

	if err := engine.Clear(context.Background()); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if engine.Count() != 0 {
		t.Fatalf("expected empty cart, got count %d", engine.Count())
	}
	if lastCount != 0 {
		t.Fatalf("expected observer notified with 0, got %d", lastCount)
	}
}

// Reloading twice with no intervening mutation yields an identical line set.
func TestReloadIdempotent(t *testing.T) {
	api := &stubAPI{cart: []Line{
		{ID: 1, ProductID: 7, Quantity: 2},
		{ID: 2, ProductID: 8, Quantity: 1},
	}, nextLineID: 2}
	engine := newTestEngine(t, api)

	first := engine.Lines()
	if err := engine.Reload(context.Background()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	second := engine.Lines()

	if len(first) != len(second) {
		t.Fatalf("line sets differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("line %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestTotalUsesProductPrices(t *testing.T) {
	api := &stubAPI{cart: []Line{
		{ID: 1, ProductID: 7, Quantity: 2, Product: &catalog.Product{ID: 7, Price: 100}},
		{ID: 2, ProductID: 8, Quantity: 1, Product: &catalog.Product{ID: 8, Price: 250}},
	}, nextLineID: 2}
	engine := newTestEngine(t, api)

	if engine.Total() != 450 {
		t.Fatalf("expected total 450, got %d", engine.Total())
	}
}
