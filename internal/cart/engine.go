package cart

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/parsifal-shop/storefront-client/internal/catalog"
	pkgerrors "github.com/parsifal-shop/storefront-client/pkg/errors"
	"github.com/parsifal-shop/storefront-client/pkg/kvstore"
	"github.com/parsifal-shop/storefront-client/pkg/logger"
)

type api interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Line is one (product, quantity) entry in the cart, as returned by the
// server. ID is the server-assigned line identifier.
type Line struct {
	ID        int              `json:"id"`
	ProductID int              `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *catalog.Product `json:"product,omitempty"`
}

// Engine keeps the visible cart consistent with server-authoritative stock.
// Stock ceilings are checked before any mutation is issued; after every
// accepted or rejected mutation the full cart is re-fetched, so the local
// view never drifts from the server's.
type Engine struct {
	api       api
	store     kvstore.Store
	logg      *logger.Logger
	sessionID string

	mu        sync.Mutex
	lines     []Line
	byProduct map[int]*Line
	observers []func(count int)
}

// NewEngine loads (or creates and persists) the cart session identity and
// returns an engine with an empty local view. Call Reload to populate it.
func NewEngine(client api, store kvstore.Store, logg *logger.Logger) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("api client required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	sessionID, ok := store.Get(kvstore.KeySessionID)
	if !ok || sessionID == "" {
		sessionID = "session_" + uuid.NewString()
		if err := store.Set(kvstore.KeySessionID, sessionID); err != nil {
			return nil, fmt.Errorf("persist session id: %w", err)
		}
	}

	return &Engine{
		api:       client,
		store:     store,
		logg:      logg,
		sessionID: sessionID,
		byProduct: map[int]*Line{},
	}, nil
}

func (e *Engine) SessionID() string {
	return e.sessionID
}

// OnCountChange registers an observer notified with the running quantity
// total after every successful mutation and reload.
func (e *Engine) OnCountChange(fn func(count int)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// Lines returns a copy of the current line set.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// Count is the sum of quantities across all lines.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.countLocked()
}

func (e *Engine) countLocked() int {
	total := 0
	for _, line := range e.lines {
		total += line.Quantity
	}
	return total
}

// Total is the price sum across all lines, in the catalog's price units.
func (e *Engine) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, line := range e.lines {
		if line.Product != nil {
			total += line.Product.Price * line.Quantity
		}
	}
	return total
}

// LineFor returns the line holding the given product, if any.
func (e *Engine) LineFor(productID int) (Line, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if line, ok := e.byProduct[productID]; ok {
		return *line, true
	}
	return Line{}, false
}

type addRequest struct {
	SessionID string `json:"sessionId"`
	ProductID int    `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

// AddToCart adds qty units of the product, creating or growing its line. The
// stock ceiling is enforced locally before any network call.
func (e *Engine) AddToCart(ctx context.Context, product *catalog.Product, qty int) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := e.ensureStockCeiling(product, qty); err != nil {
		return err
	}

	payload := addRequest{
		SessionID: e.sessionID,
		ProductID: product.ID,
		Quantity:  qty,
	}
	if err := e.api.Post(ctx, "/cart/add", payload, nil); err != nil {
		return e.failAndResync(ctx, err, "add to cart rejected")
	}
	return e.Reload(ctx)
}

// IncreaseQuantity grows an existing line by one, under the same stock
// ceiling as AddToCart.
func (e *Engine) IncreaseQuantity(ctx context.Context, lineID int, product *catalog.Product) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	line, err := e.lineByID(lineID)
	if err != nil {
		return err
	}
	if line.ProductID != product.ID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line does not match product")
	}
	if err := e.ensureStockCeiling(product, 1); err != nil {
		return err
	}

	payload := updateRequest{Quantity: line.Quantity + 1}
	if err := e.api.Patch(ctx, fmt.Sprintf("/cart/%d", lineID), payload, nil); err != nil {
		return e.failAndResync(ctx, err, "quantity update rejected")
	}
	return e.Reload(ctx)
}

// DecreaseQuantity shrinks an existing line by one. Reaching zero removes the
// line instead. Decreasing never needs a stock check.
func (e *Engine) DecreaseQuantity(ctx context.Context, lineID int) error {
	line, err := e.lineByID(lineID)
	if err != nil {
		return err
	}

	if line.Quantity-1 >= 1 {
		payload := updateRequest{Quantity: line.Quantity - 1}
		if err := e.api.Patch(ctx, fmt.Sprintf("/cart/%d", lineID), payload, nil); err != nil {
			return e.failAndResync(ctx, err, "quantity update rejected")
		}
		return e.Reload(ctx)
	}
	return e.RemoveItem(ctx, lineID)
}

// RemoveItem deletes a line unconditionally.
func (e *Engine) RemoveItem(ctx context.Context, lineID int) error {
	if err := e.api.Delete(ctx, fmt.Sprintf("/cart/%d", lineID), nil); err != nil {
		return e.failAndResync(ctx, err, "line removal rejected")
	}
	return e.Reload(ctx)
}

// Clear empties the whole cart for this session. Confirmation is the
// caller's boundary concern.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.api.Delete(ctx, "/cart?sessionId="+url.QueryEscape(e.sessionID), nil); err != nil {
		return e.failAndResync(ctx, err, "cart clear rejected")
	}
	return e.Reload(ctx)
}

// Reload fetches the authoritative cart and rebuilds the product index
// wholesale, then notifies count observers.
func (e *Engine) Reload(ctx context.Context) error {
	var lines []Line
	if err := e.api.Get(ctx, "/cart?sessionId="+url.QueryEscape(e.sessionID), &lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "reload cart")
	}

	e.mu.Lock()
	e.lines = lines
	byProduct := make(map[int]*Line, len(lines))
	for i := range e.lines {
		byProduct[e.lines[i].ProductID] = &e.lines[i]
	}
	e.byProduct = byProduct
	count := e.countLocked()
	observers := append([]func(int){}, e.observers...)
	e.mu.Unlock()

	for _, fn := range observers {
		fn(count)
	}
	return nil
}

// ensureStockCeiling rejects a mutation that would push the product's cart
// quantity past its stock snapshot. Violations never reach the network.
func (e *Engine) ensureStockCeiling(product *catalog.Product, delta int) error {
	if product.Stock <= 0 {
		return pkgerrors.Newf(pkgerrors.CodeStockExceeded, "%s is out of stock", product.Name)
	}
	current := 0
	if line, ok := e.LineFor(product.ID); ok {
		current = line.Quantity
	}
	if current+delta > product.Stock {
		return pkgerrors.Newf(pkgerrors.CodeStockExceeded, "only %d of %s in stock", product.Stock, product.Name)
	}
	return nil
}

func (e *Engine) lineByID(lineID int) (Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, line := range e.lines {
		if line.ID == lineID {
			return line, nil
		}
	}
	return Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// failAndResync surfaces a server rejection and forces a full resync so the
// optimistic local state is never trusted after an error.
func (e *Engine) failAndResync(ctx context.Context, cause error, msg string) error {
	e.logg.Error(ctx, msg, cause)
	if err := e.Reload(ctx); err != nil {
		e.logg.Error(ctx, "cart resync after rejection failed", err)
	}
	if typed := pkgerrors.As(cause); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransport, cause, "")
}
