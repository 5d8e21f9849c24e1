// Package httpapi exposes the POS state over a small JSON API for the local
// front-end. It owns the transient per-terminal cart builders; everything
// durable lives behind the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"bentahub/backend/internal/cart"
	"bentahub/backend/internal/domain"
	"bentahub/backend/internal/report"
	"bentahub/backend/internal/service"
	"bentahub/backend/internal/store"
)

type API struct {
	service         *service.Service
	allowedOrigin   string
	defaultTerminal string
	maxQRImageBytes int64
	requestLogging  bool
	carts           *cartRegistry
}

func New(svc *service.Service, allowedOrigin string, defaultTerminal string, maxQRImageKB int, requestLogging bool) *API {
	if defaultTerminal == "" {
		defaultTerminal = "tindahan-1"
	}
	if maxQRImageKB < 1 {
		maxQRImageKB = 512
	}
	return &API{
		service:         svc,
		allowedOrigin:   allowedOrigin,
		defaultTerminal: defaultTerminal,
		maxQRImageBytes: int64(maxQRImageKB) * 1024,
		requestLogging:  requestLogging,
		carts:           newCartRegistry(),
	}
}

// cartRegistry holds one transient builder per terminal. Builders are never
// persisted; a restart starts every terminal with an empty cart.
type cartRegistry struct {
	mu         sync.Mutex
	byTerminal map[string]*cart.Builder
}

func newCartRegistry() *cartRegistry {
	return &cartRegistry{byTerminal: make(map[string]*cart.Builder)}
}

// with runs fn while holding the registry lock, creating the terminal's
// builder on first use. Builder access is serialized here.
func (r *cartRegistry) with(terminalID string, fn func(b *cart.Builder)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byTerminal[terminalID]
	if !ok {
		b = cart.NewBuilder()
		r.byTerminal[terminalID] = b
	}
	fn(b)
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/products", a.handleProducts)
	mux.HandleFunc("/api/v1/products/", a.handleProductActions)
	mux.HandleFunc("/api/v1/cart", a.handleCart)
	mux.HandleFunc("/api/v1/cart/items", a.handleCartItems)
	mux.HandleFunc("/api/v1/cart/items/", a.handleCartItemActions)
	mux.HandleFunc("/api/v1/checkout", a.handleCheckout)
	mux.HandleFunc("/api/v1/transactions", a.handleTransactions)
	mux.HandleFunc("/api/v1/expenses", a.handleExpenses)
	mux.HandleFunc("/api/v1/expenses/", a.handleExpenseActions)
	mux.HandleFunc("/api/v1/summary", a.handleSummary)
	mux.HandleFunc("/api/v1/reports/range", a.handleRangeReport)
	mux.HandleFunc("/api/v1/qr", a.handleQR)
	mux.HandleFunc("/api/v1/qr/reference", a.handleQRReference)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// ---- Products ----

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query().Get("q")
		category := r.URL.Query().Get("category")
		products := a.service.FilterProducts(q, category)
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product := a.service.AddProduct(r.Context(), req)
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown product path"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req domain.ProductUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, found := a.service.UpdateProduct(r.Context(), id, req)
		if !found {
			// Unknown id is a silent no-op in the data model; the API
			// still reports it so the front-end can refresh.
			writeJSON(w, http.StatusOK, map[string]any{"updated": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "product": product})
	case http.MethodDelete:
		deleted := a.service.DeleteProduct(r.Context(), id)
		writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
	default:
		writeMethodNotAllowed(w)
	}
}

// ---- Cart ----

func (a *API) terminalID(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("terminal_id")); t != "" {
		return t
	}
	return a.defaultTerminal
}

type cartView struct {
	TerminalID string      `json:"terminal_id"`
	Items      []cart.Item `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

func (a *API) cartSnapshot(terminalID string) cartView {
	view := cartView{TerminalID: terminalID}
	a.carts.with(terminalID, func(b *cart.Builder) {
		view.Items = b.Items()
		view.TotalCents = b.TotalCents()
	})
	return view
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	terminalID := a.terminalID(r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.cartSnapshot(terminalID))
	case http.MethodDelete:
		a.carts.with(terminalID, func(b *cart.Builder) { b.Clear() })
		writeJSON(w, http.StatusOK, a.cartSnapshot(terminalID))
	default:
		writeMethodNotAllowed(w)
	}
}

type cartAddRequest struct {
	TerminalID string `json:"terminal_id"`
	ProductID  string `json:"product_id"`
}

func (a *API) handleCartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req cartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID := req.TerminalID
	if terminalID == "" {
		terminalID = a.defaultTerminal
	}

	product, found := a.service.GetProduct(req.ProductID)
	if !found {
		writeError(w, http.StatusNotFound, errors.New("product not found"))
		return
	}
	if product.Stock <= 0 {
		// Out-of-stock products are not offered for selection.
		writeError(w, http.StatusConflict, errors.New("product out of stock"))
		return
	}

	added := false
	a.carts.with(terminalID, func(b *cart.Builder) { added = b.Add(product) })

	writeJSON(w, http.StatusOK, map[string]any{
		"added": added,
		"cart":  a.cartSnapshot(terminalID),
	})
}

type cartAdjustRequest struct {
	TerminalID string `json:"terminal_id"`
	Delta      int    `json:"delta"`
}

func (a *API) handleCartItemActions(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimPrefix(r.URL.Path, "/api/v1/cart/items/")
	if productID == "" || strings.Contains(productID, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown cart item path"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req cartAdjustRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		terminalID := req.TerminalID
		if terminalID == "" {
			terminalID = a.defaultTerminal
		}

		adjusted := false
		a.carts.with(terminalID, func(b *cart.Builder) {
			// Refresh the snapshot so the stock cap tracks the live catalog.
			if product, found := a.service.GetProduct(productID); found {
				b.Refresh(product)
			}
			adjusted = b.AdjustQuantity(productID, req.Delta)
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"adjusted": adjusted,
			"cart":     a.cartSnapshot(terminalID),
		})
	case http.MethodDelete:
		terminalID := a.terminalID(r)
		a.carts.with(terminalID, func(b *cart.Builder) { b.Remove(productID) })
		writeJSON(w, http.StatusOK, map[string]any{"cart": a.cartSnapshot(terminalID)})
	default:
		writeMethodNotAllowed(w)
	}
}

// ---- Checkout ----

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID := req.TerminalID
	if terminalID == "" {
		terminalID = a.defaultTerminal
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}

	var lines []domain.TransactionLine
	var total int64
	a.carts.with(terminalID, func(b *cart.Builder) {
		lines = b.Lines()
		total = b.TotalCents()
	})

	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("cart is empty"))
		return
	}
	// Cash sufficiency is gated here, before the ledger is invoked.
	if req.PaymentMethod == domain.PaymentCash && req.AmountReceivedCents < total {
		writeError(w, http.StatusBadRequest, errors.New("insufficient cash tendered"))
		return
	}

	tx, err := a.service.CompleteSale(r.Context(), lines, req.PaymentMethod, req.AmountReceivedCents)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.carts.with(terminalID, func(b *cart.Builder) { b.Clear() })

	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

// ---- Records ----

func parseRange(r *http.Request) report.Range {
	return report.ParseRange(r.URL.Query().Get("range"))
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rng := parseRange(r)
	transactions := a.service.TransactionsInRange(rng, time.Now())
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), len(transactions), 0)
	if limit < len(transactions) {
		transactions = transactions[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"range":        rng,
		"transactions": transactions,
	})
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rng := parseRange(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"range":    rng,
			"expenses": a.service.ExpensesInRange(rng, time.Now()),
		})
	case http.MethodPost:
		var req domain.ExpenseCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		expense := a.service.AddExpense(r.Context(), req)
		writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleExpenseActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/expenses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, errors.New("unknown expense path"))
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	deleted := a.service.DeleteExpense(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// ---- Derived views ----

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, a.service.Summary(time.Now()))
}

func (a *API) handleRangeReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, a.service.AggregateRange(parseRange(r), time.Now()))
}

// ---- QR payment image ----

func (a *API) handleQR(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ref, data, found := a.service.QRImage(r.Context())
		if !found {
			writeError(w, http.StatusNotFound, errors.New("no qr image uploaded"))
			return
		}
		contentType := ref.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, a.maxQRImageBytes)
		if err := r.ParseMultipartForm(a.maxQRImageBytes); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("missing image field: %w", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
			return
		}

		ref, err := a.service.UploadQRImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			if errors.Is(err, store.ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"reference": ref})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleQRReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	ref, found := a.service.QRImageRef()
	if !found {
		writeError(w, http.StatusNotFound, errors.New("no qr image uploaded"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reference": ref})
}

// ---- Middleware & helpers ----

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !a.requestLogging {
			next.ServeHTTP(w, r)
			return
		}
		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// parsePositiveLimit coerces a limit query parameter, falling back instead
// of rejecting malformed input.
func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := cast.ToInt(strings.TrimSpace(raw))
	if limit < 1 {
		limit = fallback
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so internals never leak; 4xx
	// messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
