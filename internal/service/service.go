// Package service owns the application state: the catalog, the transaction
// and expense ledgers, and the QR image reference. All mutations go through
// here; every change is mirrored synchronously to the persistence slots so a
// read immediately after a write observes it.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"bentahub/backend/internal/domain"
	"bentahub/backend/internal/notify"
	"bentahub/backend/internal/report"
	"bentahub/backend/internal/store"
	"bentahub/backend/internal/xid"
)

type Service struct {
	mu       sync.RWMutex
	store    store.Store
	notifier *notify.Notifier

	products     []domain.Product
	transactions []domain.Transaction
	expenses     []domain.Expense
	qrRef        *domain.QRImageRef
}

// New loads the persisted slots into memory. Absent or corrupt slots fall
// back to their defaults: the seed catalog for products, empty lists for the
// ledgers. Load failures are never surfaced; the store starts over.
func New(ctx context.Context, st store.Store, notifier *notify.Notifier) *Service {
	s := &Service{store: st, notifier: notifier}

	store.Load(ctx, st, store.SlotProducts, &s.products, domain.SeedProducts())
	store.Load(ctx, st, store.SlotTransactions, &s.transactions, []domain.Transaction{})
	store.Load(ctx, st, store.SlotExpenses, &s.expenses, []domain.Expense{})

	var ref domain.QRImageRef
	store.Load(ctx, st, store.SlotQRImageRef, &ref, domain.QRImageRef{})
	if ref.Name != "" {
		s.qrRef = &ref
	}

	return s
}

// persist mirrors one collection to its slot. A failed write is logged and
// otherwise ignored: no operation is fatal, the worst case is stale data on
// the next start.
func (s *Service) persist(ctx context.Context, key string, value any) {
	if err := store.Save(ctx, s.store, key, value); err != nil {
		log.Printf("[service] WARN: failed to persist slot %s: %v", key, err)
	}
}

func (s *Service) toast(title string, message string) {
	if s.notifier != nil {
		s.notifier.Toast(title, message)
	}
}

// pesos renders cents as a currency string for toast copy.
func pesos(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s₱%d.%02d", sign, cents/100, cents%100)
}

// ---- Catalog ----

func (s *Service) ListProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// FilterProducts is the display view: case-insensitive substring match on
// the name, plus an optional category. An empty or "all" category matches
// everything. The result is never persisted.
func (s *Service) FilterProducts(query string, category string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if category != "" && category != "all" && string(p.Category) != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Service) GetProduct(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// AddProduct assigns an identifier and appends to the end of the catalog.
// Numeric fields are coerced rather than rejected: negative price or stock
// becomes zero, an unusable threshold becomes the default, an unknown
// category becomes others.
func (s *Service) AddProduct(ctx context.Context, req domain.ProductCreateRequest) domain.Product {
	product := domain.Product{
		ID:                xid.New("prod"),
		Name:              strings.TrimSpace(req.Name),
		Category:          domain.NormalizeCategory(req.Category),
		PriceCents:        req.PriceCents,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	}
	if product.PriceCents < 0 {
		product.PriceCents = 0
	}
	if product.Stock < 0 {
		product.Stock = 0
	}
	if product.LowStockThreshold < 0 {
		product.LowStockThreshold = domain.DefaultLowStockThreshold
	}

	s.mu.Lock()
	s.products = append(s.products, product)
	s.persist(ctx, store.SlotProducts, s.products)
	s.mu.Unlock()

	s.toast("Naidagdag na!", fmt.Sprintf("%s ay naidagdag sa iyong mga paninda.", product.Name))
	return product
}

// UpdateProduct replaces the matching entry in place. A missing identifier
// is a silent no-op, reported through the second return value.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, bool) {
	s.mu.Lock()

	idx := -1
	for i := range s.products {
		if s.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.Product{}, false
	}

	updated := s.products[idx]
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = domain.NormalizeCategory(*req.Category)
	}
	if req.PriceCents != nil {
		updated.PriceCents = *req.PriceCents
		if updated.PriceCents < 0 {
			updated.PriceCents = 0
		}
	}
	if req.Stock != nil {
		updated.Stock = *req.Stock
		if updated.Stock < 0 {
			updated.Stock = 0
		}
	}
	if req.LowStockThreshold != nil {
		updated.LowStockThreshold = *req.LowStockThreshold
		if updated.LowStockThreshold < 0 {
			updated.LowStockThreshold = domain.DefaultLowStockThreshold
		}
	}

	s.products[idx] = updated
	s.persist(ctx, store.SlotProducts, s.products)
	s.mu.Unlock()

	s.toast("Na-update na!", fmt.Sprintf("%s ay na-update na.", updated.Name))
	return updated, true
}

// DeleteProduct removes the matching entry. Deleting an unknown or already
// deleted identifier is a no-op, so the operation is idempotent. Historical
// transactions keep their frozen line items; there is no cascade.
func (s *Service) DeleteProduct(ctx context.Context, id string) bool {
	s.mu.Lock()

	name := ""
	found := false
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID == id {
			found = true
			name = p.Name
			continue
		}
		kept = append(kept, p)
	}
	s.products = kept
	if found {
		s.persist(ctx, store.SlotProducts, s.products)
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	s.toast("Natanggal na!", fmt.Sprintf("%s ay natanggal na sa mga paninda.", name))
	return true
}

// ---- Ledger: sales ----

// CompleteSale records one transaction from the frozen cart lines and
// decrements the matching stock counts, floored at zero, in a single batch
// so a partially applied decrement can never be observed. Cash sufficiency
// (received >= total) is the caller's gate; the ledger trusts its caller and
// simply floors change at zero.
func (s *Service) CompleteSale(ctx context.Context, lines []domain.TransactionLine, paymentMethod string, amountReceivedCents int64) (domain.Transaction, error) {
	if len(lines) == 0 {
		return domain.Transaction{}, fmt.Errorf("%w: empty cart", store.ErrInvalidInput)
	}
	if paymentMethod != domain.PaymentCash && paymentMethod != domain.PaymentQR {
		return domain.Transaction{}, fmt.Errorf("%w: unsupported payment method %q", store.ErrInvalidInput, paymentMethod)
	}

	var total int64
	sold := make(map[string]int, len(lines))
	for _, line := range lines {
		total += line.PriceCents * int64(line.Quantity)
		sold[line.ProductID] += line.Quantity
	}

	tx := domain.Transaction{
		ID:            xid.New("tx"),
		Items:         append([]domain.TransactionLine(nil), lines...),
		TotalCents:    total,
		PaymentMethod: paymentMethod,
		Timestamp:     time.Now(),
	}
	if paymentMethod == domain.PaymentCash {
		tx.AmountReceivedCents = amountReceivedCents
		if change := amountReceivedCents - total; change > 0 {
			tx.ChangeCents = change
		}
	}

	s.mu.Lock()
	s.transactions = append([]domain.Transaction{tx}, s.transactions...)

	for i := range s.products {
		qty, ok := sold[s.products[i].ID]
		if !ok {
			continue
		}
		s.products[i].Stock -= qty
		if s.products[i].Stock < 0 {
			s.products[i].Stock = 0
		}
	}

	s.persist(ctx, store.SlotTransactions, s.transactions)
	s.persist(ctx, store.SlotProducts, s.products)
	s.mu.Unlock()

	method := "Cash"
	if paymentMethod == domain.PaymentQR {
		method = "QR"
	}
	s.toast("Naitala na ang benta!", fmt.Sprintf("%s - %s payment", pesos(total), method))

	return tx, nil
}

// Transactions returns the full ledger, newest first.
func (s *Service) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// ---- Ledger: expenses ----

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseCreateRequest) domain.Expense {
	expense := domain.Expense{
		ID:          xid.New("exp"),
		Description: strings.TrimSpace(req.Description),
		AmountCents: req.AmountCents,
		Category:    domain.NormalizeExpenseCategory(req.Category),
		Date:        time.Now(),
	}
	if expense.AmountCents < 0 {
		expense.AmountCents = 0
	}
	if req.Date != nil && !req.Date.IsZero() {
		expense.Date = *req.Date
	}

	s.mu.Lock()
	s.expenses = append([]domain.Expense{expense}, s.expenses...)
	s.persist(ctx, store.SlotExpenses, s.expenses)
	s.mu.Unlock()

	s.toast("Naitala na ang gastos!", fmt.Sprintf("%s - %s", pesos(expense.AmountCents), expense.Description))
	return expense
}

func (s *Service) DeleteExpense(ctx context.Context, id string) bool {
	s.mu.Lock()

	found := false
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	s.expenses = kept
	if found {
		s.persist(ctx, store.SlotExpenses, s.expenses)
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	s.toast("Natanggal na!", "Ang gastos ay natanggal na.")
	return true
}

func (s *Service) Expenses() []domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// ---- Derived views ----

// Summary recomputes the dashboard figures from current state.
func (s *Service) Summary(ref time.Time) report.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return report.Summarize(s.products, s.transactions, s.expenses, ref)
}

func (s *Service) AggregateRange(r report.Range, ref time.Time) report.RangeReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return report.Aggregate(s.transactions, s.expenses, r, ref)
}

func (s *Service) TransactionsInRange(r report.Range, ref time.Time) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return report.FilterTransactions(s.transactions, r, ref)
}

func (s *Service) ExpensesInRange(r report.Range, ref time.Time) []domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return report.FilterExpenses(s.expenses, r, ref)
}

// ---- QR payment image ----

// UploadQRImage stores the image binary and its reference. The content is
// not validated beyond being non-empty; any image the owner uploads is shown
// as-is to customers.
func (s *Service) UploadQRImage(ctx context.Context, name string, contentType string, data []byte) (domain.QRImageRef, error) {
	if len(data) == 0 {
		return domain.QRImageRef{}, fmt.Errorf("%w: empty image", store.ErrInvalidInput)
	}

	ref := domain.QRImageRef{
		Name:        name,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		UploadedAt:  time.Now(),
	}

	s.mu.Lock()
	if err := s.store.Write(ctx, store.SlotQRImage, data); err != nil {
		s.mu.Unlock()
		return domain.QRImageRef{}, fmt.Errorf("store qr image: %w", err)
	}
	s.persist(ctx, store.SlotQRImageRef, ref)
	s.qrRef = &ref
	s.mu.Unlock()

	s.toast("Na-upload na ang QR!", "Pwede mo na itong ipakita sa customers.")
	return ref, nil
}

// QRImage returns the stored reference and binary, or found=false when no
// image has been uploaded yet.
func (s *Service) QRImage(ctx context.Context) (domain.QRImageRef, []byte, bool) {
	s.mu.RLock()
	ref := s.qrRef
	s.mu.RUnlock()

	if ref == nil {
		return domain.QRImageRef{}, nil, false
	}
	data, err := s.store.Read(ctx, store.SlotQRImage)
	if err != nil {
		return domain.QRImageRef{}, nil, false
	}
	return *ref, data, true
}

func (s *Service) QRImageRef() (domain.QRImageRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.qrRef == nil {
		return domain.QRImageRef{}, false
	}
	return *s.qrRef, true
}
