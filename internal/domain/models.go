package domain

import "time"

// ProductCategory is a closed enumeration. Display labels live in
// CategoryLabels; a new category requires an explicit table entry, so an
// unknown value can never fall through silently.
type ProductCategory string

const (
	CategorySnacks  ProductCategory = "snacks"
	CategoryDrinks  ProductCategory = "drinks"
	CategoryLoad    ProductCategory = "load"
	CategoryCanned  ProductCategory = "canned"
	CategoryHygiene ProductCategory = "hygiene"
	CategoryOthers  ProductCategory = "others"
)

var CategoryLabels = map[ProductCategory]string{
	CategorySnacks:  "Meryenda",
	CategoryDrinks:  "Inumin",
	CategoryLoad:    "Load/E-wallet",
	CategoryCanned:  "De Lata",
	CategoryHygiene: "Panlinis",
	CategoryOthers:  "Iba Pa",
}

type ExpenseCategory string

const (
	ExpenseDelivery ExpenseCategory = "delivery"
	ExpenseBills    ExpenseCategory = "bills"
	ExpenseSupplies ExpenseCategory = "supplies"
	ExpenseOthers   ExpenseCategory = "others"
)

var ExpenseCategoryLabels = map[ExpenseCategory]string{
	ExpenseDelivery: "Delivery",
	ExpenseBills:    "Bayarin",
	ExpenseSupplies: "Supplies",
	ExpenseOthers:   "Iba Pa",
}

// DefaultLowStockThreshold is used when a caller supplies an unusable
// threshold value.
const DefaultLowStockThreshold = 5

type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          ProductCategory `json:"category"`
	PriceCents        int64           `json:"price_cents"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

type ProductCreateRequest struct {
	Name              string          `json:"name"`
	Category          ProductCategory `json:"category"`
	PriceCents        int64           `json:"price_cents"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

type ProductUpdateRequest struct {
	Name              *string          `json:"name,omitempty"`
	Category          *ProductCategory `json:"category,omitempty"`
	PriceCents        *int64           `json:"price_cents,omitempty"`
	Stock             *int             `json:"stock,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
}

const (
	PaymentCash = "cash"
	PaymentQR   = "qr"
)

// TransactionLine is a frozen copy of the product fields at sale time.
// Later product edits or deletes do not alter historical records.
type TransactionLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
}

// Transaction is immutable once created. There is no edit, void, or delete
// operation for sales.
type Transaction struct {
	ID                  string            `json:"id"`
	Items               []TransactionLine `json:"items"`
	TotalCents          int64             `json:"total_cents"`
	PaymentMethod       string            `json:"payment_method"`
	AmountReceivedCents int64             `json:"amount_received_cents,omitempty"`
	ChangeCents         int64             `json:"change_cents,omitempty"`
	Timestamp           time.Time         `json:"timestamp"`
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	AmountCents int64           `json:"amount_cents"`
	Category    ExpenseCategory `json:"category"`
	Date        time.Time       `json:"date"`
}

type ExpenseCreateRequest struct {
	Description string          `json:"description"`
	AmountCents int64           `json:"amount_cents"`
	Category    ExpenseCategory `json:"category"`
	Date        *time.Time      `json:"date,omitempty"`
}

type SaleRequest struct {
	TerminalID          string `json:"terminal_id"`
	PaymentMethod       string `json:"payment_method"`
	AmountReceivedCents int64  `json:"amount_received_cents"`
}

// QRImageRef describes the uploaded payment QR image. The image binary is
// stored in its own slot so it survives restarts.
type QRImageRef struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NormalizeCategory coerces an unknown product category to others instead of
// rejecting it.
func NormalizeCategory(c ProductCategory) ProductCategory {
	if _, ok := CategoryLabels[c]; ok {
		return c
	}
	return CategoryOthers
}

func NormalizeExpenseCategory(c ExpenseCategory) ExpenseCategory {
	if _, ok := ExpenseCategoryLabels[c]; ok {
		return c
	}
	return ExpenseOthers
}

// SeedProducts is the default catalog used when the products slot is absent
// or unreadable.
func SeedProducts() []Product {
	return []Product{
		{ID: "prod-seed-01", Name: "Coca-Cola 1.5L", Category: CategoryDrinks, PriceCents: 6500, Stock: 12, LowStockThreshold: 5},
		{ID: "prod-seed-02", Name: "Lucky Me Pancit Canton", Category: CategorySnacks, PriceCents: 1400, Stock: 3, LowStockThreshold: 10},
		{ID: "prod-seed-03", Name: "Surf Powder 45g", Category: CategoryHygiene, PriceCents: 800, Stock: 50, LowStockThreshold: 20},
		{ID: "prod-seed-04", Name: "Argentina Corned Beef 150g", Category: CategoryCanned, PriceCents: 4200, Stock: 8, LowStockThreshold: 5},
		{ID: "prod-seed-05", Name: "Smart Load P50", Category: CategoryLoad, PriceCents: 5000, Stock: 100, LowStockThreshold: 10},
		{ID: "prod-seed-06", Name: "Kopiko Brown 25g", Category: CategoryDrinks, PriceCents: 700, Stock: 2, LowStockThreshold: 15},
		{ID: "prod-seed-07", Name: "Skyflakes Crackers", Category: CategorySnacks, PriceCents: 1000, Stock: 40, LowStockThreshold: 10},
		{ID: "prod-seed-08", Name: "Safeguard Soap 60g", Category: CategoryHygiene, PriceCents: 3500, Stock: 15, LowStockThreshold: 5},
		{ID: "prod-seed-09", Name: "Century Tuna Flakes 155g", Category: CategoryCanned, PriceCents: 3800, Stock: 20, LowStockThreshold: 8},
		{ID: "prod-seed-10", Name: "Globe Load P100", Category: CategoryLoad, PriceCents: 10000, Stock: 50, LowStockThreshold: 10},
	}
}
