package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"bentahub/backend/internal/domain"
	"bentahub/backend/internal/notify"
	"bentahub/backend/internal/service"
	"bentahub/backend/internal/store/memory"
)

// newTestAPI builds a full API over an in-memory store and a real service so
// handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	svc := service.New(context.Background(), memory.New(), notify.New())
	return New(svc, "*", "till-1", 512, false)
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestProductCreateAndFilter(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{
		Name:              "Royal Tru Orange",
		Category:          domain.CategoryDrinks,
		PriceCents:        3000,
		Stock:             12,
		LowStockThreshold: 4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products?q=royal", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	products, ok := body["products"].([]any)
	if !ok || len(products) != 1 {
		t.Fatalf("expected exactly the new product, got %v", body["products"])
	}
}

func TestProductUpdateUnknownIDReportsNoOp(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPatch, "/api/v1/products/prod-missing", map[string]any{"name": "Ghost"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["updated"] != false {
		t.Fatalf("expected updated:false, got %v", body)
	}
}

// createProduct registers a product through the API and returns its id.
func createProduct(t *testing.T, handler http.Handler, req domain.ProductCreateRequest) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: %d (body: %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	product := body["product"].(map[string]any)
	return product["id"].(string)
}

func TestCartCheckoutFlow(t *testing.T) {
	handler := newTestAPI(t).Handler()

	id := createProduct(t, handler, domain.ProductCreateRequest{
		Name: "Coke Mismo", Category: domain.CategoryDrinks, PriceCents: 6500, Stock: 3, LowStockThreshold: 5,
	})

	// Three adds fill the cart to the stock cap; the fourth is rejected.
	for i := 1; i <= 3; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", cartAddRequest{ProductID: id})
		if rec.Code != http.StatusOK {
			t.Fatalf("add %d: expected 200, got %d", i, rec.Code)
		}
		if body := decodeBody(t, rec); body["added"] != true {
			t.Fatalf("add %d should succeed: %v", i, body)
		}
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", cartAddRequest{ProductID: id})
	if body := decodeBody(t, rec); body["added"] != false {
		t.Fatalf("fourth add must be rejected: %v", body)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/cart", nil)
	body := decodeBody(t, rec)
	if body["total_cents"] != float64(19500) {
		t.Fatalf("expected cart total 19500, got %v", body["total_cents"])
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/checkout", domain.SaleRequest{
		PaymentMethod:       domain.PaymentCash,
		AmountReceivedCents: 20000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	tx := decodeBody(t, rec)["transaction"].(map[string]any)
	if tx["total_cents"] != float64(19500) {
		t.Fatalf("expected transaction total 19500, got %v", tx["total_cents"])
	}
	if tx["change_cents"] != float64(500) {
		t.Fatalf("expected change 500, got %v", tx["change_cents"])
	}

	// The cart is drained after checkout.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/cart", nil)
	if body := decodeBody(t, rec); body["total_cents"] != float64(0) {
		t.Fatalf("expected empty cart after checkout, got %v", body)
	}

	// The sale shows up in today's summary.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/summary", nil)
	if body := decodeBody(t, rec); body["today_sales_cents"] != float64(19500) {
		t.Fatalf("expected today sales 19500, got %v", body["today_sales_cents"])
	}
}

func TestCartAdjustRespectsBounds(t *testing.T) {
	handler := newTestAPI(t).Handler()

	id := createProduct(t, handler, domain.ProductCreateRequest{
		Name: "Mang Tomas", Category: domain.CategoryCanned, PriceCents: 4000, Stock: 2, LowStockThreshold: 1,
	})

	doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", cartAddRequest{ProductID: id})

	rec := doJSON(t, handler, http.MethodPatch, "/api/v1/cart/items/"+id, cartAdjustRequest{Delta: -1})
	if body := decodeBody(t, rec); body["adjusted"] != false {
		t.Fatalf("decrement to zero must be rejected: %v", body)
	}

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/cart/items/"+id, cartAdjustRequest{Delta: 5})
	if body := decodeBody(t, rec); body["adjusted"] != false {
		t.Fatalf("increment beyond stock must be rejected: %v", body)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/cart/items/"+id, nil)
	cartBody := decodeBody(t, rec)["cart"].(map[string]any)
	if cartBody["total_cents"] != float64(0) {
		t.Fatalf("expected empty cart after remove, got %v", cartBody)
	}
}

func TestCheckoutRejectsInsufficientCash(t *testing.T) {
	handler := newTestAPI(t).Handler()

	id := createProduct(t, handler, domain.ProductCreateRequest{
		Name: "Bear Brand", Category: domain.CategoryDrinks, PriceCents: 1200, Stock: 10, LowStockThreshold: 2,
	})
	doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", cartAddRequest{ProductID: id})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checkout", domain.SaleRequest{
		PaymentMethod:       domain.PaymentCash,
		AmountReceivedCents: 1100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for insufficient cash, got %d", rec.Code)
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checkout", domain.SaleRequest{
		PaymentMethod:       domain.PaymentCash,
		AmountReceivedCents: 10000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rec.Code)
	}
}

func TestExpensesAndRangeReport(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/expenses", domain.ExpenseCreateRequest{
		Description: "Tubig delivery",
		AmountCents: 10000,
		Category:    domain.ExpenseDelivery,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	expense := decodeBody(t, rec)["expense"].(map[string]any)
	expenseID := expense["id"].(string)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/range?range=today", nil)
	body := decodeBody(t, rec)
	if body["expense_cents"] != float64(10000) || body["net_cents"] != float64(-10000) {
		t.Fatalf("unexpected range report: %v", body)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/expenses/"+expenseID, nil)
	if body := decodeBody(t, rec); body["deleted"] != true {
		t.Fatalf("expected deleted:true, got %v", body)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/expenses/"+expenseID, nil)
	if body := decodeBody(t, rec); body["deleted"] != false {
		t.Fatalf("second delete must report false, got %v", body)
	}
}

func TestQRUploadAndServe(t *testing.T) {
	handler := newTestAPI(t).Handler()

	// No image yet.
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/qr/reference", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before upload, got %d", rec.Code)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "gcash.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	imageBytes := []byte{0x89, 'P', 'N', 'G'}
	if _, err := part.Write(imageBytes); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qr", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	uploadRec := httptest.NewRecorder()
	handler.ServeHTTP(uploadRec, req)
	if uploadRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", uploadRec.Code, uploadRec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/qr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 serving image, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), imageBytes) {
		t.Fatalf("served image differs from upload")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t).Handler()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/v1/summary"},
		{http.MethodPost, "/api/v1/reports/range"},
		{http.MethodPut, "/api/v1/products"},
	}
	for _, tc := range cases {
		rec := doJSON(t, handler, tc.method, tc.path, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
