package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
	"github.com/maiconsoft/backoffice/internal/domain/customer"
	"github.com/maiconsoft/backoffice/internal/domain/sale"
	"github.com/maiconsoft/backoffice/internal/domain/user"
	"github.com/maiconsoft/backoffice/internal/notify"
)

// In-memory repositories so endpoint tests run the real services end to end.

type memSales struct {
	seq  int64
	byID map[int64]sale.Sale
}

func (m *memSales) Insert(_ context.Context, s *sale.Sale) error {
	for _, existing := range m.byID {
		if existing.OrderNumber == s.OrderNumber {
			return sale.ErrOrderNumberTaken
		}
	}
	m.seq++
	s.ID = m.seq
	m.byID[s.ID] = *s
	return nil
}

func (m *memSales) Update(_ context.Context, s *sale.Sale) error {
	if _, ok := m.byID[s.ID]; !ok {
		return sale.ErrNotFound
	}
	m.byID[s.ID] = *s
	return nil
}

func (m *memSales) FindByID(_ context.Context, id int64) (*sale.Sale, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, sale.ErrNotFound
	}
	return &s, nil
}

func (m *memSales) FindByOrderNumber(_ context.Context, n string) (*sale.Sale, error) {
	for _, s := range m.byID {
		if s.OrderNumber == n {
			return &s, nil
		}
	}
	return nil, sale.ErrNotFound
}

func (m *memSales) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return sale.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memSales) MaxOrderNumberForMonth(_ context.Context, prefix string) (string, error) {
	maxNumber := ""
	for _, s := range m.byID {
		if strings.HasPrefix(s.OrderNumber, prefix) && s.OrderNumber > maxNumber {
			maxNumber = s.OrderNumber
		}
	}
	return maxNumber, nil
}

type memCoupons struct {
	seq  int64
	byID map[int64]coupon.Coupon
}

func (m *memCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	for _, c := range m.byID {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, coupon.ErrNotFound
}

func (m *memCoupons) FindByID(_ context.Context, id int64) (*coupon.Coupon, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return &c, nil
}

func (m *memCoupons) List(_ context.Context, status coupon.Status) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	for _, c := range m.byID {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCoupons) Insert(_ context.Context, c *coupon.Coupon) error {
	if existing, err := m.FindByCode(context.Background(), c.Code); err == nil && existing != nil {
		return coupon.ErrCodeTaken
	}
	m.seq++
	c.ID = m.seq
	m.byID[c.ID] = *c
	return nil
}

func (m *memCoupons) Update(_ context.Context, c *coupon.Coupon) error {
	if _, ok := m.byID[c.ID]; !ok {
		return coupon.ErrNotFound
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memCoupons) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return coupon.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memCoupons) Redeem(_ context.Context, code string, today time.Time) (bool, error) {
	c, err := m.FindByCode(context.Background(), code)
	if err != nil {
		return false, err
	}
	if denial := coupon.Usable(c, today); denial != nil {
		return false, nil
	}
	c.CurrentUses++
	m.byID[c.ID] = *c
	return true, nil
}

func (m *memCoupons) DeactivateExpired(_ context.Context, today time.Time) (int64, error) {
	var n int64
	for id, c := range m.byID {
		if c.Status == coupon.StatusActive && c.ValidUntil != nil && c.ValidUntil.Before(today) {
			c.Status = coupon.StatusInactive
			m.byID[id] = c
			n++
		}
	}
	return n, nil
}

type staticCustomers struct{}

func (staticCustomers) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	if id != 10 {
		return nil, customer.ErrNotFound
	}
	return &customer.Customer{ID: 10, Code: "C-010", TradeName: "Padaria Central"}, nil
}

type staticUsers struct{}

func (staticUsers) FindByID(_ context.Context, id int64) (*user.User, error) {
	if id != 5 {
		return nil, user.ErrNotFound
	}
	return &user.User{ID: 5, Name: "Ana"}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *memCoupons) {
	t.Helper()

	coupons := &memCoupons{byID: map[int64]coupon.Coupon{}}
	svc, err := sale.NewService(
		&memSales{byID: map[int64]sale.Sale{}},
		staticCustomers{},
		staticUsers{},
		coupon.NewLedger(coupons),
		notify.LogNotifier{},
		noop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)

	return New(svc, coupon.NewAdmin(coupons)).Routes(), coupons
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateSaleEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":10,"registeredBy":5,"grossAmount":"250.00","status":"CONFIRMED"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Contains(t, body, `"status":"PENDING"`)
	assert.Contains(t, body, time.Now().Format("200601")+"001")
}

func TestCreateSaleEndpointWithCoupon(t *testing.T) {
	h, coupons := newTestRouter(t)
	coupons.byID[1] = coupon.Coupon{
		ID: 1, Code: "PROMO10", Status: coupon.StatusActive,
		DiscountPercent: decimal.NewFromInt(10), MaxUses: 1,
	}

	rec := doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":10,"registeredBy":5,"grossAmount":"1000.00","couponCode":"PROMO10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"discountAmount":"100.00"`)
	assert.Contains(t, rec.Body.String(), `"totalAmount":"900.00"`)
	assert.Equal(t, 1, coupons.byID[1].CurrentUses)

	// The single use is consumed: the next attempt is refused before any write.
	rec = doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":10,"registeredBy":5,"grossAmount":"50.00","couponCode":"PROMO10"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "coupon_limit_reached")
}

func TestCreateSaleEndpointErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":999,"registeredBy":5,"grossAmount":"10.00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer_not_found")

	rec = doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":10,"registeredBy":5,"grossAmount":"10.00","status":"SHIPPED"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_status")

	rec = doJSON(t, h, http.MethodPost, "/sales/", `{"grossAmount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed_body")
}

func TestSaleProofEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":10,"registeredBy":5,"grossAmount":"99.90"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/sales/1/proof", `{"proofRef":"comprovantes/pix-1.pdf"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)

	rec = doJSON(t, h, http.MethodDelete, "/sales/1/proof", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"PENDING"`)
}

func TestCouponEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/coupons/",
		`{"code":"WELCOME15","name":"Boas-vindas","discountPercent":"15","maxUses":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"ACTIVE"`)

	rec = doJSON(t, h, http.MethodPost, "/coupons/",
		`{"code":"WELCOME15","name":"Duplicado","discountPercent":"10"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "coupon_code_taken")

	rec = doJSON(t, h, http.MethodPost, "/coupons/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"INACTIVE"`)

	rec = doJSON(t, h, http.MethodGet, "/coupons/?status=INACTIVE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WELCOME15")

	rec = doJSON(t, h, http.MethodDelete, "/coupons/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/coupons/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSaleByOrderNumber(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/sales/",
		`{"customerId":10,"registeredBy":5,"grossAmount":"10.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	orderNumber := time.Now().Format("200601") + "001"
	rec = doJSON(t, h, http.MethodGet, "/sales/order/"+orderNumber, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), orderNumber)

	rec = doJSON(t, h, http.MethodGet, "/sales/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "sale_not_found")
}
