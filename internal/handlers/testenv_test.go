package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/config"
	"github.com/kmazurov/storefront/internal/hash"
	"github.com/kmazurov/storefront/internal/models"
	"github.com/kmazurov/storefront/internal/mykafka"
	"github.com/kmazurov/storefront/internal/service/token"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	Auth    *AuthHandler
	Product *ProductHandler
	Order   *OrderHandler
	User    *UserHandler
	Address *AddressHandler
	Payment *PaymentHandler
	Invoice *InvoiceHandler

	AssetStore *fakeAssetStore
	Gateway    *stubGateway

	JWTSecret     []byte
	RefreshSecret []byte
}

// fakeAssetStore records calls instead of talking to the image host.
type fakeAssetStore struct {
	Uploaded []string
	Deleted  []string
	URL      string
}

func (s *fakeAssetStore) Upload(_ context.Context, _ io.Reader, folder string) (string, error) {
	s.Uploaded = append(s.Uploaded, folder)
	return s.URL, nil
}

func (s *fakeAssetStore) Delete(_ context.Context, publicID string) error {
	s.Deleted = append(s.Deleted, publicID)
	return nil
}

type stubGateway struct {
	LastAmount   int64
	LastCurrency string
	LastReceipt  string
	OrderID      string
	Err          error
}

func (g *stubGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	g.LastAmount = amountPaise
	g.LastCurrency = currency
	g.LastReceipt = receipt
	if g.Err != nil {
		return "", g.Err
	}
	return g.OrderID, nil
}

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := InitTestDB(t)
	jwtSecret := []byte("test-jwt-secret")
	refreshSecret := []byte("test-refresh-secret")
	prod := &mykafka.Producer{}

	store := &fakeAssetStore{URL: "https://res.cloudinary.com/demo/image/upload/avatars/new.png"}
	gateway := &stubGateway{OrderID: "order_test123"}

	env := &testEnv{
		T:             t,
		E:             echo.New(),
		DB:            db,
		AssetStore:    store,
		Gateway:       gateway,
		JWTSecret:     jwtSecret,
		RefreshSecret: refreshSecret,
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	env.Auth = &AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod, Tokens: tokens}
	env.Product = &ProductHandler{DB: db, Producer: prod}
	env.Order = &OrderHandler{DB: db, Producer: prod}
	env.User = &UserHandler{DB: db, Assets: store, Producer: prod}
	env.Address = &AddressHandler{DB: db}
	env.Payment = &PaymentHandler{DB: db, Gateway: gateway, KeyID: "rzp_test_key", KeySecret: []byte("rzp_test_secret"), Producer: prod}
	env.Invoice = &InvoiceHandler{DB: db}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser mimics what RequireUser puts into the context after token checks.
func asUser(c echo.Context, user *models.User) {
	c.Set("userID", user.ID)
	c.Set("role", user.Role)
}

func createUser(t *testing.T, env *testEnv, email, role, password string) *models.User {
	passwordHash, err := hash.HashPassword(password)
	require.NoError(t, err)
	user := models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Avatar:       models.DefaultAvatar,
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

func createProduct(t *testing.T, env *testEnv, name string, price float64, stock uint) *models.Product {
	product := models.Product{
		Name:        name,
		Description: "test description",
		Price:       price,
		Category:    "test",
		Image:       "https://example.com/" + name + ".png",
		Stock:       stock,
	}
	require.NoError(t, env.DB.Create(&product).Error)
	return &product
}

func testShipping() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     "Test User",
		Phone:        "9999999999",
		AddressLine1: "42 Test Street",
		City:         "Mumbai",
		State:        "MH",
		PostalCode:   "400001",
		Country:      "India",
	}
}

func createOrderFor(t *testing.T, env *testEnv, user *models.User, status string, isPaid bool, items ...models.OrderItem) *models.Order {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	uid := user.ID
	order := models.Order{
		UserID:     &uid,
		Items:      items,
		Shipping:   testShipping(),
		TotalPrice: total,
		Status:     status,
		IsPaid:     isPaid,
		CreatedAt:  time.Now().Unix(),
	}
	if isPaid {
		now := time.Now().UTC()
		order.PaidAt = &now
	}
	require.NoError(t, env.DB.Create(&order).Error)
	return &order
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	return he
}
