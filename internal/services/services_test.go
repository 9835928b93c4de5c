package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/models"
	"storefront-admin/internal/session"
	"storefront-admin/internal/storage"
	"storefront-admin/internal/validation"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend is an in-memory storefront backend.
type fakeBackend struct {
	mu       sync.Mutex
	token    string
	products []models.Product
	orders   []models.Order
	hits     map[string]int
	// afterRemove, when set, replaces the product list after a delete.
	afterRemove []models.Product
	rejectAll   bool
	// listFails makes both list endpoints answer 500.
	listFails bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{token: "T1", hits: map[string]int{}}
}

func (f *fakeBackend) seed(fn func(*fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.URL.Path]++

	reply := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	if r.URL.Path == "/api/user/admin" {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email == "a@b.com" && req.Password == "x" {
			reply(http.StatusOK, map[string]any{"success": true, "token": f.token})
			return
		}
		if req.Email == "notoken@b.com" {
			reply(http.StatusOK, map[string]any{"success": true})
			return
		}
		reply(http.StatusOK, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}

	if f.rejectAll || r.Header.Get("Authorization") != "Bearer "+f.token {
		reply(http.StatusUnauthorized, map[string]any{"success": false, "message": "Not Authorized Login Again"})
		return
	}

	if f.listFails && (r.URL.Path == "/api/product/list" || r.URL.Path == "/api/order/list") {
		reply(http.StatusInternalServerError, map[string]any{"success": false, "message": "Database offline"})
		return
	}

	switch r.URL.Path {
	case "/api/product/add":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			reply(http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
			return
		}
		if r.FormValue("name") == "duplicate" {
			reply(http.StatusOK, map[string]any{"success": false, "message": "Product already exists"})
			return
		}
		f.products = append(f.products, models.Product{ID: "new", Name: r.FormValue("name")})
		reply(http.StatusOK, map[string]any{"success": true, "message": "Product Added"})
	case "/api/product/list":
		reply(http.StatusOK, map[string]any{"success": true, "products": f.products})
	case "/api/product/remove":
		var req models.RemoveProductRequest
		json.NewDecoder(r.Body).Decode(&req)
		if f.afterRemove != nil {
			f.products = f.afterRemove
		}
		reply(http.StatusOK, map[string]any{"success": true, "message": "Product Removed"})
	case "/api/order/list":
		reply(http.StatusOK, map[string]any{"success": true, "orders": f.orders})
	case "/api/order/status":
		var req models.UpdateStatusRequest
		json.NewDecoder(r.Body).Decode(&req)
		for i := range f.orders {
			if f.orders[i].ID == req.OrderID {
				f.orders[i].Status = req.Status
			}
		}
		reply(http.StatusOK, map[string]any{"success": true, "message": "Status Updated"})
	default:
		http.NotFound(w, r)
	}
}

type fixture struct {
	backend  *fakeBackend
	store    *session.Store
	login    *LoginService
	products *ProductService
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fb := newFakeBackend()
	server := httptest.NewServer(fb)
	t.Cleanup(server.Close)

	api := backend.NewClient(server.URL, backend.WithHTTPClient(server.Client()))
	store, err := session.Load(context.Background(), "browser-1", storage.NewMemoryStore(), session.NewSealer("k"), zerolog.Nop())
	if err != nil {
		t.Fatalf("session.Load() error: %v", err)
	}

	return &fixture{
		backend:  fb,
		store:    store,
		login:    NewLoginService(api, zerolog.Nop()),
		products: NewProductService(api, zerolog.Nop()),
		orders:   NewOrderService(api, zerolog.Nop()),
	}
}

func (fx *fixture) authenticate(t *testing.T) {
	t.Helper()
	if err := fx.store.Login(context.Background(), "T1"); err != nil {
		t.Fatalf("store.Login() error: %v", err)
	}
}

func TestLogin_ValidCredentialsStoreToken(t *testing.T) {
	fx := newFixture(t)

	err := fx.login.Login(context.Background(), fx.store, models.LoginRequest{Email: "a@b.com", Password: "x"}, false)
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if fx.store.Token() != "T1" {
		t.Errorf("Token() = %q, want T1", fx.store.Token())
	}
	if !fx.store.Remembered().IsZero() {
		t.Error("credentials remembered without remember-me")
	}
}

func TestLogin_InvalidCredentialsLeaveStoreEmpty(t *testing.T) {
	fx := newFixture(t)

	err := fx.login.Login(context.Background(), fx.store, models.LoginRequest{Email: "a@b.com", Password: "nope"}, true)
	if backend.Message(err) != "Invalid credentials" {
		t.Errorf("Message() = %q, want server message", backend.Message(err))
	}
	if fx.store.State() != session.Unauthenticated {
		t.Error("failed login authenticated the session")
	}
	if !fx.store.Remembered().IsZero() {
		t.Error("failed login remembered credentials")
	}
}

func TestLogin_MissingFieldsSkipBackend(t *testing.T) {
	fx := newFixture(t)

	err := fx.login.Login(context.Background(), fx.store, models.LoginRequest{Email: "a@b.com"}, false)
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want FieldErrors", err)
	}
	if fx.backend.total() != 0 {
		t.Errorf("backend received %d requests, want 0", fx.backend.total())
	}
}

func TestLogin_SuccessWithoutToken(t *testing.T) {
	fx := newFixture(t)

	err := fx.login.Login(context.Background(), fx.store, models.LoginRequest{Email: "notoken@b.com", Password: "x"}, false)
	if !errors.Is(err, ErrNoTokenIssued) {
		t.Errorf("error = %v, want ErrNoTokenIssued", err)
	}
	if fx.store.State() != session.Unauthenticated {
		t.Error("session authenticated without a token")
	}
}

func TestLogin_RememberAndLogout(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.login.Login(ctx, fx.store, models.LoginRequest{Email: "a@b.com", Password: "x"}, true); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if got := fx.store.Remembered(); got.Email != "a@b.com" || got.Password != "x" {
		t.Errorf("Remembered() = %+v", got)
	}

	if err := fx.login.Logout(ctx, fx.store); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if fx.store.State() != session.Unauthenticated || !fx.store.Remembered().IsZero() {
		t.Error("logout left session state behind")
	}
}

func validForm() *models.ProductForm {
	f := models.NewProductForm()
	f.Name = "Shirt"
	f.Description = "Cotton"
	f.Price = "20"
	f.Category = models.CategoryKids
	f.ToggleSize(models.SizeM)
	return f
}

func TestCreateProduct_SuccessResetsForm(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	form := validForm()

	msg, err := fx.products.Create(context.Background(), fx.store, form)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if msg != "Product Added" {
		t.Errorf("message = %q", msg)
	}
	if form.Name != "" || form.Category != models.CategoryMen || len(form.Sizes) != 0 {
		t.Errorf("form not reset: %+v", form)
	}
}

func TestCreateProduct_FailureKeepsForm(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	form := validForm()
	form.Name = "duplicate"

	_, err := fx.products.Create(context.Background(), fx.store, form)
	if backend.Message(err) != "Product already exists" {
		t.Errorf("error = %v", err)
	}
	if form.Name != "duplicate" || form.Category != models.CategoryKids {
		t.Errorf("form was reset after failure: %+v", form)
	}
}

func TestCreateProduct_MissingFieldNeverHitsBackend(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)

	for _, clear := range []func(*models.ProductForm){
		func(f *models.ProductForm) { f.Name = "" },
		func(f *models.ProductForm) { f.Description = "" },
		func(f *models.ProductForm) { f.Price = "" },
		func(f *models.ProductForm) { f.Price = "ten" },
	} {
		form := validForm()
		clear(form)
		_, err := fx.products.Create(context.Background(), fx.store, form)
		var fe validation.FieldErrors
		if !errors.As(err, &fe) {
			t.Errorf("error = %v, want FieldErrors", err)
		}
	}
	if fx.backend.total() != 0 {
		t.Errorf("backend received %d requests, want 0", fx.backend.total())
	}
}

func TestListProducts_NoTokenNoRequest(t *testing.T) {
	fx := newFixture(t)

	products, err := fx.products.List(context.Background(), fx.store)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("products = %v, want empty", products)
	}
	if fx.backend.total() != 0 {
		t.Errorf("backend received %d requests, want 0", fx.backend.total())
	}
}

func TestRemoveProduct_RefetchesAuthoritativeList(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	fx.backend.seed(func(f *fakeBackend) {
		f.products = []models.Product{{ID: "A"}, {ID: "B"}, {ID: "C"}}
		// The backend's post-delete view differs from a local splice of [A C].
		f.afterRemove = []models.Product{{ID: "C"}, {ID: "A"}, {ID: "D"}}
	})

	msg, products, err := fx.products.Remove(context.Background(), fx.store, "B")
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if msg != "Product Removed" {
		t.Errorf("message = %q", msg)
	}

	want := []string{"C", "A", "D"}
	if len(products) != len(want) {
		t.Fatalf("products = %v, want %v", products, want)
	}
	for i, id := range want {
		if products[i].ID != id {
			t.Errorf("products[%d] = %s, want %s", i, products[i].ID, id)
		}
	}
	if fx.backend.count("/api/product/list") != 1 {
		t.Errorf("list fetched %d times, want 1", fx.backend.count("/api/product/list"))
	}
}

func TestRemoveProduct_FailedRefetchStillReportsRemoval(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	fx.backend.seed(func(f *fakeBackend) {
		f.products = []models.Product{{ID: "A"}}
		f.listFails = true
	})

	msg, _, err := fx.products.Remove(context.Background(), fx.store, "A")
	var refetchErr *RefetchError
	if !errors.As(err, &refetchErr) {
		t.Fatalf("error = %v, want *RefetchError", err)
	}
	if msg != "Product Removed" || refetchErr.Message != "Product Removed" {
		t.Errorf("message = %q / %q, want the delete reply", msg, refetchErr.Message)
	}
	if backend.Message(err) != "Database offline" {
		t.Errorf("backend message = %q", backend.Message(err))
	}
}

func TestUpdateStatus_FailedRefetch(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	fx.backend.seed(func(f *fakeBackend) {
		f.orders = []models.Order{{ID: "O1", Status: models.OrderStatusPlaced}}
		f.listFails = true
	})

	_, err := fx.orders.UpdateStatus(context.Background(), fx.store, "O1", models.OrderStatusPacking)
	var refetchErr *RefetchError
	if !errors.As(err, &refetchErr) {
		t.Fatalf("error = %v, want *RefetchError", err)
	}
	if fx.backend.count("/api/order/status") != 1 {
		t.Error("status update was not sent")
	}
}

func TestRemoveProduct_NoToken(t *testing.T) {
	fx := newFixture(t)

	_, _, err := fx.products.Remove(context.Background(), fx.store, "B")
	if !errors.Is(err, backend.ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}
	if fx.backend.total() != 0 {
		t.Error("request issued without token")
	}
}

func TestListOrders_Reversed(t *testing.T) {
	for _, ids := range [][]string{{}, {"O1"}, {"O1", "O2"}, {"O3", "O1", "O2", "O4"}} {
		fx := newFixture(t)
		fx.authenticate(t)
		fx.backend.seed(func(f *fakeBackend) {
			for _, id := range ids {
				f.orders = append(f.orders, models.Order{ID: id, Status: models.OrderStatusPlaced})
			}
		})

		orders, err := fx.orders.List(context.Background(), fx.store)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if len(orders) != len(ids) {
			t.Fatalf("len = %d, want %d", len(orders), len(ids))
		}
		for i := range ids {
			if orders[i].ID != ids[len(ids)-1-i] {
				t.Errorf("ids=%v: orders[%d] = %s", ids, i, orders[i].ID)
			}
		}
	}
}

func TestListOrders_NoToken(t *testing.T) {
	fx := newFixture(t)

	orders, err := fx.orders.List(context.Background(), fx.store)
	if !errors.Is(err, backend.ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}
	if len(orders) != 0 {
		t.Errorf("orders = %v, want empty", orders)
	}
	if fx.backend.total() != 0 {
		t.Error("request issued without token")
	}
}

func TestUpdateStatus_RefetchReflectsChange(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	fx.backend.seed(func(f *fakeBackend) {
		f.orders = []models.Order{
			{ID: "O1", Status: models.OrderStatusPlaced},
			{ID: "O2", Status: models.OrderStatusPacking},
		}
	})

	orders, err := fx.orders.UpdateStatus(context.Background(), fx.store, "O1", models.OrderStatusShipped)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	var found bool
	for _, o := range orders {
		if o.ID == "O1" {
			found = true
			if o.Status != models.OrderStatusShipped {
				t.Errorf("O1 status = %s, want Shipped", o.Status)
			}
		}
	}
	if !found {
		t.Error("O1 missing from refetched list")
	}
	if orders[0].ID != "O2" {
		t.Error("refetched list is not reversed")
	}
}

func TestUpdateStatus_UnknownStatusSkipsBackend(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)

	_, err := fx.orders.UpdateStatus(context.Background(), fx.store, "O1", "Lost")
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		t.Errorf("error = %v, want FieldErrors", err)
	}
	if fx.backend.total() != 0 {
		t.Error("request issued for unknown status")
	}
}

func TestUnauthorizedResponseLogsOut(t *testing.T) {
	fx := newFixture(t)
	fx.authenticate(t)
	fx.backend.seed(func(f *fakeBackend) { f.rejectAll = true })

	_, err := fx.products.List(context.Background(), fx.store)
	if !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if fx.store.State() != session.Unauthenticated {
		t.Error("session still authenticated after 401")
	}
}

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("secret", zerolog.Nop())
	id := auth.NewBrowserID()

	token, err := auth.GenerateToken(id)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.BrowserID != id {
		t.Errorf("BrowserID = %q, want %q", claims.BrowserID, id)
	}

	other := NewAuthService("other", zerolog.Nop())
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret validated")
	}
	if _, err := auth.ValidateToken("garbage"); err == nil {
		t.Error("garbage token validated")
	}
}
