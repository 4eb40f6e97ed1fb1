package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/auth"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/health"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/httputil"
	pkgkafka "github.com/Shazneenislam/dhakaagro-sub000/pkg/kafka"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/middleware"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

// ============================================================================
// In-memory stores
// ============================================================================

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Cart = append([]domain.CartLine{}, u.Cart...)
	c.Wishlist = append([]string{}, u.Wishlist...)
	return &c
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	u.Version = 1
	if u.Cart == nil {
		u.Cart = []domain.CartLine{}
	}
	if u.Wishlist == nil {
		u.Wishlist = []string{}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return cloneUser(u), nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (s *memUserStore) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID)
	}
	u.Version++
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *memUserStore) SaveIfVersion(_ context.Context, u *domain.User, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	u.Version = expectedVersion + 1
	s.users[u.ID] = cloneUser(u)
	return true, nil
}

type memProductStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMemProductStore() *memProductStore {
	return &memProductStore{products: make(map[string]*domain.Product)}
}

func (s *memProductStore) Create(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *memProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *memProductStore) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == slug {
			c := *p
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *memProductStore) GetByIDs(_ context.Context, ids []string) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.IsActive {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memProductStore) List(_ context.Context, filter repository.ProductFilter, page pagination.Params) ([]*domain.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []*domain.Product{}
	for _, p := range s.products {
		if p.IsActive {
			c := *p
			matched = append(matched, &c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memProductStore) Update(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *memProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(s.products, id)
	return nil
}

type memCategoryStore struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newMemCategoryStore() *memCategoryStore {
	return &memCategoryStore{categories: make(map[string]*domain.Category)}
}

func (s *memCategoryStore) Create(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *memCategoryStore) GetByID(_ context.Context, id string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	cp := *c
	return &cp, nil
}

func (s *memCategoryStore) List(_ context.Context) ([]*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Category{}
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memCategoryStore) Update(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID)
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *memCategoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(s.categories, id)
	return nil
}

type memOrderStore struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	inserts []string
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem{}, o.Items...)
	return &c
}

func (s *memOrderStore) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	s.inserts = append(s.inserts, o.ID)
	return nil
}

func (s *memOrderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return cloneOrder(o), nil
}

func (s *memOrderStore) ListByUserID(_ context.Context, userID string, page pagination.Params) ([]*domain.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []*domain.Order{}
	for i := len(s.inserts) - 1; i >= 0; i-- {
		if o := s.orders[s.inserts[i]]; o != nil && o.UserID == userID {
			matched = append(matched, cloneOrder(o))
		}
	}
	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memOrderStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	o.Status = status
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]string)}
}

func (s *memSessionStore) Save(_ context.Context, tokenHash, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenHash] = userID
	return nil
}

func (s *memSessionStore) UserID(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[tokenHash]
	if !ok {
		return "", apperrors.Unauthorized("session not found")
	}
	return userID, nil
}

func (s *memSessionStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// ============================================================================
// Router fixture
// ============================================================================

type testEnv struct {
	router     http.Handler
	users      *memUserStore
	products   *memProductStore
	orders     *memOrderStore
	jwtManager *auth.JWTManager
}

func newTestEnv(t *testing.T, opts ...func(*RouterDeps)) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	producer := event.NewProducer(noopPublisher{}, logger)
	jwtManager := auth.NewJWTManager("test-secret-at-least-32-characters-long", 15*time.Minute, 7*24*time.Hour)

	users := newMemUserStore()
	products := newMemProductStore()
	categories := newMemCategoryStore()
	orders := newMemOrderStore()
	sessions := newMemSessionStore()

	cartSvc := service.NewCartService(users, products, producer, logger)
	deps := RouterDeps{
		Users:      service.NewUserService(users, sessions, jwtManager, producer, logger),
		Cart:       cartSvc,
		Wishlist:   service.NewWishlistService(users, products, producer, logger),
		Catalog:    service.NewCatalogService(products, categories, logger),
		Orders:     service.NewOrderService(orders, cartSvc, products, producer, logger),
		JWTManager: jwtManager,
		Health:     health.NewHandler(),
		Logger:     logger,
		CORS:       middleware.DefaultCORSConfig(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	router := NewRouter(deps)

	return &testEnv{
		router:     router,
		users:      users,
		products:   products,
		orders:     orders,
		jwtManager: jwtManager,
	}
}

// seedUser stores a user directly and returns a bearer token for them.
func (e *testEnv) seedUser(t *testing.T, id, role string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ngPass"), bcrypt.MinCost)
	require.NoError(t, err)

	err = e.users.Create(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: string(hash),
		Name:         "Test " + id,
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)

	token, err := e.jwtManager.GenerateAccessToken(id, id+"@example.com", role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) seedProduct(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	err := e.products.Create(context.Background(), &domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Slug:     "product-" + id,
		Price:    price,
		Stock:    stock,
		Unit:     "kg",
		Images:   []string{},
		IsActive: true,
	})
	require.NoError(t, err)
}

// doJSON performs a request with an optional bearer token and JSON body.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	decodeBody(t, rec, &resp)
	return resp
}
