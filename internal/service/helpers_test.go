package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	pkgkafka "github.com/Shazneenislam/dhakaagro-sub000/pkg/kafka"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

// fakeUserStore is an in-memory UserStore with real compare-and-swap
// semantics, so the aggregate retry loop is exercised the same way it is
// against the document store. Every Get returns a deep copy: mutating the
// returned aggregate never leaks into the store without a save.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User

	// failSaves forces that many version conflicts before saves succeed.
	failSaves int
	saveCalls int
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		if u.Version == 0 {
			u.Version = 1
		}
		s.users[u.ID] = copyUser(u)
	}
	return s
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Cart = append([]domain.CartLine{}, u.Cart...)
	c.Wishlist = append([]string{}, u.Wishlist...)
	return &c
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return copyUser(u), nil
}

func (s *fakeUserStore) SaveIfVersion(_ context.Context, u *domain.User, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveCalls++
	if s.failSaves > 0 {
		s.failSaves--
		return false, nil
	}

	stored, ok := s.users[u.ID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	u.Version = expectedVersion + 1
	s.users[u.ID] = copyUser(u)
	return true, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	u.Version = 1
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (s *fakeUserStore) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID)
	}
	u.Version++
	s.users[u.ID] = copyUser(u)
	return nil
}

// fakeSessionRepository keeps refresh sessions in a plain map; TTLs are
// recorded but never enforced.
type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: make(map[string]string)}
}

func (r *fakeSessionRepository) Save(_ context.Context, tokenHash, userID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[tokenHash] = userID
	return nil
}

func (r *fakeSessionRepository) UserID(_ context.Context, tokenHash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.sessions[tokenHash]
	if !ok {
		return "", apperrors.Unauthorized("session not found")
	}
	return userID, nil
}

func (r *fakeSessionRepository) Delete(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

// fakeProductLookup serves products from a fixed map.
type fakeProductLookup struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newFakeProductLookup(products ...*domain.Product) *fakeProductLookup {
	l := &fakeProductLookup{products: make(map[string]*domain.Product)}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l
}

func (l *fakeProductLookup) GetByID(_ context.Context, id string) (*domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (l *fakeProductLookup) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.products {
		if p.Slug == slug {
			c := *p
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (l *fakeProductLookup) GetByIDs(_ context.Context, ids []string) ([]*domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := l.products[id]; ok && p.IsActive {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (l *fakeProductLookup) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.products, id)
}

func (l *fakeProductLookup) Create(_ context.Context, p *domain.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *p
	l.products[p.ID] = &c
	return nil
}

func (l *fakeProductLookup) List(_ context.Context, filter repository.ProductFilter, page pagination.Params) ([]*domain.Product, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := []*domain.Product{}
	for _, p := range l.products {
		if !p.IsActive {
			continue
		}
		if filter.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != filter.CategoryID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		c := *p
		matched = append(matched, &c)
	}

	sort.Slice(matched, func(i, j int) bool {
		switch filter.SortBy {
		case "price_asc":
			return matched[i].Price < matched[j].Price
		case "price_desc":
			return matched[i].Price > matched[j].Price
		default:
			return matched[i].Name < matched[j].Name
		}
	})

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

func (l *fakeProductLookup) Update(_ context.Context, p *domain.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	c := *p
	l.products[p.ID] = &c
	return nil
}

func (l *fakeProductLookup) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(l.products, id)
	return nil
}

// fakeCategoryRepository keeps categories in a map; List sorts by name the
// way the SQL store does.
type fakeCategoryRepository struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newFakeCategoryRepository(categories ...*domain.Category) *fakeCategoryRepository {
	r := &fakeCategoryRepository{categories: make(map[string]*domain.Category)}
	for _, c := range categories {
		r.categories[c.ID] = c
	}
	return r
}

func (r *fakeCategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepository) Update(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID)
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Category{}
	for _, c := range r.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(r.categories, id)
	return nil
}

// fakeOrderRepository stores orders in memory; ListByUserID returns newest
// first by insertion order.
type fakeOrderRepository struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	inserts []string

	createErr error
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[string]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem{}, o.Items...)
	return &c
}

func (r *fakeOrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[o.ID] = copyOrder(o)
	r.inserts = append(r.inserts, o.ID)
	return nil
}

func (r *fakeOrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return copyOrder(o), nil
}

func (r *fakeOrderRepository) ListByUserID(_ context.Context, userID string, page pagination.Params) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*domain.Order{}
	for i := len(r.inserts) - 1; i >= 0; i-- {
		o := r.orders[r.inserts[i]]
		if o != nil && o.UserID == userID {
			matched = append(matched, copyOrder(o))
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

func (r *fakeOrderRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	o.Status = status
	return nil
}

// noopPublisher drops events; tests assert on state, not on the broker.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestProducer() *event.Producer {
	return event.NewProducer(noopPublisher{}, newTestLogger())
}

func customer(id string) *domain.User {
	return &domain.User{
		ID:       id,
		Email:    id + "@example.com",
		Name:     "Test Customer",
		Role:     domain.RoleCustomer,
		IsActive: true,
		Cart:     []domain.CartLine{},
		Wishlist: []string{},
	}
}

func groceryProduct(id string, price int64, stock int) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Slug:     "product-" + id,
		Price:    price,
		Stock:    stock,
		Unit:     "kg",
		Images:   []string{},
		IsActive: true,
	}
}
