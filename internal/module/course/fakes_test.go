package course

import (
	"context"
	"fmt"
	"slices"
	"sync"

	currencysvc "github.com/iqengi/site/internal/currency"
	"github.com/iqengi/site/internal/domain"
)

// fakeSource serves generated courses priced in USD times a per-currency rate.
type fakeSource struct {
	mu       sync.Mutex
	courses  []domain.Course
	rates    map[string]float64
	listErr  error
	moreErr  error
	catErr   error
	priceErr error
	calls    []domain.CourseQuery
}

func newFakeSource(n int) *fakeSource {
	courses := make([]domain.Course, n)
	for i := range courses {
		courses[i] = domain.Course{
			ID:               fmt.Sprintf("c%d", i+1),
			Title:            fmt.Sprintf("Curso %d", i+1),
			ShortDescription: "Inspección de tanques",
			Slug:             fmt.Sprintf("curso-%d", i+1),
			Price:            float64(10 * (i + 1)),
			Categories:       []domain.Category{{ID: fmt.Sprintf("cat%d", i%2), Name: "Categoría"}},
			Rating:           domain.Rating{Average: float64(i % 5), Count: i},
		}
	}
	return &fakeSource{
		courses: courses,
		rates:   map[string]float64{"USD": 1, "EUR": 0.5, "PEN": 4, "MXN": 20},
	}
}

func (f *fakeSource) priced(c domain.Course, currency string) domain.Course {
	c.Price *= f.rates[currency]
	c.Currency = currency
	return c
}

func (f *fakeSource) ListCourses(_ context.Context, q domain.CourseQuery) ([]domain.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if q.Offset > 0 && f.moreErr != nil {
		return nil, f.moreErr
	}
	out := []domain.Course{}
	for i := q.Offset; i < len(f.courses) && i < q.Offset+q.Limit; i++ {
		out = append(out, f.priced(f.courses[i], q.Currency))
	}
	return out, nil
}

func (f *fakeSource) CoursePrice(_ context.Context, id, currency string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.priceErr != nil {
		return 0, f.priceErr
	}
	for _, c := range f.courses {
		if c.ID == id {
			return f.priced(c, currency).Price, nil
		}
	}
	return 0, domain.NewAppError(domain.CodeNotFound, "curso no encontrado", nil)
}

func (f *fakeSource) CourseBySlug(_ context.Context, slug, currency string) (*domain.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.Slug == slug {
			p := f.priced(c, currency)
			return &p, nil
		}
	}
	return nil, domain.NewAppError(domain.CodeNotFound, "curso no encontrado", nil)
}

func (f *fakeSource) Categories(context.Context) ([]domain.Category, error) {
	if f.catErr != nil {
		return nil, f.catErr
	}
	return []domain.Category{{ID: "cat0", Name: "Normativas"}, {ID: "cat1", Name: "Soldadura"}}, nil
}

func (f *fakeSource) queries() []domain.CourseQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// fakeCurrency reports a fixed visitor currency.
type fakeCurrency struct {
	code string
}

func (f *fakeCurrency) State(context.Context, string, domain.CurrencyHints) (domain.CurrencyState, error) {
	return domain.CurrencyState{Currency: f.code, Detected: f.code, Source: domain.SourceStored}, nil
}

func (f *fakeCurrency) Select(_ context.Context, _ string, code string) (domain.CurrencyState, error) {
	f.code = code
	return domain.CurrencyState{Currency: code}, nil
}

func (f *fakeCurrency) Supported() []string { return []string{"USD", "EUR", "PEN", "MXN"} }

var _ currencysvc.Broker = (*currencysvc.Bus)(nil)
