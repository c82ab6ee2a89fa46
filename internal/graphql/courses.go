package graphql

import (
	"context"
	"fmt"

	"github.com/iqengi/site/internal/domain"
)

const courseFields = `
  _id
  courseTitle
  descripcionCorta
  slug
  imagenURL { url alt }
  precio
  descuento
  duracionHoras
  categorias { _id nombreCategoria }
  calificacionPromedio
  numeroCalificaciones
  deleted`

const coursesQuery = `query Cursos($offset: Int, $limit: Int, $currency: String) {
  Cursos(offset: $offset, limit: $limit, currency: $currency) {` + courseFields + `
  }
}`

const coursePriceQuery = `query Curso($cursoId: ID!, $currency: String) {
  Curso(cursoId: $cursoId, currency: $currency) {
    precio
  }
}`

const courseBySlugQuery = `query CursoPorSlug($slug: String!, $currency: String) {
  CursoPorSlug(slug: $slug, currency: $currency) {` + courseFields + `
  }
}`

const categoriesQuery = `query Categorias {
  Categorias {
    _id
    nombreCategoria
  }
}`

// Courses implements domain.CourseSource over the GraphQL backend. Nothing
// is cached: every call is a fresh request.
type Courses struct {
	client *Client
}

// NewCourses creates a course source using client.
func NewCourses(client *Client) *Courses {
	return &Courses{client: client}
}

// ListCourses returns one page of courses priced in q.Currency.
func (s *Courses) ListCourses(ctx context.Context, q domain.CourseQuery) ([]domain.Course, error) {
	if q.Offset < 0 || q.Limit <= 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "invalid offset or limit", nil)
	}

	var data coursesData
	vars := map[string]any{"offset": q.Offset, "limit": q.Limit, "currency": q.Currency}
	if err := s.client.Do(ctx, coursesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if err := checkContract("Cursos", data); err != nil {
		return nil, err
	}

	out := make([]domain.Course, 0, len(data.Courses))
	for _, n := range data.Courses {
		out = append(out, n.toDomain(q.Currency))
	}
	return out, nil
}

// CoursePrice returns the current price of one course in currency.
func (s *Courses) CoursePrice(ctx context.Context, courseID, currency string) (float64, error) {
	var data coursePriceData
	vars := map[string]any{"cursoId": courseID, "currency": currency}
	if err := s.client.Do(ctx, coursePriceQuery, vars, &data); err != nil {
		return 0, fmt.Errorf("course price: %w", err)
	}
	if data.Course == nil {
		return 0, domain.NewAppError(domain.CodeNotFound, "curso no encontrado", nil)
	}
	if err := checkContract("Curso", data); err != nil {
		return 0, err
	}
	return *data.Course.Price, nil
}

// CourseBySlug returns the course with slug priced in currency.
func (s *Courses) CourseBySlug(ctx context.Context, slug, currency string) (*domain.Course, error) {
	var data courseBySlugData
	vars := map[string]any{"slug": slug, "currency": currency}
	if err := s.client.Do(ctx, courseBySlugQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("course by slug: %w", err)
	}
	if data.Course == nil || data.Course.Deleted {
		return nil, domain.NewAppError(domain.CodeNotFound, "curso no encontrado", nil)
	}
	if err := checkContract("CursoPorSlug", data); err != nil {
		return nil, err
	}
	c := data.Course.toDomain(currency)
	return &c, nil
}

// Categories returns the category reference list.
func (s *Courses) Categories(ctx context.Context) ([]domain.Category, error) {
	var data categoriesData
	if err := s.client.Do(ctx, categoriesQuery, nil, &data); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if err := checkContract("Categorias", data); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(data.Categories))
	for _, c := range data.Categories {
		out = append(out, domain.Category{ID: c.ID, Name: c.Name})
	}
	return out, nil
}
