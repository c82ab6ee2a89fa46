package graphql

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/iqengi/site/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type imageNode struct {
	URL string `json:"url" validate:"omitempty,url"`
	Alt string `json:"alt"`
}

type categoryNode struct {
	ID   string `json:"_id" validate:"required"`
	Name string `json:"nombreCategoria"`
}

// courseNode is the wire shape of a Curso.
type courseNode struct {
	ID               string         `json:"_id" validate:"required"`
	Title            string         `json:"courseTitle" validate:"required"`
	ShortDescription string         `json:"descripcionCorta"`
	Slug             string         `json:"slug" validate:"required"`
	Image            *imageNode     `json:"imagenURL"`
	Price            *float64       `json:"precio" validate:"omitempty,gte=0"`
	Discount         *float64       `json:"descuento" validate:"omitempty,gte=0,lte=100"`
	DurationHours    *float64       `json:"duracionHoras" validate:"omitempty,gte=0"`
	Categories       []categoryNode `json:"categorias" validate:"dive"`
	RatingAverage    *float64       `json:"calificacionPromedio" validate:"omitempty,gte=0,lte=5"`
	RatingCount      *int           `json:"numeroCalificaciones" validate:"omitempty,gte=0"`
	Deleted          bool           `json:"deleted"`
}

func (n courseNode) toDomain(currency string) domain.Course {
	c := domain.Course{
		ID:               n.ID,
		Title:            n.Title,
		ShortDescription: n.ShortDescription,
		Slug:             n.Slug,
		Currency:         currency,
		Discount:         n.Discount,
		Deleted:          n.Deleted,
	}
	if n.Image != nil {
		c.Image = domain.Image{URL: n.Image.URL, Alt: n.Image.Alt}
	}
	if n.Price != nil {
		c.Price = *n.Price
	}
	if n.DurationHours != nil {
		c.DurationHours = *n.DurationHours
	}
	if n.RatingAverage != nil {
		c.Rating.Average = *n.RatingAverage
	}
	if n.RatingCount != nil {
		c.Rating.Count = *n.RatingCount
	}
	c.Categories = make([]domain.Category, 0, len(n.Categories))
	for _, cat := range n.Categories {
		c.Categories = append(c.Categories, domain.Category{ID: cat.ID, Name: cat.Name})
	}
	return c
}

type coursesData struct {
	Courses []courseNode `json:"Cursos" validate:"dive"`
}

type coursePriceData struct {
	Course *struct {
		Price *float64 `json:"precio" validate:"required,gte=0"`
	} `json:"Curso"`
}

type courseBySlugData struct {
	Course *courseNode `json:"CursoPorSlug"`
}

type categoriesData struct {
	Categories []categoryNode `json:"Categorias" validate:"dive"`
}

type newsletterData struct {
	Subscribe *struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"Newsletter_subscribe" validate:"required"`
}

// checkContract validates a decoded payload against its struct tags.
func checkContract(op string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("graphql: %s: invalid response: %w", op, err)
	}
	return nil
}
