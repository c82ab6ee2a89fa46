package preference

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/iqengi/site/internal/domain"
)

// MaxFavorites bounds the favourites list of one visitor.
const MaxFavorites = 100

// preferenceService implements domain.PreferenceService.
type preferenceService struct {
	repo   domain.PreferenceRepository
	logger *slog.Logger
}

// NewPreferenceService creates a new PreferenceService with the given repository.
func NewPreferenceService(repo domain.PreferenceRepository, logger *slog.Logger) domain.PreferenceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &preferenceService{repo: repo, logger: logger}
}

// Favorites returns the visitor's favourites, oldest first. A corrupt stored
// list reads as empty.
func (s *preferenceService) Favorites(ctx context.Context, visitor string) ([]domain.Favorite, error) {
	raw, err := s.repo.Get(ctx, visitor, domain.PrefFavorites)
	if err != nil {
		if domain.IsNotFound(err) {
			return []domain.Favorite{}, nil
		}
		return nil, err
	}
	return s.decode(ctx, raw), nil
}

// AddFavorite stores fav, replacing an entry with the same course id.
func (s *preferenceService) AddFavorite(ctx context.Context, visitor string, fav domain.Favorite) ([]domain.Favorite, error) {
	fav.ID = strings.TrimSpace(fav.ID)
	fav.Title = strings.TrimSpace(fav.Title)
	fav.Currency = strings.ToUpper(strings.TrimSpace(fav.Currency))
	if fav.ID == "" || fav.Title == "" {
		return nil, domain.NewAppError(domain.CodeValidation, "el curso no es válido", nil)
	}

	var out []domain.Favorite
	err := s.repo.Update(ctx, visitor, domain.PrefFavorites, func(current string, _ bool) (string, error) {
		list := s.decode(ctx, current)
		if i := indexOf(list, fav.ID); i >= 0 {
			list[i] = fav
		} else {
			if len(list) >= MaxFavorites {
				return "", domain.NewAppError(domain.CodeValidation, "alcanzaste el límite de cursos favoritos", nil)
			}
			list = append(list, fav)
		}
		out = list
		return encode(list)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveFavorite drops courseID from the list. Removing an absent course
// returns the list unchanged.
func (s *preferenceService) RemoveFavorite(ctx context.Context, visitor, courseID string) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := s.repo.Update(ctx, visitor, domain.PrefFavorites, func(current string, _ bool) (string, error) {
		list := s.decode(ctx, current)
		if i := indexOf(list, courseID); i >= 0 {
			list = slices.Delete(list, i, i+1)
		}
		out = list
		return encode(list)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Theme returns the stored theme, or ThemeSystem when none or an unknown one is stored.
func (s *preferenceService) Theme(ctx context.Context, visitor string) (domain.Theme, error) {
	raw, err := s.repo.Get(ctx, visitor, domain.PrefTheme)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.ThemeSystem, nil
		}
		return domain.ThemeSystem, err
	}
	if t := domain.Theme(raw); t.Valid() {
		return t, nil
	}
	return domain.ThemeSystem, nil
}

// SetTheme stores theme. ThemeSystem clears the stored choice.
func (s *preferenceService) SetTheme(ctx context.Context, visitor string, theme domain.Theme) error {
	if !theme.Valid() {
		return domain.NewAppError(domain.CodeValidation, "tema no válido", nil)
	}
	if theme == domain.ThemeSystem {
		return s.repo.Delete(ctx, visitor, domain.PrefTheme)
	}
	return s.repo.Set(ctx, visitor, domain.PrefTheme, string(theme))
}

func (s *preferenceService) decode(ctx context.Context, raw string) []domain.Favorite {
	list := []domain.Favorite{}
	if strings.TrimSpace(raw) == "" {
		return list
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable favorites", slog.String("error", err.Error()))
		return []domain.Favorite{}
	}
	return list
}

func encode(list []domain.Favorite) (string, error) {
	b, err := json.Marshal(list)
	if err != nil {
		return "", domain.NewAppError(domain.CodeInternal, "encode favorites", err)
	}
	return string(b), nil
}

func indexOf(list []domain.Favorite, id string) int {
	return slices.IndexFunc(list, func(f domain.Favorite) bool { return f.ID == id })
}
