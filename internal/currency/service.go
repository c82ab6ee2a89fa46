package currency

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/iqengi/site/internal/domain"
)

// service implements domain.CurrencyService on top of the visitor
// preference store, a Detector and a Broker.
type service struct {
	prefs    domain.PreferenceRepository
	detector *Detector
	broker   Broker
	logger   *slog.Logger

	lookups  singleflight.Group
	inflight sync.Map
	wg       sync.WaitGroup
}

// Service is the concrete currency service. Wait blocks until background
// detections started by State have finished.
type Service interface {
	domain.CurrencyService
	Wait()
}

// NewService creates the currency service.
func NewService(prefs domain.PreferenceRepository, detector *Detector, broker Broker, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{prefs: prefs, detector: detector, broker: broker, logger: logger}
}

// Supported implements domain.CurrencyService.
func (s *service) Supported() []string {
	return s.detector.Supported()
}

// State resolves the visitor's currency: a stored choice is used verbatim,
// otherwise the timezone guess is returned and a network correction starts
// in the background. Storage failures degrade to the guess.
func (s *service) State(ctx context.Context, visitor string, hints domain.CurrencyHints) (domain.CurrencyState, error) {
	guess := s.detector.Guess(hints.Timezone)
	state := domain.CurrencyState{
		Currency:   guess.Currency,
		Detected:   guess.Currency,
		Source:     guess.Source,
		Confidence: guess.Confidence,
	}

	stored, err := s.prefs.GetMany(ctx, visitor, domain.PrefCurrency, domain.PrefDetectedCurrency)
	if err != nil {
		s.logger.WarnContext(ctx, "read currency preferences failed",
			slog.String("error", err.Error()),
		)
		stored = nil
	}

	detected, hasDetected := stored[domain.PrefDetectedCurrency]
	if hasDetected && detected != "" {
		state.Detected = detected
	}
	if current, ok := stored[domain.PrefCurrency]; ok && current != "" {
		state.Currency = current
		state.Source = domain.SourceStored
		state.Confidence = domain.ConfidenceHigh
		if hasDetected && detected != "" {
			return state, nil
		}
	}

	s.startDetection(ctx, visitor, hints.IP, guess)
	state.IsLoading = s.detecting(visitor)
	return state, nil
}

// Select stores an explicit choice and announces it to every consumer of
// the visitor.
func (s *service) Select(ctx context.Context, visitor, code string) (domain.CurrencyState, error) {
	code = Normalize(code)
	if !s.detector.IsSupported(code) {
		return domain.CurrencyState{}, domain.NewAppError(domain.CodeValidation, "moneda no soportada: "+code, nil)
	}

	if err := s.prefs.Set(ctx, visitor, domain.PrefCurrency, code); err != nil {
		return domain.CurrencyState{}, domain.NewAppError(domain.CodeInternal, "save currency", err)
	}

	detected := code
	if d, err := s.prefs.Get(ctx, visitor, domain.PrefDetectedCurrency); err == nil && d != "" {
		detected = d
	}

	s.publish(ctx, Message{Visitor: visitor, Currency: code, Origin: OriginUser})

	return domain.CurrencyState{
		Currency:   code,
		Detected:   detected,
		IsLoading:  s.detecting(visitor),
		Source:     domain.SourceUser,
		Confidence: domain.ConfidenceHigh,
	}, nil
}

// Wait blocks until all background detections have finished.
func (s *service) Wait() {
	s.wg.Wait()
}

func (s *service) detecting(visitor string) bool {
	_, ok := s.inflight.Load(visitor)
	return ok
}

// startDetection runs at most one correction per visitor. The request
// context only contributes its values; the correction outlives the request.
func (s *service) startDetection(ctx context.Context, visitor, ip string, guess Result) {
	if _, running := s.inflight.LoadOrStore(visitor, struct{}{}); running {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inflight.Delete(visitor)
		s.detect(context.WithoutCancel(ctx), visitor, ip, guess)
	}()
}

func (s *service) detect(ctx context.Context, visitor, ip string, guess Result) {
	// Visitors behind the same address share one lookup.
	v, err, _ := s.lookups.Do(ip, func() (interface{}, error) {
		return s.detector.Correct(ctx, ip)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "currency detection failed, keeping heuristic",
			slog.String("guess", guess.Currency),
			slog.String("error", err.Error()),
		)
		return
	}
	res := v.(Result)

	if err := s.prefs.Set(ctx, visitor, domain.PrefDetectedCurrency, res.Currency); err != nil {
		s.logger.WarnContext(ctx, "save detected currency failed", slog.String("error", err.Error()))
		return
	}

	adopted := false
	err = s.prefs.Update(ctx, visitor, domain.PrefCurrency, func(current string, found bool) (string, error) {
		if found && current != "" {
			return current, nil
		}
		adopted = true
		return res.Currency, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "save active currency failed", slog.String("error", err.Error()))
		return
	}

	s.logger.DebugContext(ctx, "currency detected",
		slog.String("guess", guess.Currency),
		slog.String("detected", res.Currency),
		slog.Bool("adopted", adopted),
	)

	if adopted && res.Currency != guess.Currency {
		s.publish(ctx, Message{Visitor: visitor, Currency: res.Currency, Origin: OriginDetection})
	}
}

func (s *service) publish(ctx context.Context, msg Message) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "publish currency change failed",
			slog.String("currency", msg.Currency),
			slog.String("error", err.Error()),
		)
	}
}
