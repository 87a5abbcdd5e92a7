package converter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"currency-converter-go/internal/favorites"
	"currency-converter-go/internal/models"
	"currency-converter-go/internal/rateapi"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status texts shown to the user.
const (
	StatusInvalidAmount         = "Invalid amount"
	StatusRateUnavailable       = "Conversion rate not available"
	StatusHistoricalUnavailable = "Historical rate not available"
	historicalErrorPrefix       = "Error fetching historical rates: "
)

// Favorite is an entry of the favorites collection.
// Selecting it applies Pair to the session and converts.
type Favorite struct {
	Pair  models.FavoritePair
	Label string
}

// State is a point-in-time copy of the session.
type State struct {
	BaseCurrency   string
	TargetCurrency string
	Amount         string
	BaseOptions    []string
	TargetOptions  []string
	Conversion     string
	Historical     string
	Favorites      []Favorite
}

// Session holds the conversion client state and runs its operations.
// Network calls are made without holding the lock, so operations may overlap.
type Session struct {
	logger         *zap.Logger
	rates          rateapi.ClientInterface
	favorites      favorites.ClientInterface
	historicalDate string

	mu    sync.Mutex
	state State
	// seq identifies the most recent Convert; older responses are dropped.
	seq uint64
}

// NewSession creates a session. historicalDate is the date used by FetchHistoricalDefault.
func NewSession(logger *zap.Logger, rates rateapi.ClientInterface, favs favorites.ClientInterface, historicalDate string) *Session {
	return &Session{
		logger:         logger.Named("converter"),
		rates:          rates,
		favorites:      favs,
		historicalDate: historicalDate,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.BaseOptions = append([]string(nil), s.state.BaseOptions...)
	st.TargetOptions = append([]string(nil), s.state.TargetOptions...)
	st.Favorites = append([]Favorite(nil), s.state.Favorites...)
	return st
}

// Start runs the startup operations concurrently and waits for all of them.
// Each one logs its own failure; none of them aborts the others.
func (s *Session) Start(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		_ = s.LoadCurrencies(ctx)
		return nil
	})
	g.Go(func() error {
		_ = s.LoadFavorites(ctx)
		return nil
	})
	g.Go(func() error {
		_ = s.FetchStatus(ctx)
		return nil
	})
	_ = g.Wait()
}

// LoadCurrencies fills the base and target option lists from the rate API catalog.
// Empty selections default to the first option.
func (s *Session) LoadCurrencies(ctx context.Context) error {
	catalog, err := s.rates.Currencies(ctx)
	if err != nil {
		s.logger.Error("Error fetching currencies", zap.Error(err))
		return err
	}

	codes := make([]string, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.BaseOptions = codes
	s.state.TargetOptions = append([]string(nil), codes...)
	if len(codes) > 0 {
		if s.state.BaseCurrency == "" {
			s.state.BaseCurrency = codes[0]
		}
		if s.state.TargetCurrency == "" {
			s.state.TargetCurrency = codes[0]
		}
	}
	s.logger.Debug("Loaded currencies", zap.Int("count", len(codes)))
	return nil
}

// SetBase changes the base currency and converts.
func (s *Session) SetBase(ctx context.Context, code string) (string, error) {
	s.mu.Lock()
	s.state.BaseCurrency = code
	s.mu.Unlock()
	return s.Convert(ctx)
}

// SetTarget changes the target currency and converts.
func (s *Session) SetTarget(ctx context.Context, code string) (string, error) {
	s.mu.Lock()
	s.state.TargetCurrency = code
	s.mu.Unlock()
	return s.Convert(ctx)
}

// SetAmount changes the raw amount input and converts.
func (s *Session) SetAmount(ctx context.Context, amount string) (string, error) {
	s.mu.Lock()
	s.state.Amount = amount
	s.mu.Unlock()
	return s.Convert(ctx)
}

// parseAmount accepts finite numbers greater than zero.
func parseAmount(raw string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// Convert converts the current amount from base to target and returns the
// conversion status. A request failure is logged and returned while the
// status keeps its previous value.
func (s *Session) Convert(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	base, target := s.state.BaseCurrency, s.state.TargetCurrency
	amount, ok := parseAmount(s.state.Amount)
	if !ok {
		s.state.Conversion = StatusInvalidAmount
		s.mu.Unlock()
		return StatusInvalidAmount, nil
	}
	s.mu.Unlock()

	rates, err := s.rates.Latest(ctx, base, target)
	if err != nil {
		s.logger.Error("Error converting currency",
			zap.String("base", base),
			zap.String("target", target),
			zap.Error(err),
		)
		return s.conversionStatus(), err
	}

	status := StatusRateUnavailable
	if r, found := rates[target]; found && r != 0 {
		converted := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(r))
		status = fmt.Sprintf("%s %s", converted.StringFixed(2), target)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.logger.Debug("Dropping stale conversion result", zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return s.state.Conversion, nil
	}
	s.state.Conversion = status
	return status, nil
}

func (s *Session) conversionStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Conversion
}

// FetchHistoricalDefault looks up the historical rate on the configured date.
func (s *Session) FetchHistoricalDefault(ctx context.Context) string {
	return s.FetchHistorical(ctx, s.historicalDate)
}

// FetchHistorical looks up the base→target rate on date (YYYY-MM-DD) and
// returns the historical status. Failures become part of the status text.
func (s *Session) FetchHistorical(ctx context.Context, date string) string {
	s.mu.Lock()
	base, target := s.state.BaseCurrency, s.state.TargetCurrency
	s.mu.Unlock()

	s.logger.Debug("Fetching historical rates",
		zap.String("date", date),
		zap.String("base", base),
	)

	status, err := s.historicalStatus(ctx, date, base, target)
	if err != nil {
		s.logger.Error("Error fetching historical rates", zap.String("date", date), zap.Error(err))
		status = historicalErrorPrefix + err.Error()
	}

	s.mu.Lock()
	s.state.Historical = status
	s.mu.Unlock()
	return status
}

var errNoRatesForDate = errors.New("no rates for requested date in response")

func (s *Session) historicalStatus(ctx context.Context, date, base, target string) (string, error) {
	byDate, err := s.rates.Historical(ctx, date, base)
	if err != nil {
		return "", err
	}
	if byDate == nil {
		return StatusHistoricalUnavailable, nil
	}

	rates, found := byDate[date]
	if !found {
		return "", fmt.Errorf("%w: %s", errNoRatesForDate, date)
	}
	r, found := rates[target]
	if !found || r == 0 {
		return StatusHistoricalUnavailable, nil
	}

	return fmt.Sprintf("Historical exchange rate on %s: 1 %s = %s %s",
		date, base, strconv.FormatFloat(r, 'f', -1, 64), target), nil
}

// SaveFavorite stores the current selection and appends it to the collection.
func (s *Session) SaveFavorite(ctx context.Context) (*Favorite, error) {
	s.mu.Lock()
	base, target := s.state.BaseCurrency, s.state.TargetCurrency
	s.mu.Unlock()

	s.logger.Info("Saving favorite", zap.String("base", base), zap.String("target", target))
	pair, err := s.favorites.Save(ctx, base, target)
	if err != nil {
		s.logger.Error("Error saving favorite", zap.Error(err))
		return nil, err
	}

	fav := newFavorite(*pair)
	s.mu.Lock()
	s.state.Favorites = append(s.state.Favorites, fav)
	s.mu.Unlock()
	return &fav, nil
}

// LoadFavorites appends every stored favorite to the collection.
func (s *Session) LoadFavorites(ctx context.Context) error {
	pairs, err := s.favorites.List(ctx)
	if err != nil {
		s.logger.Error("Error fetching favorites", zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pair := range pairs {
		s.state.Favorites = append(s.state.Favorites, newFavorite(pair))
	}
	return nil
}

// SelectFavorite applies the i-th favorite to the selection and converts.
func (s *Session) SelectFavorite(ctx context.Context, i int) (string, error) {
	s.mu.Lock()
	if i < 0 || i >= len(s.state.Favorites) {
		n := len(s.state.Favorites)
		s.mu.Unlock()
		return "", fmt.Errorf("favorite %d out of range [0, %d)", i, n)
	}
	pair := s.state.Favorites[i].Pair
	s.state.BaseCurrency = pair.BaseCurrency
	s.state.TargetCurrency = pair.TargetCurrency
	s.mu.Unlock()

	return s.Convert(ctx)
}

// FetchStatus logs the rate API status document.
func (s *Session) FetchStatus(ctx context.Context) error {
	status, err := s.rates.Status(ctx)
	if err != nil {
		s.logger.Error("Error fetching API status", zap.Error(err))
		return err
	}
	s.logger.Info("API status", zap.Any("status", status))
	return nil
}

func newFavorite(pair models.FavoritePair) Favorite {
	return Favorite{
		Pair:  pair,
		Label: pair.BaseCurrency + "/" + pair.TargetCurrency,
	}
}
