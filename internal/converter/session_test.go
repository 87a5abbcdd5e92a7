package converter

import (
	"context"
	"errors"
	"testing"

	"currency-converter-go/internal/models"
	"currency-converter-go/internal/rateapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRateClient is a mock implementation of rateapi.ClientInterface.
type MockRateClient struct {
	mock.Mock
}

func (m *MockRateClient) Currencies(ctx context.Context) (map[string]rateapi.Currency, error) {
	args := m.Called()
	return args.Get(0).(map[string]rateapi.Currency), args.Error(1)
}

func (m *MockRateClient) Latest(ctx context.Context, base string, targets ...string) (map[string]float64, error) {
	args := m.Called(base, targets)
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockRateClient) Historical(ctx context.Context, date, base string, targets ...string) (map[string]map[string]float64, error) {
	args := m.Called(date, base)
	return args.Get(0).(map[string]map[string]float64), args.Error(1)
}

func (m *MockRateClient) Status(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called()
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

// MockFavoritesClient is a mock implementation of favorites.ClientInterface.
type MockFavoritesClient struct {
	mock.Mock
}

func (m *MockFavoritesClient) List(ctx context.Context) ([]models.FavoritePair, error) {
	args := m.Called()
	return args.Get(0).([]models.FavoritePair), args.Error(1)
}

func (m *MockFavoritesClient) Save(ctx context.Context, base, target string) (*models.FavoritePair, error) {
	args := m.Called(base, target)
	return args.Get(0).(*models.FavoritePair), args.Error(1)
}

func setupSession() (*Session, *MockRateClient, *MockFavoritesClient) {
	rates := new(MockRateClient)
	favs := new(MockFavoritesClient)
	return NewSession(zap.NewNop(), rates, favs, "2024-07-10"), rates, favs
}

// withSelection sets state directly so no conversion is triggered.
func withSelection(s *Session, base, target, amount string) {
	s.state.BaseCurrency = base
	s.state.TargetCurrency = target
	s.state.Amount = amount
}

func TestConvert_InvalidAmount(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
	}{
		{"Zero", "0"},
		{"Negative", "-5"},
		{"Empty", ""},
		{"NotANumber", "abc"},
		{"NaN", "NaN"},
		{"Infinity", "Inf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, rates, _ := setupSession()
			withSelection(s, "USD", "EUR", "1")

			status, err := s.SetAmount(context.Background(), tc.amount)

			assert.NoError(t, err)
			assert.Equal(t, StatusInvalidAmount, status)
			assert.Equal(t, StatusInvalidAmount, s.Snapshot().Conversion)
			rates.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
		})
	}
}

func TestConvert_Success(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "USD", "EUR", "100")
	rates.On("Latest", "USD", []string{"EUR"}).Return(map[string]float64{"EUR": 0.9}, nil)

	status, err := s.Convert(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "90.00 EUR", status)
	assert.Equal(t, "90.00 EUR", s.Snapshot().Conversion)
	rates.AssertExpectations(t)
}

func TestConvert_Rounding(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "USD", "JPY", "3")
	rates.On("Latest", "USD", []string{"JPY"}).Return(map[string]float64{"JPY": 161.2345}, nil)

	status, err := s.Convert(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "483.70 JPY", status)
}

func TestConvert_RoundsHalfAwayFromZero(t *testing.T) {
	// The float nearest 1.005 sits just below it; the decimal product still rounds up.
	s, rates, _ := setupSession()
	withSelection(s, "USD", "USD", "1.005")
	rates.On("Latest", "USD", []string{"USD"}).Return(map[string]float64{"USD": 1}, nil)

	status, err := s.Convert(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "1.01 USD", status)
}

func TestConvert_RateMissing(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "USD", "EUR", "100")
	rates.On("Latest", "USD", []string{"EUR"}).Return(map[string]float64{"GBP": 0.78}, nil)

	status, err := s.Convert(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StatusRateUnavailable, status)
}

func TestConvert_RequestFailureKeepsStatus(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "USD", "EUR", "100")
	s.state.Conversion = "42.00 EUR"
	rates.On("Latest", "USD", []string{"EUR"}).Return(map[string]float64(nil), errors.New("network down"))

	status, err := s.Convert(context.Background())

	assert.Error(t, err)
	assert.Equal(t, "42.00 EUR", status)
	assert.Equal(t, "42.00 EUR", s.Snapshot().Conversion)
}

func TestConvert_StaleResultDropped(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "USD", "EUR", "100")

	// While the first request is in flight the amount becomes invalid.
	rates.On("Latest", "USD", []string{"EUR"}).
		Run(func(args mock.Arguments) {
			s.mu.Lock()
			s.state.Amount = "-1"
			s.mu.Unlock()
			_, _ = s.Convert(context.Background())
		}).
		Return(map[string]float64{"EUR": 0.9}, nil).Once()

	status, err := s.Convert(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StatusInvalidAmount, status)
	assert.Equal(t, StatusInvalidAmount, s.Snapshot().Conversion)
}

func TestSetBaseAndTarget_TriggerConvert(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "USD", "EUR", "10")
	rates.On("Latest", "GBP", []string{"EUR"}).Return(map[string]float64{"EUR": 1.2}, nil).Once()
	rates.On("Latest", "GBP", []string{"CHF"}).Return(map[string]float64{"CHF": 1.1}, nil).Once()

	status, err := s.SetBase(context.Background(), "GBP")
	require.NoError(t, err)
	assert.Equal(t, "12.00 EUR", status)

	status, err = s.SetTarget(context.Background(), "CHF")
	require.NoError(t, err)
	assert.Equal(t, "11.00 CHF", status)
	rates.AssertExpectations(t)
}

func TestLoadCurrencies(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s, rates, _ := setupSession()
		rates.On("Currencies").Return(map[string]rateapi.Currency{
			"USD": {Code: "USD"},
			"EUR": {Code: "EUR"},
			"JPY": {Code: "JPY"},
		}, nil)

		err := s.LoadCurrencies(context.Background())

		require.NoError(t, err)
		st := s.Snapshot()
		assert.Equal(t, []string{"EUR", "JPY", "USD"}, st.BaseOptions)
		assert.Equal(t, []string{"EUR", "JPY", "USD"}, st.TargetOptions)
		assert.Equal(t, "EUR", st.BaseCurrency)
		assert.Equal(t, "EUR", st.TargetCurrency)

		// The two option lists are independent copies.
		s.state.BaseOptions[0] = "XXX"
		assert.Equal(t, "EUR", s.state.TargetOptions[0])
	})

	t.Run("Failure", func(t *testing.T) {
		s, rates, _ := setupSession()
		rates.On("Currencies").Return(map[string]rateapi.Currency(nil), errors.New("API down"))

		err := s.LoadCurrencies(context.Background())

		assert.Error(t, err)
		assert.Empty(t, s.Snapshot().BaseOptions)
		assert.Empty(t, s.Snapshot().TargetOptions)
	})
}

func TestFetchHistorical(t *testing.T) {
	testCases := []struct {
		name     string
		response map[string]map[string]float64
		err      error
		expected string
	}{
		{
			name:     "Found",
			response: map[string]map[string]float64{"2024-07-10": {"EUR": 0.9234}},
			expected: "Historical exchange rate on 2024-07-10: 1 USD = 0.9234 EUR",
		},
		{
			name:     "TargetMissing",
			response: map[string]map[string]float64{"2024-07-10": {"GBP": 0.78}},
			expected: StatusHistoricalUnavailable,
		},
		{
			name:     "NoDataField",
			response: nil,
			expected: StatusHistoricalUnavailable,
		},
		{
			name:     "EmptyData",
			response: map[string]map[string]float64{},
			expected: "Error fetching historical rates: no rates for requested date in response: 2024-07-10",
		},
		{
			name:     "DateMissing",
			response: map[string]map[string]float64{"2024-07-11": {"EUR": 0.9}},
			expected: "Error fetching historical rates: no rates for requested date in response: 2024-07-10",
		},
		{
			name:     "RequestFailed",
			response: nil,
			err:      errors.New("request failed with status 422"),
			expected: "Error fetching historical rates: request failed with status 422",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, rates, _ := setupSession()
			withSelection(s, "USD", "EUR", "1")
			rates.On("Historical", "2024-07-10", "USD").Return(tc.response, tc.err)

			status := s.FetchHistoricalDefault(context.Background())

			assert.Equal(t, tc.expected, status)
			assert.Equal(t, tc.expected, s.Snapshot().Historical)
			rates.AssertExpectations(t)
		})
	}
}

func TestFetchHistorical_ExplicitDate(t *testing.T) {
	s, rates, _ := setupSession()
	withSelection(s, "EUR", "USD", "1")
	rates.On("Historical", "2023-01-02", "EUR").
		Return(map[string]map[string]float64{"2023-01-02": {"USD": 1.07}}, nil)

	status := s.FetchHistorical(context.Background(), "2023-01-02")

	assert.Equal(t, "Historical exchange rate on 2023-01-02: 1 EUR = 1.07 USD", status)
}

func TestSaveFavorite(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s, _, favs := setupSession()
		withSelection(s, "USD", "EUR", "1")
		favs.On("Save", "USD", "EUR").
			Return(&models.FavoritePair{ID: 3, BaseCurrency: "USD", TargetCurrency: "EUR"}, nil)

		fav, err := s.SaveFavorite(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "USD/EUR", fav.Label)
		require.Len(t, s.Snapshot().Favorites, 1)
		assert.Equal(t, uint(3), s.Snapshot().Favorites[0].Pair.ID)
	})

	t.Run("Failure", func(t *testing.T) {
		s, _, favs := setupSession()
		withSelection(s, "USD", "EUR", "1")
		favs.On("Save", "USD", "EUR").Return((*models.FavoritePair)(nil), errors.New("500"))

		fav, err := s.SaveFavorite(context.Background())

		assert.Error(t, err)
		assert.Nil(t, fav)
		assert.Empty(t, s.Snapshot().Favorites)
	})
}

func TestLoadAndSelectFavorite(t *testing.T) {
	s, rates, favs := setupSession()
	withSelection(s, "USD", "EUR", "100")
	favs.On("List").Return([]models.FavoritePair{
		{ID: 1, BaseCurrency: "USD", TargetCurrency: "EUR"},
		{ID: 2, BaseCurrency: "GBP", TargetCurrency: "JPY"},
	}, nil)
	rates.On("Latest", "GBP", []string{"JPY"}).Return(map[string]float64{"JPY": 200}, nil)

	require.NoError(t, s.LoadFavorites(context.Background()))
	status, err := s.SelectFavorite(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "20000.00 JPY", status)
	st := s.Snapshot()
	assert.Equal(t, "GBP", st.BaseCurrency)
	assert.Equal(t, "JPY", st.TargetCurrency)
	assert.Len(t, st.Favorites, 2)

	_, err = s.SelectFavorite(context.Background(), 5)
	assert.Error(t, err)
}

func TestStart_RunsAllStartupOperations(t *testing.T) {
	s, rates, favs := setupSession()
	rates.On("Currencies").Return(map[string]rateapi.Currency{"USD": {}}, nil)
	rates.On("Status").Return(map[string]interface{}{}, errors.New("status unavailable"))
	favs.On("List").Return([]models.FavoritePair{{ID: 1, BaseCurrency: "USD", TargetCurrency: "EUR"}}, nil)

	s.Start(context.Background())

	st := s.Snapshot()
	assert.Equal(t, []string{"USD"}, st.BaseOptions)
	assert.Len(t, st.Favorites, 1)
	rates.AssertExpectations(t)
	favs.AssertExpectations(t)
}
