package favorites

import (
	"context"
	"fmt"

	"currency-converter-go/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const favoritesPath = "/api/favorites"

// ClientInterface is what the conversion client needs from the favorites API.
type ClientInterface interface {
	List(ctx context.Context) ([]models.FavoritePair, error)
	Save(ctx context.Context, baseCurrency, targetCurrency string) (*models.FavoritePair, error)
}

// Client talks to the favorites HTTP API.
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a client for the favorites API served at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL),
		logger: logger.Named("favorites-client"),
	}
}

type saveRequest struct {
	BaseCurrency   string `json:"baseCurrency"`
	TargetCurrency string `json:"targetCurrency"`
}

// List fetches every stored favorite pair.
func (c *Client) List(ctx context.Context) ([]models.FavoritePair, error) {
	var favorites []models.FavoritePair

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&favorites).
		Get(favoritesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to list favorites: request failed with status %s: %s", resp.Status(), resp.String())
	}

	return favorites, nil
}

// Save stores a new pair and returns the record assigned by the server.
func (c *Client) Save(ctx context.Context, baseCurrency, targetCurrency string) (*models.FavoritePair, error) {
	c.logger.Debug("Saving favorite",
		zap.String("base", baseCurrency),
		zap.String("target", targetCurrency),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(saveRequest{BaseCurrency: baseCurrency, TargetCurrency: targetCurrency}).
		SetResult(&models.FavoritePair{}).
		Post(favoritesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to save favorite: request failed with status %s: %s", resp.Status(), resp.String())
	}

	return resp.Result().(*models.FavoritePair), nil
}
