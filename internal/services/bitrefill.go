package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// GiftCardAPI is the provider surface the redemption flow needs. The full
// *ServiceBitrefill client satisfies it; tests use a scripted fake.
type GiftCardAPI interface {
	CreateOrder(ctx context.Context, req GiftCardOrderRequest) (*GiftCardOrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*GiftCardOrderResponse, error)
	PurchaseWithBalance(ctx context.Context, orderID string) (*GiftCardOrderResponse, error)
	GetAccountBalance(ctx context.Context) (*AccountBalance, error)
}

type GiftCardOrderRequest struct {
	ProductID  string `json:"product_id"`
	Value      int    `json:"value"`
	Currency   string `json:"currency"`
	Email      string `json:"email,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

type GiftCardOrderResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Expired        bool   `json:"expired"`
	Value          int    `json:"value"`
	Currency       string `json:"currency"`
	ProductID      string `json:"product_id"`
	RedemptionCode string `json:"redemption_code,omitempty"`
	RedemptionLink string `json:"redemption_link,omitempty"`
}

type AccountBalance struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

type GiftCardProduct struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	MinValue int    `json:"min_value"`
	MaxValue int    `json:"max_value"`
}

// ServiceBitrefill talks to the Bitrefill REST API with Basic auth.
type ServiceBitrefill struct {
	*ServiceHTTP
	baseURL   string
	apiKey    string
	apiSecret string
}

func NewServiceBitrefill(container *do.Injector) (*ServiceBitrefill, error) {
	vs := do.MustInvokeNamed[map[string]string](container, "envs")

	baseURL := vs["BITREFILL_API_BASE_URL"]
	if baseURL == "" {
		baseURL = BITREFILL_API_BASE_URL
	}

	return &ServiceBitrefill{&ServiceHTTP{}, baseURL, vs["BITREFILL_API_KEY"], vs["BITREFILL_API_SECRET"]}, nil
}

func (service *ServiceBitrefill) headers() http.Header {
	credentials := base64.StdEncoding.EncodeToString([]byte(service.apiKey + ":" + service.apiSecret))
	return http.Header{
		"Authorization": []string{"Basic " + credentials},
		"Content-Type":  []string{"application/json"},
	}
}

func (service *ServiceBitrefill) CreateOrder(ctx context.Context, req GiftCardOrderRequest) (*GiftCardOrderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := service.httpClient(0).Post(service.baseURL+"/order", bytes.NewReader(payload), service.headers())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer resp.Body.Close()

	return decodeOrderResponse(resp)
}

func (service *ServiceBitrefill) GetOrder(ctx context.Context, orderID string) (*GiftCardOrderResponse, error) {
	resp, err := service.httpClient(0).Get(fmt.Sprintf("%s/order/%s", service.baseURL, orderID), service.headers())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer resp.Body.Close()

	return decodeOrderResponse(resp)
}

func (service *ServiceBitrefill) PurchaseWithBalance(ctx context.Context, orderID string) (*GiftCardOrderResponse, error) {
	resp, err := service.httpClient(0).Post(fmt.Sprintf("%s/purchase/%s", service.baseURL, orderID), bytes.NewReader(nil), service.headers())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer resp.Body.Close()

	return decodeOrderResponse(resp)
}

func (service *ServiceBitrefill) GetAccountBalance(ctx context.Context) (*AccountBalance, error) {
	resp, err := service.httpClient(0).Get(service.baseURL+"/account/balance", service.headers())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorx.Wrap(fmt.Errorf("bitrefill responded %d", resp.StatusCode), errorx.Service)
	}

	var body AccountBalance
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (service *ServiceBitrefill) GetInventory(ctx context.Context) ([]GiftCardProduct, error) {
	resp, err := service.httpClient(0).Get(service.baseURL+"/inventory/gift-cards", service.headers())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorx.Wrap(fmt.Errorf("bitrefill responded %d", resp.StatusCode), errorx.Service)
	}

	var body struct {
		GiftCards []GiftCardProduct `json:"gift_cards"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return body.GiftCards, nil
}

func (service *ServiceBitrefill) GetOrderHistory(ctx context.Context) ([]GiftCardOrderResponse, error) {
	resp, err := service.httpClient(0).Get(service.baseURL+"/orders", service.headers())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorx.Wrap(fmt.Errorf("bitrefill responded %d", resp.StatusCode), errorx.Service)
	}

	var body struct {
		Orders []GiftCardOrderResponse `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return body.Orders, nil
}

func decodeOrderResponse(resp *http.Response) (*GiftCardOrderResponse, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorx.Wrap(fmt.Errorf("bitrefill responded %d", resp.StatusCode), errorx.Service)
	}

	var body GiftCardOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return &body, nil
}
