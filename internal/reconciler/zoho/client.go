package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/shelfwatch/shelfwatch/internal/reconciler"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// DefaultBaseURL is the Zoho Inventory API endpoint
const DefaultBaseURL = "https://www.zohoapis.eu/inventory/v1"

// expiry dates come back as plain calendar dates
const dateLayout = "2006-01-02"

// Client implements reconciler.RemoteClient against the Zoho Inventory
// REST API. OAuth token exchange and refresh live outside this package;
// the caller supplies a ready access token per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Zoho client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type itemPayload struct {
	ItemID      string  `json:"item_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
	StockOnHand float64 `json:"stock_on_hand"`
	Status      string  `json:"status"`
	ExpiryDate  string  `json:"expiry_date,omitempty"`
}

type listResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Items   []itemPayload `json:"items"`
}

type itemResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Item    *itemPayload `json:"item"`
}

// FetchActiveItems returns the full remote snapshot for the
// organization
func (c *Client) FetchActiveItems(ctx context.Context, creds reconciler.Credentials) ([]reconciler.RemoteItem, error) {
	body, err := c.do(ctx, http.MethodGet, "/items", creds, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode item list: %w", err)
	}

	items := make([]reconciler.RemoteItem, 0, len(resp.Items))
	for _, p := range resp.Items {
		items = append(items, toRemoteItem(p))
	}
	return items, nil
}

// CreateItem creates a remote item and returns it with its assigned id
func (c *Client) CreateItem(ctx context.Context, creds reconciler.Credentials, item reconciler.RemoteItem) (*reconciler.RemoteItem, error) {
	body, err := c.do(ctx, http.MethodPost, "/items", creds, toPayload(item))
	if err != nil {
		return nil, err
	}

	var resp itemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode created item: %w", err)
	}
	if resp.Item == nil {
		return nil, fmt.Errorf("remote returned no item: %s", resp.Message)
	}
	created := toRemoteItem(*resp.Item)
	return &created, nil
}

// UpdateItem pushes local field values to the remote record
func (c *Client) UpdateItem(ctx context.Context, creds reconciler.Credentials, item reconciler.RemoteItem) error {
	_, err := c.do(ctx, http.MethodPut, "/items/"+item.ID, creds, toPayload(item))
	return err
}

// DeactivateItem marks a remote item inactive
func (c *Client) DeactivateItem(ctx context.Context, creds reconciler.Credentials, remoteID string) error {
	_, err := c.do(ctx, http.MethodPost, "/items/"+remoteID+"/inactive", creds, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, creds reconciler.Credentials, payload interface{}) ([]byte, error) {
	tracer := otel.Tracer("zoho-client")
	ctx, span := tracer.Start(ctx, "zoho."+method+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	if creds.OrganizationID != "" {
		url += "?organization_id=" + creds.OrganizationID
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithContext(ctx).Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Remote inventory API error")
		return nil, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	return body, nil
}

func toRemoteItem(p itemPayload) reconciler.RemoteItem {
	item := reconciler.RemoteItem{
		ID:             p.ItemID,
		Name:           p.Name,
		Description:    p.Description,
		Unit:           p.Unit,
		Rate:           p.Rate,
		QuantityOnHand: p.StockOnHand,
		Status:         p.Status,
	}
	if p.ExpiryDate != "" {
		if d, err := time.Parse(dateLayout, p.ExpiryDate); err == nil {
			item.ExpiryDate = &d
		} else {
			logger.Logger.Warn().
				Str("item_id", p.ItemID).
				Str("expiry_date", p.ExpiryDate).
				Msg("Ignoring unparseable remote expiry date")
		}
	}
	return item
}

func toPayload(item reconciler.RemoteItem) itemPayload {
	p := itemPayload{
		ItemID:      item.ID,
		Name:        item.Name,
		Description: item.Description,
		Unit:        item.Unit,
		Rate:        item.Rate,
		StockOnHand: item.QuantityOnHand,
		Status:      item.Status,
	}
	if item.ExpiryDate != nil {
		p.ExpiryDate = item.ExpiryDate.Format(dateLayout)
	}
	return p
}
