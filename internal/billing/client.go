package billing

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"server-auditor/internal/models"
)

// APIError is an explicit failure from the billing system: an error result
// or a lookup that matched nothing. It aborts the audit before any portal
// traffic, distinctly from portal failures.
type APIError struct {
	ServerID string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("billing API error for %s: %s", e.ServerID, e.Message)
	}
	return fmt.Sprintf("billing API: no results for %s", e.ServerID)
}

// Client talks to the WHMCS GetClientsProducts endpoint.
type Client struct {
	APIURL     string
	Identifier string
	Secret     string
	HTTPClient *http.Client
}

func NewClient(apiURL, identifier, secret string) *Client {
	// verify=false carried over from the old tooling; the billing box runs
	// an internal certificate.
	tr := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	return &Client{
		APIURL:     apiURL,
		Identifier: identifier,
		Secret:     secret,
		HTTPClient: &http.Client{Transport: tr, Timeout: 20 * time.Second},
	}
}

// Wire shapes. WHMCS serializes a single element as a bare object and
// several as an array, so every nested collection goes through a
// RawMessage probe that always yields a slice. Nothing downstream ever
// sees the object-or-array ambiguity.

type apiResponse struct {
	Result       string `json:"result"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalresults"`
	Products     struct {
		Product json.RawMessage `json:"product"`
	} `json:"products"`
}

type wireProduct struct {
	ID            json.Number `json:"id"`
	Status        string      `json:"status"`
	NS1           string      `json:"ns1"`
	DedicatedIP   string      `json:"dedicatedip"`
	ConfigOptions struct {
		ConfigOption json.RawMessage `json:"configoption"`
	} `json:"configoptions"`
}

type wireOption struct {
	Option string `json:"option"`
	Value  string `json:"value"`
}

// GetProducts looks up every product billed against the server id.
func (c *Client) GetProducts(ctx context.Context, serverID string) ([]models.BillingProduct, error) {
	form := url.Values{
		"action":       {"GetClientsProducts"},
		"identifier":   {c.Identifier},
		"secret":       {c.Secret},
		"responsetype": {"json"},
		"domain":       {serverID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing request: %w", err)
	}
	defer res.Body.Close()

	var payload apiResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("billing response: %w", err)
	}

	if payload.Result == "error" {
		return nil, &APIError{ServerID: serverID, Message: payload.Message}
	}
	if payload.TotalResults == 0 {
		return nil, &APIError{ServerID: serverID}
	}

	var wire []wireProduct
	if err := unmarshalOneOrMany(payload.Products.Product, &wire); err != nil {
		return nil, fmt.Errorf("billing products: %w", err)
	}

	products := make([]models.BillingProduct, 0, len(wire))
	for _, w := range wire {
		var opts []wireOption
		if err := unmarshalOneOrMany(w.ConfigOptions.ConfigOption, &opts); err != nil {
			opts = nil
		}
		optMap := make(map[string]string, len(opts))
		for _, o := range opts {
			optMap[o.Option] = o.Value
		}

		id, _ := w.ID.Int64()
		products = append(products, models.BillingProduct{
			ID:            int(id),
			Status:        w.Status,
			NS1:           w.NS1,
			DedicatedIP:   w.DedicatedIP,
			ConfigOptions: optMap,
		})
	}

	if len(products) == 0 {
		return nil, &APIError{ServerID: serverID}
	}
	return products, nil
}

// SelectProduct picks the product to audit: a pending order (the one being
// provisioned right now) beats an active service, which beats whatever came
// first. When active service exists alongside, the caller gets a warning
// so the operator knows the audit skipped a live product.
func SelectProduct(products []models.BillingProduct) (models.BillingProduct, []string) {
	var warnings []string
	for _, p := range products {
		if strings.EqualFold(p.Status, "active") {
			warnings = append(warnings,
				fmt.Sprintf("active product #%d exists for this server", p.ID))
		}
	}

	for _, p := range products {
		if strings.EqualFold(p.Status, "pending") {
			return p, warnings
		}
	}
	for _, p := range products {
		if strings.EqualFold(p.Status, "active") {
			return p, warnings
		}
	}
	return products[0], warnings
}

// unmarshalOneOrMany decodes raw as either a single T or a []T into dst.
func unmarshalOneOrMany[T any](raw json.RawMessage, dst *[]T) error {
	if len(raw) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(raw, dst)
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return err
	}
	*dst = append(*dst, one)
	return nil
}
