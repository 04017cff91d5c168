// Package sbreport is the operator CLI: it pulls raw notification records from the API and
// aggregates them locally with the same code the mobile dashboard mirrors.
package sbreport

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/NordCoder/StillbirthNotify/internal/report"
)

type Query struct {
	From       string
	To         string
	LocationID int64
}

func (q Query) params() map[string]string {
	p := map[string]string{}
	if q.From != "" {
		p["from"] = q.From
	}
	if q.To != "" {
		p["to"] = q.To
	}
	if q.LocationID > 0 {
		p["location_id"] = strconv.FormatInt(q.LocationID, 10)
	}
	return p
}

type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type Client struct {
	r *resty.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond).
		SetHeader("Accept", "application/json")
	if token != "" {
		r.SetAuthToken(token)
	}
	return &Client{r: r}
}

// Raw fetches /v1/reports/raw for q.
func (c *Client) Raw(ctx context.Context, q Query) ([]report.Record, error) {
	var (
		records []report.Record
		apiErr  apiError
	)
	resp, err := c.r.R().
		SetContext(ctx).
		SetQueryParams(q.params()).
		SetResult(&records).
		SetError(&apiErr).
		Get("/v1/reports/raw")
	if err != nil {
		return nil, fmt.Errorf("fetch raw records: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return nil, fmt.Errorf("api: %s (%d)", apiErr.Error, resp.StatusCode())
		}
		return nil, fmt.Errorf("api: %s", resp.Status())
	}
	return records, nil
}
