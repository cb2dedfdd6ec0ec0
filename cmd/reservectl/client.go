package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"table-reservation-service/internal/interface/rest"
)

const reservationsPath = "/api/reservations"

type apiClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

func newAPIClient(addr, token string) (*apiClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("service URL not set")
	}
	base, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("service URL invalid: %v", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("service URL %q must include scheme and host", addr)
	}

	return &apiClient{
		base:  base,
		token: token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// do sends body as JSON and decodes a 2xx response into out
func (c *apiClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %v", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body rest.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	msg := fmt.Sprintf("%s (%s)", body.Message, body.Code)
	for _, v := range body.Errors {
		msg += fmt.Sprintf("\n  %s: %s", v.Field, v.Message)
	}
	return fmt.Errorf("%s", msg)
}

func (c *apiClient) list(ctx context.Context, path string) ([]rest.ReservationResponse, error) {
	var out []rest.ReservationResponse
	err := c.do(ctx, http.MethodGet, reservationsPath+path, nil, &out)
	return out, err
}

func (c *apiClient) one(ctx context.Context, method, path string, body interface{}) (*rest.ReservationResponse, error) {
	var out rest.ReservationResponse
	if err := c.do(ctx, method, reservationsPath+path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
