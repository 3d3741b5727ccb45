// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pkazmin/go-media-cache/models"
)

// HTTPClientConfig configures one HTTP-backed source authority.
type HTTPClientConfig struct {
	Authority string
	BaseURL   string
	Timeout   time.Duration
}

type httpClient struct {
	authority string
	client    *resty.Client
}

// NewHTTPClient constructs a [Client] speaking the authority's REST page
// protocol. Returns an error if the base URL is empty or unparsable.
func NewHTTPClient(cfg HTTPClientConfig) (Client, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout)

	return &httpClient{authority: cfg.Authority, client: cli}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpClient) Authority() string {
	return h.authority
}

// pageEnvelope is the wire shape shared by all paged endpoints. The items
// payload is decoded per endpoint.
type pageEnvelope struct {
	Items        json.RawMessage `json:"items"`
	NextToken    string          `json:"next_token"`
	CollectionID string          `json:"collection_id"`
}

func pageParams(req PageRequest) map[string]string {
	params := map[string]string{}
	if req.PageSize > 0 {
		params["page_size"] = strconv.Itoa(req.PageSize)
	}
	if req.ResumeToken != "" {
		params["resume_token"] = req.ResumeToken
	}
	if len(req.MimeTypes) > 0 {
		params["mime_types"] = models.NormalizedMimeTypes(req.MimeTypes)
	}
	return params
}

func (h *httpClient) fetchPage(ctx context.Context, path string, params map[string]string) (pageEnvelope, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return pageEnvelope{}, fmt.Errorf("page request %s: %w", path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return pageEnvelope{}, err
	}

	var envelope pageEnvelope
	if err = json.Unmarshal(resp.Body(), &envelope); err != nil {
		return pageEnvelope{}, fmt.Errorf("decode page response %s: %w", path, err)
	}

	return envelope, nil
}

func (h *httpClient) FetchMedia(ctx context.Context, req PageRequest) (MediaPage, error) {
	envelope, err := h.fetchPage(ctx, "/api/media", pageParams(req))
	if err != nil {
		return MediaPage{}, err
	}

	var items []models.MediaItem
	if len(envelope.Items) > 0 {
		if err = json.Unmarshal(envelope.Items, &items); err != nil {
			return MediaPage{}, fmt.Errorf("decode media items: %w", err)
		}
	}

	return MediaPage{
		Items:        items,
		NextToken:    envelope.NextToken,
		CollectionID: envelope.CollectionID,
	}, nil
}

func (h *httpClient) FetchAlbumMedia(ctx context.Context, albumID string, req PageRequest) (AlbumMediaPage, error) {
	envelope, err := h.fetchPage(ctx, "/api/albums/"+url.PathEscape(albumID)+"/media", pageParams(req))
	if err != nil {
		return AlbumMediaPage{}, err
	}

	var items []models.AlbumMediaItem
	if len(envelope.Items) > 0 {
		if err = json.Unmarshal(envelope.Items, &items); err != nil {
			return AlbumMediaPage{}, fmt.Errorf("decode album media items: %w", err)
		}
	}

	return AlbumMediaPage{
		Items:        items,
		NextToken:    envelope.NextToken,
		CollectionID: envelope.CollectionID,
	}, nil
}

func (h *httpClient) SearchMedia(ctx context.Context, query SearchQuery, req PageRequest) (SearchResultsPage, error) {
	params := pageParams(req)
	if query.Text != "" {
		params["q"] = query.Text
	}
	if query.MediaSetID != "" {
		params["media_set_id"] = query.MediaSetID
	}
	if query.SuggestionType != "" {
		params["suggestion_type"] = string(query.SuggestionType)
	}

	envelope, err := h.fetchPage(ctx, "/api/search", params)
	if err != nil {
		return SearchResultsPage{}, err
	}

	var items []models.SearchResultItem
	if len(envelope.Items) > 0 {
		if err = json.Unmarshal(envelope.Items, &items); err != nil {
			return SearchResultsPage{}, fmt.Errorf("decode search result items: %w", err)
		}
	}

	return SearchResultsPage{
		Items:        items,
		NextToken:    envelope.NextToken,
		CollectionID: envelope.CollectionID,
	}, nil
}

func (h *httpClient) FetchMediaSets(ctx context.Context, categoryID string, req PageRequest) (MediaSetsPage, error) {
	envelope, err := h.fetchPage(ctx, "/api/categories/"+url.PathEscape(categoryID)+"/media-sets", pageParams(req))
	if err != nil {
		return MediaSetsPage{}, err
	}

	var sets []models.MediaSet
	if len(envelope.Items) > 0 {
		if err = json.Unmarshal(envelope.Items, &sets); err != nil {
			return MediaSetsPage{}, fmt.Errorf("decode media sets: %w", err)
		}
	}

	return MediaSetsPage{
		Sets:         sets,
		NextToken:    envelope.NextToken,
		CollectionID: envelope.CollectionID,
	}, nil
}

func (h *httpClient) FetchMediaInMediaSet(ctx context.Context, mediaSetID string, req PageRequest) (MediaInMediaSetPage, error) {
	envelope, err := h.fetchPage(ctx, "/api/media-sets/"+url.PathEscape(mediaSetID)+"/media", pageParams(req))
	if err != nil {
		return MediaInMediaSetPage{}, err
	}

	var items []models.MediaInMediaSetItem
	if len(envelope.Items) > 0 {
		if err = json.Unmarshal(envelope.Items, &items); err != nil {
			return MediaInMediaSetPage{}, fmt.Errorf("decode media set contents: %w", err)
		}
	}

	return MediaInMediaSetPage{
		Items:        items,
		NextToken:    envelope.NextToken,
		CollectionID: envelope.CollectionID,
	}, nil
}

func (h *httpClient) FetchSuggestions(ctx context.Context, prefix string, limit int) ([]models.SearchSuggestion, error) {
	params := map[string]string{}
	if prefix != "" {
		params["prefix"] = prefix
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/api/search/suggestions")
	if err != nil {
		return nil, fmt.Errorf("suggestions request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var suggestions []models.SearchSuggestion
	if err = json.Unmarshal(resp.Body(), &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions response: %w", err)
	}

	return suggestions, nil
}

func (h *httpClient) FetchGrants(ctx context.Context) ([]models.AccessGrant, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/grants")
	if err != nil {
		return nil, fmt.Errorf("grants request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var grants []models.AccessGrant
	if err = json.Unmarshal(resp.Body(), &grants); err != nil {
		return nil, fmt.Errorf("decode grants response: %w", err)
	}

	return grants, nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	if resp.StatusCode() == http.StatusServiceUnavailable {
		return ErrProviderUnavailable
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
}
