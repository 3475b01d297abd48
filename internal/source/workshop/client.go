// Package workshop is the Steam Workshop catalog client: human-readable
// metadata for items and collections, consumed upstream of the download
// queue.
package workshop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wmm/internal/domain"
)

const defaultBaseURL = "https://api.steampowered.com/ISteamRemoteStorage"

// Client wraps the Steam Remote Storage Web API
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Workshop catalog client
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
}

// SetBaseURL overrides the API endpoint (tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// GetItemDetails fetches catalog metadata for one Workshop item
func (c *Client) GetItemDetails(ctx context.Context, itemID string) (*domain.ItemDetail, error) {
	details, err := c.GetItemsDetails(ctx, []string{itemID})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return &details[0], nil
}

// GetItemsDetails fetches catalog metadata for multiple Workshop items in one
// call. Items the API does not know are omitted from the result.
func (c *Client) GetItemsDetails(ctx context.Context, itemIDs []string) ([]domain.ItemDetail, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	form := url.Values{}
	form.Set("itemcount", strconv.Itoa(len(itemIDs)))
	for i, id := range itemIDs {
		form.Set(fmt.Sprintf("publishedfileids[%d]", i), id)
	}

	var out publishedFileDetailsResponse
	if err := c.post(ctx, "/GetPublishedFileDetails/v1/", form, &out); err != nil {
		return nil, fmt.Errorf("fetching item details: %w", err)
	}
	if out.Response.Result != 1 || out.Response.ResultCount == 0 {
		return nil, domain.ErrItemNotFound
	}

	details := make([]domain.ItemDetail, 0, len(out.Response.PublishedFileDetails))
	for _, d := range out.Response.PublishedFileDetails {
		if d.Result != 1 {
			continue
		}
		details = append(details, toItemDetail(d))
	}
	return details, nil
}

// GetCollectionDetails fetches the member list of a Workshop collection
func (c *Client) GetCollectionDetails(ctx context.Context, collectionID string) ([]string, error) {
	form := url.Values{}
	form.Set("collectioncount", "1")
	form.Set("publishedfileids[0]", collectionID)

	var out collectionDetailsResponse
	if err := c.post(ctx, "/GetCollectionDetails/v1/", form, &out); err != nil {
		return nil, fmt.Errorf("fetching collection details: %w", err)
	}
	if out.Response.Result != 1 || len(out.Response.CollectionDetails) == 0 {
		return nil, domain.ErrCollectionNotFound
	}
	col := out.Response.CollectionDetails[0]
	if col.Result != 1 {
		return nil, domain.ErrCollectionNotFound
	}

	ids := make([]string, 0, len(col.Children))
	for _, child := range col.Children {
		ids = append(ids, child.PublishedFileID)
	}
	return ids, nil
}

func toItemDetail(d publishedFileDetail) domain.ItemDetail {
	size, _ := d.FileSize.Int64()
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, t.Tag)
	}
	detail := domain.ItemDetail{
		ID:           d.PublishedFileID,
		Name:         d.Title,
		Author:       d.Creator,
		Description:  d.Description,
		ThumbnailURL: d.PreviewURL,
		SizeBytes:    size,
		Tags:         tags,
	}
	if d.TimeCreated > 0 {
		detail.TimeCreated = time.Unix(d.TimeCreated, 0)
	}
	if d.TimeUpdated > 0 {
		detail.TimeUpdated = time.Unix(d.TimeUpdated, 0)
	}
	return detail
}
