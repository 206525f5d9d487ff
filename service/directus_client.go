package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"kepka-migrator/models"
)

// DirectusClient talks to the destination CMS REST API
type DirectusClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewDirectusClient creates a new DirectusClient
func NewDirectusClient(client *http.Client, baseURL, token string) *DirectusClient {
	return &DirectusClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Ensure DirectusClient implements DirectusClientInterface
var _ DirectusClientInterface = (*DirectusClient)(nil)

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// UploadFile sends the file as a multipart POST to /files and returns the new file id
func (c *DirectusClient) UploadFile(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/files", nil, &body, writer.FormDataContentType(), http.StatusOK)
	if err != nil {
		return "", err
	}

	var item models.Item
	if err := decodeData(raw, &item); err != nil {
		return "", err
	}
	if item.ID.IsZero() {
		return "", fmt.Errorf("upload %s: %w", fileName, ErrMissingID)
	}
	return item.ID.String(), nil
}

// ListItems returns the items of a collection whose field equals value
func (c *DirectusClient) ListItems(ctx context.Context, collection, field, value string) ([]models.Item, error) {
	query := url.Values{}
	query.Set(fmt.Sprintf("filter[%s][_eq]", field), value)

	raw, err := c.do(ctx, http.MethodGet, itemsPath(collection), query, nil, "", http.StatusOK)
	if err != nil {
		return nil, err
	}

	var items []models.Item
	if err := decodeData(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem creates an item and returns it as stored by the destination
func (c *DirectusClient) CreateItem(ctx context.Context, collection string, payload map[string]any) (models.Item, error) {
	return c.writeItem(ctx, http.MethodPost, itemsPath(collection), payload)
}

// UpdateItem patches an existing item
func (c *DirectusClient) UpdateItem(ctx context.Context, collection string, id models.ItemID, payload map[string]any) (models.Item, error) {
	return c.writeItem(ctx, http.MethodPatch, itemPath(collection, id), payload)
}

// DeleteItem deletes an item. The destination answers 204 on success.
func (c *DirectusClient) DeleteItem(ctx context.Context, collection string, id models.ItemID) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(collection, id), nil, nil, "", http.StatusNoContent)
	return err
}

func (c *DirectusClient) writeItem(ctx context.Context, method, path string, payload map[string]any) (models.Item, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	raw, err := c.do(ctx, method, path, nil, bytes.NewReader(body), "application/json", http.StatusOK)
	if err != nil {
		return models.Item{}, err
	}

	var item models.Item
	if err := decodeData(raw, &item); err != nil {
		return models.Item{}, err
	}
	if item.ID.IsZero() {
		return models.Item{}, fmt.Errorf("%s %s: %w", method, path, ErrMissingID)
	}
	return item, nil
}

// do executes a request and returns the body when the status matches want
func (c *DirectusClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, want int) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != want {
		return nil, &StatusError{Method: method, URL: fullURL, Code: resp.StatusCode, Body: truncateBody(respBody)}
	}
	return respBody, nil
}

func decodeData(raw []byte, target any) error {
	var env dataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("failed to decode response: missing data")
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func itemsPath(collection string) string {
	return "/items/" + url.PathEscape(collection)
}

func itemPath(collection string, id models.ItemID) string {
	return itemsPath(collection) + "/" + url.PathEscape(id.String())
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
