package client

// http_client.go talks to the restaurant REST API on behalf of the CLI.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pwarestaurants/internal/http-api/dto"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// RatingRequest is the form submitted to POST /restaurant/rating.
type RatingRequest struct {
	RestaurantName string
	Rating         float64
	Comment        string
	Description    *string
	IconPath       string
}

// UpdateRequest carries the fields for PATCH /restaurant/:id. Nil fields are not sent.
type UpdateRequest struct {
	Name        *string
	Description *string
	IconPath    string
}

type DeleteRatingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) ListRestaurants() ([]dto.RestaurantSummary, error) {
	var result []dto.RestaurantSummary
	if err := c.do(http.MethodGet, "/restaurants", nil, "", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// TopRated asks for the best rated restaurants; limit <= 0 lets the server pick.
func (c *HTTPClient) TopRated(limit int) ([]dto.RestaurantResponse, error) {
	path := "/restaurants/top"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var result []dto.RestaurantResponse
	if err := c.do(http.MethodGet, path, nil, "", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) GetRestaurant(id int64) (*dto.RestaurantDetailResponse, error) {
	var result dto.RestaurantDetailResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/restaurant/%d", id), nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SubmitRating(req *RatingRequest) (*dto.SubmitRatingResponse, error) {
	fields := map[string]string{
		"restaurant_name": req.RestaurantName,
		"rating":          strconv.FormatFloat(req.Rating, 'f', -1, 64),
		"comment":         req.Comment,
	}
	if req.Description != nil {
		fields["restaurant_description"] = *req.Description
	}

	body, contentType, err := buildForm(fields, req.IconPath)
	if err != nil {
		return nil, err
	}

	var result dto.SubmitRatingResponse
	if err := c.do(http.MethodPost, "/restaurant/rating", body, contentType, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) UpdateRestaurant(id int64, req *UpdateRequest) (*dto.UpdateRestaurantResponse, error) {
	fields := map[string]string{}
	if req.Name != nil {
		fields["restaurant_name"] = *req.Name
	}
	if req.Description != nil {
		fields["restaurant_description"] = *req.Description
	}

	body, contentType, err := buildForm(fields, req.IconPath)
	if err != nil {
		return nil, err
	}

	var result dto.UpdateRestaurantResponse
	if err := c.do(http.MethodPatch, fmt.Sprintf("/restaurant/%d", id), body, contentType, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteRating removes one rating. The server reads the date from the rest of
// the path after the restaurant id, so its slashes are escaped here.
func (c *HTTPClient) DeleteRating(restaurantID int64, ratingDate string) (*DeleteRatingResponse, error) {
	path := fmt.Sprintf("/rating/%d/%s", restaurantID, url.PathEscape(ratingDate))

	var result DeleteRatingResponse
	if err := c.do(http.MethodDelete, path, nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) do(method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(response.Body).Decode(&apiErr)
		return &APIError{Status: response.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// buildForm encodes fields and an optional icon file as multipart/form-data.
func buildForm(fields map[string]string, iconPath string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if iconPath != "" {
		f, err := os.Open(iconPath)
		if err != nil {
			return nil, "", fmt.Errorf("open icon: %w", err)
		}
		defer f.Close()

		part, err := w.CreateFormFile("icon", filepath.Base(iconPath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("read icon: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
