// Package backend bao bọc data backend (nơi giữ payload thật của dataset).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DatasetRename là một cặp tên dataset nguồn / tên bản sao gửi cho data backend
type DatasetRename struct {
	DsName    string `json:"ds_name"`
	NewDsName string `json:"new_ds_name"`
}

// Client gọi HTTP tới data backend. Base URL và timeout được inject khi khởi tạo,
// không đọc environment lúc gọi.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient tạo mới backend client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NotifyDatasetDuplication báo cho data backend nhân bản payload của các dataset
// vừa được copy. Gửi một POST duy nhất cho cả batch.
func (c *Client) NotifyDatasetDuplication(ctx context.Context, renames []DatasetRename) error {
	if len(renames) == 0 {
		return nil
	}

	payload, err := json.Marshal(renames)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/duplicate-datasets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("data backend returned status %d", resp.StatusCode)
	}

	return nil
}

// DeleteDataset báo cho data backend xóa payload của một dataset vừa bị xóa
func (c *Client) DeleteDataset(ctx context.Context, datasetID string) error {
	endpoint := fmt.Sprintf("%s/delete-dataset/dx%s", c.baseURL, datasetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("data backend returned status %d", resp.StatusCode)
	}

	return nil
}
