// Package directory bao bọc dịch vụ danh bạ người dùng / tổ chức (peer lookup, profile).
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zimmerman-team/dx.server/core/logger"
)

// Profile là hồ sơ người dùng trong danh bạ
type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	LoginsCount int64  `json:"loginsCount"`
}

// Client gọi HTTP tới dịch vụ danh bạ. Base URL và timeout được inject khi khởi tạo,
// không đọc environment lúc gọi.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient tạo mới directory client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPeers lấy danh sách id các thành viên cùng tổ chức với principal.
// Mọi lỗi transport/decode và mọi status ngoài 2xx trả về error; caller quyết định
// hạ cấp thành tập peer rỗng.
func (c *Client) GetPeers(ctx context.Context, principal string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/peers", c.baseURL, url.PathEscape(principal))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var peers []string
	if err := json.NewDecoder(resp.Body).Decode(&peers); err != nil {
		return nil, err
	}

	return peers, nil
}

// GetProfile lấy hồ sơ người dùng (name, email, loginsCount)
func (c *Client) GetProfile(ctx context.Context, principal string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(principal))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// UpdateProfile cập nhật tên hiển thị của người dùng trong danh bạ
func (c *Client) UpdateProfile(ctx context.Context, principal string, name string) error {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(principal))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewBuffer(payload))
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
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	return nil
}

// DeleteUser xóa tài khoản khỏi danh bạ. Best-effort: caller log lỗi, không propagate.
func (c *Client) DeleteUser(ctx context.Context, principal string) error {
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(principal))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	logger.GetAppLogger().WithField("principal", principal).Info("Đã xóa tài khoản khỏi danh bạ")
	return nil
}
