package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"booksearch/internal/model"
)

// DefaultServerURL 默认服务器地址
const DefaultServerURL = "http://localhost:8080"

// 服务端接口路径
const (
	EndpointSearch  = "/api/v1/functions/search"
	EndpointLookup  = "/api/v1/functions/lookup"
	EndpointSimilar = "/api/v1/functions/similar"
	EndpointHealth  = "/api/v1/health"
)

// Client HTTP 客户端，用于与 booksearch 服务通信
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient 创建新的 HTTP 客户端
func NewClient(serverURL string) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GetServerURL 返回服务器 URL
func (c *Client) GetServerURL() string {
	return c.serverURL
}

// envelope 服务端统一响应
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// SearchData 查询结果
type SearchData struct {
	RequestID      string             `json:"request_id"`
	Operation      string             `json:"operation"`
	CanonicalQuery string             `json:"canonical_query"`
	Timestamp      string             `json:"timestamp"`
	Result         model.SearchResult `json:"result"`
}

// ServerError 服务端返回的错误响应
type ServerError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Message, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// PostJSONAndUnmarshal 发送 POST 请求并把 data 字段解析到 result
func (c *Client) PostJSONAndUnmarshal(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	// 序列化请求体
	var jsonData []byte
	var err error
	if body != nil {
		jsonData, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	url := c.serverURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// GetAndUnmarshal 发送 GET 请求并把 data 字段解析到 result
func (c *Client) GetAndUnmarshal(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &ServerError{StatusCode: resp.StatusCode, Message: "HTTP error", Detail: strings.TrimSpace(string(bodyBytes))}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// 检查 HTTP 状态码
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{StatusCode: resp.StatusCode, Message: env.Message, Detail: env.Error}
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}
	return nil
}

// Search 关键词搜索
func (c *Client) Search(ctx context.Context, keywords string) (*SearchData, error) {
	var data SearchData
	if err := c.PostJSONAndUnmarshal(ctx, EndpointSearch, map[string]string{"keywords": keywords}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Lookup 按 ASIN 或 ISBN 查询详情
func (c *Client) Lookup(ctx context.Context, idType, itemID string) (*SearchData, error) {
	var data SearchData
	body := map[string]string{"id_type": idType, "item_id": itemID}
	if err := c.PostJSONAndUnmarshal(ctx, EndpointLookup, body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Similar 查询相似图书
func (c *Client) Similar(ctx context.Context, idType, itemID string) (*SearchData, error) {
	var data SearchData
	body := map[string]string{"id_type": idType, "item_id": itemID}
	if err := c.PostJSONAndUnmarshal(ctx, EndpointSimilar, body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Health 查询服务状态
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := c.GetAndUnmarshal(ctx, EndpointHealth, &data); err != nil {
		return nil, err
	}
	return data, nil
}
