package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// UserAgent 请求头中的客户端标识
	UserAgent = "booksearch-client/1.0"

	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay  = 5 * time.Second
	defaultRetryJitter    = 0.25
)

// Client ECS 传输客户端
// 只负责对已签名的 URL 发起 GET 并返回响应体，不做解析
type Client struct {
	httpClient        *http.Client
	maxRetries        int
	backoff           *Backoff
	printQueryURL     bool
	printResponseBody bool
	logger            *zap.Logger
}

// Config API 客户端配置
type Config struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	PrintQueryURL     bool // 以 info 级别打印签名 URL（用于调试）
	PrintResponseBody bool // 打印原始 XML 响应体（用于调试）
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// NewClient 创建新的 API 客户端
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		httpClient:        httpClient,
		maxRetries:        cfg.MaxRetries,
		backoff:           NewBackoff(cfg.RetryBaseDelay, cfg.RetryMaxDelay, defaultRetryJitter),
		printQueryURL:     cfg.PrintQueryURL,
		printResponseBody: cfg.PrintResponseBody,
		logger:            cfg.Logger,
	}
}

// GetRawData 对签名 URL 发起 GET 请求并返回原始响应体
// 暂时性失败（网络错误、429、408、5xx）按退避策略重试
func (c *Client) GetRawData(ctx context.Context, rawURL string) ([]byte, error) {
	if c.printQueryURL && c.logger != nil {
		c.logger.Info("ECS query URL", zap.String("url", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("failed to create request", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 设置请求头
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/xml")

	attempt := 0
	for {
		body, err := c.do(req)
		if err == nil {
			if c.logger != nil {
				c.logger.Debug("response body read successfully",
					zap.Int("body_size", len(body)),
					zap.Int("attempts", attempt+1),
				)
				if c.printResponseBody {
					c.logger.Info("ECS response body", zap.String("body", string(body)))
				}
			}
			return body, nil
		}

		if !c.shouldRetry(ctx, attempt, err) {
			return nil, err
		}

		delay := c.backoff.ForAttempt(attempt)
		attempt++
		if c.logger != nil {
			c.logger.Warn("ECS request failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.maxRetries),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// do 执行单次请求，请求不带 body，可重复发送
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("HTTP request failed", zap.Error(err))
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("failed to read response body",
				zap.Int("status_code", resp.StatusCode),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// 检查响应状态码
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Error("HTTP response error",
				zap.Int("status_code", resp.StatusCode),
				zap.String("status", resp.Status),
			)
		}
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Header:     resp.Header.Clone(),
		}
	}

	return body, nil
}

// shouldRetry 判断失败是否值得重试
func (c *Client) shouldRetry(ctx context.Context, attempt int, err error) bool {
	if attempt >= c.maxRetries {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
