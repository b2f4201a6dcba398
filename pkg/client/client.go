// Package client Cocktail Hub API 客户端
//
// 封装 REST API 调用，并提供 Resource 异步状态容器
// （缓存最近一次响应、加载标志、错误信息）供上层界面消费。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"cocktail-hub/internal/shared/model"
)

// Client API 客户端
//
// Token 在 Login / Register 成功后自动更新，后续请求自动携带。
type Client struct {
	BaseURL string
	Token   string

	httpClient *http.Client
}

// NewClient 创建客户端实例
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError 服务端返回的错误响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// ============================================================================
// 认证
// ============================================================================

// Register 注册新用户并保存返回的令牌
func (c *Client) Register(ctx context.Context, username, password, displayName string) (*AuthResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("username", username)
	w.WriteField("password", password)
	w.WriteField("displayName", displayName)
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/api/v1/auth/register", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp AuthResponse
	if err := c.doRequest(req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return &resp, nil
}

// Login 登录并保存返回的令牌
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp AuthResponse
	if err := c.doRequest(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return &resp, nil
}

// Logout 登出并清空本地令牌
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	if err := c.doRequest(req, http.StatusOK, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// Me 获取当前用户信息
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		c.BaseURL+"/api/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.doRequest(req, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ============================================================================
// 鸡尾酒
// ============================================================================

// ListCocktails 获取当前身份可见的鸡尾酒列表
//
// 空列表时服务端返回带 message 的对象，此处统一展开为切片。
func (c *Client) ListCocktails(ctx context.Context) ([]*model.Cocktail, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		c.BaseURL+"/api/v1/cocktails", nil)
	if err != nil {
		return nil, err
	}

	raw, err := c.doRaw(req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	// 非空结果是裸数组
	var cocktails []*model.Cocktail
	if json.Unmarshal(raw, &cocktails) == nil {
		return cocktails, nil
	}

	// 空结果是 {message, cocktails}
	var wrapped struct {
		Cocktails []*model.Cocktail `json:"cocktails"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected list response: %w", err)
	}
	return wrapped.Cocktails, nil
}

// GetCocktail 获取鸡尾酒详情
func (c *Client) GetCocktail(ctx context.Context, id string) (*model.Cocktail, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		c.BaseURL+"/api/v1/cocktails/"+id, nil)
	if err != nil {
		return nil, err
	}

	var cocktail model.Cocktail
	if err := c.doRequest(req, http.StatusOK, &cocktail); err != nil {
		return nil, err
	}
	return &cocktail, nil
}

// CreateCocktailInput 创建鸡尾酒的输入
type CreateCocktailInput struct {
	Name        string
	Recipe      string
	Ingredients []model.Ingredient

	// 可选图片
	ImageName   string
	ImageReader io.Reader
}

// CreateCocktail 创建鸡尾酒（需先登录）
func (c *Client) CreateCocktail(ctx context.Context, input CreateCocktailInput) (*model.Cocktail, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("name", input.Name)
	w.WriteField("recipe", input.Recipe)
	if len(input.Ingredients) > 0 {
		encoded, err := json.Marshal(input.Ingredients)
		if err != nil {
			return nil, err
		}
		w.WriteField("ingredients", string(encoded))
	}
	if input.ImageReader != nil {
		part, err := w.CreateFormFile("image", input.ImageName)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, input.ImageReader); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/api/v1/cocktails/add", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp struct {
		Cocktail *model.Cocktail `json:"cocktail"`
	}
	if err := c.doRequest(req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return resp.Cocktail, nil
}

// RateCocktail 提交评分（需先登录）
func (c *Client) RateCocktail(ctx context.Context, id string, rating int) (*model.Cocktail, error) {
	body, _ := json.Marshal(map[string]int{"rating": rating})

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/api/v1/cocktails/"+id+"/rate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Cocktail *model.Cocktail `json:"cocktail"`
	}
	if err := c.doRequest(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Cocktail, nil
}

// DeleteCocktail 删除鸡尾酒（需管理员）
func (c *Client) DeleteCocktail(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE",
		c.BaseURL+"/api/v1/cocktails/"+id, nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, http.StatusOK, nil)
}

// TogglePublished 翻转发布状态（需管理员）
func (c *Client) TogglePublished(ctx context.Context, id string) (*model.Cocktail, error) {
	req, err := http.NewRequestWithContext(ctx, "PATCH",
		c.BaseURL+"/api/v1/cocktails/"+id+"/togglePublished", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Cocktail *model.Cocktail `json:"cocktail"`
	}
	if err := c.doRequest(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Cocktail, nil
}

// ============================================================================
// 请求执行
// ============================================================================

// doRequest 执行请求并解码 JSON 响应到 out（out 为 nil 时丢弃响应体）
func (c *Client) doRequest(req *http.Request, wantStatus int, out interface{}) error {
	raw, err := c.doRaw(req, wantStatus)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// doRaw 执行请求并返回原始响应体，状态码不符时解析错误响应
func (c *Client) doRaw(req *http.Request, wantStatus int) ([]byte, error) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != wantStatus {
		var apiErr struct {
			Error string `json:"error"`
		}
		message := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	return raw, nil
}
