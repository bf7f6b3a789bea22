// Package client talks to the folio HTTP API on behalf of the admin CLI and
// other Go consumers: resource CRUD, media upload, the admin session and the
// public snapshot aggregator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrUnauthorized 表示令牌缺失或已失效，会话已被清空。
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound 表示资源不存在。
	ErrNotFound = errors.New("not found")
)

// Document 是资源的 JSON 表示，键名与 API 一致。
type Document map[string]any

// ID returns the document's "_id".
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// FieldError mirrors one entry of the API's "errors" array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError 是非 2xx 响应。
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, msg)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, msg, strings.Join(parts, "; "))
}

// Asset is the reference returned by the upload endpoints.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Account is the authenticated user.
type Account struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Errors  []FieldError    `json:"errors"`
}

// Client 是 folio API 的 HTTP 客户端。会话为 nil 时只能访问公开接口。
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New constructs a Client for the API rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: http.DefaultClient,
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session { return c.session }

// Login 校验口令，成功后持久化会话。
func (c *Client) Login(ctx context.Context, username, password string) (Account, error) {
	var account Account
	body := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, "/api/auth/login", body, &account); err != nil {
		return Account{}, err
	}
	if c.session != nil {
		if err := c.session.Authenticate(account.Token, account.ID, account.Username); err != nil {
			return Account{}, err
		}
	}
	return account, nil
}

// Logout 只清除本地会话，服务端令牌无状态。
func (c *Client) Logout() error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear()
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (Account, error) {
	var account Account
	err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, &account)
	return account, err
}

// List returns every document of resource.
func (c *Client) List(ctx context.Context, resource string) ([]Document, error) {
	return c.list(ctx, "/api/"+resource)
}

// ListSkillsOfType 按类型列出技能。
func (c *Client) ListSkillsOfType(ctx context.Context, skillType string) ([]Document, error) {
	return c.list(ctx, "/api/skills?type="+url.QueryEscape(skillType))
}

func (c *Client) list(ctx context.Context, path string) ([]Document, error) {
	var docs []Document
	if err := c.call(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// Get returns one document.
func (c *Client) Get(ctx context.Context, resource, id string) (Document, error) {
	var doc Document
	err := c.call(ctx, http.MethodGet, "/api/"+resource+"/"+url.PathEscape(id), nil, &doc)
	return doc, err
}

// Current 读取待编辑的文档。博客的单条 GET 会累加浏览量，因此改为从列表中按 id 或 slug 查找。
func (c *Client) Current(ctx context.Context, resource, id string) (Document, error) {
	if resource != "blogs" {
		return c.Get(ctx, resource, id)
	}
	docs, err := c.List(ctx, resource)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.ID() == id || doc["slug"] == id {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", resource, id, ErrNotFound)
}

// Create stores a new document and returns it as saved.
func (c *Client) Create(ctx context.Context, resource string, doc Document) (Document, error) {
	var out Document
	err := c.call(ctx, http.MethodPost, "/api/"+resource, doc, &out)
	return out, err
}

// Replace 发送完整文档；缺省字段会被服务端清空。
func (c *Client) Replace(ctx context.Context, resource, id string, doc Document) (Document, error) {
	var out Document
	err := c.call(ctx, http.MethodPut, "/api/"+resource+"/"+url.PathEscape(id), doc, &out)
	return out, err
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/"+resource+"/"+url.PathEscape(id), nil, nil)
}

// Profile 返回资料；尚未创建时返回 nil。
func (c *Client) Profile(ctx context.Context) (Document, error) {
	var doc Document
	err := c.call(ctx, http.MethodGet, "/api/profile", nil, &doc)
	return doc, err
}

// UpdateProfile upserts the profile.
func (c *Client) UpdateProfile(ctx context.Context, doc Document) (Document, error) {
	var out Document
	err := c.call(ctx, http.MethodPut, "/api/profile", doc, &out)
	return out, err
}

// UploadImage 上传本地图片。
func (c *Client) UploadImage(ctx context.Context, path string) (Asset, error) {
	return c.upload(ctx, "/api/upload", "image", path)
}

// UploadDocument 上传本地 PDF。
func (c *Client) UploadDocument(ctx context.Context, path string) (Asset, error) {
	return c.upload(ctx, "/api/upload/document", "document", path)
}

// DeleteMedia requests removal of an uploaded asset. The server does not wait for the result.
func (c *Client) DeleteMedia(ctx context.Context, publicID string) error {
	return c.call(ctx, http.MethodDelete, "/api/upload", map[string]string{"publicId": publicID}, nil)
}

func (c *Client) upload(ctx context.Context, path, field, filePath string) (Asset, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Asset{}, fmt.Errorf("read %s: %w", filePath, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(filePath)))
	header.Set("Content-Type", mimetype.Detect(data).String())
	part, err := writer.CreatePart(header)
	if err != nil {
		return Asset{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Asset{}, fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Asset{}, fmt.Errorf("build multipart body: %w", err)
	}

	var asset Asset
	err = c.send(ctx, http.MethodPost, path, body, writer.FormDataContentType(), &asset)
	return asset, err
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, reader, contentType, out)
}

// send 执行请求并解包响应信封。携带令牌的请求收到 401 时清空会话。
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	sentToken := false
	if c.session != nil {
		if token, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			sentToken = true
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if sentToken {
			_ = c.session.Clear()
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
