package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// State 是管理端会话的状态。
type State int

const (
	// StateUnknown 尚未读取持久化会话。
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type sessionFile struct {
	Token    string    `json:"token"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	SavedAt  time.Time `json:"savedAt"`
}

// Session 保存令牌并把它持久化到本地文件。
//
// Unknown --Restore--> Authenticated | Anonymous
// any --Authenticate--> Authenticated
// any --Clear / 401--> Anonymous
type Session struct {
	mu       sync.RWMutex
	path     string
	state    State
	token    string
	userID   string
	username string
}

// NewSession returns a session persisted at path, in StateUnknown.
func NewSession(path string) *Session {
	return &Session{path: path, state: StateUnknown}
}

// DefaultSessionPath 返回 $XDG_CONFIG_HOME/folio/session.json 或等价位置。
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "folio", "session.json"), nil
}

// Restore 读取持久化会话，不访问服务端。
// 文件不存在时进入匿名状态；内容损坏时删除文件并进入匿名状态。
func (s *Session) Restore() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.setAnonymous()
		return s.state, nil
	}
	if err != nil {
		s.setAnonymous()
		return s.state, fmt.Errorf("read session: %w", err)
	}

	var stored sessionFile
	if err := json.Unmarshal(raw, &stored); err != nil || strings.TrimSpace(stored.Token) == "" {
		s.setAnonymous()
		if rmErr := removeIfExists(s.path); rmErr != nil {
			return s.state, rmErr
		}
		return s.state, nil
	}

	s.state = StateAuthenticated
	s.token = stored.Token
	s.userID = stored.UserID
	s.username = stored.Username
	return s.state, nil
}

// Authenticate 记录新令牌并写入会话文件。
func (s *Session) Authenticate(token, userID, username string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(sessionFile{Token: token, UserID: userID, Username: username, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	s.state = StateAuthenticated
	s.token = token
	s.userID = userID
	s.username = username
	return nil
}

// Clear 进入匿名状态并删除会话文件。
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setAnonymous()
	return removeIfExists(s.path)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token when authenticated.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return "", false
	}
	return s.token, true
}

// Username returns the signed-in username, or "".
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return ""
	}
	return s.username
}

func (s *Session) setAnonymous() {
	s.state = StateAnonymous
	s.token = ""
	s.userID = ""
	s.username = ""
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
