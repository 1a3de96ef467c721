package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"kpiboard/internal/model"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

// DefaultTTL 会话默认有效期
const DefaultTTL = 2 * time.Hour

// Entry 单个会话缓存：最近一次导入结果与列映射
type Entry struct {
	ID        string                         `json:"id"`
	FileName  string                         `json:"fileName"`
	Result    *model.WorkbookResult          `json:"-"`
	Mappings  map[string]model.HeaderMapping `json:"mappings"`
	UpdatedAt time.Time                      `json:"updatedAt"`
}

// Cache 进程内会话缓存
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache 创建会话缓存；ttl<=0 时使用默认值
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewID 生成会话 ID
func NewID() string {
	return uuid.NewString()
}

// Put 保存导入结果（覆盖同一会话的旧结果）
func (c *Cache) Put(id string, result *model.WorkbookResult) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	mappings := make(map[string]model.HeaderMapping)
	fileName := ""
	if result != nil {
		fileName = result.FileName
		for _, s := range result.Sheets {
			mappings[s.Name] = s.Mapping
		}
	}
	e := &Entry{
		ID:        id,
		FileName:  fileName,
		Result:    result,
		Mappings:  mappings,
		UpdatedAt: c.now(),
	}
	c.entries[id] = e
	return e
}

// Get 获取会话缓存
func (c *Cache) Get(id string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || c.expired(e) {
		return nil, ErrNotFound
	}
	return e, nil
}

// Delete 删除会话
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Count 有效会话数
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !c.expired(e) {
			n++
		}
	}
	return n
}

func (c *Cache) expired(e *Entry) bool {
	return c.now().Sub(e.UpdatedAt) > c.ttl
}

func (c *Cache) purgeExpiredLocked() {
	for id, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, id)
		}
	}
}
