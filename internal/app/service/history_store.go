package service

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

// RecentContentCapacity 每个用户保留的最近通过内容条数
const RecentContentCapacity = 10

// HistoryStore 用户审核历史存储
type HistoryStore interface {
	// Get 返回历史副本，不存在时返回 nil
	Get(ctx context.Context, userID string) (*model.UserModerationHistory, error)
	// Update 读-改-写，不存在时先创建
	Update(ctx context.Context, userID string, fn func(h *model.UserModerationHistory)) error
	// Delete 删除用户历史
	Delete(ctx context.Context, userID string) error
	// All 返回全部用户历史，用于统计
	All(ctx context.Context) ([]*model.UserModerationHistory, error)
}

// MemoryHistoryStore 内存历史存储，按最近活动做 LRU 淘汰，并清理超过 ttl 未活动的用户
type MemoryHistoryStore struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // 头部为最近活动
	maxUsers int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryHistoryStore 创建内存历史存储；maxUsers<=0 或 ttl<=0 表示不限制
func NewMemoryHistoryStore(maxUsers int, ttl time.Duration) *MemoryHistoryStore {
	return &MemoryHistoryStore{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		maxUsers: maxUsers,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get 获取用户历史副本
func (s *MemoryHistoryStore) Get(_ context.Context, userID string) (*model.UserModerationHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[userID]
	if !ok {
		return nil, nil
	}
	h := el.Value.(*model.UserModerationHistory)
	if s.expired(h) {
		s.remove(el)
		return nil, nil
	}
	return h.Clone(), nil
}

// Update 更新用户历史
func (s *MemoryHistoryStore) Update(_ context.Context, userID string, fn func(h *model.UserModerationHistory)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h *model.UserModerationHistory
	if el, ok := s.entries[userID]; ok {
		h = el.Value.(*model.UserModerationHistory)
		if s.expired(h) {
			s.remove(el)
			h = nil
		} else {
			s.order.MoveToFront(el)
		}
	}
	if h == nil {
		h = model.NewUserModerationHistory(userID)
		s.entries[userID] = s.order.PushFront(h)
	}

	fn(h)
	h.LastActivityAt = s.now()

	s.evict()
	return nil
}

// Delete 删除用户历史
func (s *MemoryHistoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[userID]; ok {
		s.remove(el)
	}
	return nil
}

// All 返回全部未过期的用户历史
func (s *MemoryHistoryStore) All(_ context.Context) ([]*model.UserModerationHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict()
	out := make([]*model.UserModerationHistory, 0, len(s.entries))
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*model.UserModerationHistory).Clone())
	}
	return out, nil
}

// Len 当前用户数
func (s *MemoryHistoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryHistoryStore) expired(h *model.UserModerationHistory) bool {
	return s.ttl > 0 && s.now().Sub(h.LastActivityAt) > s.ttl
}

// evict 从尾部淘汰过期或超出容量的用户
func (s *MemoryHistoryStore) evict() {
	for el := s.order.Back(); el != nil; el = s.order.Back() {
		h := el.Value.(*model.UserModerationHistory)
		overCapacity := s.maxUsers > 0 && s.order.Len() > s.maxUsers
		if !overCapacity && !s.expired(h) {
			return
		}
		s.remove(el)
	}
}

func (s *MemoryHistoryStore) remove(el *list.Element) {
	h := s.order.Remove(el).(*model.UserModerationHistory)
	delete(s.entries, h.UserID)
}

// appendRecent 追加内容并保持容量
func appendRecent(recent []string, content string) []string {
	recent = append(recent, content)
	if len(recent) > RecentContentCapacity {
		recent = append([]string(nil), recent[len(recent)-RecentContentCapacity:]...)
	}
	return recent
}
