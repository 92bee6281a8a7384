package lexicon

import (
	"sync"

	"go.uber.org/zap"
)

// Store 当前生效词库的持有者，支持热更新
type Store struct {
	current  *Compiled
	logger   *zap.SugaredLogger
	mu       sync.RWMutex
	filePath string
}

// NewStore 创建词库存储；filePath 为空时只使用内置词库
func NewStore(filePath string, logger *zap.SugaredLogger) (*Store, error) {
	compiled, err := Default().Compile()
	if err != nil {
		return nil, err
	}

	s := &Store{
		current:  compiled,
		logger:   logger,
		filePath: filePath,
	}

	if filePath != "" {
		if err := s.Reload(); err != nil {
			logger.Warnf("Failed to load lexicon from %s: %v, using builtin lexicon", filePath, err)
		}
	}

	return s, nil
}

// NewStoreFromCompiled 用给定词库创建存储
func NewStoreFromCompiled(c *Compiled) *Store {
	return &Store{current: c, logger: zap.NewNop().Sugar()}
}

// Current 返回当前词库
func (s *Store) Current() *Compiled {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version 当前词库版本
func (s *Store) Version() string {
	return s.Current().Version
}

// Reload 从文件重新加载，失败时保留旧词库
func (s *Store) Reload() error {
	if s.filePath == "" {
		return nil
	}

	l, err := LoadFile(s.filePath)
	if err != nil {
		return err
	}

	compiled, err := l.Compile()
	if err != nil {
		return err
	}

	s.Set(compiled)
	s.logger.Infof("Loaded lexicon %q from %s", compiled.Version, s.filePath)
	return nil
}

// Set 替换当前词库
func (s *Store) Set(c *Compiled) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}
