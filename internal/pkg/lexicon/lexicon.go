// Package lexicon 提供审核使用的关键词表和正则模式，支持从 JSON 文件加载
package lexicon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrEmptyLexicon 词库缺少危机关键词
var ErrEmptyLexicon = errors.New("lexicon has no crisis keywords")

// CrisisTiers 三级危机关键词
type CrisisTiers struct {
	Critical []string `json:"critical"`
	High     []string `json:"high"`
	Medium   []string `json:"medium"`
}

// Lexicon 词库定义，可序列化
type Lexicon struct {
	Version              string      `json:"version"`
	Crisis               CrisisTiers `json:"crisis"`
	Harassment           []string    `json:"harassment"`
	HateSpeech           []string    `json:"hate_speech"`
	Spam                 []string    `json:"spam"`
	Link                 string      `json:"link"`
	OffTopicIndicators   []string    `json:"off_topic_indicators"`
	MentalHealthKeywords []string    `json:"mental_health_keywords"`
}

// Compiled 编译后的只读词库
type Compiled struct {
	Version              string
	Critical             []string
	High                 []string
	Medium               []string
	Harassment           []*regexp.Regexp
	HateSpeech           []*regexp.Regexp
	Spam                 []*regexp.Regexp
	Link                 *regexp.Regexp
	OffTopicIndicators   []string
	MentalHealthKeywords []string
}

// Compile 编译正则并规范化关键词
func (l *Lexicon) Compile() (*Compiled, error) {
	if len(l.Crisis.Critical)+len(l.Crisis.High)+len(l.Crisis.Medium) == 0 {
		return nil, ErrEmptyLexicon
	}

	c := &Compiled{
		Version:              l.Version,
		Critical:             normalizeAll(l.Crisis.Critical),
		High:                 normalizeAll(l.Crisis.High),
		Medium:               normalizeAll(l.Crisis.Medium),
		OffTopicIndicators:   normalizeAll(l.OffTopicIndicators),
		MentalHealthKeywords: normalizeAll(l.MentalHealthKeywords),
	}

	var err error
	if c.Harassment, err = compileAll("harassment", l.Harassment); err != nil {
		return nil, err
	}
	if c.HateSpeech, err = compileAll("hate_speech", l.HateSpeech); err != nil {
		return nil, err
	}
	if c.Spam, err = compileAll("spam", l.Spam); err != nil {
		return nil, err
	}

	link := l.Link
	if link == "" {
		link = defaultLinkPattern
	}
	if c.Link, err = regexp.Compile(link); err != nil {
		return nil, fmt.Errorf("invalid link pattern: %w", err)
	}

	return c, nil
}

// LoadFile 从 JSON 文件读取词库
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var l Lexicon
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lexicon: %w", err)
	}
	return &l, nil
}

// Normalize 按西班牙语规则转小写
func Normalize(s string) string {
	return cases.Lower(language.Spanish).String(s)
}

// MatchAll 返回 text 中出现的全部关键词，text 需已规范化
func MatchAll(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// ContainsAny text 是否包含任一关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func normalizeAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		out = append(out, Normalize(w))
	}
	return out
}

func compileAll(category string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", category, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
