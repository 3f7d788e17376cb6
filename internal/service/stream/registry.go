// Package stream 动态流聚合
// 多个内容类型各自分页查询，按排序键做 k 路归并，得到统一的时间倒序窗口
package stream

import (
	"context"
	"sort"

	"cosinnus_server/internal/dao/mysql/repository"
	"cosinnus_server/internal/model"
	"cosinnus_server/pkg/errorx"
)

// Kind 可进入动态流的内容类型，封闭枚举
type Kind int

const (
	KindEvent Kind = iota + 1
	KindFile
	KindNote
	KindTodo
	KindPoll
)

// Descriptor 内容类型的静态描述，Name 即 Stream.Models 中使用的名称
type Descriptor struct {
	Kind Kind
	model.ContentKind
}

var descriptors = []Descriptor{
	describe(KindEvent, model.KindEvent),
	describe(KindFile, model.KindFile),
	describe(KindNote, model.KindNote),
	describe(KindTodo, model.KindTodo),
	describe(KindPoll, model.KindPoll),
}

func describe(k Kind, name string) Descriptor {
	ck, ok := model.LookupContentKind(name)
	if !ok {
		panic("unknown content kind " + name)
	}
	return Descriptor{Kind: k, ContentKind: ck}
}

// Descriptors 全部内容类型描述
func Descriptors() []Descriptor {
	return append([]Descriptor(nil), descriptors...)
}

// LookupKind 按名称查找内容类型
func LookupKind(name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (k Kind) String() string {
	for _, d := range descriptors {
		if d.Kind == k {
			return d.Name
		}
	}
	return "unknown"
}

// Provider 单个内容类型的数据来源
type Provider interface {
	Kind() string
	SortColumn() string
	Count(ctx context.Context, f model.ContentFilter) (int64, error)
	Fetch(ctx context.Context, f model.ContentFilter, offset, limit int) ([]model.StreamItem, error)
}

// Source 已解析的内容类型
type Source struct {
	Descriptor
	Provider Provider
}

// Registry 启动时构建一次的只读注册表，按内容类型名称升序保存
type Registry struct {
	sources []Source
}

// NewRegistry 注册内容类型
// 名称未知、排序列与描述不一致或重复注册都视为配置错误
func NewRegistry(providers ...Provider) (*Registry, error) {
	seen := make(map[Kind]bool, len(providers))
	sources := make([]Source, 0, len(providers))
	for _, p := range providers {
		d, ok := LookupKind(p.Kind())
		if !ok {
			return nil, errorx.Newf(errorx.CodeConfigError, "未知的内容类型 %q", p.Kind())
		}
		if p.SortColumn() != d.SortColumn {
			return nil, errorx.Newf(errorx.CodeConfigError, "内容类型 %s 排序列为 %s，期望 %s", d.Name, p.SortColumn(), d.SortColumn)
		}
		if seen[d.Kind] {
			return nil, errorx.Newf(errorx.CodeConfigError, "内容类型 %s 重复注册", d.Name)
		}
		seen[d.Kind] = true
		sources = append(sources, Source{Descriptor: d, Provider: p})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return &Registry{sources: sources}, nil
}

// Sources 全部已注册的内容类型
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// Resolve 把 Stream.Models 中的名称解析为内容类型，names 为空表示全部
// 无法解析的名称逐个返回配置错误，能解析的部分照常返回
func (r *Registry) Resolve(names []string) ([]Source, []error) {
	if len(names) == 0 {
		return r.Sources(), nil
	}
	var (
		out    []Source
		errs   []error
		picked = make(map[Kind]bool, len(names))
	)
	for _, name := range names {
		d, ok := LookupKind(name)
		if !ok {
			errs = append(errs, errorx.Newf(errorx.CodeConfigError, "未知的内容类型 %q", name))
			continue
		}
		if picked[d.Kind] {
			continue
		}
		src, ok := r.find(d.Kind)
		if !ok {
			errs = append(errs, errorx.Newf(errorx.CodeConfigError, "内容类型 %s 未注册数据来源", name))
			continue
		}
		picked[d.Kind] = true
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, errs
}

func (r *Registry) find(k Kind) (Source, bool) {
	for _, s := range r.sources {
		if s.Kind == k {
			return s, true
		}
	}
	return Source{}, false
}

// NewRegistryFromRepositories 以数据层的内容 Repository 构建注册表
func NewRegistryFromRepositories(contents []repository.ContentRepository) (*Registry, error) {
	providers := make([]Provider, 0, len(contents))
	for _, c := range contents {
		providers = append(providers, c)
	}
	return NewRegistry(providers...)
}
