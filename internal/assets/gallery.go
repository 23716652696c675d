package assets

import (
	"context"
	"strings"

	"github.com/John-Robertt/lotshow/internal/domain"
)

// DefaultPlaceholder 是找不到缩略图时使用的占位图。
const DefaultPlaceholder = "/placeholder.svg?height=400&width=400"

// Gallery 是详情页需要的媒体视图。
type Gallery struct {
	Lot          domain.LotID       `json:"lot"`
	Folder       string             `json:"folder,omitempty"`
	Thumbnail    string             `json:"thumbnail"`
	HasThumbnail bool               `json:"has_thumbnail"`
	Images       []domain.MediaItem `json:"images"`
	Videos       []domain.MediaItem `json:"videos"`
	TimedOut     bool               `json:"timed_out,omitempty"`
}

// Empty 表示没有找到任何媒体（缩略图也算媒体）。
func (g Gallery) Empty() bool {
	return !g.HasThumbnail && len(g.Images) == 0 && len(g.Videos) == 0
}

// Service 组合 Resolver 与 Prober：lot -> 目录 -> 媒体。
type Service struct {
	Resolver    *Resolver
	Prober      *Prober
	Placeholder string
}

func (s *Service) placeholder() string {
	if strings.TrimSpace(s.Placeholder) == "" {
		return DefaultPlaceholder
	}
	return s.Placeholder
}

// Lookup 解析目录并探测媒体；目录不存在时返回带占位缩略图的空 gallery。
func (s *Service) Lookup(ctx context.Context, lot domain.LotID) Gallery {
	g := Gallery{
		Lot:       lot,
		Thumbnail: s.placeholder(),
		Images:    []domain.MediaItem{},
		Videos:    []domain.MediaItem{},
	}
	folder, ok := s.Resolver.Resolve(ctx, lot)
	if !ok {
		return g
	}
	g.Folder = folder

	res := s.Prober.Probe(ctx, lot, folder)
	g.TimedOut = res.TimedOut
	for _, it := range res.Items {
		switch {
		case it.Thumbnail:
			g.Thumbnail = it.URL
			g.HasThumbnail = true
		case it.Kind == domain.MediaVideo:
			g.Videos = append(g.Videos, it)
		default:
			g.Images = append(g.Images, it)
		}
	}
	return g
}

// ThumbnailURL 返回 lot 的缩略图 URL；找不到时返回占位图。
func (s *Service) ThumbnailURL(ctx context.Context, lot domain.LotID) string {
	folder, ok := s.Resolver.Resolve(ctx, lot)
	if !ok {
		return s.placeholder()
	}
	if u, ok := s.Prober.Thumbnail(ctx, lot, folder); ok {
		return u
	}
	return s.placeholder()
}
