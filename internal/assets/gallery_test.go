package assets

import (
	"context"
	"testing"

	"github.com/John-Robertt/lotshow/internal/domain"
)

func newTestService(entries []domain.DirEntry, checker Checker) *Service {
	return &Service{
		Resolver: NewResolver(&stubLister{entries: entries}, ResolverOptions{}),
		Prober: &Prober{
			Base:             testBase,
			Patterns:         DefaultPatterns(),
			Checker:          checker,
			IncludeThumbnail: true,
		},
	}
}

func TestLookup_SplitsByKind(t *testing.T) {
	root := testBase + "/LOT_001_Camera"
	s := newTestService(
		[]domain.DirEntry{{Name: "LOT_001_Camera", IsDir: true}},
		existsSet(
			root+"/LOT_001_THUMBNAIL.jpg",
			root+"/Photos/LOT_001_1.jpg",
			root+"/Photos/LOT_001_FRONT.png",
			root+"/Videos/LOT_001.mp4",
		),
	)
	g := s.Lookup(context.Background(), "LOT_001")
	if g.Folder != "LOT_001_Camera" {
		t.Fatalf("目录不符合预期：%q", g.Folder)
	}
	if !g.HasThumbnail || g.Thumbnail != root+"/LOT_001_THUMBNAIL.jpg" {
		t.Fatalf("缩略图不符合预期：%+v", g)
	}
	if len(g.Images) != 2 || len(g.Videos) != 1 {
		t.Fatalf("期望 2 图 1 视频，实际 %d/%d", len(g.Images), len(g.Videos))
	}
	if g.Empty() {
		t.Fatalf("有媒体时 Empty 应为 false")
	}
}

func TestLookup_NoFolderUsesPlaceholder(t *testing.T) {
	s := newTestService(nil, existsSet())
	g := s.Lookup(context.Background(), "LOT_404")
	if g.Folder != "" || g.HasThumbnail {
		t.Fatalf("目录不存在时不应有目录/缩略图：%+v", g)
	}
	if g.Thumbnail != DefaultPlaceholder {
		t.Fatalf("期望占位图，实际 %q", g.Thumbnail)
	}
	if g.Images == nil || g.Videos == nil {
		t.Fatalf("空 gallery 的切片应为非 nil（JSON 输出 []）")
	}
	if !g.Empty() {
		t.Fatalf("期望 Empty=true")
	}
}

func TestThumbnailURL(t *testing.T) {
	root := testBase + "/LOT_002_Lamp"
	s := newTestService(
		[]domain.DirEntry{{Name: "LOT_002_Lamp", IsDir: true}},
		existsSet(root+"/thumbnail.jpg"),
	)
	s.Placeholder = "/ph.svg"
	if got := s.ThumbnailURL(context.Background(), "LOT_002"); got != root+"/thumbnail.jpg" {
		t.Fatalf("缩略图不符合预期：%q", got)
	}
	if got := s.ThumbnailURL(context.Background(), "LOT_003"); got != "/ph.svg" {
		t.Fatalf("未知 lot 应返回占位图，实际 %q", got)
	}
}
