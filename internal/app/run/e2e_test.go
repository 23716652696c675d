package run

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/lotshow/internal/assets"
	"github.com/John-Robertt/lotshow/internal/catalog"
	"github.com/John-Robertt/lotshow/internal/domain"
)

const testBase = "https://assets.example/inv"

type stubLister struct {
	entries []domain.DirEntry
}

func (stubLister) Name() string { return "stub" }

func (l stubLister) List(context.Context) ([]domain.DirEntry, error) { return l.entries, nil }

func writeFeed(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "products.csv")
	head := "LOT,OFFICIAL_NAME,COOLNESS_RATING,TAGLINE,DESCRIPTION,SPECIFICATIONS,PRICE,PRICE ESTIMATE HYPERLINKS,CATEGORY\n"
	if err := os.WriteFile(p, []byte(head+body), 0o644); err != nil {
		t.Fatalf("写入 feed 失败：%v", err)
	}
	return p
}

func newService(entries []domain.DirEntry, exists map[string]bool) *assets.Service {
	return &assets.Service{
		Resolver: assets.NewResolver(stubLister{entries: entries}, assets.ResolverOptions{}),
		Prober: &assets.Prober{
			Base:             testBase,
			Patterns:         assets.DefaultPatterns(),
			Checker:          assets.CheckerFunc(func(_ context.Context, u string) bool { return exists[u] }),
			Timeout:          2 * time.Second,
			IncludeThumbnail: true,
		},
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	feed := writeFeed(t,
		"LOT_001,Camera,7,Snap,Old. Nice.,35mm,$20,,Cameras\n"+
			"LOT_002,Lamp,6,Glow,Bright.,E27,$5,,Home\n"+
			"LOT_003,Chair,5,Sit,Comfy.,Oak,$50,,Home\n"+
			"BAD,Broken,1,,,,,,\n",
	)

	svc := newService(
		[]domain.DirEntry{
			{Name: "LOT_001_Camera", IsDir: true},
			{Name: "LOT_002_Lamp", IsDir: true},
			{Name: "README.md"},
		},
		map[string]bool{
			testBase + "/LOT_001_Camera/LOT_001_THUMBNAIL.jpg":        true,
			testBase + "/LOT_001_Camera/Photos/LOT_001_2.jpg":         true,
			testBase + "/LOT_001_Camera/Photos/LOT_001_1.jpg":         true,
			testBase + "/LOT_001_Camera/Videos/LOT_001_Video.mp4":     true,
			testBase + "/LOT_003_Chair/LOT_003_THUMBNAIL.jpg":         true,
			testBase + "/LOT_002_Lamp/Photos/does-not-match-anything": true,
		},
	)

	rr := Execute(context.Background(), Deps{
		Catalog: &catalog.Catalog{Source: catalog.FileSource{Path: feed}},
		Media:   svc,
		Folders: svc.Resolver,
	}, Options{Workers: 2, Feed: feed, AssetBase: testBase}, nil)

	if rr.RunID == "" {
		t.Fatalf("RunID 不应为空")
	}
	if rr.Feed != feed || rr.AssetBase != testBase {
		t.Fatalf("报告应记录 feed/asset_base：%q %q", rr.Feed, rr.AssetBase)
	}
	if rr.SkippedRows != 1 {
		t.Fatalf("期望跳过 1 行，实际 %d", rr.SkippedRows)
	}
	if rr.StartedAt.Location() != time.UTC || rr.FinishedAt.Before(rr.StartedAt) {
		t.Fatalf("时间不符合预期：%v %v", rr.StartedAt, rr.FinishedAt)
	}
	if len(rr.Items) != 3 {
		t.Fatalf("期望 3 个条目，实际 %d", len(rr.Items))
	}

	want := domain.ScanSummary{OK: 1, Empty: 1, NoFolder: 1}
	if rr.Summary != want {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}

	a, b, c := rr.Items[0], rr.Items[1], rr.Items[2]
	if a.Lot != "LOT_001" || a.Status != domain.StatusOK || a.Folder != "LOT_001_Camera" || a.Name != "Camera" {
		t.Fatalf("LOT_001 不符合预期：%+v", a)
	}
	if a.Thumbnail != testBase+"/LOT_001_Camera/LOT_001_THUMBNAIL.jpg" {
		t.Fatalf("缩略图不符合预期：%q", a.Thumbnail)
	}
	wantImages := []string{
		testBase + "/LOT_001_Camera/Photos/LOT_001_1.jpg",
		testBase + "/LOT_001_Camera/Photos/LOT_001_2.jpg",
	}
	if strings.Join(a.Images, ",") != strings.Join(wantImages, ",") {
		t.Fatalf("图片应按 URL 排序：%v", a.Images)
	}
	if len(a.Videos) != 1 || a.Videos[0] != testBase+"/LOT_001_Camera/Videos/LOT_001_Video.mp4" {
		t.Fatalf("视频不符合预期：%v", a.Videos)
	}

	if b.Lot != "LOT_002" || b.Status != domain.StatusEmpty || b.ErrorCode != domain.ErrCodeNoMedia {
		t.Fatalf("LOT_002 应为 empty：%+v", b)
	}
	if c.Lot != "LOT_003" || c.Status != domain.StatusNoFolder || c.ErrorCode != domain.ErrCodeFolderNotFound {
		t.Fatalf("LOT_003 应为 no_folder（目录不在列表中，缩略图不应被探测）：%+v", c)
	}

	raw, err := json.Marshal(rr)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.Contains(string(raw), `"images":[]`) {
		t.Fatalf("空切片应输出为 []：%s", raw)
	}
}

func TestExecute_CatalogUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	rr := Execute(context.Background(), Deps{
		Catalog: &catalog.Catalog{Source: catalog.FileSource{Path: missing}},
		Media:   newService(nil, nil),
	}, Options{Feed: missing}, nil)

	if len(rr.Items) != 1 {
		t.Fatalf("期望 1 个合成条目，实际 %d", len(rr.Items))
	}
	it := rr.Items[0]
	if it.Lot != "" || it.Status != domain.StatusFailed || it.ErrorCode != domain.ErrCodeCatalogUnavailable {
		t.Fatalf("合成条目不符合预期：%+v", it)
	}
	if rr.Summary.Failed != 1 {
		t.Fatalf("summary.failed 应为 1：%+v", rr.Summary)
	}
}

func TestExecute_CanceledBeforeStart(t *testing.T) {
	feed := writeFeed(t, "LOT_001,Camera,7,Snap,Old.,35mm,$20,,Cameras\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := Execute(ctx, Deps{
		Catalog: &catalog.Catalog{Source: catalog.FileSource{Path: feed}},
		Media:   newService([]domain.DirEntry{{Name: "LOT_001_Camera", IsDir: true}}, nil),
	}, Options{Workers: 1}, nil)

	if len(rr.Items) != 1 || rr.Items[0].ErrorCode != ErrCodeCanceled || rr.Items[0].Status != domain.StatusFailed {
		t.Fatalf("取消后条目应标记为 canceled：%+v", rr.Items)
	}
}
