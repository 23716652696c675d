package assets

import (
	"strings"
	"testing"

	"github.com/John-Robertt/lotshow/internal/domain"
)

const testBase = "https://assets.example/inv"

func TestCandidates_DefaultCounts(t *testing.T) {
	p := DefaultPatterns()
	cs := p.Candidates(testBase, "LOT_001", "LOT_001_Camera", true)

	var thumbs, images, videos int
	seen := map[string]bool{}
	for _, c := range cs {
		if seen[c.URL] {
			t.Fatalf("候选 URL 重复：%s", c.URL)
		}
		seen[c.URL] = true
		switch {
		case c.Thumbnail:
			thumbs++
		case c.Kind == domain.MediaImage:
			images++
		case c.Kind == domain.MediaVideo:
			videos++
		}
	}
	// 图片：(20 + 20 + 11) 个主干 × 5 种扩展名；视频：(10 + 10 + 1 + 1 + 3) × 3。
	if thumbs != 1 || images != 255 || videos != 75 {
		t.Fatalf("候选数量不符合预期：thumbs=%d images=%d videos=%d", thumbs, images, videos)
	}
	if !cs[0].Thumbnail || cs[0].URL != testBase+"/LOT_001_Camera/LOT_001_THUMBNAIL.jpg" {
		t.Fatalf("规范缩略图应排在最前：%+v", cs[0])
	}
}

func TestCandidates_Templates(t *testing.T) {
	p := DefaultPatterns()
	cs := p.Candidates(testBase+"/", "LOT_042", "LOT_042_Lamp", false)
	want := []string{
		testBase + "/LOT_042_Lamp/Photos/LOT_042_1.jpg",
		testBase + "/LOT_042_Lamp/Photos/LOT_042_001.JPG",
		testBase + "/LOT_042_Lamp/Photos/LOT_042_20.png",
		testBase + "/LOT_042_Lamp/Photos/LOT_042_FRONT.jpeg",
		testBase + "/LOT_042_Lamp/Videos/LOT_042_Video_1.mp4",
		testBase + "/LOT_042_Lamp/Videos/LOT_042_Video.mov",
		testBase + "/LOT_042_Lamp/Videos/LOT_042.MP4",
		testBase + "/LOT_042_Lamp/Videos/LOT_042_DEMO.mp4",
	}
	have := map[string]bool{}
	for _, c := range cs {
		if c.Thumbnail {
			t.Fatalf("includeThumbnail=false 时不应生成缩略图候选")
		}
		have[c.URL] = true
	}
	for _, u := range want {
		if !have[u] {
			t.Fatalf("缺少候选 %s", u)
		}
	}
	if have[testBase+"/LOT_042_Lamp/Photos/LOT_042_21.jpg"] {
		t.Fatalf("序号不应超过 ImageMax")
	}
}

func TestCandidates_EscapesFolderSegments(t *testing.T) {
	p := DefaultPatterns()
	cs := p.ThumbnailCandidates(testBase, "LOT_001", "LOT_001_Vintage Camera #2")
	if len(cs) != 6 {
		t.Fatalf("期望 6 个缩略图候选，实际 %d", len(cs))
	}
	if cs[0].URL != testBase+"/LOT_001_Vintage%20Camera%20%232/LOT_001_THUMBNAIL.jpg" {
		t.Fatalf("目录名应逐段转义，实际 %s", cs[0].URL)
	}
	if !cs[0].Thumbnail || cs[1].Thumbnail {
		t.Fatalf("只有第一个缩略图候选是规范缩略图")
	}
	if !strings.HasSuffix(cs[5].URL, "/thumbnail.jpg") {
		t.Fatalf("缩略图候选顺序不符合预期：%s", cs[5].URL)
	}
}

func TestPatterns_Merge(t *testing.T) {
	p := DefaultPatterns().Merge(Patterns{
		ImageDir:    "LOT Photos",
		ImageMax:    3,
		ImageTokens: []string{},
		VideoExts:   []string{"webm"},
	})
	if p.ImageDir != "LOT Photos" || p.ImageMax != 3 {
		t.Fatalf("覆盖未生效：%+v", p)
	}
	if len(p.ImageTokens) != 0 {
		t.Fatalf("显式空 tokens 应关闭特殊词：%v", p.ImageTokens)
	}
	if len(p.VideoExts) != 1 || p.VideoExts[0] != "webm" {
		t.Fatalf("VideoExts 覆盖未生效：%v", p.VideoExts)
	}
	if p.VideoDir != "Videos" || len(p.Thumbnails) != 6 {
		t.Fatalf("未覆盖的字段应保留默认值：%+v", p)
	}

	cs := p.Candidates(testBase, "LOT_001", "LOT_001_X", false)
	images := 0
	for _, c := range cs {
		if c.Kind == domain.MediaImage {
			images++
		}
	}
	// (3 + 3) 个主干 × 5 种扩展名。
	if images != 30 {
		t.Fatalf("期望 30 个图片候选，实际 %d", images)
	}
}
