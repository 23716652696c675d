package assets

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/lotshow/internal/domain"
)

// Patterns 描述候选文件名的生成规则（配置数据，可在 lotshow.json 中覆盖）。
//
// 模板占位符：
//   - {lot}   LOT 标识（LOT_001）
//   - {n}     序号（1..Max）
//   - {n3}    三位补零序号（001..）
//   - {token} Tokens 中的每个特殊词
//
// 不含 {n}/{n3}/{token} 的模板只展开一次。
type Patterns struct {
	Thumbnails []string `json:"thumbnails"`

	ImageDir       string   `json:"image_dir"`
	ImageMax       int      `json:"image_max"`
	ImageTemplates []string `json:"image_templates"`
	ImageTokens    []string `json:"image_tokens"`
	ImageExts      []string `json:"image_exts"`

	VideoDir       string   `json:"video_dir"`
	VideoMax       int      `json:"video_max"`
	VideoTemplates []string `json:"video_templates"`
	VideoTokens    []string `json:"video_tokens"`
	VideoExts      []string `json:"video_exts"`
}

// DefaultPatterns 覆盖资产主机上已知的全部命名变体。
func DefaultPatterns() Patterns {
	return Patterns{
		Thumbnails: []string{
			"{lot}_THUMBNAIL.jpg",
			"{lot}_THUMBNAIL.JPG",
			"{lot}_Thumbnail.jpg",
			"{lot}_thumbnail.jpg",
			"Thumbnail.jpg",
			"thumbnail.jpg",
		},
		ImageDir:       "Photos",
		ImageMax:       20,
		ImageTemplates: []string{"{lot}_{n}", "{lot}_{n3}", "{lot}_{token}"},
		ImageTokens:    []string{"FRONT", "BACK", "LEFT", "RIGHT", "TOP", "BOTTOM", "DETAIL", "A", "B", "C", "D"},
		ImageExts:      []string{"jpg", "JPG", "jpeg", "png", "PNG"},
		VideoDir:       "Videos",
		VideoMax:       10,
		VideoTemplates: []string{"{lot}_Video_{n}", "{lot}_{n}", "{lot}_Video", "{lot}", "{lot}_{token}"},
		VideoTokens:    []string{"DEMO", "INTRO", "WALKTHROUGH"},
		VideoExts:      []string{"mp4", "MP4", "mov"},
	}
}

// Merge 用 o 中非空的字段覆盖 p（配置层的局部覆盖）。
func (p Patterns) Merge(o Patterns) Patterns {
	if len(o.Thumbnails) > 0 {
		p.Thumbnails = o.Thumbnails
	}
	if strings.TrimSpace(o.ImageDir) != "" {
		p.ImageDir = o.ImageDir
	}
	if o.ImageMax > 0 {
		p.ImageMax = o.ImageMax
	}
	if len(o.ImageTemplates) > 0 {
		p.ImageTemplates = o.ImageTemplates
	}
	if o.ImageTokens != nil {
		p.ImageTokens = o.ImageTokens
	}
	if len(o.ImageExts) > 0 {
		p.ImageExts = o.ImageExts
	}
	if strings.TrimSpace(o.VideoDir) != "" {
		p.VideoDir = o.VideoDir
	}
	if o.VideoMax > 0 {
		p.VideoMax = o.VideoMax
	}
	if len(o.VideoTemplates) > 0 {
		p.VideoTemplates = o.VideoTemplates
	}
	if o.VideoTokens != nil {
		p.VideoTokens = o.VideoTokens
	}
	if len(o.VideoExts) > 0 {
		p.VideoExts = o.VideoExts
	}
	return p
}

// Candidate 是一次存在性检查的目标。
type Candidate struct {
	URL       string
	Kind      string
	Filename  string
	Thumbnail bool
}

// Candidates 生成 lot 的全部候选 URL。
//
// 规则：
// - includeThumbnail=true 时，规范缩略图（Thumbnails[0]）排在最前
// - 然后是图片、视频；按 URL 去重，保留首次出现
// - 每个路径段单独做 URL 转义（目录名里可能有空格）
func (p Patterns) Candidates(base string, lot domain.LotID, folder string, includeThumbnail bool) []Candidate {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	seen := map[string]bool{}
	var out []Candidate
	add := func(kind, dir, name string, thumb bool) {
		u := joinURL(base, folder, dir, name)
		if seen[u] {
			return
		}
		seen[u] = true
		out = append(out, Candidate{URL: u, Kind: kind, Filename: name, Thumbnail: thumb})
	}

	if includeThumbnail && len(p.Thumbnails) > 0 {
		add(domain.MediaImage, "", expand(p.Thumbnails[0], lot, "", ""), true)
	}
	for _, stem := range stems(p.ImageTemplates, lot, p.ImageMax, p.ImageTokens) {
		for _, ext := range p.ImageExts {
			add(domain.MediaImage, p.ImageDir, stem+"."+ext, false)
		}
	}
	for _, stem := range stems(p.VideoTemplates, lot, p.VideoMax, p.VideoTokens) {
		for _, ext := range p.VideoExts {
			add(domain.MediaVideo, p.VideoDir, stem+"."+ext, false)
		}
	}
	return out
}

// ThumbnailCandidates 返回缩略图候选（按配置顺序，位于目录根）。
func (p Patterns) ThumbnailCandidates(base string, lot domain.LotID, folder string) []Candidate {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	seen := map[string]bool{}
	out := make([]Candidate, 0, len(p.Thumbnails))
	for i, t := range p.Thumbnails {
		name := expand(t, lot, "", "")
		u := joinURL(base, folder, "", name)
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, Candidate{URL: u, Kind: domain.MediaImage, Filename: name, Thumbnail: i == 0})
	}
	return out
}

// stems 按模板展开文件名主干（不含扩展名）：先按序号，再按特殊词，最后是固定模板。
func stems(templates []string, lot domain.LotID, max int, tokens []string) []string {
	var out []string
	for _, t := range templates {
		switch {
		case strings.Contains(t, "{n}") || strings.Contains(t, "{n3}"):
			for i := 1; i <= max; i++ {
				n := strconv.Itoa(i)
				out = append(out, expand(t, lot, n, ""))
			}
		case strings.Contains(t, "{token}"):
			for _, tok := range tokens {
				out = append(out, expand(t, lot, "", tok))
			}
		default:
			out = append(out, expand(t, lot, "", ""))
		}
	}
	return out
}

func expand(t string, lot domain.LotID, n, token string) string {
	n3 := n
	if n != "" && len(n) < 3 {
		n3 = strings.Repeat("0", 3-len(n)) + n
	}
	r := strings.NewReplacer(
		"{lot}", lot.String(),
		"{n3}", n3,
		"{n}", n,
		"{token}", token,
	)
	return r.Replace(t)
}

func joinURL(base string, segs ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range segs {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		for _, part := range strings.Split(s, "/") {
			if part == "" {
				continue
			}
			b.WriteByte('/')
			b.WriteString(url.PathEscape(part))
		}
	}
	return b.String()
}
