package catalog

import (
	"regexp"
	"strings"

	"github.com/John-Robertt/lotshow/internal/domain"
)

var firstSentenceRE = regexp.MustCompile(`(.+?[.!?])(?:\s|$)`)

// Card 是列表页的商品卡片视图。
type Card struct {
	Lot       domain.LotID `json:"lot"`
	Title     string       `json:"title"`
	Tagline   string       `json:"tagline,omitempty"`
	Summary   string       `json:"summary,omitempty"`
	Rating    int          `json:"rating"`
	Category  string       `json:"category,omitempty"`
	Price     string       `json:"price,omitempty"`
	PriceHref string       `json:"price_href,omitempty"`
	Thumbnail string       `json:"thumbnail,omitempty"`
}

// CardOf 把商品转成卡片：标题缺失时用 LOT，摘要取描述首句，价格链接只接受 http(s)。
func CardOf(p domain.Product) Card {
	title := strings.TrimSpace(p.OfficialName)
	if title == "" {
		title = p.Lot.String()
	}
	return Card{
		Lot:       p.Lot,
		Title:     title,
		Tagline:   strings.TrimSpace(p.Tagline),
		Summary:   FirstSentence(p.Description),
		Rating:    p.Rating,
		Category:  p.Category,
		Price:     strings.TrimSpace(p.Price),
		PriceHref: PriceHref(p.PriceLink),
	}
}

// FirstSentence 返回文本的第一句（到第一个后接空白或结尾的 . ! ?）；找不到句末标点时原样返回。
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if m := firstSentenceRE.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}

// PriceHref 只放行 http(s) 链接，其它返回空串。
func PriceHref(link string) string {
	link = strings.TrimSpace(link)
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return link
	}
	return ""
}
