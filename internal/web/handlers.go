package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/John-Robertt/lotshow/internal/catalog"
	"github.com/John-Robertt/lotshow/internal/domain"
)

// 面向前端展示的固定提示语。
const (
	msgCatalogUnavailable = "could not load catalog"
	msgNoMedia            = "no media found"
)

// ListResponse 是 GET /api/v1/lots 的 data。
type ListResponse struct {
	Lots       []catalog.Card `json:"lots"`
	Total      int            `json:"total"`
	Skipped    int            `json:"skipped"`
	Categories []string       `json:"categories"`
}

// FeaturedResponse 是 GET /api/v1/lots/featured 的 data。
type FeaturedResponse struct {
	Featured []catalog.Card `json:"featured"`
	Carousel []catalog.Card `json:"carousel"`
}

// LotResponse 是 GET /api/v1/lots/{id} 的 data。
type LotResponse struct {
	domain.Product
	Card       catalog.Card `json:"card"`
	ContactURL string       `json:"contact_url,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok"}, "", s.log)
}

func (s *Server) handleListLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rating, hasRating := 0, false
	if v := strings.TrimSpace(q.Get("rating")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(w, http.StatusBadRequest, "rating must be an integer", s.log)
			return
		}
		rating, hasRating = n, true
	}
	limit := 0
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fail(w, http.StatusBadRequest, "limit must be a non-negative integer", s.log)
			return
		}
		limit = n
	}

	res := s.catalog.Load(r.Context())
	resp := ListResponse{Lots: []catalog.Card{}, Skipped: res.Skipped, Categories: catalog.Categories(res.Products)}
	if res.Degraded {
		ok(w, resp, msgCatalogUnavailable, s.log)
		return
	}

	ps := res.Products
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		ps = catalog.WithCategory(ps, c)
	}
	if hasRating {
		ps = catalog.WithRating(ps, rating)
	}
	resp.Total = len(ps)
	if limit > 0 && len(ps) > limit {
		ps = ps[:limit]
	}
	resp.Lots = cards(ps)
	ok(w, resp, "", s.log)
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	res := s.catalog.Load(r.Context())
	resp := FeaturedResponse{
		Featured: cards(catalog.Featured(res.Products)),
		Carousel: cards(catalog.Carousel(res.Products)),
	}
	msg := ""
	if res.Degraded {
		msg = msgCatalogUnavailable
	}
	ok(w, resp, msg, s.log)
}

func (s *Server) handleGetLot(w http.ResponseWriter, r *http.Request) {
	lot, valid := lotParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "invalid lot id", s.log)
		return
	}
	res := s.catalog.Load(r.Context())
	if res.Degraded {
		fail(w, http.StatusServiceUnavailable, msgCatalogUnavailable, s.log)
		return
	}
	p, found := catalog.Find(res.Products, lot)
	if !found {
		fail(w, http.StatusNotFound, "lot not found", s.log)
		return
	}
	ok(w, LotResponse{Product: p, Card: card(p), ContactURL: contactURL(s.contact, p)}, "", s.log)
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	lot, valid := lotParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "invalid lot id", s.log)
		return
	}
	g := s.media.Lookup(r.Context(), lot)
	msg := ""
	if g.Empty() {
		msg = msgNoMedia
	}
	ok(w, g, msg, s.log)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	lot, valid := lotParam(r)
	if !valid {
		fail(w, http.StatusBadRequest, "invalid lot id", s.log)
		return
	}
	u := s.media.ThumbnailURL(r.Context(), lot)
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.Redirect(w, r, u, http.StatusFound)
}

// handlePlaceholder 返回灰底 SVG 占位图（尺寸取自 query，缺省 400x400）。
func (s *Server) handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	width := dimension(r.URL.Query().Get("width"))
	height := dimension(r.URL.Query().Get("height"))
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#e5e7eb"/>`+
		`<text x="50%%" y="50%%" fill="#9ca3af" font-family="sans-serif" font-size="16" text-anchor="middle" dominant-baseline="middle">No image</text>`+
		`</svg>`, width, height, width, height)
}

func dimension(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 || n > 4096 {
		return 400
	}
	return n
}

func lotParam(r *http.Request) (domain.LotID, bool) {
	return domain.ParseLotID(chi.URLParam(r, "id"))
}

func card(p domain.Product) catalog.Card {
	c := catalog.CardOf(p)
	c.Thumbnail = "/api/v1/lots/" + p.Lot.String() + "/thumbnail"
	return c
}

func cards(ps []domain.Product) []catalog.Card {
	out := make([]catalog.Card, 0, len(ps))
	for _, p := range ps {
		out = append(out, card(p))
	}
	return out
}

// contactURL 生成 wa.me 联系链接，预填 "Hi! I'm interested in <LOT> - <名称>"。
// phone 为空时返回空串。
func contactURL(phone string, p domain.Product) string {
	if phone == "" {
		return ""
	}
	msg := fmt.Sprintf("Hi! I'm interested in %s - %s", p.Lot, p.OfficialName)
	// 空格编码为 %20，与浏览器的 encodeURIComponent 一致。
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
