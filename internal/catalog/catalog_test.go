package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/lotshow/internal/domain"
)

type errSource struct{}

func (errSource) Open(context.Context) (io.ReadCloser, error) { return nil, errors.New("boom") }
func (errSource) String() string                               { return "err" }

func TestLoad_FileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	feed := header + "LOT_001,A,6 Star,t,d,s,p,,c\nLOT_002,short\n"
	if err := os.WriteFile(path, []byte(feed), 0o644); err != nil {
		t.Fatalf("写入 feed 失败：%v", err)
	}

	c := &Catalog{Source: NewSource(path, nil)}
	res := c.Load(context.Background())
	if res.Degraded {
		t.Fatalf("不期望 Degraded")
	}
	if len(res.Products) != 1 || res.Skipped != 1 {
		t.Fatalf("期望 1 条、跳过 1，实际 %d/%d", len(res.Products), res.Skipped)
	}
}

func TestLoad_MissingFileDegrades(t *testing.T) {
	c := &Catalog{Source: FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}}
	res := c.Load(context.Background())
	if !res.Degraded || res.Products == nil || len(res.Products) != 0 {
		t.Fatalf("缺失 feed 应返回空列表并标记 Degraded：%+v", res)
	}

	res = (&Catalog{Source: errSource{}}).Load(context.Background())
	if !res.Degraded {
		t.Fatalf("Open 失败应标记 Degraded")
	}
	res = (&Catalog{}).Load(context.Background())
	if !res.Degraded {
		t.Fatalf("未配置来源应标记 Degraded")
	}
}

func TestLoad_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, header+"LOT_007,Lamp,7 Star,t,d,s,p,,c\n")
	}))
	defer srv.Close()

	src := NewSource(srv.URL+"/products.csv", srv.Client())
	if _, ok := src.(HTTPSource); !ok {
		t.Fatalf("http URL 应选择 HTTPSource，实际 %T", src)
	}
	res := (&Catalog{Source: src}).Load(context.Background())
	if res.Degraded || len(res.Products) != 1 || res.Products[0].Lot != "LOT_007" {
		t.Fatalf("HTTP feed 加载不符合预期：%+v", res)
	}

	res = (&Catalog{Source: NewSource(srv.URL+"/nope.csv", srv.Client())}).Load(context.Background())
	if !res.Degraded {
		t.Fatalf("404 应标记 Degraded")
	}
}

func TestViews(t *testing.T) {
	var ps []domain.Product
	for i := 1; i <= 12; i++ {
		ps = append(ps, domain.Product{Lot: domain.LotID(fmt.Sprintf("LOT_%03d", i)), Rating: 6, Category: "Lamps"})
	}
	ps = append(ps,
		domain.Product{Lot: "LOT_100", Rating: 7, Category: " cameras "},
		domain.Product{Lot: "LOT_101", Rating: 7, Category: "Cameras"},
		domain.Product{Lot: "LOT_102", Rating: 2},
	)
	SortByRating(ps)

	if got := Featured(ps); len(got) != 2 || got[0].Lot != "LOT_100" {
		t.Fatalf("Featured 不符合预期：%+v", got)
	}
	car := Carousel(ps)
	if len(car) != CarouselMax || car[0].Lot != "LOT_001" {
		t.Fatalf("Carousel 应取前 %d 个评分 6 的商品：%d", CarouselMax, len(car))
	}
	if got := WithCategory(ps, "CAMERAS"); len(got) != 2 {
		t.Fatalf("分类匹配应忽略大小写与空白：%d", len(got))
	}
	if got := Categories(ps); strings.Join(got, "|") != "Cameras|Lamps|cameras" {
		// 排序按字节序：大写在前。
		t.Fatalf("Categories 不符合预期：%v", got)
	}
	if p, ok := Find(ps, "LOT_102"); !ok || p.Rating != 2 {
		t.Fatalf("Find 不符合预期")
	}
	if _, ok := Find(ps, "LOT_999"); ok {
		t.Fatalf("不存在的 LOT 不应找到")
	}
}
