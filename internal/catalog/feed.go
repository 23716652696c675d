package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/John-Robertt/lotshow/internal/domain"
)

// feed 的列名（匹配时忽略大小写与首尾空白）。
const (
	colLot       = "LOT"
	colName      = "OFFICIAL_NAME"
	colRating    = "COOLNESS_RATING"
	colTagline   = "TAGLINE"
	colDesc      = "DESCRIPTION"
	colSpecs     = "SPECIFICATIONS"
	colPrice     = "PRICE"
	colPriceLink = "PRICE ESTIMATE HYPERLINKS"
	colCategory  = "CATEGORY"
)

var ratingRE = regexp.MustCompile(`[0-9]+`)

// ParseResult 是一次 feed 解析的结果。
type ParseResult struct {
	// Products 已按评分降序排列（同分保持 feed 顺序）。
	Products []domain.Product
	// Skipped 统计被丢弃的数据行：字段不足、CSV 格式错误、LOT 不合法、LOT 重复。
	Skipped int
}

// Parse 解析 CSV feed。
//
// 规则：
// - 第一条记录是表头；之后每条记录是一行商品
// - 支持引号字段（内含逗号、换行、"" 转义）；UTF-8 BOM 会被去掉
// - 行级问题只跳过该行并计数，不报错
// - 只有读不到表头之外的 I/O 错误才返回 error；空输入返回空结果
func Parse(r io.Reader) (ParseResult, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ParseResult{Products: []domain.Product{}}, nil
	}
	if err != nil {
		return ParseResult{}, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	res := ParseResult{Products: []domain.Product{}}
	seen := map[domain.LotID]bool{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Skipped++
				continue
			}
			return ParseResult{}, err
		}
		if len(rec) < len(header) {
			res.Skipped++
			continue
		}

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		lot, ok := domain.ParseLotID(get(colLot))
		if !ok || seen[lot] {
			res.Skipped++
			continue
		}
		seen[lot] = true

		res.Products = append(res.Products, domain.Product{
			Lot:            lot,
			OfficialName:   get(colName),
			Rating:         ParseRating(get(colRating)),
			Tagline:        get(colTagline),
			Description:    get(colDesc),
			Specifications: get(colSpecs),
			Price:          get(colPrice),
			PriceLink:      get(colPriceLink),
			Category:       get(colCategory),
		})
	}

	SortByRating(res.Products)
	return res, nil
}

// ParseRating 取自由文本中的第一段数字（"6 Star" => 6）；没有数字或溢出时为 0。
func ParseRating(s string) int {
	m := ratingRE.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SortByRating 原地按评分降序做稳定排序。
func SortByRating(ps []domain.Product) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Rating > ps[j].Rating })
}
