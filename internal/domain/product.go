package domain

// Product 是从 feed 解析得到的一条商品记录。
//
// 约束：
// - Lot 已通过 ParseLotID 校验，feed 内唯一
// - Rating 从自由文本中提取（提取失败为 0，不报错）
// - 构造后只读；feed 是唯一数据源，每次加载都重新解析
type Product struct {
	Lot            LotID  `json:"lot"`
	OfficialName   string `json:"official_name"`
	Rating         int    `json:"rating"`
	Tagline        string `json:"tagline"`
	Description    string `json:"description"`
	Specifications string `json:"specifications"`
	Price          string `json:"price"`
	PriceLink      string `json:"price_link,omitempty"`
	Category       string `json:"category,omitempty"`
}
