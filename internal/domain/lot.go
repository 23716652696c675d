package domain

import (
	"regexp"
	"strings"
)

// LotID 是商品的唯一主键（形如 LOT_001，固定 3 位零填充数字）。
//
// 约束：feed 中 LOT 不合法的行直接丢弃；资产主机上的目录名以 LotID + "_" 开头。
type LotID string

var (
	lotRE          = regexp.MustCompile(`^LOT_[0-9]{3}$`)
	folderPrefixRE = regexp.MustCompile(`^(LOT_[0-9]{3})_`)
)

// ParseLotID 校验并解析 LOT 字符串（只去掉首尾空白，不做大小写修正）。
func ParseLotID(s string) (LotID, bool) {
	s = strings.TrimSpace(s)
	if !lotRE.MatchString(s) {
		return "", false
	}
	return LotID(s), true
}

// FolderLotPrefix 从资产目录名中提取 LOT 前缀，例如 "LOT_001_Some_Name" => LOT_001。
func FolderLotPrefix(name string) (LotID, bool) {
	m := folderPrefixRE.FindStringSubmatch(name)
	if len(m) < 2 {
		return "", false
	}
	return LotID(m[1]), true
}

func (l LotID) String() string { return string(l) }
