package domain

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// MediaItem 描述一次探测确认存在的远端文件。
// 只在单次探测中临时产生，不落盘。
type MediaItem struct {
	URL      string `json:"url"`
	Kind     string `json:"kind"` // "image" | "video"
	Filename string `json:"filename"`
	// Thumbnail 仅在 canonical 缩略图候选命中时为 true。
	Thumbnail bool `json:"thumbnail,omitempty"`
}

// DirEntry 是目录列表接口返回的一项（只关心名字与是否为目录）。
type DirEntry struct {
	Name  string
	IsDir bool
}

// FolderMapping 把 LOT 前缀映射到资产主机上的真实目录名。
// 整体替换，不做原地修改；调用方只读。
type FolderMapping map[LotID]string

// BuildFolderMapping 从目录列表构建映射：只收录目录项，且目录名必须以 LOT_NNN_ 开头。
// 同一前缀出现多次时后出现者覆盖（资产主机自身不应产生重复）。
func BuildFolderMapping(entries []DirEntry) FolderMapping {
	m := make(FolderMapping, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		lot, ok := FolderLotPrefix(e.Name)
		if !ok {
			continue
		}
		m[lot] = e.Name
	}
	return m
}
