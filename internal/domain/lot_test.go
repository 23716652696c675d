package domain

import (
	"reflect"
	"testing"
)

func TestParseLotID(t *testing.T) {
	cases := []struct {
		in   string
		want LotID
		ok   bool
	}{
		{"LOT_001", "LOT_001", true},
		{"  LOT_123 ", "LOT_123", true},
		{"LOT_1", "", false},
		{"LOT_0001", "", false},
		{"lot_001", "", false},
		{"LOT-001", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseLotID(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseLotID(%q)=(%q,%v)，期望 (%q,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFolderLotPrefix(t *testing.T) {
	if got, ok := FolderLotPrefix("LOT_001_Some_Name"); !ok || got != "LOT_001" {
		t.Fatalf("期望 LOT_001，实际 (%q,%v)", got, ok)
	}
	// 必须带下划线后缀：裸 LOT 不算目录前缀。
	if _, ok := FolderLotPrefix("LOT_001"); ok {
		t.Fatalf("LOT_001 不应匹配目录前缀")
	}
	if _, ok := FolderLotPrefix("notes.txt"); ok {
		t.Fatalf("notes.txt 不应匹配目录前缀")
	}
}

func TestBuildFolderMapping_ExcludesFiles(t *testing.T) {
	entries := []DirEntry{
		{Name: "LOT_001_Widget", IsDir: true},
		{Name: "LOT_002_Gadget", IsDir: true},
		{Name: "notes.txt", IsDir: false},
		{Name: "LOT_003_readme.md", IsDir: false},
		{Name: "misc", IsDir: true},
	}
	got := BuildFolderMapping(entries)
	want := FolderMapping{
		"LOT_001": "LOT_001_Widget",
		"LOT_002": "LOT_002_Gadget",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("映射不符合预期：got=%v want=%v", got, want)
	}
}

func TestBuildFolderMapping_LastSeenWins(t *testing.T) {
	got := BuildFolderMapping([]DirEntry{
		{Name: "LOT_007_Old", IsDir: true},
		{Name: "LOT_007_New", IsDir: true},
	})
	if got["LOT_007"] != "LOT_007_New" {
		t.Fatalf("期望后出现者覆盖，实际 %q", got["LOT_007"])
	}
}
