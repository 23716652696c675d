package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noTempLeft(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "."+name+".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}

func TestWriteFile_CreatesParentAndNoTempLeft(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path := filepath.Join(dir, "scan.json")

	if err := WriteFile(path, []byte(`{"ok":true}`), false); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != `{"ok":true}` {
		t.Fatalf("内容不一致：%q", string(b))
	}
	noTempLeft(t, dir, "scan.json")
}

func TestWriteFile_NoOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}

	err := WriteFile(path, []byte("new"), false)
	var ee *ExistsError
	if !errors.As(err, &ee) || !errors.Is(err, os.ErrExist) {
		t.Fatalf("期望 ExistsError，实际：%T %v", err, err)
	}
	if b, _ := os.ReadFile(path); string(b) != "old" {
		t.Fatalf("不允许覆盖时原文件不应改变：%q", string(b))
	}

	if err := WriteFile(path, []byte("new"), true); err != nil {
		t.Fatalf("overwrite=true 不期望错误：%v", err)
	}
	if b, _ := os.ReadFile(path); string(b) != "new" {
		t.Fatalf("覆盖后内容不一致：%q", string(b))
	}
}

func TestWriteFile_RenameFail_CleanupTemp(t *testing.T) {
	dir := t.TempDir()

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	if err := WriteFile(filepath.Join(dir, "a.json"), []byte("hello"), true); err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
	noTempLeft(t, dir, "a.json")
	if _, err := os.Stat(filepath.Join(dir, "a.json")); !os.IsNotExist(err) {
		t.Fatalf("不应写出最终文件")
	}
}

func TestWriteFile_TargetConflictDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "a.json"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFile(filepath.Join(dir, "a.json"), []byte("hello"), true)
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}
