package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/lotshow/internal/domain"
)

func TestCLI_NoTTY_StdoutOnlyScanReportJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("需要 go run，-short 下跳过")
	}
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 ScanReport JSON（进度/日志必须走 stderr）。
	mux := http.NewServeMux()
	mux.HandleFunc("/inv/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/inv/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><a href="../">../</a><a href="LOT_001_Camera/">LOT_001_Camera/</a></body></html>`))
		case "/inv/LOT_001_Camera/LOT_001_THUMBNAIL.jpg", "/inv/LOT_001_Camera/Photos/LOT_001_1.jpg":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	feed := filepath.Join(t.TempDir(), "products.csv")
	csv := "LOT,OFFICIAL_NAME,COOLNESS_RATING,TAGLINE,DESCRIPTION,SPECIFICATIONS,PRICE,PRICE ESTIMATE HYPERLINKS,CATEGORY\n" +
		"LOT_001,Camera,7,Snap,Old.,35mm,$20,,Cameras\n" +
		"LOT_002,Lamp,6,Glow,Bright.,E27,$5,,Home\n"
	if err := os.WriteFile(feed, []byte(csv), 0o644); err != nil {
		t.Fatalf("写入 feed 失败：%v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/lotshow", "scan",
		"--feed", feed,
		"--asset-base", srv.URL+"/inv",
		"--listing-kind", "autoindex",
		"--listing-url", srv.URL+"/inv/",
	)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	var rr domain.ScanReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 ScanReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Summary.OK != 1 || rr.Summary.NoFolder != 1 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
	if strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度输出：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "完成：ok=1") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}
