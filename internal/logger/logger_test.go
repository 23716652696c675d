package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_FormatFromEnv(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Env: "production", Level: slog.LevelInfo})
	l.Info("catalog loaded", "products", 3)
	if !strings.Contains(buf.String(), `"msg":"catalog loaded"`) {
		t.Fatalf("production 应输出 JSON，实际 %q", buf.String())
	}

	buf.Reset()
	l = New(Options{Writer: &buf, Env: "development", NoColor: true})
	l.Info("catalog loaded", "products", 3)
	got := buf.String()
	if !strings.Contains(got, "INF catalog loaded products=3") {
		t.Fatalf("pretty 输出不符合预期：%q", got)
	}
	if strings.Contains(got, "\033[") {
		t.Fatalf("NoColor 时不应输出 ANSI 颜色：%q", got)
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Format: FormatPretty, Level: slog.LevelWarn, NoColor: true})
	l.Info("hidden")
	l.Warn("listing failed", "lister", "github")
	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("info 日志应被过滤：%q", got)
	}
	if !strings.Contains(got, "WRN listing failed lister=github") {
		t.Fatalf("warn 日志不符合预期：%q", got)
	}
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Format: FormatPretty, NoColor: true})
	l.With("component", "prober").WithGroup("probe").Info("done", "lot", "LOT_001", "msg", "a b")
	got := buf.String()
	if !strings.Contains(got, "component=prober probe.lot=LOT_001") {
		t.Fatalf("属性/分组输出不符合预期：%q", got)
	}
	if !strings.Contains(got, `probe.msg="a b"`) {
		t.Fatalf("含空格的值应加引号：%q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v，期望 %v", in, got, want)
		}
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatalf("OrDiscard(nil) 不应返回 nil")
	}
}
