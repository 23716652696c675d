package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/John-Robertt/lotshow/internal/app/run"
	"github.com/John-Robertt/lotshow/internal/config"
	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/infra/fsx"
	"github.com/John-Robertt/lotshow/internal/logger"
	"github.com/John-Robertt/lotshow/internal/web"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "serve":
		code = serveCmd(args[1:])
	case "scan":
		code = scanCmd(args[1:])
	case "probe":
		code = probeCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func serveCmd(args []string) int {
	if wantsHelp(args) {
		printServeUsage()
		return 0
	}
	ca, err := parseArgs(args, "--addr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printServeUsage()
		return 2
	}
	if len(ca.Positional) > 0 {
		fmt.Fprintf(os.Stderr, "参数错误：serve 不接受位置参数 %q\n\n", ca.Positional[0])
		printServeUsage()
		return 2
	}

	eff, err := loadConfig(ca)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return 1
	}
	log := newLogger(eff)

	c, err := build(eff, log)
	if err != nil {
		log.Error("初始化失败", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(web.Options{
		Catalog:     c.catalog,
		Media:       c.media,
		Metrics:     c.metrics.Handler(),
		CORSOrigins: eff.CORSOrigins,
		Contact:     eff.Contact,
		Logger:      log,
	})
	log.Info("配置已加载",
		"config", eff.ConfigPath,
		"feed", eff.Feed,
		"asset_base", eff.AssetBase,
		"listing", eff.ListingKind,
		"cache_ttl", eff.CacheTTL,
		"probe_timeout", eff.ProbeTimeout,
	)
	if err := web.ListenAndServe(ctx, eff.Addr, srv, log); err != nil {
		log.Error("HTTP 服务异常退出", "err", err)
		return 1
	}
	return 0
}

func scanCmd(args []string) int {
	if wantsHelp(args) {
		printScanUsage()
		return 0
	}
	ca, err := parseArgs(args, "--out", "--force", "--workers")
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printScanUsage()
		return 2
	}
	if len(ca.Positional) > 0 {
		fmt.Fprintf(os.Stderr, "参数错误：scan 不接受位置参数 %q\n\n", ca.Positional[0])
		printScanUsage()
		return 2
	}

	eff, err := loadConfig(ca)
	if err != nil {
		emitReport(reportForConfigError(ca, err))
		return 1
	}
	log := newLogger(eff)

	c, err := build(eff, log)
	if err != nil {
		log.Error("初始化失败", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW, eff)
	}

	rr := run.Execute(ctx, run.Deps{
		Catalog: c.catalog,
		Media:   c.media,
		Folders: c.resolver,
	}, run.Options{
		Workers:   eff.Workers,
		Feed:      eff.Feed,
		AssetBase: eff.AssetBase,
	}, obs)

	if ca.Out != "" {
		out, _ := filepath.Abs(ca.Out)
		if err := writeReportFile(out, rr, ca.Force); err != nil {
			fmt.Fprintf(os.Stderr, "写入报告失败：%v\n", err)
			emitReport(rr)
			return 1
		}
		if interactive {
			fmt.Fprintf(progressW, "report: %s\n", out)
		}
	}

	emitReport(rr)
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func probeCmd(args []string) int {
	if wantsHelp(args) {
		printProbeUsage()
		return 0
	}
	ca, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printProbeUsage()
		return 2
	}
	if len(ca.Positional) != 1 {
		fmt.Fprintf(os.Stderr, "参数错误：probe 需要且只需要一个 LOT（例如 LOT_001）\n\n")
		printProbeUsage()
		return 2
	}
	lot, ok := domain.ParseLotID(ca.Positional[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "参数错误：LOT 必须形如 LOT_001，实际是 %q\n", ca.Positional[0])
		return 2
	}

	eff, err := loadConfig(ca)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return 1
	}
	log := newLogger(eff)

	c, err := build(eff, log)
	if err != nil {
		log.Error("初始化失败", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	g := c.media.Lookup(ctx, lot)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(g)
	fmt.Fprintf(os.Stderr, "完成：folder=%q thumbnail=%t images=%d videos=%d timed_out=%t (%s)\n",
		g.Folder, g.HasThumbnail, len(g.Images), len(g.Videos), g.TimedOut, formatShortDuration(time.Since(started)),
	)
	if g.Empty() {
		return 1
	}
	return 0
}

// cliArgs 是所有子命令共用的参数形态；哪些 flag 可用由子命令决定。
type cliArgs struct {
	config.CLIArgs
	Out        string
	Force      bool
	Positional []string
}

var commonFlags = []string{
	"--config",
	"--feed",
	"--asset-base",
	"--listing-url",
	"--listing-kind",
	"--log-level",
}

// parseArgs 解析 `--name value` / `--name=value` 形式的参数。
//
// 规则：
// - 只接受公共 flag + extra 中列出的 flag，其余 `-` 开头的参数一律报错
// - --force 是布尔 flag，支持 --force=false
// - 值不能为空串
func parseArgs(args []string, extra ...string) (cliArgs, error) {
	allowed := make(map[string]bool, len(commonFlags)+len(extra))
	for _, f := range commonFlags {
		allowed[f] = true
	}
	for _, f := range extra {
		allowed[f] = true
	}

	var ca cliArgs
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			ca.Positional = append(ca.Positional, a)
			continue
		}

		name, val, hasVal := strings.Cut(a, "=")
		if !allowed[name] {
			return cliArgs{}, fmt.Errorf("未知参数 %q", a)
		}

		if name == "--force" {
			if !hasVal {
				ca.Force = true
				continue
			}
			switch val {
			case "true":
				ca.Force = true
			case "false":
				ca.Force = false
			default:
				return cliArgs{}, fmt.Errorf("--force 只能是 true 或 false，实际是 %q", val)
			}
			continue
		}

		if !hasVal {
			if i+1 >= len(args) {
				return cliArgs{}, fmt.Errorf("%s 需要一个值", name)
			}
			i++
			val = args[i]
		}
		if strings.TrimSpace(val) == "" {
			return cliArgs{}, fmt.Errorf("%s 不能为空", name)
		}

		switch name {
		case "--config":
			ca.ConfigPath = val
		case "--feed":
			ca.Feed = val
		case "--asset-base":
			ca.AssetBase = val
		case "--listing-url":
			ca.ListingURL = val
		case "--listing-kind":
			ca.ListingKind = val
		case "--log-level":
			ca.LogLevel = val
		case "--addr":
			ca.Addr = val
		case "--out":
			ca.Out = val
		case "--workers":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return cliArgs{}, fmt.Errorf("--workers 必须是正整数，实际是 %q", val)
			}
			ca.Workers = n
		}
	}
	return ca, nil
}

func loadConfig(ca cliArgs) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, &config.Error{Code: config.ErrCodeInvalid, Err: fmt.Errorf("读取当前目录失败：%w", err)}
	}
	return config.LoadEffective(cwd, ca.CLIArgs, os.Getenv)
}

func newLogger(eff config.EffectiveConfig) *slog.Logger {
	return logger.New(logger.Options{
		Writer:  os.Stderr,
		Format:  eff.LogFormat,
		Env:     eff.Env,
		Level:   logger.ParseLevel(eff.LogLevel),
		NoColor: !isTTY(os.Stderr),
	})
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func wantsHelp(args []string) bool {
	for _, a := range args {
		if isHelp(a) {
			return true
		}
	}
	return false
}

const commonUsage = `公共参数：
  --config <path>        配置文件（默认读取当前目录下的 lotshow.json，不存在则忽略）
  --feed <path|url>      商品 CSV（本地路径或 http(s) URL）
  --asset-base <url>     资产主机根 URL
  --listing-url <url>    目录列表 URL
  --listing-kind <kind>  目录列表类型：github|autoindex
  --log-level <level>    debug|info|warn|error
  -h, --help             显示帮助
`

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  lotshow serve [--addr :8080] [公共参数]
  lotshow scan  [--out report.json] [--force] [--workers N] [公共参数]
  lotshow probe <LOT_NNN> [公共参数]

命令：
  serve  启动 HTTP 服务（JSON API + 占位图 + /metrics）
  scan   对 feed 中每个 LOT 做一次媒体探测，输出 JSON 报告
  probe  探测单个 LOT 并输出其媒体视图

使用 "lotshow <命令> --help" 查看详细说明。
`)
}

func printServeUsage() {
	fmt.Fprint(os.Stdout, `用法：
  lotshow serve [--addr :8080] [公共参数]

参数：
  --addr <addr>          监听地址（默认 :8080）
`+commonUsage)
}

func printScanUsage() {
	fmt.Fprint(os.Stdout, `用法：
  lotshow scan [--out report.json] [--force] [--workers N] [公共参数]

参数：
  --out <path>           同时把报告写入文件（原子写入）
  --force                --out 已存在时覆盖
  --workers <N>          同时探测的 LOT 数（默认 4，上限 32）
`+commonUsage)
}

func printProbeUsage() {
	fmt.Fprint(os.Stdout, `用法：
  lotshow probe <LOT_NNN> [公共参数]
`+commonUsage)
}

func emitReport(rr domain.ScanReport) {
	summary := fmt.Sprintf("完成：ok=%d empty=%d no_folder=%d failed=%d skipped_rows=%d",
		rr.Summary.OK, rr.Summary.Empty, rr.Summary.NoFolder, rr.Summary.Failed, rr.SkippedRows,
	)
	if isTTY(os.Stdout) {
		fmt.Fprintln(os.Stdout, summary)
		for _, it := range rr.Items {
			if it.Status == domain.StatusOK {
				continue
			}
			key := it.Lot
			if key == "" {
				key = "<feed>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 ScanReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintln(os.Stderr, summary)
}

func reportForConfigError(ca cliArgs, err error) domain.ScanReport {
	now := time.Now().UTC()
	rr := domain.ScanReport{
		Feed:       ca.Feed,
		AssetBase:  ca.AssetBase,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.LotResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(path string, rr domain.ScanReport, force bool) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFile(path, b, force)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
