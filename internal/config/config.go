package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/lotshow/internal/assets"
)

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// FileName 是 cwd 下自动发现的配置文件名。
const FileName = "lotshow.json"

const (
	DefaultFeed        = "public/products.csv"
	DefaultAssetBase   = "https://raw.githubusercontent.com/NicholasDemeter/youdontneedthis-inventory/main"
	DefaultListingKind = "github"
	DefaultListingURL  = "https://api.github.com/repos/NicholasDemeter/youdontneedthis-inventory/contents"
	DefaultAddr        = ":8080"
	DefaultWorkers     = 4
	DefaultProbeOrder  = assets.OrderSorted
)

// 环境变量（也可写在 cwd/.env 中；进程环境优先于 .env）。
const (
	EnvFeed             = "LOTSHOW_FEED"
	EnvAssetBase        = "LOTSHOW_ASSET_BASE"
	EnvListingKind      = "LOTSHOW_LISTING_KIND"
	EnvListingURL       = "LOTSHOW_LISTING_URL"
	EnvGitHubToken      = "LOTSHOW_GITHUB_TOKEN"
	EnvCacheTTL         = "LOTSHOW_CACHE_TTL"
	EnvProbeTimeout     = "LOTSHOW_PROBE_TIMEOUT"
	EnvProbeConcurrency = "LOTSHOW_PROBE_CONCURRENCY"
	EnvProxyURL         = "LOTSHOW_PROXY_URL"
	EnvAddr             = "LOTSHOW_ADDR"
	EnvLogLevel         = "LOTSHOW_LOG_LEVEL"
	EnvLogFormat        = "LOTSHOW_LOG_FORMAT"
	EnvEnv              = "LOTSHOW_ENV"
)

// ListingKinds 是支持的目录列表来源。
var ListingKinds = []string{"github", "autoindex"}

// CLIArgs 是 CLI 暴露的覆盖项。字符串为空表示未指定；Workers=0 表示未指定。
type CLIArgs struct {
	ConfigPath  string
	Feed        string
	AssetBase   string
	ListingURL  string
	ListingKind string
	Addr        string
	LogLevel    string
	Workers     int
}

// FileConfig 对应 lotshow.json 的解析结构。
type FileConfig struct {
	Feed        string           `json:"feed"`
	AssetBase   string           `json:"asset_base"`
	Listing     *ListingConfig   `json:"listing"`
	CacheTTL    Duration         `json:"cache_ttl"`
	Probe       *ProbeConfig     `json:"probe"`
	Workers     int              `json:"workers"`
	RetryMax    int              `json:"retry_max"`
	Proxy       *ProxyConfig     `json:"proxy"`
	Patterns    *assets.Patterns `json:"patterns"`
	Placeholder string           `json:"placeholder"`
	Server      *ServerConfig    `json:"server"`
	Log         *LogConfig       `json:"log"`
	Env         string           `json:"env"`
}

type ListingConfig struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type ProbeConfig struct {
	Timeout          Duration `json:"timeout"`
	ThumbnailTimeout Duration `json:"thumbnail_timeout"`
	Concurrency      int      `json:"concurrency"`
	Order            string   `json:"order"`
	RPS              float64  `json:"rps"`
	Burst            int      `json:"burst"`
	IncludeThumbnail *bool    `json:"include_thumbnail"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type ServerConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	// Contact 是 WhatsApp 号码（如 "+15551234567"）；为空时详情不带联系链接。
	Contact string `json:"contact"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Duration 在 JSON 中写成字符串（"1h"、"5s"）；数字按秒解释。
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := time.ParseDuration(strings.TrimSpace(str))
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("duration 必须是字符串（如 \"5s\"）或秒数：%s", s)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取任何文件时为空。
	ConfigPath string

	// Feed 是绝对路径或 http(s) URL。
	Feed      string
	AssetBase string

	ListingKind string
	ListingURL  string
	GitHubToken string
	CacheTTL    time.Duration

	ProbeTimeout     time.Duration
	ThumbnailTimeout time.Duration
	ProbeConcurrency int
	ProbeOrder       string
	ProbeRPS         float64
	ProbeBurst       int
	IncludeThumbnail bool

	Workers  int
	RetryMax int
	ProxyURL string

	Patterns    assets.Patterns
	Placeholder string

	Addr        string
	CORSOrigins []string
	Contact     string

	LogLevel  string
	LogFormat string
	Env       string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			if e.Path == "" {
				return fmt.Sprintf("%s：%v", e.Code, e.Err)
			}
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，叠加环境变量与 CLI 参数，得到最终配置。
//
// 发现规则：
// 1) CLI 提供 --config：必须存在，否则 config_not_found
// 2) 否则尝试 <cwd>/lotshow.json（可选）
// 3) <cwd>/.env 存在时作为环境变量的补充来源
//
// 覆盖优先级：CLI > 环境变量 > 配置文件 > 默认值。
// getenv 为 nil 时使用 os.Getenv（测试可注入）。
func LoadEffective(cwd string, cli CLIArgs, getenv func(string) string) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	if getenv == nil {
		getenv = os.Getenv
	}

	var (
		cfgPath string
		fc      FileConfig
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			cfgPath = ""
		}
	}

	dotenv, err := readDotEnv(filepath.Join(cwdAbs, ".env"))
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: filepath.Join(cwdAbs, ".env"), Err: err}
	}
	env := func(key string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(dotenv[key])
	}

	return merge(cwdAbs, cli, env, fc, cfgPath)
}

func merge(cwd string, cli CLIArgs, env func(string) string, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	listing := ListingConfig{}
	if fc.Listing != nil {
		listing = *fc.Listing
	}
	probe := ProbeConfig{}
	if fc.Probe != nil {
		probe = *fc.Probe
	}
	server := ServerConfig{}
	if fc.Server != nil {
		server = *fc.Server
	}
	logc := LogConfig{}
	if fc.Log != nil {
		logc = *fc.Log
	}
	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = fc.Proxy.URL
	}

	out := EffectiveConfig{
		ConfigPath:  cfgPath,
		Feed:        pick(cli.Feed, env(EnvFeed), fc.Feed, DefaultFeed),
		AssetBase:   strings.TrimRight(pick(cli.AssetBase, env(EnvAssetBase), fc.AssetBase, DefaultAssetBase), "/"),
		ListingKind: strings.ToLower(pick(cli.ListingKind, env(EnvListingKind), listing.Kind, DefaultListingKind)),
		ListingURL:  pick(cli.ListingURL, env(EnvListingURL), listing.URL, DefaultListingURL),
		GitHubToken: env(EnvGitHubToken),
		ProbeOrder:  strings.ToLower(pick("", "", probe.Order, DefaultProbeOrder)),
		ProbeRPS:    probe.RPS,
		ProbeBurst:  probe.Burst,
		RetryMax:    fc.RetryMax,
		ProxyURL:    pick("", env(EnvProxyURL), proxyURL, ""),
		Patterns:    assets.DefaultPatterns(),
		Placeholder: pick("", "", fc.Placeholder, assets.DefaultPlaceholder),
		Addr:        pick(cli.Addr, env(EnvAddr), server.Addr, DefaultAddr),
		CORSOrigins: append([]string(nil), server.CORSOrigins...),
		Contact:     strings.TrimSpace(server.Contact),
		LogLevel:    strings.ToLower(pick(cli.LogLevel, env(EnvLogLevel), logc.Level, "info")),
		LogFormat:   strings.ToLower(pick("", env(EnvLogFormat), logc.Format, "")),
		Env:         strings.ToLower(pick("", env(EnvEnv), fc.Env, "development")),
	}
	// feed：URL 原样保留，本地路径相对 cwd 取绝对路径。
	if !isHTTPURL(out.Feed) {
		out.Feed = absCleanFrom(cwd, out.Feed)
	}
	if err := validateHTTPURL("asset_base", out.AssetBase); err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}
	if err := validateHTTPURL("listing.url", out.ListingURL); err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}
	if !contains(ListingKinds, out.ListingKind) {
		return EffectiveConfig{}, invalid("listing.kind 只能是 %s，实际是 %q", strings.Join(ListingKinds, "/"), out.ListingKind)
	}
	if out.ProbeOrder != assets.OrderSorted && out.ProbeOrder != assets.OrderDiscovery {
		return EffectiveConfig{}, invalid("probe.order 只能是 sorted 或 discovery，实际是 %q", out.ProbeOrder)
	}
	if out.ProxyURL != "" {
		if _, err := url.Parse(out.ProxyURL); err != nil {
			return EffectiveConfig{}, invalid("proxy.url 无效：%w", err)
		}
	}
	if out.Contact != "" && !validPhone(out.Contact) {
		return EffectiveConfig{}, invalid("server.contact 必须是电话号码（可带前导 +），实际是 %q", out.Contact)
	}
	if out.LogFormat != "" && out.LogFormat != "json" && out.LogFormat != "pretty" {
		return EffectiveConfig{}, invalid("log.format 只能是 json 或 pretty，实际是 %q", out.LogFormat)
	}

	// 时长：环境变量 > 配置文件 > 默认；必须为正。
	var err error
	if out.CacheTTL, err = pickDuration(env(EnvCacheTTL), fc.CacheTTL, assets.DefaultCacheTTL); err != nil {
		return EffectiveConfig{}, invalid("cache_ttl 无效：%w", err)
	}
	if out.ProbeTimeout, err = pickDuration(env(EnvProbeTimeout), probe.Timeout, assets.DefaultProbeTimeout); err != nil {
		return EffectiveConfig{}, invalid("probe.timeout 无效：%w", err)
	}
	if out.ThumbnailTimeout, err = pickDuration("", probe.ThumbnailTimeout, assets.DefaultThumbnailTimeout); err != nil {
		return EffectiveConfig{}, invalid("probe.thumbnail_timeout 无效：%w", err)
	}

	concurrency := probe.Concurrency
	if v := env(EnvProbeConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return EffectiveConfig{}, invalid("%s 必须是整数：%q", EnvProbeConcurrency, v)
		}
		concurrency = n
	}
	if concurrency == 0 {
		concurrency = assets.DefaultConcurrency
	}
	out.ProbeConcurrency = clamp(concurrency, 1, 256)

	workers := fc.Workers
	if cli.Workers != 0 {
		workers = cli.Workers
	}
	if workers == 0 {
		workers = DefaultWorkers
	}
	out.Workers = clamp(workers, 1, 32)

	if out.RetryMax < 0 {
		out.RetryMax = 0
	}
	if out.ProbeRPS < 0 {
		return EffectiveConfig{}, invalid("probe.rps 不能为负数")
	}

	out.IncludeThumbnail = true
	if probe.IncludeThumbnail != nil {
		out.IncludeThumbnail = *probe.IncludeThumbnail
	}
	if fc.Patterns != nil {
		out.Patterns = out.Patterns.Merge(*fc.Patterns)
	}
	return out, nil
}

// pick 返回第一个非空（trim 后）的值。
func pick(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func pickDuration(envVal string, fileVal Duration, def time.Duration) (time.Duration, error) {
	d := def
	if fileVal != 0 {
		d = time.Duration(fileVal)
	}
	if envVal != "" {
		v, err := time.ParseDuration(envVal)
		if err != nil {
			return 0, err
		}
		d = v
	}
	if d <= 0 {
		return 0, fmt.Errorf("必须大于 0，实际是 %v", d)
	}
	return d, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return nil
}

// validPhone 只接受数字，允许一个前导 +。
func validPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotEnv 读取 .env（不存在时返回空 map）；不会修改进程环境。
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Read(path)
}
