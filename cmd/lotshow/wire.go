package main

import (
	"fmt"
	"log/slog"

	"github.com/John-Robertt/lotshow/internal/assets"
	"github.com/John-Robertt/lotshow/internal/catalog"
	"github.com/John-Robertt/lotshow/internal/config"
	"github.com/John-Robertt/lotshow/internal/infra/httpx"
	"github.com/John-Robertt/lotshow/internal/lister"
	"github.com/John-Robertt/lotshow/internal/lister/autoindex"
	"github.com/John-Robertt/lotshow/internal/lister/github"
	"github.com/John-Robertt/lotshow/internal/observability"
)

// components 是三个子命令共用的对象图。
type components struct {
	metrics  *observability.Metrics
	catalog  *catalog.Catalog
	resolver *assets.Resolver
	media    *assets.Service
}

// build 按生效配置组装对象图。这里只做构造，不发任何网络请求。
func build(eff config.EffectiveConfig, log *slog.Logger) (*components, error) {
	m := observability.New(nil)

	listClient, err := httpx.NewListingClient(httpx.Options{
		ProxyURL: eff.ProxyURL,
		RetryMax: eff.RetryMax,
	})
	if err != nil {
		return nil, err
	}
	probeClient, err := httpx.NewProbeClient(httpx.Options{
		ProxyURL: eff.ProxyURL,
		RPS:      eff.ProbeRPS,
		Burst:    eff.ProbeBurst,
	})
	if err != nil {
		return nil, err
	}

	reg, err := lister.NewRegistry(
		github.Lister{URL: eff.ListingURL, Token: eff.GitHubToken, Client: listClient},
		autoindex.Lister{URL: eff.ListingURL, Client: listClient},
	)
	if err != nil {
		return nil, err
	}
	l, ok := reg.Get(eff.ListingKind)
	if !ok {
		return nil, fmt.Errorf("未知的 listing.kind：%q（可选：%v）", eff.ListingKind, reg.Names())
	}

	resolver := assets.NewResolver(l, assets.ResolverOptions{
		TTL:     eff.CacheTTL,
		Logger:  log.With("component", "resolver"),
		Metrics: m,
	})
	prober := &assets.Prober{
		Base:             eff.AssetBase,
		Patterns:         eff.Patterns,
		Checker:          assets.HTTPChecker{Client: probeClient, Logger: log.With("component", "checker")},
		Timeout:          eff.ProbeTimeout,
		ThumbnailTimeout: eff.ThumbnailTimeout,
		Concurrency:      eff.ProbeConcurrency,
		Order:            eff.ProbeOrder,
		IncludeThumbnail: eff.IncludeThumbnail,
		Logger:           log.With("component", "prober"),
		Metrics:          m,
	}

	media := &assets.Service{
		Resolver:    resolver,
		Prober:      prober,
		Placeholder: eff.Placeholder,
	}
	cat := &catalog.Catalog{
		Source:  catalog.NewSource(eff.Feed, listClient),
		Logger:  log.With("component", "catalog"),
		Metrics: m,
	}
	return &components{
		metrics:  m,
		catalog:  cat,
		resolver: resolver,
		media:    media,
	}, nil
}
