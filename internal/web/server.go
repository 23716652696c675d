package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/John-Robertt/lotshow/internal/assets"
	"github.com/John-Robertt/lotshow/internal/catalog"
	"github.com/John-Robertt/lotshow/internal/domain"
	"github.com/John-Robertt/lotshow/internal/logger"
)

// CatalogLoader 每次请求都重新加载 feed。
type CatalogLoader interface {
	Load(ctx context.Context) catalog.Result
}

// MediaLookup 把 lot 解析成媒体视图。
type MediaLookup interface {
	Lookup(ctx context.Context, lot domain.LotID) assets.Gallery
	ThumbnailURL(ctx context.Context, lot domain.LotID) string
}

// Options 是 Server 的依赖。Metrics 为空时不挂载 /metrics。
type Options struct {
	Catalog     CatalogLoader
	Media       MediaLookup
	Metrics     http.Handler
	CORSOrigins []string
	// Contact 是详情页联系链接使用的 WhatsApp 号码，可为空。
	Contact string
	Logger  *slog.Logger
}

// Server 是 HTTP 表现层：只做参数校验与 JSON 渲染，业务全部委托给 catalog/assets。
type Server struct {
	catalog CatalogLoader
	media   MediaLookup
	metrics http.Handler
	origins []string
	contact string
	router  *chi.Mux
	log     *slog.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		catalog: opts.Catalog,
		media:   opts.Media,
		metrics: opts.Metrics,
		origins: opts.CORSOrigins,
		contact: opts.Contact,
		router:  chi.NewRouter(),
		log:     logger.OrDiscard(opts.Logger),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/placeholder.svg", s.handlePlaceholder)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/lots", func(r chi.Router) {
			r.Get("/", s.handleListLots)
			r.Get("/featured", s.handleFeatured)
			r.Get("/{id}", s.handleGetLot)
			r.Get("/{id}/media", s.handleGetMedia)
			r.Get("/{id}/thumbnail", s.handleThumbnail)
		})
	})
}

// requestLogger 用 slog 记录每个请求（替代 chi 自带的文本 Logger）。
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// ListenAndServe 启动 HTTP 服务，ctx 取消后优雅关闭（最多等待 10 秒）。
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	log = logger.OrDiscard(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		// 详情页要等一次完整探测（默认 5s 上限）。
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP 服务已启动", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("正在关闭 HTTP 服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
