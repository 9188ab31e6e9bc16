package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/api/graph"
	"github.com/lvdashuaibi/littlepoll/internal/api/web"
	"github.com/lvdashuaibi/littlepoll/internal/logger"
)

// Service 页面、GraphQL与管理端共用的业务接口
type Service interface {
	web.Polls
	web.Admin
}

// HealthChecker 健康检查
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	log    *slog.Logger
}

// NewServer 初始化gin引擎并注册所有路由
func NewServer(cfg *config.Config, svc Service, health HealthChecker, log *slog.Logger) (*Server, error) {
	if cfg.Env != logger.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("api.NewServer: 解析页面模板失败: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), web.RequestLogger(log))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/polls/")
	})

	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health.Ping(c.Request.Context()); err != nil {
				log.Error("健康检查失败", logger.Err(err))
				c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})

	web.RegisterRoutes(r.Group("/polls"), web.NewPollsHandler(svc, log))

	if cfg.Admin.Password != "" {
		admin := r.Group("/admin", gin.BasicAuth(gin.Accounts{cfg.Admin.Username: cfg.Admin.Password}))
		web.RegisterAdminRoutes(admin, web.NewAdminHandler(svc, log))
	} else {
		log.Warn("admin.password 为空，管理接口未启用")
	}

	if cfg.GraphQL.Enabled {
		gql := r.Group(cfg.GraphQL.Path, cors.New(corsConfig(cfg.Server.AllowOrigins)))
		gql.POST("", gin.WrapH(graph.NewHandler(svc, log)))
		gql.OPTIONS("", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		gql.GET("/playground", gin.WrapH(graph.PlaygroundHandler(cfg.GraphQL.Path)))
	}

	return &Server{
		engine: r,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: r,
		},
		log: log,
	}, nil
}

// corsConfig 未配置来源时允许任意来源但不携带凭证
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// Run 启动HTTP服务，正常关闭时返回 nil
func (s *Server) Run() error {
	s.log.Info("HTTP服务已启动", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("HTTP服务正在关闭")
	return s.server.Shutdown(ctx)
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}
