// Package https_server 创建 gin 引擎并挂载中间件与路由
package https_server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/config"
	"cosinnus_server/internal/handler"
	"cosinnus_server/internal/infrastructure/logger"
	"cosinnus_server/internal/infrastructure/middleware"
	"cosinnus_server/internal/router"
)

// Init 创建 gin 引擎
// 顺序：请求日志、panic 恢复、CORS、可选的 TLS 跳转、业务路由
func Init(conf *config.Config, handlers *handler.Handlers) *gin.Engine {
	if conf.MainConfig.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", logger.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{logger.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsConfig))

	if conf.MainConfig.ForceTLS {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	router.NewRouter(handlers).RegisterRoutes(engine)
	return engine
}
