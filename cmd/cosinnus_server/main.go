package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cosinnus_server/internal/config"
	dao "cosinnus_server/internal/dao/mysql"
	myredis "cosinnus_server/internal/dao/redis"
	"cosinnus_server/internal/gateway/websocket"
	"cosinnus_server/internal/handler"
	"cosinnus_server/internal/https_server"
	"cosinnus_server/internal/infrastructure/logger"
	"cosinnus_server/internal/infrastructure/mq"
	"cosinnus_server/internal/service"
	"cosinnus_server/pkg/util/jwt"
	"cosinnus_server/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("日志初始化成功")

	// 3. 事件编号与参数校验
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	if err := handler.InitTrans(conf.MainConfig.Locale); err != nil {
		zap.L().Fatal("init validator translations failed", zap.Error(err))
	}

	// 4. 初始化数据库
	repos := dao.Init(conf)
	zap.L().Info("数据库初始化成功")

	// 5. 初始化 Redis
	cache := myredis.Init(conf)
	zap.L().Info("Redis 初始化成功")

	// 6. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)

	// 7. 成员变更事件总线
	bus := mq.NewBus(conf.KafkaConfig)
	hub := websocket.NewHub()
	bus.Subscribe(mq.NewUnreadInvalidator(cache).Handle)
	bus.Subscribe(hub.Handle)
	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)
	zap.L().Info("事件总线已启动", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 8. 初始化 Service 层 (依赖注入)
	svc, err := service.NewServices(repos, cache, bus, conf)
	if err != nil {
		zap.L().Fatal("init services failed", zap.Error(err))
	}
	handlers := handler.NewHandlers(svc.Membership, svc.PortalMembership, svc.Stream, svc.Group, hub, conf.StreamConfig.PageSize)

	// 9. 启动 HTTP 服务
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler:           https_server.Init(conf, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务已启动", zap.String("addr", srv.Addr))

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("关闭服务器...")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("http shutdown failed", zap.Error(err))
	}
	cancel()
	bus.Close()
	hub.Close()
	cache.Close()

	zap.L().Info("服务器已关闭")
}
