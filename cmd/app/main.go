package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"shorturl-go/internal/handler"
	"shorturl-go/internal/i18n"
	"shorturl-go/internal/middleware"
	"shorturl-go/internal/registry"
	"shorturl-go/internal/repository"
	"shorturl-go/internal/service"
	"shorturl-go/pkg/logging"
)

func initConfig() {
	wd, _ := os.Getwd()
	log.Printf("Loading config from: %s/config.yaml", wd)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
}

func startServer(r *gin.Engine) {
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logging.Logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := repository.RedisPool.Close(); err != nil {
		logging.Logger.Warn("Redis pool close failed", zap.Error(err))
	}

	logging.Logger.Info("Server exiting")
}

func main() {

	initConfig()
	logging.InitLoggerFromConfig()

	logging.Logger.Info("Application started")

	repository.InitDB(logging.Logger, logging.AtomicLevel)
	repository.InitRedis()

	// 初始化 i18n（加载 TOML 文件）
	bundle, err := i18n.InitI18n([]string{
		"./i18n/en.toml",
		"./i18n/zh.toml",
	}, "en")
	if err != nil {
		panic(err)
	}

	urlRegistry := registry.New(repository.DB)
	redirectService := service.NewRedirectService(urlRegistry, repository.RedisPool)
	reservedKeyService := service.NewReservedKeyService(urlRegistry)

	shortLinkHandler := handler.NewShortLinkHandler(redirectService)
	reservedKeyHandler := handler.NewReservedKeyHandler(reservedKeyService)

	r := gin.New()
	r.Use(gin.Recovery())

	// 注册全局错误中间件
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(bundle))

	api := r.Group("/api")
	api.Use(middleware.OwnerMiddleware())
	{
		api.POST("/shortlink", shortLinkHandler.Create)
		api.GET("/shortlink", shortLinkHandler.List)
		api.PUT("/shortlink/:key", shortLinkHandler.Update)
		api.DELETE("/shortlink/:key", shortLinkHandler.Delete)
		api.GET("/shortlink/:key/qr", shortLinkHandler.GetQRImage)
		api.GET("/shortlink/:key/stats", shortLinkHandler.GetStats)

		api.POST("/reserved-key", reservedKeyHandler.Create)
		api.GET("/reserved-key", reservedKeyHandler.List)
		api.DELETE("/reserved-key/:id", reservedKeyHandler.Delete)
	}

	// 未匹配到 /api 路由的 GET 一律按短键跳转处理
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		shortLinkHandler.Redirect(c)
	})

	c := cron.New()

	// 定时任务：每十分钟把 redis 中的日统计落库
	_, addErr := c.AddFunc("*/10 * * * *", func() {
		if err := redirectService.FlushDailyStats(context.Background()); err != nil {
			logging.Logger.Error("Failed to flush daily stats via cron job", zap.Error(err))
		}
	})

	if addErr != nil {
		logging.Logger.Fatal("Failed to schedule cron job", zap.Error(addErr))
	}

	c.Start()

	startServer(r)
}
