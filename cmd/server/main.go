// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consumerai-go/internal/config"
	"consumerai-go/internal/handler"
	"consumerai-go/internal/middleware"
	"consumerai-go/internal/pipeline"
	"consumerai-go/internal/progress"
	"consumerai-go/internal/repository"
	"consumerai-go/internal/service"
	"consumerai-go/pkg/chatbot"
	"consumerai-go/pkg/database"
	"consumerai-go/pkg/embedding"
	"consumerai-go/pkg/es"
	"consumerai-go/pkg/extract"
	"consumerai-go/pkg/kafka"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/notify"
	"consumerai-go/pkg/ocr"
	"consumerai-go/pkg/payments"
	"consumerai-go/pkg/storage"
	"consumerai-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、缓存、对象存储、索引与消息队列
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elastic); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducers(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	creditRepo := repository.NewCreditRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.RDB)
	tradelineRepo := repository.NewTradelineRepository(database.DB)
	documentRepo := repository.NewDocumentRepository(database.DB)
	checkoutRepo := repository.NewCheckoutRepository(database.RDB)

	// 5. 初始化外部服务客户端
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	chatbotClient := chatbot.NewClient(cfg.ChatBot)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	extractClient := extract.NewClient(cfg.Extractor)
	ocrClient := ocr.NewClient(cfg.OCR)
	paymentsClient := payments.NewClient(cfg.Stripe)
	notifier := notify.NewClient(cfg.Notify)

	// 6. 初始化 Service (依赖注入)
	userService := service.NewUserService(userRepo, jwtManager, database.RDB)
	creditService := service.NewCreditService(creditRepo, notifier)
	chatService := service.NewChatService(sessionRepo, chatbotClient)
	checkoutService := service.NewCheckoutService(cfg.Stripe, userRepo, userService, creditService,
		paymentsClient, checkoutRepo, cfg.Credits.ProBonus)
	tradelineService := service.NewTradelineService(tradelineRepo)
	documentService := service.NewDocumentService(documentRepo, cfg.MinIO, cfg.Elastic)
	adminService := service.NewAdminService(userRepo)

	// 7. 初始化文档摄取流水线并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(documentRepo, extractClient, ocrClient, embeddingClient, cfg.MinIO, cfg.Elastic)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService, creditService, documentService)
	creditHandler := handler.NewCreditHandler(creditService, cfg.Credits)
	chatHandler := handler.NewChatHandler(chatService, jwtManager, progress.NewSimulator(nil))
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	tradelineHandler := handler.NewTradelineHandler(tradelineService)
	documentHandler := handler.NewDocumentHandler(documentService)
	adminHandler := handler.NewAdminHandler(adminService)

	authRequired := middleware.AuthMiddleware(jwtManager, userService)

	api := r.Group("/api")
	{
		// Auth 路由组
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		// 当前用户路由组，需要认证
		users := api.Group("/users", authRequired)
		{
			users.GET("/me", userHandler.Me)
			users.GET("/me/credits", userHandler.MyCredits)
			users.GET("/me/files", userHandler.MyFiles)
		}

		// 积分路由组，需要认证
		credits := api.Group("/credits", authRequired)
		{
			credits.POST("/award", creditHandler.Award)
			credits.POST("/click", creditHandler.Click)
			credits.POST("/spend", creditHandler.Spend)
		}

		// 对话路由组，需要认证
		chat := api.Group("/chat", authRequired)
		{
			chat.POST("/session", chatHandler.Session)
			chat.DELETE("/session", chatHandler.ResetSession)
			chat.POST("/message", chatHandler.SendMessage)
			chat.GET("/history", chatHandler.History)
		}
		// WebSocket 进度播放路由，token 走路径参数
		r.GET("/api/chat/progress/:token", chatHandler.Progress)

		// 结账路由组，需要认证
		checkout := api.Group("/checkout", authRequired)
		{
			checkout.POST("/session", checkoutHandler.CreateSession)
			checkout.GET("/verify", checkoutHandler.Verify)
		}

		// 交易线路由组，目录公开，其余需要认证
		tradelines := api.Group("/tradelines")
		{
			tradelines.GET("", tradelineHandler.List)
			tradelines.POST("/sign-agreement", authRequired, tradelineHandler.SignAgreement)
			tradelines.POST("/orders", authRequired, tradelineHandler.CreateOrder)
			tradelines.GET("/orders", authRequired, tradelineHandler.ListOrders)
		}

		// 文档路由组，需要认证
		documents := api.Group("/documents", authRequired)
		{
			documents.POST("/upload", documentHandler.Upload)
			documents.GET("/download", documentHandler.Download)
			documents.GET("/search", documentHandler.Search)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := api.Group("/admin", authRequired, middleware.AdminAuthMiddleware())
		{
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.POST("/tradelines/sync", tradelineHandler.Sync)
			admin.POST("/tradelines/seed", tradelineHandler.Seed)
		}
	}

	// 10. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
