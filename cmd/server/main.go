package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/rps-slot/internal/api"
	"github.com/wfunc/rps-slot/internal/config"
	"github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/logger"
	"github.com/wfunc/rps-slot/internal/metrics"
	ws "github.com/wfunc/rps-slot/internal/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	metrics    *metrics.Provider
	hub        *ws.Hub
	router     *api.Router
	httpServer *http.Server

	// 关闭控制
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	printStartInfo(cfg)

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动猜拳老虎机服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	s.startServices()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessionCfg, err := ws.NewSessionConfig(s.cfg.Game)
	if err != nil {
		return err
	}

	if s.cfg.Monitor.Enabled {
		s.metrics = metrics.NewProvider()
		otel.SetMeterProvider(s.metrics.MeterProvider())

		m, err := metrics.New()
		if err != nil {
			return errors.Wrap(err, errors.ErrUnknown, "初始化指标失败")
		}
		sessionCfg.Recorder = m
	}

	sessionCfg.Logger = logger.WithModule("game")
	s.hub = ws.NewHub(sessionCfg, logger.WithModule("websocket"))
	s.router = api.NewRouter(s.hub, s.cfg, logger.WithModule("api"))
	if s.metrics != nil {
		s.router.EnableMetrics(s.metrics)
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// startServices 启动服务
func (s *Server) startServices() {
	s.logger.Info("启动服务...")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
		s.logger.Info("会话中心已停止")
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			// 触发关闭流程
			s.signalShutdown()
		}
	}()

	s.logger.Info("所有服务启动完成")
}

func (s *Server) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
		s.signalShutdown()
	case <-s.shutdownCh:
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 取消主上下文，关闭所有会话
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	if s.metrics != nil {
		if err := s.metrics.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("指标关闭失败", zap.Error(err))
		}
	}

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}
	return nil
}

// reloadConfig 重新加载游戏配置，新时序从下一局开始生效。
// 服务器和日志配置只在启动时读取，s.cfg 不随重载变化。
func (s *Server) reloadConfig(newCfg *config.Config) {
	sessionCfg, err := ws.NewSessionConfig(newCfg.Game)
	if err != nil {
		s.logger.Error("游戏配置无效，保留原配置", zap.Error(err))
		return
	}
	s.hub.SetSessionConfig(sessionCfg)
	s.logger.Info("配置重新加载完成", zap.String("file", config.ConfigFile()))
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("猜拳老虎机服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("猜拳老虎机服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  rps-slot-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  RPS_SLOT_SERVER_PORT       监听端口")
	fmt.Println("  RPS_SLOT_GAME_SEED         随机种子 (0 表示加密随机数)")
	fmt.Println("  RPS_SLOT_LOG_LEVEL         日志级别")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  rps-slot-server -config=/path/to/config.yaml")
	fmt.Println("  rps-slot-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	banner := `
╔═══════════════════════════════════════════════╗
║                                               ║
║        ✊  ✋  ✌️   R P S   S L O T             ║
║                                               ║
║              猜拳老虎机游戏服务器             ║
║                                               ║
╚═══════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("配置文件: %s\n", config.ConfigFile())
	fmt.Println("═════════════════════════════════════════════════")
}
