package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/MMTunning/MMTunning/internal/billing"
	"github.com/MMTunning/MMTunning/internal/catalog"
	"github.com/MMTunning/MMTunning/internal/common/config"
	"github.com/MMTunning/MMTunning/internal/common/db"
	"github.com/MMTunning/MMTunning/internal/common/logger"
	"github.com/MMTunning/MMTunning/internal/common/server"
	"github.com/MMTunning/MMTunning/internal/common/tracing"
	"github.com/MMTunning/MMTunning/internal/directory"
	"github.com/MMTunning/MMTunning/internal/events"
	"github.com/MMTunning/MMTunning/internal/gateway"
	"github.com/MMTunning/MMTunning/internal/order"
	"github.com/MMTunning/MMTunning/internal/report"
	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc"
)

var (
	configPath = flag.String("config", "configs/workshop-service.json", "配置文件路径")
	consulHost = flag.String("consul-host", "", "从 Consul KV 拉取配置时的 Consul 地址")
	consulPort = flag.Int("consul-port", 8500, "Consul 端口")
	consulKey  = flag.String("consul-key", "", "Consul KV 配置 key，非空则优先于本地文件")
)

func main() {
	flag.Parse()

	// 加载配置：优先 Consul KV，其次本地文件
	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulHost, *consulPort, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&directory.Client{},
		&directory.Car{},
		&directory.Motorcycle{},
		&catalog.Part{},
		&order.ServiceOrder{},
		&order.OrderItem{},
		&billing.Invoice{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis（配件读缓存；连不上则降级为直连数据库）
	partRepo := catalog.NewRepo(gormDB)
	var cachedRepo *catalog.CachedRepo
	if cfg.Redis.PartTTLSeconds > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warnf("redis unavailable, part cache disabled: %v", err)
		} else {
			cachedRepo = catalog.NewCachedRepo(partRepo, rdb, time.Duration(cfg.Redis.PartTTLSeconds)*time.Second)
		}
		cancel()
	}

	// Kafka 领域事件（尽力而为）
	publisher := events.NewPublisher(cfg.Kafka, log)
	defer publisher.Close()

	// 业务装配
	dirService := directory.NewService(directory.NewRepo(gormDB))
	orderRepo := order.NewRepo(gormDB)
	orderService := order.NewService(orderRepo, order.NewOwnershipValidator(dirService))
	generator := billing.NewGenerator(billing.NewGormUnitOfWork(gormDB))

	gw := gateway.New(gateway.Deps{
		Cfg:       cfg,
		Log:       log,
		Directory: dirService,
		Parts:     partRepo,
		Cache:     cachedRepo,
		Orders:    orderService,
		OrderRepo: orderRepo,
		Generator: generator,
		Invoices:  billing.NewRepo(gormDB),
		Reporter:  report.NewReporter(gormDB),
		Publisher: publisher,
	})

	// gRPC 侧只挂 health/reflection，业务走 HTTP
	go func() {
		if err := server.RunGRPCServer(cfg, log, func(s *grpc.Server) error {
			return nil
		}); err != nil {
			log.Errorf("grpc server exited with error: %v", err)
		}
	}()

	if err := server.RunHTTPServer(cfg, log, gw.Handler()); err != nil {
		log.Fatalf("workshop-service exited with error: %v", err)
	}
}
