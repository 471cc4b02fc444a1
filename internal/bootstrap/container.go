package bootstrap

import (
	"context"
	"log"

	"qms-compliance-be/internal/config"
	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/controller"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/repository/contract"
	"qms-compliance-be/internal/repository/implementation"
	"qms-compliance-be/internal/repository/memory"
	"qms-compliance-be/internal/repository/unitofwork"
	"qms-compliance-be/internal/service"
	pkgEvents "qms-compliance-be/pkg/events"
	"qms-compliance-be/pkg/llm"
	"qms-compliance-be/pkg/llm/factory"
	"qms-compliance-be/pkg/sse"
	"qms-compliance-be/pkg/storage"

	pktNats "qms-compliance-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const repairDurableName = "capa-repair"

type Container struct {
	// Controllers
	CapaController controller.ICapaController
	ChatController controller.IChatController

	Logger logger.ILogger

	// Background repair of missing mandatory children, nil when disabled.
	RepairConsumer service.ICapaRepairConsumer
	natsSubscriber *pktNats.Subscriber
	closers        []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var publisher pkgEvents.Publisher = pkgEvents.NewWatermillPublisher(pubSub)
	if cfg.Events.Driver == "nats" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v. Falling back to in-process events", err)
		} else {
			publisher = natsPub
			c.closers = append(c.closers, natsPub.Close)

			natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
			if err != nil {
				log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			} else {
				c.natsSubscriber = natsSub
				c.closers = append(c.closers, natsSub.Close)
			}
		}
	}

	// 3. Infrastructure
	objectStore := newObjectStore(cfg)
	chatStore := newChatSessionStore(db, cfg, c)
	provider := newStreamingProvider(cfg)

	// 4. Services
	workflowOpts := service.CapaWorkflowOptions{
		AtomicChains:        cfg.Workflow.AtomicChains,
		AttachmentURLExpiry: cfg.Storage.URLExpiry,
	}
	capaEvents := service.NewCapaEventPublisher(publisher, sysLogger)
	workflowService := service.NewCapaWorkflowService(uowFactory, objectStore, capaEvents, sysLogger, workflowOpts)
	queryService := service.NewCapaQueryService(uowFactory, objectStore, sysLogger, workflowOpts)

	llmOptions := []llm.Option{llm.WithTemperature(cfg.Ai.Temperature)}
	if cfg.Ai.MaxTokens > 0 {
		llmOptions = append(llmOptions, llm.WithMaxTokens(cfg.Ai.MaxTokens))
	}
	chatService := service.NewChatService(chatStore, provider, sysLogger, llmOptions...)

	if cfg.Workflow.AutoRepair {
		c.RepairConsumer = service.NewCapaRepairConsumer(pubSub, workflowService, sysLogger)
	}

	// 5. Controllers
	c.CapaController = controller.NewCapaController(workflowService, queryService)
	c.ChatController = controller.NewChatController(chatService, sysLogger)
	return c
}

// StartBackground starts the repair consumer on whichever bus events go to.
func (c *Container) StartBackground(ctx context.Context) error {
	if c.RepairConsumer == nil {
		return nil
	}
	if c.natsSubscriber != nil {
		return c.natsSubscriber.Subscribe(ctx, constant.EventMandatoryChildMissing, repairDurableName, c.RepairConsumer.Handle)
	}
	return c.RepairConsumer.Consume(ctx)
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newObjectStore(cfg *config.Config) storage.ObjectStore {
	if cfg.Storage.Driver == "minio" {
		store, err := storage.NewMinioStore(
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.UseSSL,
		)
		if err != nil {
			// Actions are still saved; uploads come back as warnings.
			log.Printf("[WARN] Failed to initialize MinIO storage: %v. Attachments are disabled", err)
			return nil
		}
		log.Printf("[INFO] Using Storage: MINIO (%s/%s)", cfg.Storage.Endpoint, cfg.Storage.Bucket)
		return store
	}

	store, err := storage.NewLocalStore(cfg.Storage.LocalRoot, cfg.Storage.Bucket, cfg.Storage.PublicPrefix)
	if err != nil {
		log.Printf("[WARN] Failed to initialize local storage: %v. Attachments are disabled", err)
		return nil
	}
	log.Printf("[INFO] Using Storage: LOCAL (%s)", cfg.Storage.LocalRoot)
	return store
}

func newChatSessionStore(db *gorm.DB, cfg *config.Config, c *Container) contract.ChatSessionStore {
	switch cfg.ChatStore.Driver {
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		log.Printf("[INFO] Using Chat Store: REDIS")
		return implementation.NewChatSessionStoreRedis(rdb)
	case "database":
		log.Printf("[INFO] Using Chat Store: DATABASE")
		return implementation.NewChatSessionStoreGorm(db)
	default:
		log.Printf("[INFO] Using Chat Store: MEMORY")
		return memory.NewChatSessionRepository()
	}
}

func newStreamingProvider(cfg *config.Config) llm.StreamingProvider {
	provider, err := factory.NewStreamingProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.GatewayBaseURL,
		cfg.Ai.GatewayAPIKey,
		sse.WithChunkSize(cfg.Ai.StreamChunkSize),
	)
	if err != nil {
		log.Printf("[WARN] Failed to initialize LLM Provider: %v. Chat replies will fail", err)
		return factory.Unavailable(err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	return provider
}
