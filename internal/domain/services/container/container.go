package container

import (
	"log"
	"sync"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/infrastructure/config"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础服务
	jwtService services.InterfaceJWTService

	// 数据存储服务
	redisService services.InterfaceRedisService

	// 外部通道服务
	emailService services.InterfaceEmailService
	mqttService  services.InterfaceMQTTService

	// 业务服务
	menuService         services.InterfaceMenuService
	notificationService services.InterfaceNotificationService
	inviteService       services.InterfaceInviteService
	qrService           services.InterfaceQRService
	scanService         services.InterfaceScanService
	profileService      services.InterfaceProfileService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}
	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config, c.db)

	// 初始化Redis服务
	c.redisService = services.NewRedisService(c.config)

	// 初始化邮件与MQTT服务
	c.emailService = services.NewEmailService(c.config)
	c.mqttService = services.NewMQTTService(c.config)
	if err := c.mqttService.Connect(); err != nil {
		log.Printf("MQTT服务连接失败: %v", err)
	}

	// 初始化业务服务
	c.menuService = services.NewMenuService(c.db, c.config, c.redisService)
	c.notificationService = services.NewNotificationService(c.db, c.config)
	c.inviteService = services.NewInviteService(c.db, c.config, c.emailService)
	c.qrService = services.NewQRService(c.db, c.config, c.notificationService)
	c.scanService = services.NewScanService(c.db, c.config,
		c.notificationService, c.menuService, c.emailService, c.mqttService)
	c.profileService = services.NewProfileService(c.db, c.config, c.notificationService)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "email":
		return c.emailService
	case "mqtt":
		return c.mqttService
	case "menu":
		return c.menuService
	case "notification":
		return c.notificationService
	case "invite":
		return c.inviteService
	case "qr":
		return c.qrService
	case "scan":
		return c.scanService
	case "profile":
		return c.profileService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
