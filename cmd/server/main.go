// @title           ParkQR HTTP Service API
// @version         1.0
// @description     多租户小区停车通行服务：邀请开通、QR身份签发与扫码判定
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/joho/godotenv"

	"parkqr-http-service/internal/app/routes"
	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/internal/infrastructure/database"
	Logger "parkqr-http-service/pkg/logger"

	"gorm.io/gorm"
)

func main() {
	// 设置最大处理器数量，提高并发性能
	runtime.GOMAXPROCS(runtime.NumCPU())

	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		Logger.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// 创建优化的数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法创建数据库连接池: %v", err)
	}
	db := pool.GetDB()

	// 根据配置执行不同的数据库操作
	if cfg.DBMigrationMode == "drop" {
		log.Println("警告: 在drop模式下运行，将删除并重建所有表")
		if err := dropAndRecreateTables(db); err != nil {
			log.Fatalf("删除并重建表失败: %v", err)
		}
	} else {
		// 默认AutoMigrate，只会添加新列和新表，不会删除或修改列
		if err := autoMigrate(db); err != nil {
			log.Fatalf("自动迁移失败: %v", err)
		}
	}

	// 确保系统中有超级管理员账户与默认小区
	ensureSuperAdminExists(db, cfg)

	// 初始化路由
	r := routes.SetupRouter(db, cfg)

	port := cfg.ServerPort
	printSystemInfo(pool)

	// 启动服务器 - 监听所有接口
	Logger.Info("服务器启动在: http://0.0.0.0:%s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		Logger.Error("启动服务器失败: %v", err)
		os.Exit(1)
	}
}

// autoMigrate 自动迁移所有模型（只添加新列和新表）
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Complex{},
		&models.Building{},
		&models.Unit{},
		&models.Profile{},
		&models.ProfilePhone{},
		&models.Invite{},
		&models.Vehicle{},
		&models.QR{},
		&models.Scan{},
		&models.Notification{},
		&models.Settings{},
	)
	if err != nil {
		return err
	}

	fmt.Println("Database migration completed")
	return nil
}

// dropAndRecreateTables 删除并重建所有表
func dropAndRecreateTables(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB connection: %w", err)
	}

	// 禁用外键约束检查
	if _, err := sqlDB.Exec("SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		log.Printf("禁用外键约束检查失败: %v", err)
	}
	defer sqlDB.Exec("SET FOREIGN_KEY_CHECKS = 1")

	tables := []string{
		"settings", "notifications", "scans", "qrs", "vehicles",
		"invites", "profile_phones", "profiles", "units", "buildings", "complexes",
	}
	for _, table := range tables {
		log.Printf("删除表: %s", table)
		if _, err := sqlDB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			log.Printf("删除表失败: %v", err)
		}
	}

	return autoMigrate(db)
}

// ensureSuperAdminExists 确保系统中有超级管理员账户与一个默认小区
func ensureSuperAdminExists(db *gorm.DB, cfg *config.Config) {
	var complexCount int64
	db.Model(&models.Complex{}).Count(&complexCount)
	var defaultComplex models.Complex
	if complexCount == 0 {
		defaultComplex = models.Complex{Name: "默认小区"}
		if err := db.Create(&defaultComplex).Error; err != nil {
			log.Fatalf("创建默认小区失败: %v", err)
		}
		log.Println("已创建默认小区")
	} else {
		db.Order("id ASC").First(&defaultComplex)
	}

	var count int64
	db.Model(&models.Profile{}).Where("role = ?", models.RoleSuper).Count(&count)
	if count == 0 {
		super := models.Profile{
			Email:     cfg.DefaultSuperEmail,
			Password:  cfg.DefaultSuperPassword, // BeforeCreate钩子完成哈希
			Name:      "系统超级管理员",
			Role:      models.RoleSuper,
			ComplexID: defaultComplex.ID,
			Status:    "active",
		}
		if err := db.Create(&super).Error; err != nil {
			log.Fatalf("创建默认超级管理员失败: %v", err)
		}
		log.Println("已创建默认超级管理员账户")
	}
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	stats, err := pool.Stats()
	if err == nil {
		log.Printf("数据库连接池状态: %+v", stats)
	}

	log.Printf("系统CPU核心数: %d", runtime.NumCPU())
	log.Printf("当前Go协程数: %d", runtime.NumGoroutine())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("系统内存使用: Alloc=%v MiB, TotalAlloc=%v MiB, Sys=%v MiB",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024)
}
