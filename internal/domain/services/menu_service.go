package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
)

// 菜单功能键
const (
	MenuKeyDashboard     = "dashboard"
	MenuKeyInvites       = "invites"
	MenuKeyResidents     = "residents"
	MenuKeyParkingQRs    = "parking.qrs"
	MenuKeyParkingScans  = "parking.scans"
	MenuKeyNotifications = "notifications"
	MenuKeySettings      = "settings"

	// 旧版聚合键，读取边界一次性展开为 parking.qrs / parking.scans
	menuKeyLegacyParking = "parking"
)

// InterfaceMenuService 定义菜单权限服务接口
type InterfaceMenuService interface {
	GetToggles(caller *CallerContext, complexID uint) (models.MenuToggles, error)
	UpdateToggles(caller *CallerContext, complexID uint, toggles models.MenuToggles) (models.MenuToggles, error)
	RequireMenuToggle(caller *CallerContext, group, key string) error
}

// MenuService 提供按小区、按角色组的菜单功能开关解析
type MenuService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  InterfaceRedisService // 可为nil，此时不走缓存
}

// NewMenuService 创建一个新的菜单权限服务
func NewMenuService(db *gorm.DB, cfg *config.Config, redis InterfaceRedisService) InterfaceMenuService {
	return &MenuService{
		DB:     db,
		Config: cfg,
		Redis:  redis,
	}
}

// DefaultMenuToggles 返回各角色组的硬编码默认开关
func DefaultMenuToggles() models.MenuToggles {
	return models.MenuToggles{
		"main": {
			MenuKeyDashboard:     true,
			MenuKeyInvites:       true,
			MenuKeyResidents:     true,
			MenuKeyParkingQRs:    true,
			MenuKeyParkingScans:  true,
			MenuKeyNotifications: true,
			MenuKeySettings:      true,
		},
		"sub": {
			MenuKeyDashboard:     true,
			MenuKeyInvites:       true,
			MenuKeyResidents:     true,
			MenuKeyParkingQRs:    true,
			MenuKeyParkingScans:  true,
			MenuKeyNotifications: true,
		},
		"guard": {
			MenuKeyParkingScans:  true,
			MenuKeyNotifications: true,
		},
		"resident": {
			MenuKeyParkingQRs:    true,
			MenuKeyNotifications: true,
		},
	}
}

// ExpandLegacyMenuToggles 旧版聚合键迁移：把每组的 "parking" 展开为
// "parking.qrs" / "parking.scans"，细分键已存在时以已存在的值为准。
// 迁移与合并逻辑隔离，合并逻辑不再感知旧版键。
func ExpandLegacyMenuToggles(stored models.MenuToggles) models.MenuToggles {
	if stored == nil {
		return nil
	}
	out := make(models.MenuToggles, len(stored))
	for group, keys := range stored {
		copied := make(map[string]bool, len(keys))
		for k, v := range keys {
			copied[k] = v
		}
		if legacy, ok := copied[menuKeyLegacyParking]; ok {
			if _, exists := copied[MenuKeyParkingQRs]; !exists {
				copied[MenuKeyParkingQRs] = legacy
			}
			if _, exists := copied[MenuKeyParkingScans]; !exists {
				copied[MenuKeyParkingScans] = legacy
			}
			delete(copied, menuKeyLegacyParking)
		}
		out[group] = copied
	}
	return out
}

// ResolveMenuToggles 将存储的开关覆盖到默认值之上：
// 默认定义的键永不丢失，存储中多出的键保留，缺失的键维持默认启用。
func ResolveMenuToggles(stored models.MenuToggles) models.MenuToggles {
	resolved := DefaultMenuToggles()
	expanded := ExpandLegacyMenuToggles(stored)
	for group, keys := range expanded {
		if _, ok := resolved[group]; !ok {
			resolved[group] = make(map[string]bool, len(keys))
		}
		for k, v := range keys {
			resolved[group][k] = v
		}
	}
	return resolved
}

// ToggleEnabled 判断开关是否启用：键缺失视为启用，只有显式false才关闭
func ToggleEnabled(toggles models.MenuToggles, group, key string) bool {
	keys, ok := toggles[group]
	if !ok {
		return true
	}
	v, ok := keys[key]
	if !ok {
		return true
	}
	return v
}

// 1 GetToggles 获取指定小区解析后的菜单开关
func (s *MenuService) GetToggles(caller *CallerContext, complexID uint) (models.MenuToggles, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return nil, err
	}
	if err := caller.RequireComplexScope(complexID); err != nil {
		return nil, err
	}
	return s.resolveForComplex(complexID)
}

// 2 UpdateToggles 更新指定小区的菜单开关并失效缓存
func (s *MenuService) UpdateToggles(caller *CallerContext, complexID uint, toggles models.MenuToggles) (models.MenuToggles, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return nil, err
	}
	if err := caller.RequireComplexScope(complexID); err != nil {
		return nil, err
	}
	if err := caller.RequireEditMode(); err != nil {
		return nil, err
	}

	stored := ExpandLegacyMenuToggles(toggles)

	var settings models.Settings
	err := s.DB.Where("complex_id = ?", complexID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.Settings{ComplexID: complexID, MenuToggles: stored}
		if err := s.DB.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		settings.MenuToggles = stored
		if err := s.DB.Save(&settings).Error; err != nil {
			return nil, err
		}
	}

	if s.Redis != nil {
		_ = s.Redis.InvalidateMenuToggles(complexID)
	}
	return ResolveMenuToggles(stored), nil
}

// 3 RequireMenuToggle 检查调用者角色组在其小区是否启用指定功能。
// SUPER始终放行；其他角色要求其小区存在配置行，否则视为越权；
// 解析后的开关为false时拒绝。
func (s *MenuService) RequireMenuToggle(caller *CallerContext, group, key string) error {
	if caller == nil {
		return code.New(code.ErrUnauthenticated)
	}
	if caller.Role == models.RoleSuper {
		return nil
	}

	var settings models.Settings
	if err := s.DB.Where("complex_id = ?", caller.ComplexID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.New(code.ErrScopeViolation)
		}
		return err
	}

	resolved := ResolveMenuToggles(settings.MenuToggles)
	if !ToggleEnabled(resolved, group, key) {
		return code.New(code.ErrFeatureDisabled)
	}
	return nil
}

// resolveForComplex 读取并解析小区开关，带缓存
func (s *MenuService) resolveForComplex(complexID uint) (models.MenuToggles, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.GetMenuToggles(complexID); err == nil && cached != nil {
			return cached, nil
		}
	}

	var settings models.Settings
	if err := s.DB.Where("complex_id = ?", complexID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultMenuToggles(), nil
		}
		return nil, err
	}

	resolved := ResolveMenuToggles(settings.MenuToggles)
	if s.Redis != nil {
		_ = s.Redis.CacheMenuToggles(complexID, resolved, 5*time.Minute)
	}
	return resolved, nil
}
