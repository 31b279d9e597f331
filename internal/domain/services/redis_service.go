package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/infrastructure/config"
)

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheMenuToggles(complexID uint, toggles models.MenuToggles, expiration time.Duration) error
	GetMenuToggles(complexID uint) (models.MenuToggles, error)
	InvalidateMenuToggles(complexID uint) error
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// 1 Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// 2 Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// 3 Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// 4 CacheMenuToggles 缓存小区解析后的菜单开关
func (s *RedisService) CacheMenuToggles(complexID uint, toggles models.MenuToggles, expiration time.Duration) error {
	return s.Set(menuTogglesKey(complexID), toggles, expiration)
}

// 5 GetMenuToggles 从缓存获取小区菜单开关
func (s *RedisService) GetMenuToggles(complexID uint) (models.MenuToggles, error) {
	var toggles models.MenuToggles
	if err := s.Get(menuTogglesKey(complexID), &toggles); err != nil {
		return nil, err
	}
	return toggles, nil
}

// 6 InvalidateMenuToggles 失效小区菜单开关缓存
func (s *RedisService) InvalidateMenuToggles(complexID uint) error {
	return s.Delete(menuTogglesKey(complexID))
}

func menuTogglesKey(complexID uint) string {
	return fmt.Sprintf("menu_toggles:%d", complexID)
}
