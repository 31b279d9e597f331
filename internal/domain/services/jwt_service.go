package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
)

// InterfaceJWTService 定义JWT服务接口
type InterfaceJWTService interface {
	GenerateToken(profile *models.Profile) (string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	ExtractClaims(tokenString string) (*JWTClaims, error)
	Login(email, password string) (*LoginResult, error)
}

// LoginResult 表示登录结果
type LoginResult struct {
	Token     string      `json:"token"`
	ProfileID uint        `json:"profile_id"`
	Role      models.Role `json:"role"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	ComplexID uint        `json:"complex_id"`
	CreatedAt interface{} `json:"created_at"`
}

// JWTService 提供JWT相关服务
type JWTService struct {
	secretKey string
	issuer    string
	DB        *gorm.DB
}

// JWTClaims 定义JWT令牌的声明结构
type JWTClaims struct {
	ProfileID  uint        `json:"profile_id"`
	Role       models.Role `json:"role"`
	ComplexID  uint        `json:"complex_id"`
	BuildingID *uint       `json:"building_id,omitempty"`
	UnitID     *uint       `json:"unit_id,omitempty"`
	Email      string      `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTService 创建一个新的JWT服务
func NewJWTService(cfg *config.Config, db *gorm.DB) InterfaceJWTService {
	return &JWTService{
		secretKey: cfg.JWTSecretKey,
		issuer:    "parkqr-http-service",
		DB:        db,
	}
}

// GenerateToken 生成JWT令牌
func (s *JWTService) GenerateToken(profile *models.Profile) (string, error) {
	// 令牌有效期为24小时
	expirationTime := time.Now().Add(24 * time.Hour)

	claims := &JWTClaims{
		ProfileID:  profile.ID,
		Role:       profile.Role,
		ComplexID:  profile.ComplexID,
		BuildingID: profile.BuildingID,
		UnitID:     profile.UnitID,
		Email:      profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken 验证JWT令牌
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("意外的签名方法")
		}
		return []byte(s.secretKey), nil
	})
}

// ExtractClaims 从令牌中提取声明
func (s *JWTService) ExtractClaims(tokenString string) (*JWTClaims, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}

// Login 处理用户登录请求
func (s *JWTService) Login(email, password string) (*LoginResult, error) {
	var profile models.Profile
	if err := s.DB.Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrPasswordIncorrect)
		}
		return nil, err
	}

	// 比较密码
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(password)); err != nil {
		return nil, code.New(code.ErrPasswordIncorrect)
	}

	token, err := s.GenerateToken(&profile)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ProfileID: profile.ID,
		Role:      profile.Role,
		Name:      profile.Name,
		Email:     profile.Email,
		ComplexID: profile.ComplexID,
		CreatedAt: profile.CreatedAt,
	}, nil
}
