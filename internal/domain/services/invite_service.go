package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/pkg/logger"
	"parkqr-http-service/utils"
)

// 邀请令牌与QR码的随机长度（hex字符数的一半）
const inviteTokenBytes = 32

// MinPasswordLength 接受邀请时密码的最小长度
const MinPasswordLength = 8

// CreateInviteRequest 创建邀请请求
type CreateInviteRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Role         string `json:"role" binding:"required"`
	ComplexID    uint   `json:"complex_id"`
	BuildingCode string `json:"building_code"`
	UnitCode     string `json:"unit_code"`
	HasVehicle   bool   `json:"has_vehicle"`
	Plate        string `json:"plate"`
	VehicleType  string `json:"vehicle_type"`
}

// AcceptInviteRequest 接受邀请请求
type AcceptInviteRequest struct {
	Token       string `json:"token" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	HasVehicle  *bool  `json:"has_vehicle"`
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
}

// AcceptInviteResult 接受邀请的产物：账户，以及可选的车辆与QR
type AcceptInviteResult struct {
	Profile *models.Profile `json:"profile"`
	Vehicle *models.Vehicle `json:"vehicle,omitempty"`
	QR      *models.QR      `json:"qr,omitempty"`
}

// BulkInviteRow 批量上传的单行（CSV解析由上游完成）
type BulkInviteRow struct {
	Email        string `json:"email" binding:"required,email"`
	Role         string `json:"role" binding:"required"`
	BuildingCode string `json:"building_code"`
	UnitCode     string `json:"unit_code"`
	HasVehicle   bool   `json:"has_vehicle"`
	Plate        string `json:"plate"`
	VehicleType  string `json:"vehicle_type"`
}

// InterfaceInviteService 定义邀请生命周期服务接口
type InterfaceInviteService interface {
	CreateAndSend(caller *CallerContext, req CreateInviteRequest) (*models.Invite, error)
	List(caller *CallerContext, pagination *models.PaginationQuery) ([]models.Invite, int64, error)
	Lookup(token string) (*models.Invite, error)
	Accept(req AcceptInviteRequest) (*AcceptInviteResult, error)
	BulkUpload(caller *CallerContext, complexID uint, rows []BulkInviteRow) (string, []models.Invite, error)
	BulkSend(caller *CallerContext, ids []uint) (int, error)
	SweepExpired() (int64, error)
}

// InviteService 管理邀请的创建、发送、过期与接受
type InviteService struct {
	DB           *gorm.DB
	Config       *config.Config
	EmailService InterfaceEmailService
}

// NewInviteService 创建一个新的邀请服务
func NewInviteService(db *gorm.DB, cfg *config.Config, emailService InterfaceEmailService) InterfaceInviteService {
	return &InviteService{
		DB:           db,
		Config:       cfg,
		EmailService: emailService,
	}
}

// 1 CreateAndSend 创建单个邀请并发送邮件。
// 创建与发送在同一事务内：邮件失败则整个创建回滚。
func (s *InviteService) CreateAndSend(caller *CallerContext, req CreateInviteRequest) (*models.Invite, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return nil, err
	}
	if err := caller.RequireEditMode(); err != nil {
		return nil, err
	}

	complexID, err := s.resolveTargetComplex(caller, req.ComplexID)
	if err != nil {
		return nil, err
	}

	scope, err := s.validateInviteTarget(s.DB, complexID, req.Role, req.BuildingCode, req.UnitCode,
		req.HasVehicle, req.Plate, req.VehicleType)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := s.DB.Model(&models.Profile{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, code.New(code.ErrEmailAlreadyExist)
	}

	now := time.Now()
	invite := models.Invite{
		Email:       req.Email,
		Role:        models.Role(req.Role),
		ComplexID:   complexID,
		BuildingID:  scope.buildingID,
		UnitID:      scope.unitID,
		Token:       utils.SecureToken(inviteTokenBytes),
		Status:      models.InviteStatusSent,
		SentAt:      &now,
		HasVehicle:  req.HasVehicle,
		Plate:       req.Plate,
		VehicleType: req.VehicleType,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invite).Error; err != nil {
			return err
		}
		if err := s.EmailService.SendInviteEmail(invite.Email, invite.Token); err != nil {
			logger.Error("邀请邮件发送失败: %s, error: %v", invite.Email, err)
			return code.New(code.ErrInviteEmailSendFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// 2 List 返回调用者范围内的邀请列表，列出前先执行过期清理
func (s *InviteService) List(caller *CallerContext, pagination *models.PaginationQuery) ([]models.Invite, int64, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return nil, 0, err
	}
	if _, err := s.SweepExpired(); err != nil {
		return nil, 0, err
	}

	query := s.DB.Model(&models.Invite{})
	if caller.Role != models.RoleSuper {
		query = query.Where("complex_id = ?", caller.ComplexID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invites []models.Invite
	if err := query.Order("id DESC").
		Offset((pagination.PageNum - 1) * pagination.PageSize).
		Limit(pagination.PageSize).
		Find(&invites).Error; err != nil {
		return nil, 0, err
	}
	return invites, total, nil
}

// 3 Lookup 未认证的按令牌查询。
// 时间检查优先于存储状态：刚过期但尚未被清理的邀请仍然按过期处理。
func (s *InviteService) Lookup(token string) (*models.Invite, error) {
	if _, err := s.SweepExpired(); err != nil {
		logger.Warning("过期邀请清理失败: %v", err)
	}

	var invite models.Invite
	if err := s.DB.Where("token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrInviteNotFound)
		}
		return nil, err
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, code.New(code.ErrInviteAlreadyAccepted)
	}
	if invite.IsExpired(time.Now()) {
		if err := s.DB.Delete(&invite).Error; err != nil {
			logger.Warning("删除过期邀请失败 id=%d: %v", invite.ID, err)
		}
		return nil, code.New(code.ErrInviteExpired)
	}
	return &invite, nil
}

// 4 Accept 接受邀请：条件更新防止重复接受，账户/车辆/QR 在同一事务内创建
func (s *InviteService) Accept(req AcceptInviteRequest) (*AcceptInviteResult, error) {
	invite, err := s.Lookup(req.Token)
	if err != nil {
		return nil, err
	}

	if len(req.Password) < MinPasswordLength {
		return nil, code.NewWithMessage(code.ErrValidation,
			fmt.Sprintf("密码长度不能少于%d位", MinPasswordLength))
	}

	// 车辆意图：请求可覆盖邀请中的预声明
	hasVehicle := invite.HasVehicle
	if req.HasVehicle != nil {
		hasVehicle = *req.HasVehicle
	}
	plate := invite.Plate
	if req.Plate != "" {
		plate = req.Plate
	}
	vehicleType := invite.VehicleType
	if req.VehicleType != "" {
		vehicleType = req.VehicleType
	}
	if hasVehicle {
		if plate == "" || !models.VehicleType(vehicleType).IsValid() {
			return nil, code.NewWithMessage(code.ErrValidation, "声明车辆时必须提供车牌和车辆类型")
		}
	}

	var existing int64
	if err := s.DB.Model(&models.Profile{}).Where("email = ?", invite.Email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, code.New(code.ErrEmailAlreadyExist)
	}

	result := &AcceptInviteResult{}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// 条件更新：只有仍处于 PENDING/SENT 的邀请才能被翻转为 ACCEPTED，
		// 并发接受时只有一个事务能命中该行
		now := time.Now()
		flip := tx.Model(&models.Invite{}).
			Where("id = ? AND status IN ?", invite.ID,
				[]models.InviteStatus{models.InviteStatusPending, models.InviteStatusSent}).
			Updates(map[string]interface{}{
				"status":      models.InviteStatusAccepted,
				"accepted_at": now,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return code.New(code.ErrInvalidInvite)
		}

		profile := models.Profile{
			Email:      invite.Email,
			Password:   req.Password,
			Name:       req.Name,
			Phone:      req.Phone,
			Role:       invite.Role,
			ComplexID:  invite.ComplexID,
			BuildingID: invite.BuildingID,
			UnitID:     invite.UnitID,
			HasVehicle: hasVehicle,
			Status:     "active",
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		result.Profile = &profile

		if hasVehicle {
			vehicle := models.Vehicle{
				OwnerProfileID: profile.ID,
				Plate:          plate,
				VehicleType:    models.VehicleType(vehicleType),
			}
			if err := tx.Create(&vehicle).Error; err != nil {
				return err
			}
			qr := models.QR{
				VehicleID: vehicle.ID,
				Code:      utils.SecureToken(inviteTokenBytes),
				Status:    models.QRStatusInactive,
			}
			if err := tx.Create(&qr).Error; err != nil {
				return err
			}
			result.Vehicle = &vehicle
			result.QR = &qr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// 5 BulkUpload 批量创建 PENDING 邀请，同一批次共享一个 batch_id。
// 任何一行校验失败则整批回滚。
func (s *InviteService) BulkUpload(caller *CallerContext, complexID uint, rows []BulkInviteRow) (string, []models.Invite, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return "", nil, err
	}
	if err := caller.RequireEditMode(); err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return "", nil, code.NewWithMessage(code.ErrValidation, "批量上传不能为空")
	}

	targetComplexID, err := s.resolveTargetComplex(caller, complexID)
	if err != nil {
		return "", nil, err
	}

	batchID := uuid.NewString()
	invites := make([]models.Invite, 0, len(rows))
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			scope, err := s.validateInviteTarget(tx, targetComplexID, row.Role, row.BuildingCode, row.UnitCode,
				row.HasVehicle, row.Plate, row.VehicleType)
			if err != nil {
				var cerr *code.Error
				if errors.As(err, &cerr) {
					return code.NewWithMessage(cerr.Code, fmt.Sprintf("第%d行: %s", i+1, cerr.Message))
				}
				return err
			}

			var existing int64
			if err := tx.Model(&models.Profile{}).Where("email = ?", row.Email).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return code.NewWithMessage(code.ErrEmailAlreadyExist, fmt.Sprintf("第%d行: 邮箱已被注册", i+1))
			}

			invite := models.Invite{
				Email:       row.Email,
				Role:        models.Role(row.Role),
				ComplexID:   targetComplexID,
				BuildingID:  scope.buildingID,
				UnitID:      scope.unitID,
				Token:       utils.SecureToken(inviteTokenBytes),
				Status:      models.InviteStatusPending,
				HasVehicle:  row.HasVehicle,
				Plate:       row.Plate,
				VehicleType: row.VehicleType,
				BatchID:     batchID,
			}
			if err := tx.Create(&invite).Error; err != nil {
				return err
			}
			invites = append(invites, invite)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return batchID, invites, nil
}

// 6 BulkSend 批量发送：逐个翻转 PENDING→SENT，邮件失败不回滚状态
func (s *InviteService) BulkSend(caller *CallerContext, ids []uint) (int, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return 0, err
	}
	if err := caller.RequireEditMode(); err != nil {
		return 0, err
	}

	sent := 0
	for _, id := range ids {
		var invite models.Invite
		if err := s.DB.First(&invite, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return sent, err
		}
		if err := caller.RequireComplexScope(invite.ComplexID); err != nil {
			return sent, err
		}
		if invite.Status != models.InviteStatusPending {
			continue
		}

		now := time.Now()
		if err := s.DB.Model(&invite).Updates(map[string]interface{}{
			"status":  models.InviteStatusSent,
			"sent_at": now,
		}).Error; err != nil {
			return sent, err
		}
		if err := s.EmailService.SendInviteEmail(invite.Email, invite.Token); err != nil {
			logger.Warning("批量邀请邮件发送失败 id=%d: %v", invite.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// 7 SweepExpired 物理删除超过有效期的未接受邀请
func (s *InviteService) SweepExpired() (int64, error) {
	cutoff := time.Now().Add(-models.InviteTTL)
	result := s.DB.Where("status <> ? AND COALESCE(sent_at, created_at) < ?",
		models.InviteStatusAccepted, cutoff).
		Delete(&models.Invite{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info("清理过期邀请 %d 条", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// resolvedScope 邀请目标的楼栋/户号解析结果
type resolvedScope struct {
	buildingID *uint
	unitID     *uint
}

// resolveTargetComplex 确定目标小区：SUPER可显式指定，其他角色固定在自己小区
func (s *InviteService) resolveTargetComplex(caller *CallerContext, requested uint) (uint, error) {
	if caller.Role == models.RoleSuper {
		if requested == 0 {
			return 0, code.NewWithMessage(code.ErrValidation, "超级管理员必须显式指定目标小区")
		}
		return requested, nil
	}
	if requested != 0 && requested != caller.ComplexID {
		return 0, code.New(code.ErrScopeViolation)
	}
	return caller.ComplexID, nil
}

// validateInviteTarget 校验邀请角色与引用：
// SUB 需要可解析的楼栋编号，RESIDENT 需要楼栋与户号编号。
func (s *InviteService) validateInviteTarget(tx *gorm.DB, complexID uint, role, buildingCode, unitCode string,
	hasVehicle bool, plate, vehicleType string) (*resolvedScope, error) {
	r := models.Role(role)
	switch r {
	case models.RoleMain, models.RoleSub, models.RoleGuard, models.RoleResident:
	default:
		return nil, code.NewWithMessage(code.ErrValidation, fmt.Sprintf("不支持的邀请角色: %s", role))
	}

	var cx models.Complex
	if err := tx.First(&cx, complexID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.NewWithMessage(code.ErrInvalidReference, fmt.Sprintf("小区不存在: %d", complexID))
		}
		return nil, err
	}

	scope := &resolvedScope{}
	needBuilding := r == models.RoleSub || r == models.RoleResident
	needUnit := r == models.RoleResident

	if needBuilding {
		if buildingCode == "" {
			return nil, code.NewWithMessage(code.ErrInvalidReference, "缺少楼栋编号")
		}
		var building models.Building
		if err := tx.Where("complex_id = ? AND code = ?", complexID, buildingCode).
			First(&building).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, code.NewWithMessage(code.ErrInvalidReference,
					fmt.Sprintf("楼栋编号无法解析: %s", buildingCode))
			}
			return nil, err
		}
		scope.buildingID = &building.ID

		if needUnit {
			if unitCode == "" {
				return nil, code.NewWithMessage(code.ErrInvalidReference, "缺少户号编号")
			}
			var unit models.Unit
			if err := tx.Where("building_id = ? AND code = ?", building.ID, unitCode).
				First(&unit).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, code.NewWithMessage(code.ErrInvalidReference,
						fmt.Sprintf("户号编号无法解析: %s", unitCode))
				}
				return nil, err
			}
			scope.unitID = &unit.ID
		}
	}

	if hasVehicle {
		if plate == "" || !models.VehicleType(vehicleType).IsValid() {
			return nil, code.NewWithMessage(code.ErrValidation, "声明车辆时必须提供车牌和车辆类型")
		}
	}
	return scope, nil
}
