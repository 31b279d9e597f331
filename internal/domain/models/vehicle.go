package models

// VehicleType 表示车辆动力类型
type VehicleType string

const (
	VehicleTypeEV  VehicleType = "EV"  // 电动车
	VehicleTypeICE VehicleType = "ICE" // 燃油车
)

// IsValid 判断车辆类型是否合法
func (t VehicleType) IsValid() bool {
	return t == VehicleTypeEV || t == VehicleTypeICE
}

// Vehicle 表示住户名下的车辆，每辆车属于唯一账户
type Vehicle struct {
	BaseModel
	OwnerProfileID uint        `gorm:"index;not null" json:"owner_profile_id"`
	Plate          string      `gorm:"type:varchar(20);not null" json:"plate"`
	VehicleType    VehicleType `gorm:"type:varchar(10);not null" json:"vehicle_type"`

	// QR签发序号，每次签发事务先递增该列以获取车辆行锁，
	// 使计数检查与插入在MySQL与sqlite上都串行化
	QRIssueSeq uint `gorm:"default:0" json:"-"`

	// Relations - 关联关系
	Owner *Profile `gorm:"foreignKey:OwnerProfileID" json:"owner,omitempty"`
	QRs   []QR     `gorm:"foreignKey:VehicleID" json:"qrs,omitempty"`
}
