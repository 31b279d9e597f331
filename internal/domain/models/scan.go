package models

// ScanResult 表示扫码判定结果
type ScanResult string

const (
	ScanResultResident    ScanResult = "RESIDENT"    // 住户车辆
	ScanResultEnforcement ScanResult = "ENFORCEMENT" // 执法对象（未知码或未激活码）
)

// Scan 表示一次扫码事件记录，创建后不可变更
type Scan struct {
	BaseModel
	QRID          *uint      `gorm:"index" json:"qr_id,omitempty"`    // 码未命中时为空
	GuardID       *uint      `gorm:"index" json:"guard_id,omitempty"` // 无人值守扫码时为空
	ComplexID     uint       `gorm:"index" json:"complex_id"`
	LocationLabel string     `gorm:"type:varchar(200)" json:"location_label"`
	LocationLat   *float64   `json:"location_lat,omitempty"`
	LocationLng   *float64   `json:"location_lng,omitempty"`
	Result        ScanResult `gorm:"type:varchar(20);not null" json:"result"`
	Plate         string     `gorm:"type:varchar(20)" json:"plate"`

	// Relations - 关联关系
	QR    *QR      `gorm:"foreignKey:QRID" json:"qr,omitempty"`
	Guard *Profile `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
}
