package models

// Complex 表示一个住宅小区，是多租户隔离的顶层边界
type Complex struct {
	BaseModel
	Name   string `gorm:"type:varchar(100);not null" json:"name"`
	Status string `gorm:"type:varchar(20);default:'active'" json:"status"` // 状态：active, inactive

	// Relations - 关联关系
	Buildings []Building `gorm:"foreignKey:ComplexID" json:"buildings,omitempty"` // 关联的楼栋（一对多）
}

// Building 表示小区内的楼栋
type Building struct {
	BaseModel
	ComplexID uint   `gorm:"index;not null" json:"complex_id"`
	Code      string `gorm:"type:varchar(50);not null" json:"code"` // 楼栋编号，如"101"
	Name      string `gorm:"type:varchar(100)" json:"name"`

	// Relations - 关联关系
	Complex *Complex `gorm:"foreignKey:ComplexID" json:"complex,omitempty"`
	Units   []Unit   `gorm:"foreignKey:BuildingID" json:"units,omitempty"` // 关联的户号（一对多）
}

// Unit 表示楼栋内的户号
type Unit struct {
	BaseModel
	BuildingID uint   `gorm:"index;not null" json:"building_id"`
	Code       string `gorm:"type:varchar(50);not null" json:"code"` // 户号编号，如"1502"

	// Relations - 关联关系
	Building *Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
}
