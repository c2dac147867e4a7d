package models

// 告警目标类型
const (
	TargetTypeSite   = "site"
	TargetTypeDevice = "device"
	TargetTypeTask   = "task"
)

// Site 监测站点
type Site struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`    // 站点ID
	SiteName        string `json:"siteName"`                              // 站点名称
	SiteCode        string `gorm:"uniqueIndex" json:"siteCode"`           // 站点编码
	Address         string `json:"address"`                               // 站点地址
	PrincipalUserID int64  `json:"principalUserId"`                       // 负责人用户ID
	CreatedAt       int64  `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt       int64  `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
}

func (Site) TableName() string {
	return "sites"
}

// DeviceStatus 设备状态: 0离线 1在线 2故障
type DeviceStatus int

const (
	DeviceOffline DeviceStatus = 0
	DeviceOnline  DeviceStatus = 1
	DeviceFault   DeviceStatus = 2
)

// Device 监测设备
type Device struct {
	ID              int64        `gorm:"primaryKey;autoIncrement" json:"id"`    // 设备ID
	DeviceName      string       `json:"deviceName"`                            // 设备名称
	DeviceCode      string       `gorm:"uniqueIndex" json:"deviceCode"`         // 设备编码
	SiteID          int64        `gorm:"index" json:"siteId"`                   // 所属站点ID
	Status          DeviceStatus `json:"status"`                                // 设备状态
	LastHeartbeatAt int64        `json:"lastHeartbeatAt,omitempty"`             // 最后心跳时间（时间戳毫秒）
	CreatedAt       int64        `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt       int64        `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
}

func (Device) TableName() string {
	return "devices"
}

func (d *Device) IsOnline() bool {
	return d.Status == DeviceOnline
}

func (d *Device) IsFault() bool {
	return d.Status == DeviceFault
}

// FactorReading 站点监测因子的最新读数（按站点+因子唯一）
type FactorReading struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`          // 记录ID
	SiteID      int64   `gorm:"uniqueIndex:uk_factor_site" json:"siteId"`    // 站点ID
	Metric      string  `gorm:"uniqueIndex:uk_factor_site" json:"metric"`    // 因子名称，如 pH值、化学需氧量
	Value       float64 `json:"value"`                                       // 读数
	CollectedAt int64   `json:"collectedAt"`                                 // 采集时间（时间戳毫秒）
	CreatedAt   int64   `json:"createdAt"`                                   // 创建时间（时间戳毫秒）
	UpdatedAt   int64   `json:"updatedAt" gorm:"autoUpdateTime:milli"`       // 更新时间（时间戳毫秒）
}

func (FactorReading) TableName() string {
	return "factor_readings"
}
