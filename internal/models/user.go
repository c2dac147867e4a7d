package models

// User 用户信息
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`    // 用户ID
	Username  string `gorm:"uniqueIndex" json:"username"`           // 用户名
	Nickname  string `json:"nickname"`                              // 昵称
	Phone     string `json:"phone"`                                 // 手机号
	Email     string `json:"email"`                                 // 邮箱
	PushToken string `json:"pushToken"`                             // APP推送令牌
	WechatID  string `json:"wechatId"`                              // 企业微信账号
	Enabled   bool   `json:"enabled"`                               // 是否启用
	CreatedAt int64  `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt int64  `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
}

func (User) TableName() string {
	return "users"
}

// NotifyTargetByType 返回对应通知方式的接收地址，未配置时返回空字符串
func (u *User) NotifyTargetByType(t NotifyType) string {
	switch t {
	case NotifySms:
		return u.Phone
	case NotifyEmail:
		return u.Email
	case NotifyPush:
		return u.PushToken
	case NotifyWechat:
		return u.WechatID
	default:
		return ""
	}
}

// DisplayName 展示名称，优先昵称
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Department 部门
type Department struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`    // 部门ID
	Name      string `json:"name"`                                  // 部门名称
	CreatedAt int64  `json:"createdAt"`                             // 创建时间（时间戳毫秒）
	UpdatedAt int64  `json:"updatedAt" gorm:"autoUpdateTime:milli"` // 更新时间（时间戳毫秒）
}

func (Department) TableName() string {
	return "departments"
}

// UserDepartment 用户部门关联
type UserDepartment struct {
	ID           int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64 `gorm:"index" json:"userId"`       // 用户ID
	DepartmentID int64 `gorm:"index" json:"departmentId"` // 部门ID
}

func (UserDepartment) TableName() string {
	return "user_departments"
}
