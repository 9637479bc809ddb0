package entity

// UserProfile is the public-facing profile of a signed-in identity.
type UserProfile struct {
	Base
	UserID              string   `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Email               string   `gorm:"not null" json:"email" validate:"required,email"`
	Username            string   `gorm:"not null" json:"username" validate:"required"`
	DisplayName         string   `json:"displayName,omitempty"`
	Bio                 string   `json:"bio,omitempty"`
	ProfilePicture      string   `json:"profilePicture,omitempty" validate:"omitempty,url"`
	TotalPortfolioValue *float64 `gorm:"default:0" json:"totalPortfolioValue"`
	FollowersCount      *int     `gorm:"default:0" json:"followersCount"`
	FollowingCount      *int     `gorm:"default:0" json:"followingCount"`
	IsPublic            *bool    `gorm:"default:true" json:"isPublic"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// UserSettings holds per-user preferences.
type UserSettings struct {
	Base
	UserID               string `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Theme                Theme  `gorm:"type:varchar(16)" json:"theme,omitempty" validate:"omitempty,oneof=LIGHT DARK SYSTEM"`
	Language             string `gorm:"default:en" json:"language"`
	Currency             string `gorm:"default:USD" json:"currency"`
	NotificationsEnabled *bool  `gorm:"default:true" json:"notificationsEnabled"`
	EmailNotifications   *bool  `gorm:"default:true" json:"emailNotifications"`
	PushNotifications    *bool  `gorm:"default:true" json:"pushNotifications"`
	MarketAlerts         *bool  `gorm:"default:true" json:"marketAlerts"`
	PortfolioPrivacy     *bool  `gorm:"default:false" json:"portfolioPrivacy"`
	TwoFactorEnabled     *bool  `gorm:"default:false" json:"twoFactorEnabled"`
	BiometricEnabled     *bool  `gorm:"default:false" json:"biometricEnabled"`
	// DataRetention is expressed in days.
	DataRetention *int `gorm:"default:365" json:"dataRetention"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

// Follow records that FollowerID follows FollowingID.
type Follow struct {
	Base
	FollowerID  string `gorm:"type:varchar(64);not null;index" json:"followerId" validate:"required"`
	FollowingID string `gorm:"type:varchar(64);not null;index" json:"followingId" validate:"required"`
}

func (Follow) TableName() string {
	return "follows"
}
