package entities

type User struct {
	UserID         uint    `json:"user_id" gorm:"column:user_id;primaryKey;autoIncrement"`
	Username       string  `json:"username" gorm:"column:username;uniqueIndex;not null"`
	Password       string  `json:"-" gorm:"column:password;not null"`
	UserKey        *string `json:"user_key" gorm:"column:user_key"`
	ProfilePicture *string `json:"profile_picture" gorm:"column:profile_picture"`
}

func (User) TableName() string {
	return "user"
}
