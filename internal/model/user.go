package model

// User - владелец записей. Создаётся при первом успешном входе, не изменяется.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	UserName string `gorm:"not null;uniqueIndex"`
}

// UserItemRelation - связь владения записью. Пишется один раз при создании записи;
// удаление пользователя или записи каскадно удаляет связь.
type UserItemRelation struct {
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
	ItemID int64 `gorm:"primaryKey;autoIncrement:false;index"`

	User *User `gorm:"constraint:OnDelete:CASCADE"`
	Item *Item `gorm:"constraint:OnDelete:CASCADE"`
}
