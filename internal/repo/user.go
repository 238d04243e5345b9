package repo

import (
	"context"

	"Flow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository минимальный контракт доступа к User.
type UserRepository interface {
	// CreateIfAbsent вставляет пользователя, дубликат имени игнорируется.
	// created=true, если строка создана этим вызовом.
	CreateIfAbsent(ctx context.Context, userName string) (created bool, err error)
	GetByName(ctx context.Context, userName string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository создаёт реализацию репозитория для User.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateIfAbsent(ctx context.Context, userName string) (bool, error) {
	u := &model.User{UserName: userName}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_name"}},
		DoNothing: true,
	}).Create(u)
	if tx.Error != nil {
		return false, classify(tx.Error, "create user")
	}
	return tx.RowsAffected > 0, nil
}

func (r *userRepo) GetByName(ctx context.Context, userName string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&u).Error; err != nil {
		return nil, classify(err, "user "+userName)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, classify(err, "user by id")
	}
	return &u, nil
}
