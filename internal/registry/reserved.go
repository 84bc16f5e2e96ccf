package registry

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shorturl-go/internal/keygen"
	"shorturl-go/internal/model"
)

// IsKeyReserved 判断短键是否在保留键表中
func (r *URLRegistry) IsKeyReserved(ctx context.Context, shortKey string) (bool, error) {
	var reserved model.ReservedKey
	err := r.db.WithContext(ctx).Where("short_key = ?", shortKey).First(&reserved).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// CreateReservedKey 登记保留短键
func (r *URLRegistry) CreateReservedKey(ctx context.Context, shortKey string) (*model.ReservedKey, error) {
	if err := keygen.ValidateCustomKey(shortKey); err != nil {
		return nil, ErrInvalidKeyFormat
	}

	reserved := &model.ReservedKey{ShortKey: shortKey}
	if err := r.db.WithContext(ctx).Create(reserved).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrKeyTaken
		}
		return nil, err
	}
	return reserved, nil
}

// ListReservedKeys 分页查询保留短键
func (r *URLRegistry) ListReservedKeys(ctx context.Context, page, size int) ([]model.ReservedKey, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.ReservedKey{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if total == 0 {
		return []model.ReservedKey{}, 0, nil
	}

	var keys []model.ReservedKey
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&keys).Error; err != nil {
		return nil, 0, err
	}

	return keys, total, nil
}

// DeleteReservedKey 按 ID 删除保留短键
func (r *URLRegistry) DeleteReservedKey(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.ReservedKey{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
