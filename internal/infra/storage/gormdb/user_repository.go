package gormdb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainuser "hireme/internal/domain/user"
)

type userRepository struct {
	tx *gorm.DB
}

func (r *userRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var record userRecord
	if err := r.tx.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	var record userRecord
	err := r.tx.WithContext(ctx).
		Where("email = ?", domainuser.NormalizeEmail(email)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *userRepository) MissingIDs(ctx context.Context, ids []domainuser.ID) ([]domainuser.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []domainuser.ID
	err := r.tx.WithContext(ctx).Model(&userRecord{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	present := make(map[domainuser.ID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []domainuser.ID
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *userRepository) Save(ctx context.Context, user *domainuser.User) error {
	record := newUserRecord(user)
	if err := r.tx.WithContext(ctx).Save(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainuser.ErrEmailAlreadyUsed
		}
		return err
	}
	user.ID = record.ID
	return nil
}

var _ domainuser.Repository = (*userRepository)(nil)
