package gormdb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hireme/internal/app/uow"
	domainchat "hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
)

var errTxFinished = errors.New("gormdb: transaction already finished")

// Factory begins gorm-backed units of work.
type Factory struct {
	DB *gorm.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	tx := f.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	// opts.ReadOnly stays advisory: not every driver enforces it and every
	// unit of work here is short-lived regardless.
	_ = opts
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx       *gorm.DB
	finished bool
}

func (u *unitOfWork) Chat() domainchat.Repository {
	return &chatRepository{tx: u.tx}
}

func (u *unitOfWork) Users() domainuser.Repository {
	return &userRepository{tx: u.tx}
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.finished {
		return errTxFinished
	}
	u.finished = true
	return u.tx.Commit().Error
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	return u.tx.Rollback().Error
}

var _ uow.UoWFactory = Factory{}
