package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// tokens is the persistent TokenLedger. The table is keyed by the token
// string itself, so a lookup is an existence check.
type tokens struct {
	db *bun.DB
}

var _ TokenLedger = (*tokens)(nil)

func NewTokenLedger(db *bun.DB) TokenLedger {
	return &tokens{db: db}
}

func (a *tokens) CreateRecord(ctx context.Context, token string) (*AuthToken, error) {
	if token == "" {
		return nil, ErrNoEmptyToken
	}

	record := &AuthToken{Token: token}

	_, err := a.db.NewInsert().
		Model(record).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (a *tokens) FindRecord(ctx context.Context, token string) (*AuthToken, error) {
	record := &AuthToken{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *tokens) DeleteRecord(ctx context.Context, token string) error {
	_, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exec(ctx)
	return err
}
