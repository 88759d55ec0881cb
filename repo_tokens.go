package bearer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens manages the access token records backing bearer sessions. Reads
// resolve misses to (nil, nil) so callers can branch on absence without
// unwrapping driver errors.
type Tokens interface {
	GetByValue(ctx context.Context, value string) (*Token, error)
	GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*Token, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*Token, error)
	GetByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Token, error)

	Create(ctx context.Context, token *Token) (*Token, error)
	CreateTx(ctx context.Context, tx bun.IDB, token *Token) (*Token, error)

	Update(ctx context.Context, userID uuid.UUID, changes Changes) (*Token, error)
	UpdateTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, changes Changes) (*Token, error)

	Revoke(ctx context.Context, userID uuid.UUID) (*Token, error)
	RevokeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Token, error)
}

type tokens struct {
	db *bun.DB
}

var _ Tokens = (*tokens)(nil)

func NewTokensRepository(db *bun.DB) Tokens {
	return &tokens{db: db}
}

func (r *tokens) GetByValue(ctx context.Context, value string) (*Token, error) {
	return r.GetByValueTx(ctx, r.db, value)
}

func (r *tokens) GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*Token, error) {
	if value == "" || value == RevokedTokenValue {
		return nil, nil
	}

	record := &Token{}
	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.value = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

func (r *tokens) GetByUser(ctx context.Context, userID uuid.UUID) (*Token, error) {
	return r.GetByUserTx(ctx, r.db, userID)
}

func (r *tokens) GetByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Token, error) {
	record := &Token{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

func (r *tokens) Create(ctx context.Context, token *Token) (*Token, error) {
	return r.CreateTx(ctx, r.db, token)
}

// CreateTx inserts a token for a user that has none. The unique index on
// user_id plus DO NOTHING makes concurrent creates converge on a single
// row; the re-select returns whichever insert won.
func (r *tokens) CreateTx(ctx context.Context, tx bun.IDB, token *Token) (*Token, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := tx.NewInsert().
		Model(token).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return r.GetByUserTx(ctx, tx, token.UserID)
}

func (r *tokens) Update(ctx context.Context, userID uuid.UUID, changes Changes) (*Token, error) {
	return r.UpdateTx(ctx, r.db, userID, changes)
}

func (r *tokens) UpdateTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, changes Changes) (*Token, error) {
	record, err := r.GetByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return nil, nil
	}

	sets, appends := NormalizeChanges(changes, time.Now())

	for key, value := range sets {
		applyTokenField(record, key, value)
	}

	for key, value := range appends {
		if record.Metadata == nil {
			record.Metadata = map[string]any{}
		}
		record.Metadata[key] = AppendValues(record.Metadata[key], value)
	}

	_, err = tx.NewUpdate().
		Model(record).
		Column("value", "revoked", "expires_at", "metadata", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *tokens) Revoke(ctx context.Context, userID uuid.UUID) (*Token, error) {
	return r.RevokeTx(ctx, r.db, userID)
}

func (r *tokens) RevokeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Token, error) {
	return r.UpdateTx(ctx, tx, userID, Changes{
		"value":   RevokedTokenValue,
		"revoked": true,
	})
}

func applyTokenField(record *Token, key string, value any) {
	switch key {
	case "value":
		if v, ok := value.(string); ok {
			record.Value = v
		}
	case "revoked":
		if v, ok := value.(bool); ok {
			record.Revoked = v
		}
	case "expires_at":
		switch v := value.(type) {
		case time.Time:
			record.ExpiresAt = &v
		case *time.Time:
			record.ExpiresAt = v
		case nil:
			record.ExpiresAt = nil
		}
	case "updated_at":
		if v, ok := value.(time.Time); ok {
			record.UpdatedAt = &v
		}
	default:
		if record.Metadata == nil {
			record.Metadata = map[string]any{}
		}
		record.Metadata[key] = value
	}
}
