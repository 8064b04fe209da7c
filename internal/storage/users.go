package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
)

const userColumns = `id, email, password_hash, role, created_at`

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		u.ID.Hex(), u.Email, u.PasswordHash, string(u.Role), toUnixMicro(u.CreatedAt))
	return translate(err, "insert user "+u.Email)
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id primitive.ObjectID) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.Hex())
	u, err := scanUser(row)
	return u, translate(err, "get user "+id.Hex())
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	return u, translate(err, "get user "+email)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ? WHERE id = ?`,
		u.Email, u.PasswordHash, u.ID.Hex())
	if err != nil {
		return translate(err, "update user "+u.ID.Hex())
	}
	return requireAffected(res, "update user "+u.ID.Hex())
}

func scanUser(row scanner) (core.User, error) {
	var (
		u         core.User
		id, role  string
		createdAt int64
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &role, &createdAt); err != nil {
		return u, err
	}
	u.Role = core.Role(role)
	u.CreatedAt = fromUnixMicro(createdAt)
	return u, parseHex(id, &u.ID)
}
