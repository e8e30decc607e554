package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

const userColumns = `uid, email, username, password_hash, role, credits, is_premium,
	subscription_end_date, subscription_level, is_auto_deduct_enabled`

// RegisterUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var level sql.NullString
	if user.SubscriptionLevel != "" {
		level = sql.NullString{String: string(user.SubscriptionLevel), Valid: true}
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, credits, is_premium,
			      subscription_end_date, subscription_level, is_auto_deduct_enabled)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid;`
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, string(user.Role), user.Credits, user.IsPremium,
		user.SubscriptionEndDate, level, user.IsAutoDeductEnabled).Scan(&newID)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SaveUserBalance сохраняет баланс и флаг автосписания после списания.
func (s *Storage) SaveUserBalance(ctx context.Context, user models.User) error {
	const op = "storage.SaveUserBalance"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET credits = $1, is_auto_deduct_enabled = $2 WHERE uid = $3`,
		user.Credits, user.IsAutoDeductEnabled, user.UUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// FindSubscriptionExpiringTomorrow находит активные подписки, которые заканчиваются завтра.
func (s *Storage) FindSubscriptionExpiringTomorrow(ctx context.Context) ([]*models.ExpiringSubscription, error) {
	const op = "storage.FindSubscriptionExpiringTomorrow"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT email, username, COALESCE(subscription_level, ''), subscription_end_date
			  FROM users
			  WHERE is_premium
			    AND subscription_end_date::DATE = CURRENT_DATE + INTERVAL '1 day';`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiringSubscription
	for rows.Next() {
		var es models.ExpiringSubscription
		var level string
		if err = rows.Scan(&es.Email, &es.Username, &level, &es.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		es.Level = models.SubscriptionLevel(level)
		result = append(result, &es)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var role string
	var endDate sql.NullTime
	var level sql.NullString
	err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.Credits,
		&u.IsPremium, &endDate, &level, &u.IsAutoDeductEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if endDate.Valid {
		t := endDate.Time
		u.SubscriptionEndDate = &t
	}
	if level.Valid {
		u.SubscriptionLevel = models.SubscriptionLevel(level.String)
	}
	return u, nil
}
