package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Libra/internal/domain/preference"
)

var _ preference.Repo = (*PreferenceRepo)(nil)

type PreferenceRepo struct {
	db *DB
}

func NewPreferenceRepo(db *DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

const (
	// DO UPDATE with a no-op assignment so RETURNING yields the existing row as well.
	qPrefGetOrCreate = `
INSERT INTO user_preferences (user_id, theme)
VALUES ($1, 'light')
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id, user_id, background_wallpaper, theme;`

	qPrefWallpaper = `
INSERT INTO user_preferences (user_id, background_wallpaper, theme)
VALUES ($1, $2, 'light')
ON CONFLICT (user_id) DO UPDATE SET background_wallpaper = EXCLUDED.background_wallpaper;`

	qPrefTheme = `
INSERT INTO user_preferences (user_id, theme)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET theme = EXCLUDED.theme;`
)

func (r *PreferenceRepo) GetOrCreate(ctx context.Context, userID int64) (*preference.Preferences, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p preference.Preferences
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qPrefGetOrCreate, userID).
		Scan(&p.ID, &p.UserID, &p.BackgroundWallpaper, &p.Theme); err != nil {
		return nil, mapErr("preferences", err)
	}
	return &p, nil
}

func (r *PreferenceRepo) SetWallpaper(ctx context.Context, userID int64, path *string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qPrefWallpaper, userID, path); err != nil {
		return mapErr("set wallpaper", err)
	}
	return nil
}

func (r *PreferenceRepo) SetTheme(ctx context.Context, userID int64, theme string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qPrefTheme, userID, theme); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	return nil
}
