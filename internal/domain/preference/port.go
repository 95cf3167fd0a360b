package preference

import "context"

type Repo interface {
	// GetOrCreate returns the stored preferences, inserting the defaults on first access.
	GetOrCreate(ctx context.Context, userID int64) (*Preferences, error)
	SetWallpaper(ctx context.Context, userID int64, path *string) error
	SetTheme(ctx context.Context, userID int64, theme string) error
}
