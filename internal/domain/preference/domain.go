package preference

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Preferences struct {
	ID                  int64   `json:"id"`
	UserID              int64   `json:"user_id"`
	BackgroundWallpaper *string `json:"background_wallpaper"`
	Theme               string  `json:"theme"`
}

func ValidTheme(t string) bool { return t == ThemeLight || t == ThemeDark }
