package preferences

import (
	"net/http"

	"github.com/NordCoder/Libra/internal/domain/preference"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	repo  preference.Repo
	files uploads.Saver
	log   *zap.Logger
}

func NewController(repo preference.Repo, files uploads.Saver, l *zap.Logger) *Controller {
	return &Controller{repo: repo, files: files, log: l.With(zap.String("component", "api.preferences"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.GET("/:user_id", ct.get)
	rg.PUT("/:user_id/wallpaper", ct.setWallpaper)
	rg.PUT("/:user_id/theme", ct.setTheme)
	rg.DELETE("/:user_id/wallpaper", ct.resetWallpaper)
}

func (ct *Controller) get(c *gin.Context) {
	userID, ok := httpx.ParamID(c, "user_id")
	if !ok {
		return
	}
	p, err := ct.repo.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// setWallpaper replaces the wallpaper; the previous file is removed once the new path is stored.
func (ct *Controller) setWallpaper(c *gin.Context) {
	userID, ok := httpx.ParamID(c, "user_id")
	if !ok {
		return
	}
	prev, err := ct.repo.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	url, ok := uploads.Receive(c, ct.files, "wallpaper", "wallpapers")
	if !ok {
		return
	}
	if err := ct.repo.SetWallpaper(c.Request.Context(), userID, &url); err != nil {
		_ = ct.files.Remove(url)
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	ct.discard(prev.BackgroundWallpaper)
	c.JSON(http.StatusOK, gin.H{"message": "Wallpaper updated successfully", "background_wallpaper": url})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (ct *Controller) setTheme(c *gin.Context) {
	userID, ok := httpx.ParamID(c, "user_id")
	if !ok {
		return
	}
	var req themeRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	if !preference.ValidTheme(req.Theme) {
		httpx.AbortWithError(c, http.StatusBadRequest, "Theme must be light or dark", nil)
		return
	}
	if err := ct.repo.SetTheme(c.Request.Context(), userID, req.Theme); err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Theme updated successfully", "theme": req.Theme})
}

func (ct *Controller) resetWallpaper(c *gin.Context) {
	userID, ok := httpx.ParamID(c, "user_id")
	if !ok {
		return
	}
	prev, err := ct.repo.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	if err := ct.repo.SetWallpaper(c.Request.Context(), userID, nil); err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	ct.discard(prev.BackgroundWallpaper)
	c.JSON(http.StatusOK, gin.H{"message": "Wallpaper reset to default"})
}

func (ct *Controller) discard(url *string) {
	if url == nil {
		return
	}
	if err := ct.files.Remove(*url); err != nil {
		ct.log.Warn("old wallpaper not removed", zap.String("url", *url), zap.Error(err))
	}
}
