package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/NordCoder/Libra/internal/domain/user"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/api-server/auth"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	repo  user.Repo
	files uploads.Saver
	log   *zap.Logger
}

func NewController(repo user.Repo, files uploads.Saver, l *zap.Logger) *Controller {
	return &Controller{repo: repo, files: files, log: l.With(zap.String("component", "api.users"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.POST("", ct.create)
	rg.GET("", ct.list)
	rg.GET("/:id", ct.get)
	rg.PUT("/:id/avatar", ct.avatar)
}

type createRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (ct *Controller) create(c *gin.Context) {
	var req createRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = user.RoleMember
	}

	var errs []string
	if len(req.Name) < 2 {
		errs = append(errs, "Name must be at least 2 characters long")
	}
	if !auth.ValidEmail(req.Email) {
		errs = append(errs, "Valid email is required")
	}
	if req.Role != user.RoleMember && req.Role != user.RoleLibrarian {
		errs = append(errs, "Role must be member or librarian")
	}
	if len(errs) > 0 {
		httpx.ValidationFailed(c, errs)
		return
	}

	u := &user.User{Name: req.Name, Email: req.Email, Phone: strings.TrimSpace(req.Phone), Role: req.Role}
	if err := ct.repo.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			httpx.AbortWithError(c, http.StatusBadRequest, "User already exists", nil)
			return
		}
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (ct *Controller) list(c *gin.Context) {
	us, err := ct.repo.List(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	if us == nil {
		us = []*user.User{}
	}
	c.JSON(http.StatusOK, us)
}

func (ct *Controller) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	u, err := ct.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (ct *Controller) avatar(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	url, ok := uploads.Receive(c, ct.files, "avatar", "avatars")
	if !ok {
		return
	}
	if err := ct.repo.SetAvatar(c.Request.Context(), id, url); err != nil {
		_ = ct.files.Remove(url)
		httpx.StoreError(c, ct.log, "User", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avatar updated successfully", "avatar_url": url})
}
