package auth

import (
	"errors"
	"net/http"

	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	uc  *Usecase
	log *zap.Logger
}

func NewController(uc *Usecase, l *zap.Logger) *Controller {
	return &Controller{uc: uc, log: l.With(zap.String("component", "api.auth"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.POST("/signup", ct.signUp)
	rg.POST("/login", ct.login)
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ct *Controller) signUp(c *gin.Context) {
	var req signUpRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	if errs := validateSignUp(req.Name, req.Email, req.Password); len(errs) > 0 {
		httpx.ValidationFailed(c, errs)
		return
	}

	u, err := ct.uc.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrEmailExists):
		httpx.AbortWithError(c, http.StatusBadRequest, "User already exists", nil)
		return
	case err != nil:
		ct.log.Error("signup failed", zap.Error(err))
		httpx.AbortWithError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User created successfully", "userId": u.ID})
}

func (ct *Controller) login(c *gin.Context) {
	var req loginRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	if errs := validateLogin(req.Email, req.Password); len(errs) > 0 {
		httpx.ValidationFailed(c, errs)
		return
	}

	u, token, err := ct.uc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpx.AbortWithError(c, http.StatusBadRequest, "Invalid credentials", nil)
		return
	case err != nil:
		ct.log.Error("login failed", zap.Error(err))
		httpx.AbortWithError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    gin.H{"id": u.ID, "name": u.Name, "email": u.Email},
	})
}
