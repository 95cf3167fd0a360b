package notifications

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/NordCoder/Libra/internal/services/notifier"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userHistoryLimit = 50
	statsWindow      = 30 * 24 * time.Hour
)

type Dispatcher interface {
	Dispatch(ctx context.Context, userID, bookID int64, t notification.Type) (notification.Result, error)
}

type SchedulerStatus interface {
	Status() notifier.SchedulerStatus
}

type Controller struct {
	repo      notification.Repo
	dispatch  Dispatcher
	scheduler SchedulerStatus
	now       func() time.Time
	log       *zap.Logger
}

// NewController wires the read side and manual dispatch. scheduler may be nil when this
// process does not run the scheduler.
func NewController(repo notification.Repo, d Dispatcher, s SchedulerStatus, l *zap.Logger) *Controller {
	return &Controller{
		repo:      repo,
		dispatch:  d,
		scheduler: s,
		now:       time.Now,
		log:       l.With(zap.String("component", "api.notifications")),
	}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.GET("", ct.list)
	rg.GET("/user/:userId", ct.byUser)
	rg.GET("/stats", ct.stats)
	rg.POST("/send", ct.send)
	rg.GET("/scheduler", ct.schedulerStatus)
}

func (ct *Controller) list(c *gin.Context) {
	es, err := ct.repo.List(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, ct.log, "Notification", err)
		return
	}
	if es == nil {
		es = []*notification.Entry{}
	}
	c.JSON(http.StatusOK, es)
}

func (ct *Controller) byUser(c *gin.Context) {
	userID, ok := httpx.ParamID(c, "userId")
	if !ok {
		return
	}
	es, err := ct.repo.ListByUser(c.Request.Context(), userID, userHistoryLimit)
	if err != nil {
		httpx.StoreError(c, ct.log, "Notification", err)
		return
	}
	if es == nil {
		es = []*notification.Entry{}
	}
	c.JSON(http.StatusOK, es)
}

func (ct *Controller) stats(c *gin.Context) {
	ss, err := ct.repo.Stats(c.Request.Context(), ct.now().Add(-statsWindow))
	if err != nil {
		httpx.StoreError(c, ct.log, "Notification", err)
		return
	}
	if ss == nil {
		ss = []*notification.Stat{}
	}
	c.JSON(http.StatusOK, ss)
}

type sendRequest struct {
	UserID int64             `json:"userId"`
	BookID int64             `json:"bookId"`
	Type   notification.Type `json:"type"`
}

func (ct *Controller) send(c *gin.Context) {
	var req sendRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	res, err := ct.dispatch.Dispatch(c.Request.Context(), req.UserID, req.BookID, req.Type)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Notification sent successfully", "result": res})
	case errors.Is(err, notifier.ErrUnsupportedType):
		httpx.AbortWithError(c, http.StatusBadRequest, "Unsupported notification type", err)
	case errors.Is(err, notifier.ErrNotFound):
		httpx.AbortWithError(c, http.StatusBadRequest, "User or book not found", err)
	case errors.Is(err, notifier.ErrDeliveryFailed):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send notification",
			"details": res.Error,
		})
	default:
		ct.log.Error("manual dispatch failed", zap.Int64("user_id", req.UserID), zap.Int64("book_id", req.BookID), zap.Error(err))
		httpx.AbortWithError(c, http.StatusInternalServerError, "Failed to send notification", err)
	}
}

func (ct *Controller) schedulerStatus(c *gin.Context) {
	if ct.scheduler == nil {
		c.JSON(http.StatusOK, notifier.SchedulerStatus{Jobs: []notifier.JobStatus{}})
		return
	}
	c.JSON(http.StatusOK, ct.scheduler.Status())
}
