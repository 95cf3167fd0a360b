package reservations

import (
	"net/http"
	"time"

	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/NordCoder/Libra/internal/domain/reservation"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	repo reservation.Repo
	now  func() time.Time
	log  *zap.Logger
}

func NewController(repo reservation.Repo, l *zap.Logger) *Controller {
	return &Controller{repo: repo, now: time.Now, log: l.With(zap.String("component", "api.reservations"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.POST("", ct.create)
	rg.GET("", ct.list)
	rg.PUT("/:id", ct.updateStatus)
	rg.DELETE("/:id", ct.delete)
}

type createRequest struct {
	UserID          int64  `json:"user_id"`
	BookID          int64  `json:"book_id"`
	ReservationDate string `json:"reservation_date"`
}

func (ct *Controller) create(c *gin.Context) {
	var req createRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	var errs []string
	if req.UserID <= 0 {
		errs = append(errs, "user_id is required")
	}
	if req.BookID <= 0 {
		errs = append(errs, "book_id is required")
	}
	day := loan.Day(ct.now())
	if req.ReservationDate != "" {
		d, err := loan.ParseDate(req.ReservationDate)
		if err != nil {
			errs = append(errs, "reservation_date must be a YYYY-MM-DD date")
		}
		day = d
	}
	if len(errs) > 0 {
		httpx.ValidationFailed(c, errs)
		return
	}

	r := &reservation.Reservation{
		UserID:          req.UserID,
		BookID:          req.BookID,
		ReservationDate: day,
		Status:          reservation.StatusPending,
	}
	if err := ct.repo.Create(c.Request.Context(), r); err != nil {
		httpx.StoreError(c, ct.log, "Reservation", err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (ct *Controller) list(c *gin.Context) {
	vs, err := ct.repo.List(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, ct.log, "Reservation", err)
		return
	}
	if vs == nil {
		vs = []*reservation.View{}
	}
	c.JSON(http.StatusOK, vs)
}

type statusRequest struct {
	Status reservation.Status `json:"status"`
}

func (ct *Controller) updateStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	if !req.Status.Valid() {
		httpx.ValidationFailed(c, []string{"Status must be Pending, Fulfilled or Cancelled"})
		return
	}
	if err := ct.repo.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		httpx.StoreError(c, ct.log, "Reservation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation updated", "status": req.Status})
}

func (ct *Controller) delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := ct.repo.Delete(c.Request.Context(), id); err != nil {
		httpx.StoreError(c, ct.log, "Reservation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted"})
}
