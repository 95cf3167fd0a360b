package loans

import (
	"errors"
	"net/http"
	"time"

	"github.com/NordCoder/Libra/internal/domain/loan"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	repo loan.Repo
	now  func() time.Time
	log  *zap.Logger
}

func NewController(repo loan.Repo, l *zap.Logger) *Controller {
	return &Controller{repo: repo, now: time.Now, log: l.With(zap.String("component", "api.loans"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.POST("", ct.create)
	rg.GET("", ct.list)
	rg.GET("/:id", ct.get)
	rg.PUT("/:id/return", ct.markReturned)
	rg.DELETE("/:id", ct.delete)
}

type createRequest struct {
	UserID   int64  `json:"user_id"`
	BookID   int64  `json:"book_id"`
	LoanDate string `json:"loan_date"`
	DueDate  string `json:"due_date"`
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
	loanDate, err := loan.ParseDate(req.LoanDate)
	if err != nil {
		errs = append(errs, "loan_date must be a YYYY-MM-DD date")
	}
	dueDate, err := loan.ParseDate(req.DueDate)
	if err != nil {
		errs = append(errs, "due_date must be a YYYY-MM-DD date")
	}
	if len(errs) == 0 && dueDate.Before(loanDate) {
		errs = append(errs, "due_date must not be before loan_date")
	}
	if len(errs) > 0 {
		httpx.ValidationFailed(c, errs)
		return
	}

	l := &loan.Loan{UserID: req.UserID, BookID: req.BookID, LoanDate: loanDate, DueDate: dueDate}
	if err := ct.repo.Create(c.Request.Context(), l); err != nil {
		httpx.StoreError(c, ct.log, "Loan", err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (ct *Controller) list(c *gin.Context) {
	vs, err := ct.repo.List(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, ct.log, "Loan", err)
		return
	}
	if vs == nil {
		vs = []*loan.View{}
	}
	c.JSON(http.StatusOK, vs)
}

func (ct *Controller) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	l, err := ct.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, ct.log, "Loan", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

type returnRequest struct {
	ReturnDate string `json:"return_date"`
}

// markReturned closes the loan. An omitted return_date means today.
func (ct *Controller) markReturned(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req returnRequest
	if c.Request.ContentLength != 0 && !httpx.BindJSON(c, &req) {
		return
	}
	returnDate := loan.Day(ct.now())
	if req.ReturnDate != "" {
		d, err := loan.ParseDate(req.ReturnDate)
		if err != nil {
			httpx.ValidationFailed(c, []string{"return_date must be a YYYY-MM-DD date"})
			return
		}
		returnDate = d
	}

	err := ct.repo.MarkReturned(c.Request.Context(), id, returnDate)
	switch {
	case errors.Is(err, pg.ErrConflict):
		httpx.AbortWithError(c, http.StatusConflict, "Loan already returned", nil)
		return
	case err != nil:
		httpx.StoreError(c, ct.log, "Loan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book returned", "return_date": returnDate.Format(loan.DateLayout)})
}

func (ct *Controller) delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := ct.repo.Delete(c.Request.Context(), id); err != nil {
		httpx.StoreError(c, ct.log, "Loan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Loan deleted"})
}
