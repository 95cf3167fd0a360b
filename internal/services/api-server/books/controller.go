package books

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var isbnRe = regexp.MustCompile(`^\d{10}(\d{3})?$`)

type Controller struct {
	repo  book.Repo
	files uploads.Saver
	log   *zap.Logger
}

func NewController(repo book.Repo, files uploads.Saver, l *zap.Logger) *Controller {
	return &Controller{repo: repo, files: files, log: l.With(zap.String("component", "api.books"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.POST("", ct.create)
	rg.GET("", ct.list)
	rg.GET("/:id", ct.get)
	rg.PUT("/:id", ct.update)
	rg.DELETE("/:id", ct.delete)
	rg.PUT("/:id/cover", ct.cover)
}

type bookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

func (r *bookRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
}

func validate(r bookRequest) []string {
	var errs []string
	if r.Title == "" {
		errs = append(errs, "Title is required and must not be empty")
	} else if utf8.RuneCountInString(r.Title) > 255 {
		errs = append(errs, "Title must be less than 255 characters")
	}
	if r.Author == "" {
		errs = append(errs, "Author is required and must not be empty")
	} else if utf8.RuneCountInString(r.Author) > 255 {
		errs = append(errs, "Author name must be less than 255 characters")
	}
	if r.ISBN != "" && !isbnRe.MatchString(r.ISBN) {
		errs = append(errs, "ISBN must be 10 or 13 digits (numbers only)")
	}
	return errs
}

func (ct *Controller) bind(c *gin.Context) (bookRequest, bool) {
	var req bookRequest
	if !httpx.BindJSON(c, &req) {
		return req, false
	}
	req.normalize()
	if errs := validate(req); len(errs) > 0 {
		httpx.ValidationFailed(c, errs)
		return req, false
	}
	return req, true
}

func (ct *Controller) create(c *gin.Context) {
	req, ok := ct.bind(c)
	if !ok {
		return
	}
	b := &book.Book{Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if err := ct.repo.Create(c.Request.Context(), b); err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (ct *Controller) list(c *gin.Context) {
	bs, err := ct.repo.List(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}
	if bs == nil {
		bs = []*book.Book{}
	}
	c.JSON(http.StatusOK, bs)
}

func (ct *Controller) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := ct.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (ct *Controller) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	req, ok := ct.bind(c)
	if !ok {
		return
	}
	b := &book.Book{ID: id, Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if err := ct.repo.Update(c.Request.Context(), b); err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book updated", "book": b})
}

func (ct *Controller) delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := ct.repo.Delete(c.Request.Context(), id); err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted"})
}

func (ct *Controller) cover(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	url, ok := uploads.Receive(c, ct.files, "cover", "covers")
	if !ok {
		return
	}
	if err := ct.repo.SetCover(c.Request.Context(), id, url); err != nil {
		_ = ct.files.Remove(url)
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cover updated successfully", "cover_url": url})
}
