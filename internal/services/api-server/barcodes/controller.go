package barcodes

import (
	"net/http"
	"strings"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	books book.Repo
	gen   *Generator
	log   *zap.Logger
}

func NewController(books book.Repo, gen *Generator, l *zap.Logger) *Controller {
	return &Controller{books: books, gen: gen, log: l.With(zap.String("component", "api.barcodes"))}
}

func (ct *Controller) Register(rg *gin.RouterGroup) {
	rg.GET("/book/:id/qr", ct.qr)
	rg.GET("/barcode/:isbn", ct.barcode)
	rg.GET("/book/:id/label", ct.label)
	rg.POST("/bulk-labels", ct.bulkLabels)
}

func (ct *Controller) book(c *gin.Context) (*book.Book, bool) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	b, err := ct.books.GetByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return nil, false
	}
	return b, true
}

func (ct *Controller) qr(c *gin.Context) {
	b, ok := ct.book(c)
	if !ok {
		return
	}
	img, err := ct.gen.BookQR(b, httpx.QueryInt(c, "width", DefaultQRSize), httpx.QueryInt(c, "height", DefaultQRSize))
	if err != nil {
		httpx.AbortWithError(c, http.StatusInternalServerError, "Failed to generate QR code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (ct *Controller) barcode(c *gin.Context) {
	isbn := strings.TrimSpace(c.Param("isbn"))
	if isbn == "" {
		httpx.AbortWithError(c, http.StatusBadRequest, "ISBN required", nil)
		return
	}
	img, err := ct.gen.Code128(isbn,
		httpx.QueryInt(c, "width", DefaultBarcodeWidth),
		httpx.QueryInt(c, "height", DefaultBarcodeHeight),
	)
	if err != nil {
		httpx.AbortWithError(c, http.StatusInternalServerError, "Failed to generate barcode", err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (ct *Controller) label(c *gin.Context) {
	b, ok := ct.book(c)
	if !ok {
		return
	}
	l, err := ct.gen.Label(b)
	if err != nil {
		httpx.AbortWithError(c, http.StatusInternalServerError, "Failed to generate book label", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

type bulkRequest struct {
	BookIDs []int64 `json:"bookIds"`
}

type labelError struct {
	Error  string `json:"error"`
	BookID int64  `json:"bookId"`
}

// bulkLabels answers one entry per book found; a book that cannot be labelled gets an error entry.
func (ct *Controller) bulkLabels(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookIDs == nil {
		httpx.AbortWithError(c, http.StatusBadRequest, "Book IDs array required", err)
		return
	}

	bs, err := ct.books.GetMany(c.Request.Context(), req.BookIDs)
	if err != nil {
		httpx.StoreError(c, ct.log, "Book", err)
		return
	}

	labels := make([]any, 0, len(bs))
	for _, b := range bs {
		l, err := ct.gen.Label(b)
		if err != nil {
			ct.log.Warn("label generation failed", zap.Int64("book_id", b.ID), zap.Error(err))
			labels = append(labels, labelError{Error: "Failed to generate label for " + b.Title, BookID: b.ID})
			continue
		}
		labels = append(labels, l)
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels, "total": len(labels)})
}
