package barcodes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"strconv"
	"time"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultQRSize        = 200
	DefaultBarcodeWidth  = 300
	DefaultBarcodeHeight = 100
	maxDimension         = 2000
)

var ErrNoISBN = errors.New("book has no ISBN")

// Generator renders QR codes and Code 128 barcodes as PNG. Output is cached by content and size.
type Generator struct {
	cache *cache.Cache
}

func NewGenerator(ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Generator{cache: cache.New(ttl, 2*ttl)}
}

type qrPayload struct {
	BookID int64  `json:"bookId"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Type   string `json:"type"`
}

// QRPayload is the JSON a book's QR code encodes.
func QRPayload(b *book.Book) ([]byte, error) {
	return json.Marshal(qrPayload{BookID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN, Type: "library_book"})
}

func clamp(v, def int) int {
	if v <= 0 {
		return def
	}
	return min(v, maxDimension)
}

func (g *Generator) BookQR(b *book.Book, width, height int) ([]byte, error) {
	payload, err := QRPayload(b)
	if err != nil {
		return nil, fmt.Errorf("qr payload: %w", err)
	}
	width, height = clamp(width, DefaultQRSize), clamp(height, DefaultQRSize)
	return g.cached("qr", string(payload), width, height, func() (barcode.Barcode, error) {
		return qr.Encode(string(payload), qr.M, qr.Auto)
	})
}

func (g *Generator) Code128(content string, width, height int) ([]byte, error) {
	if content == "" {
		return nil, ErrNoISBN
	}
	width, height = clamp(width, DefaultBarcodeWidth), clamp(height, DefaultBarcodeHeight)
	return g.cached("code128", content, width, height, func() (barcode.Barcode, error) {
		return code128.Encode(content)
	})
}

func (g *Generator) cached(kind, content string, width, height int, encode func() (barcode.Barcode, error)) ([]byte, error) {
	key := kind + ":" + strconv.Itoa(width) + "x" + strconv.Itoa(height) + ":" + content
	if v, ok := g.cache.Get(key); ok {
		return v.([]byte), nil
	}

	bc, err := encode()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	// a code narrower than the requested width cannot be scaled down
	if bc.Bounds().Dx() > width {
		width = bc.Bounds().Dx()
	}
	if bc.Bounds().Dy() > height {
		height = bc.Bounds().Dy()
	}
	scaled, err := barcode.Scale(bc, width, height)
	if err != nil {
		return nil, fmt.Errorf("scale %s: %w", kind, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	out := buf.Bytes()
	g.cache.SetDefault(key, out)
	return out, nil
}

type BookInfo struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type Label struct {
	QRCode   string   `json:"qrCode"`
	Barcode  string   `json:"barcode"`
	BookInfo BookInfo `json:"bookInfo"`
}

// Label bundles both codes as PNG data URLs.
func (g *Generator) Label(b *book.Book) (*Label, error) {
	q, err := g.BookQR(b, 0, 0)
	if err != nil {
		return nil, err
	}
	bc, err := g.Code128(b.ISBN, 0, 0)
	if err != nil {
		return nil, err
	}
	return &Label{
		QRCode:   dataURL(q),
		Barcode:  dataURL(bc),
		BookInfo: BookInfo{ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN},
	}, nil
}

func dataURL(img []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
}
