package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/sony/gobreaker/v2"

	"github.com/readify/storefront/pkg/circuitbreaker"
	"github.com/readify/storefront/pkg/logger"
)

// ErrDescriptorRender reports that a QR image could not be produced by one
// of the renderers. It is logged; Render always falls back.
var ErrDescriptorRender = errors.New("descriptor render failed")

// DefaultQREndpoint is a public QR image service taking size and data query params.
const DefaultQREndpoint = "https://api.qrserver.com/v1/create-qr-code/"

const maxQRBytes = 1 << 20

type Source string

const (
	SourceRemote      Source = "remote"
	SourceLocal       Source = "local"
	SourcePlaceholder Source = "placeholder"
)

type QRImage struct {
	PNG    []byte
	Source Source
}

type QRConfig struct {
	// Endpoint of the remote QR service. Empty disables remote rendering.
	Endpoint string
	// Size is the edge length in pixels.
	Size    int
	Timeout time.Duration
	Breaker circuitbreaker.Settings
}

func DefaultQRConfig() QRConfig {
	return QRConfig{
		Endpoint: DefaultQREndpoint,
		Size:     256,
		Timeout:  3 * time.Second,
		Breaker:  circuitbreaker.DefaultSettings(),
	}
}

// QRRenderer turns payment descriptors into PNG images. The remote service
// is tried first, then a local encoder, then a blank placeholder.
type QRRenderer struct {
	cfg     QRConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *slog.Logger
}

func NewQRRenderer(cfg QRConfig, client *http.Client, log *slog.Logger) *QRRenderer {
	log = logger.OrDefault(log)
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &QRRenderer{
		cfg:     cfg,
		client:  client,
		breaker: circuitbreaker.New[[]byte]("qr-endpoint", cfg.Breaker, log),
		log:     log,
	}
}

// Render never fails; the Source field tells which renderer produced the image.
func (r *QRRenderer) Render(ctx context.Context, descriptor string) QRImage {
	if r.cfg.Endpoint != "" {
		img, err := r.breaker.Execute(func() ([]byte, error) {
			return r.fetch(ctx, descriptor)
		})
		if err == nil {
			return QRImage{PNG: img, Source: SourceRemote}
		}
		r.log.WarnContext(ctx, "remote QR render failed, encoding locally",
			"error", fmt.Errorf("%w: %w", ErrDescriptorRender, err))
	}

	img, err := qrcode.Encode(descriptor, qrcode.Medium, r.cfg.Size)
	if err == nil {
		return QRImage{PNG: img, Source: SourceLocal}
	}
	r.log.ErrorContext(ctx, "local QR render failed, using placeholder",
		"error", fmt.Errorf("%w: %w", ErrDescriptorRender, err))

	return QRImage{PNG: placeholder(r.cfg.Size), Source: SourcePlaceholder}
}

func (r *QRRenderer) fetch(ctx context.Context, descriptor string) ([]byte, error) {
	u, err := url.Parse(r.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid QR endpoint: %w", err)
	}
	q := u.Query()
	q.Set("size", fmt.Sprintf("%dx%d", r.cfg.Size, r.cfg.Size))
	q.Set("format", "png")
	q.Set("data", descriptor)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("QR endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQRBytes))
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(body, pngMagic) {
		return nil, errors.New("QR endpoint returned a non-PNG body")
	}
	return body, nil
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// placeholder is a plain light-gray square.
func placeholder(size int) []byte {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xee
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
