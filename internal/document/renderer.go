package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"warehouse-be/internal/logger"

	"go.uber.org/zap"
)

var ErrRenderFailed = errors.New("document rendering failed")

// Renderer turns an order into a printable PDF.
type Renderer interface {
	Render(ctx context.Context, view OrderView) ([]byte, error)
}

type httpRenderer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRenderer talks to a rendering service that accepts an OrderView as
// JSON on POST /render/order and answers with application/pdf.
func NewHTTPRenderer(baseURL string) Renderer {
	if baseURL == "" {
		logger.L().Warn("renderer URL is empty, order documents will fail")
	}
	return &httpRenderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (r *httpRenderer) Render(ctx context.Context, view OrderView) ([]byte, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "document"),
		zap.String("order_number", view.OrderNumber),
	)

	body, err := json.Marshal(view)
	if err != nil {
		log.Error("failed to marshal order view", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render/order", bytes.NewReader(body))
	if err != nil {
		log.Error("failed creating render request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		req.Header.Set(logger.RequestIDHeader, reqID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Error("render request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer resp.Body.Close()

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read render response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("renderer returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", pdf),
		)
		return nil, fmt.Errorf("%w: status %d", ErrRenderFailed, resp.StatusCode)
	}

	log.Info("order document rendered", zap.Int("bytes", len(pdf)))
	return pdf, nil
}
