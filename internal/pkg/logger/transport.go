package logger

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport is the client-side counterpart of GinLogger: it stamps every
// outgoing request with a request id and logs the round trip.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, log *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = L()
	}
	return &Transport{Base: base, Logger: log}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = GetRequestID(req.Context())
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	// RoundTrippers must not mutate the caller's request
	req = req.Clone(WithRequestID(req.Context(), requestID))
	req.Header.Set(RequestIDHeader, requestID)

	log := t.Logger.WithContext(req.Context())
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		log.Warn("HTTP request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 400 {
		log.Warn("HTTP request", fields...)
	} else {
		log.Debug("HTTP request", fields...)
	}
	return resp, nil
}
