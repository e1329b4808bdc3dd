// Package server is the thin HTTP façade over the converter: upload a claim
// or a trip batch as JSON, get back the EDI text plus every stage report.
// Transport to the clearinghouse stays the caller's job.
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Softsensor-org/Kaizen/internal/report"
	"github.com/Softsensor-org/Kaizen/pkg/nemt837"
)

// Server wires the converter behind an echo instance.
type Server struct {
	cfg    nemt837.Config
	logger zerolog.Logger
	echo   *echo.Echo
}

// New builds the server with request-ID and request-logging middleware installed.
func New(cfg nemt837.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{cfg: cfg, logger: logger, echo: e}

	e.Use(s.requestID())
	e.Use(s.requestLogger())

	e.GET("/healthz", s.health)
	e.POST("/convert", s.convert)
	e.POST("/batch", s.batch)

	return s
}

// Start blocks serving on the given address.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set("X-Request-ID", rid)
			return next(c)
		}
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := s.logger.Info()
			if err != nil {
				evt = s.logger.Error().Err(err)
			}
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request")

			return err
		}
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type convertResponse struct {
	EDI              string                `json:"edi"`
	IsValid          bool                  `json:"is_valid"`
	PreReport        []map[string]string   `json:"pre_report"`
	ComplianceReport []map[string]string   `json:"compliance_report,omitempty"`
	PayerReport      []map[string]string   `json:"payer_report,omitempty"`
}

func flatten(rep *report.Report) []map[string]string {
	if rep == nil {
		return nil
	}
	return rep.Flatten()
}

func (s *Server) convert(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := nemt837.BuildJSON(body, s.cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, convertResponse{
		EDI:              string(res.EDI),
		IsValid:          res.IsValid(),
		PreReport:        flatten(res.PreReport),
		ComplianceReport: flatten(res.ComplianceReport),
		PayerReport:      flatten(res.PayerReport),
	})
}

type batchResponse struct {
	RunID            string              `json:"run_id"`
	EDI              string              `json:"edi"`
	BatchReport      []map[string]string `json:"batch_report"`
	ClaimReports     []batchClaimReport  `json:"claim_reports"`
	ComplianceReport []map[string]string `json:"compliance_report,omitempty"`
	PayerReport      []map[string]string `json:"payer_report,omitempty"`
}

type batchClaimReport struct {
	ClmNumber string              `json:"clm_number"`
	Excluded  bool                `json:"excluded"`
	Error     string              `json:"error,omitempty"`
	PreReport []map[string]string `json:"pre_report"`
}

func (s *Server) batch(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := nemt837.BuildBatchJSON(body, s.cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	resp := batchResponse{
		RunID:            res.RunID,
		EDI:              string(res.EDI),
		BatchReport:      flatten(res.BatchReport),
		ComplianceReport: flatten(res.ComplianceReport),
		PayerReport:      flatten(res.PayerReport),
	}
	for _, oc := range res.Claims {
		cr := batchClaimReport{
			ClmNumber: oc.ClmNumber,
			Excluded:  oc.Excluded,
			PreReport: flatten(oc.PreReport),
		}
		if oc.Err != nil {
			cr.Error = oc.Err.Error()
		}
		resp.ClaimReports = append(resp.ClaimReports, cr)
	}
	return c.JSON(http.StatusOK, resp)
}

func readBody(c echo.Context) ([]byte, error) {
	defer c.Request().Body.Close()
	return io.ReadAll(c.Request().Body)
}
