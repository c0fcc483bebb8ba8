package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/audit"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/bucket"
	"restoran-analytics/internal/export"
	"restoran-analytics/internal/metrics"
	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const liveWaitTimeout = 10 * time.Second

// Service wires the analytics engine to HTTP.
type Service struct {
	Engine *analytics.Engine
	Fetch  analytics.Fetcher
	Boards *Boards
	// Bucket is nil when export upload is disabled.
	Bucket *bucket.Bucket
	TopN   int
	Log    logrus.FieldLogger
}

func (s *Service) params(c *fiber.Ctx, q ReportQuery) (analytics.Params, error) {
	p, err := q.Params(s.Engine.Now().Location(), s.TopN)
	if err != nil {
		metrics.ReportComputations.WithLabelValues("invalid").Inc()
		return p, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	scopeToCaller(c, &p)
	return p, nil
}

func (s *Service) queryParams(c *fiber.Ctx) (analytics.Params, error) {
	var q ReportQuery
	if err := c.QueryParser(&q); err != nil {
		return analytics.Params{}, fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	return s.params(c, q)
}

// compute fetches a fresh snapshot and builds the report for p.
func (s *Service) compute(ctx context.Context, p analytics.Params) (*analytics.Report, error) {
	start := time.Now()
	defer func() { metrics.ReportDuration.Observe(time.Since(start).Seconds()) }()

	snap, err := s.Fetch(ctx)
	if err != nil {
		metrics.ReportComputations.WithLabelValues("unavailable").Inc()
		s.Log.WithError(err).Warn("snapshot fetch failed")
		return nil, fiber.NewError(fiber.StatusBadGateway, "order data is unavailable")
	}
	rep, err := s.Engine.Compute(p, snap)
	if err != nil {
		metrics.ReportComputations.WithLabelValues("invalid").Inc()
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	metrics.ReportComputations.WithLabelValues("ok").Inc()
	return rep, nil
}

// GET /api/analytics/report?granularity=month&month=2024-05&types=table,delivery
func ReportHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := s.queryParams(c)
		if err != nil {
			return err
		}
		rep, err := s.compute(c.UserContext(), p)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

type ExportUploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// GET /api/analytics/export?granularity=week[&upload=true]
func ExportHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		upload := c.QueryBool("upload", false)
		if upload && s.Bucket == nil {
			return fiber.NewError(fiber.StatusBadRequest, "export upload is not configured")
		}

		p, err := s.queryParams(c)
		if err != nil {
			return err
		}
		rep, err := s.compute(c.UserContext(), p)
		if err != nil {
			return err
		}

		data, err := export.Bytes(rep)
		if err != nil {
			return fmt.Errorf("rendering export: %w", err)
		}
		filename := export.Filename(rep)

		var url string
		if upload {
			url, err = s.Bucket.Upload(c.UserContext(), filename, export.ContentType, data)
			if err != nil {
				s.Log.WithError(err).Error("export upload failed")
				return fiber.NewError(fiber.StatusBadGateway, "export upload failed")
			}
		}

		if err := audit.WriteLog(audit.LogOptions{
			UserID:      auth.UserID(c),
			EntityType:  "report",
			EntityID:    filename,
			Action:      models.AuditActionExport,
			Description: fmt.Sprintf("%s report exported (%d orders)", rep.Granularity, rep.Headline.Orders),
			After:       p,
		}); err != nil {
			s.Log.WithError(err).Warn("audit log not written")
		}

		if upload {
			return c.JSON(ExportUploadResponse{Filename: filename, URL: url})
		}
		c.Set(fiber.HeaderContentType, export.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(data)
	}
}

type LiveResponse struct {
	// Generation is the latest submitted generation; Result.Generation
	// lags behind it while a computation is running.
	Generation uint64            `json:"generation"`
	Pending    bool              `json:"pending"`
	Result     *analytics.Result `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func liveResponse(sup *analytics.Supervisor, r analytics.Result) LiveResponse {
	resp := LiveResponse{Generation: sup.Generation()}
	resp.Pending = r.Generation < resp.Generation
	if r.Generation > 0 {
		resp.Result = &r
		if r.Err != nil {
			var fe *fiber.Error
			if errors.As(r.Err, &fe) {
				resp.Error = fe.Message
			} else {
				resp.Error = r.Err.Error()
			}
		}
	}
	return resp
}

// PUT /api/analytics/live  body: ReportQuery as JSON
func PutLiveHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q ReportQuery
		if err := c.BodyParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		p, err := s.params(c, q)
		if err != nil {
			return err
		}
		// reject bad ranges now rather than as a failed generation later
		if _, err := analytics.ResolveRange(s.Engine.Now(), p.Range); err != nil {
			metrics.ReportComputations.WithLabelValues("invalid").Inc()
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sup := s.Boards.Get(auth.UserID(c))
		gen := sup.Submit(c.UserContext(), p)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"generation": gen})
	}
}

// GET /api/analytics/live[?wait=true]
func GetLiveHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sup := s.Boards.Get(auth.UserID(c))
		if !c.QueryBool("wait", false) {
			return c.JSON(liveResponse(sup, sup.Latest()))
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), liveWaitTimeout)
		defer cancel()
		r, err := sup.Wait(ctx, sup.Generation())
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return c.JSON(liveResponse(sup, r))
	}
}
