package blocking

import (
	"errors"
	"fmt"
	"time"

	"restoran-analytics/internal/audit"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreatePhoneBlockRequest struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
	// Duration such as "72h"; empty blocks permanently.
	Duration string `json:"duration"`
}

// parse validates the request and builds the block it describes.
func (r CreatePhoneBlockRequest) parse(now time.Time) (models.PhoneBlock, error) {
	phone, err := NormalizePhone(r.Phone)
	if err != nil {
		return models.PhoneBlock{}, err
	}
	b := models.PhoneBlock{Phone: phone, Reason: r.Reason, State: models.PhoneBlockActive}
	if r.Duration != "" {
		d, err := time.ParseDuration(r.Duration)
		if err != nil || d <= 0 {
			return models.PhoneBlock{}, fmt.Errorf("invalid duration %q", r.Duration)
		}
		exp := now.Add(d)
		b.ExpiresAt = &exp
	}
	return b, nil
}

// GET /api/admin/phone-blocks?state=active
func ListHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := models.PhoneBlockState(c.Query("state"))
		if state != "" && state != models.PhoneBlockActive && state != models.PhoneBlockExpired {
			return fiber.NewError(fiber.StatusBadRequest, "state must be active or expired")
		}
		blocks, err := s.List(c.UserContext(), state)
		if err != nil {
			return err
		}
		return c.JSON(blocks)
	}
}

type CheckResponse struct {
	Phone   string `json:"phone"`
	Blocked bool   `json:"blocked"`
}

// GET /api/admin/phone-blocks/check?phone=...
func CheckHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		phone, err := NormalizePhone(c.Query("phone"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		blocked, err := s.IsBlocked(c.UserContext(), phone)
		if err != nil {
			return err
		}
		return c.JSON(CheckResponse{Phone: phone, Blocked: blocked})
	}
}

// POST /api/admin/phone-blocks
func CreateHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePhoneBlockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		b, err := body.parse(s.now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		b.CreatedBy = auth.UserID(c)

		if err := s.Create(c.UserContext(), &b); err != nil {
			return err
		}

		if err := audit.WriteLog(audit.LogOptions{
			UserID:      b.CreatedBy,
			EntityType:  "phone_block",
			EntityID:    models.ToKey(b.ID),
			Action:      models.AuditActionCreate,
			Description: "phone blocked: " + b.Phone,
			After:       b,
		}); err != nil {
			s.Log.WithError(err).Warn("audit log not written")
		}

		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// DELETE /api/admin/phone-blocks/:id
func DeleteHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}

		before, err := s.Get(c.UserContext(), uint(id))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "phone block not found")
		}
		if err != nil {
			return err
		}
		if err := s.Delete(c.UserContext(), uint(id)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "phone block not found")
			}
			return err
		}

		if err := audit.WriteLog(audit.LogOptions{
			UserID:      auth.UserID(c),
			EntityType:  "phone_block",
			EntityID:    models.ToKey(before.ID),
			Action:      models.AuditActionDelete,
			Description: "phone unblocked: " + before.Phone,
			Before:      before,
		}); err != nil {
			s.Log.WithError(err).Warn("audit log not written")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
