package blocking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"restoran-analytics/internal/metrics"
	"restoran-analytics/internal/models"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Service manages phone blocks. A block is active until its expiry passes,
// after which the sweeper marks it expired; it never becomes active again.
type Service struct {
	DB  *gorm.DB
	Log logrus.FieldLogger
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NormalizePhone keeps a leading plus and the digits.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return b.String(), nil
}

func (s *Service) Create(ctx context.Context, b *models.PhoneBlock) error {
	phone, err := NormalizePhone(b.Phone)
	if err != nil {
		return err
	}
	b.Phone = phone
	b.State = b.StateAt(s.now())
	if b.State == "" {
		b.State = models.PhoneBlockActive
	}
	if err := s.DB.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("creating phone block: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, state models.PhoneBlockState) ([]models.PhoneBlock, error) {
	dbq := s.DB.WithContext(ctx).Order("created_at DESC")
	if state != "" {
		dbq = dbq.Where("state = ?", state)
	}
	var blocks []models.PhoneBlock
	if err := dbq.Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("listing phone blocks: %w", err)
	}
	return blocks, nil
}

func (s *Service) Get(ctx context.Context, id uint) (models.PhoneBlock, error) {
	var b models.PhoneBlock
	err := s.DB.WithContext(ctx).First(&b, id).Error
	return b, err
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.PhoneBlock{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting phone block: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsBlocked reports whether phone has a block that is active right now,
// regardless of whether the sweeper has run yet.
func (s *Service) IsBlocked(ctx context.Context, phone string) (bool, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return false, err
	}
	var count int64
	err = s.DB.WithContext(ctx).Model(&models.PhoneBlock{}).
		Where("phone = ? AND state = ?", phone, models.PhoneBlockActive).
		Where("expires_at IS NULL OR expires_at > ?", s.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking phone block: %w", err)
	}
	return count > 0, nil
}

// Expire moves every active block whose expiry has passed to expired.
func (s *Service) Expire(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.PhoneBlock{}).
		Where("state = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.PhoneBlockActive, s.now()).
		Update("state", models.PhoneBlockExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expiring phone blocks: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.PhoneBlocksExpired.Add(float64(res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// StartSweeper runs Expire every interval until the returned scheduler is
// stopped.
func (s *Service) StartSweeper(interval time.Duration, loc *time.Location) (*gocron.Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	sched := gocron.NewScheduler(loc)
	sched.SingletonModeAll()
	_, err := sched.Every(interval).Do(func() {
		n, err := s.Expire(context.Background())
		if err != nil {
			s.Log.WithError(err).Error("phone block sweep failed")
			return
		}
		if n > 0 {
			s.Log.WithField("expired", n).Info("phone blocks expired")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling phone block sweep: %w", err)
	}
	sched.StartAsync()
	return sched, nil
}
