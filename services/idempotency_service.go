package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

const idempotencyTTL = 7 * 24 * time.Hour

// StoredResult is the replayable outcome of a completed write.
type StoredResult struct {
	StatusCode int
	Body       json.RawMessage
	Replayed   bool
}

// IdempotencyService deduplicates retried writes via Idempotency-Key.
type IdempotencyService struct {
	db     *gorm.DB
	logger logger.Logger
}

// IdempotencyServiceOptions configures an IdempotencyService.
type IdempotencyServiceOptions struct {
	DB     *gorm.DB
	Logger logger.Logger
}

func NewIdempotencyService(opts IdempotencyServiceOptions) *IdempotencyService {
	return &IdempotencyService{
		db:     opts.DB,
		logger: opts.Logger,
	}
}

// CanonicalBodyHash hashes a request body independent of key order and
// insignificant whitespace. Non-JSON bodies hash as raw bytes.
func CanonicalBodyHash(body []byte) string {
	var v interface{}
	if err := json.Unmarshal(body, &v); err == nil {
		if canonical, err := json.Marshal(v); err == nil {
			body = canonical
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// ExecuteOnce runs fn at most once per (method, path, key). A retry with the
// same body replays the stored response; the same key with a different body
// is a conflict. An empty key bypasses deduplication entirely.
func (s *IdempotencyService) ExecuteOnce(
	ctx context.Context,
	method, path, key string,
	companyID *uint,
	body []byte,
	fn func() (int, interface{}, error),
) (*StoredResult, error) {
	if key == "" {
		status, payload, err := fn()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to encode response", err)
		}
		return &StoredResult{StatusCode: status, Body: raw}, nil
	}

	bodyHash := CanonicalBodyHash(body)

	var existing models.IdempotencyRecord
	err := s.db.WithContext(ctx).
		Where("method = ? AND path = ? AND key = ?", method, path, key).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.ExpiresAt.After(time.Now()) {
			return s.replay(&existing, bodyHash)
		}
		// Expired before the cron pruned it. Free the key slot so the
		// retry executes fresh instead of replaying a stale response.
		if derr := s.db.WithContext(ctx).Delete(&existing).Error; derr != nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "idempotency cleanup failed", derr)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "idempotency lookup failed", err)
	}

	status, payload, err := fn()
	if err != nil {
		// Failed writes are not recorded: the client may retry the same
		// key after fixing the cause.
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to encode response", err)
	}

	record := models.IdempotencyRecord{
		Method:       method,
		Path:         path,
		Key:          key,
		BodyHash:     bodyHash,
		CompanyID:    companyID,
		StatusCode:   status,
		ResponseJSON: string(raw),
		ExpiresAt:    time.Now().Add(idempotencyTTL),
	}
	err = s.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request with the same key won the insert race.
			// Reconcile against its stored record.
			var winner models.IdempotencyRecord
			rerr := s.db.WithContext(ctx).
				Where("method = ? AND path = ? AND key = ?", method, path, key).
				First(&winner).Error
			if rerr != nil {
				return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "idempotency reconciliation failed", rerr)
			}
			return s.replay(&winner, bodyHash)
		}
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to record idempotent write", err)
	}

	return &StoredResult{StatusCode: status, Body: raw}, nil
}

func (s *IdempotencyService) replay(record *models.IdempotencyRecord, bodyHash string) (*StoredResult, error) {
	if record.BodyHash != bodyHash {
		return nil, apperrors.NewAppError(apperrors.ErrCodeIdempotencyKey,
			"idempotency key was already used with a different request body", nil)
	}
	if s.logger != nil {
		s.logger.Debug("idempotent replay: %s %s key=%s", record.Method, record.Path, record.Key)
	}
	return &StoredResult{
		StatusCode: record.StatusCode,
		Body:       json.RawMessage(record.ResponseJSON),
		Replayed:   true,
	}, nil
}

// Prune removes expired records. Wired to the nightly cron.
func (s *IdempotencyService) Prune(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.IdempotencyRecord{})
	if res.Error != nil {
		return 0, apperrors.NewAppError(apperrors.ErrCodeDBError, "idempotency prune failed", res.Error)
	}
	return res.RowsAffected, nil
}
