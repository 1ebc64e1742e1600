package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// OutboxService lets operators inspect the outbox and send dead letters
// back for another round of delivery.
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new OutboxService
func NewOutboxService(repo shared.OutboxRepository, log *zap.Logger) *OutboxService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OutboxService{repo: repo, logger: log}
}

// OutboxEntryResponse is an outbox entry without its payload
type OutboxEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ListDeadRequest pages through dead letters
type ListDeadRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsResponse counts entries per status
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// RetryAllResponse reports how many dead letters were requeued
type RetryAllResponse struct {
	Requeued int64 `json:"requeued"`
}

// ListDead returns dead letters, most recently failed first
func (s *OutboxService) ListDead(ctx context.Context, req ListDeadRequest) (*shared.Paginated[OutboxEntryResponse], error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	entries, total, err := s.repo.FindDead(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]OutboxEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = toOutboxEntryResponse(entry)
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// Get returns one entry
func (s *OutboxService) Get(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// Retry puts a dead letter back to pending with a fresh retry budget
func (s *OutboxService) Retry(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Only dead letter entries can be retried")
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	logger.WithLogger(ctx, s.logger).Info("Dead letter requeued",
		zap.String("entry_id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// RetryAll requeues every dead letter. Entries that fail to update are
// logged and skipped.
func (s *OutboxService) RetryAll(ctx context.Context) (*RetryAllResponse, error) {
	const batch = 100
	log := logger.WithLogger(ctx, s.logger)

	var requeued int64
	for {
		// Requeued entries leave the dead set, so the first page is always next
		entries, _, err := s.repo.FindDead(ctx, 1, batch)
		if err != nil {
			return nil, err
		}
		progressed := false
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				log.Error("Failed to requeue dead letter", zap.String("entry_id", entry.ID.String()), zap.Error(err))
				continue
			}
			requeued++
			progressed = true
		}
		if len(entries) < batch || !progressed {
			break
		}
	}

	log.Info("Dead letters requeued", zap.Int64("count", requeued))
	return &RetryAllResponse{Requeued: requeued}, nil
}

// Stats counts entries per status
func (s *OutboxService) Stats(ctx context.Context) (*OutboxStatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryResponse(entry *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
