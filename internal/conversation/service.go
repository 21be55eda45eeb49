package conversation

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/observability"
	"github.com/kbukum/convoview/sse"
	"github.com/kbukum/convoview/validation"
)

const serviceName = "conversations"

// Service is the read/append facade over a Repository.
type Service struct {
	repo      Repository
	publisher sse.Publisher
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewService wires a service. publisher and metrics may be nil.
func NewService(repo Repository, publisher sse.Publisher, metrics *observability.Metrics, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = sse.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		log:       log.WithComponent(serviceName),
	}
}

// List returns one page of conversations, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) (items []Conversation, total int64, err error) {
	ctx, op := observability.StartOperation(ctx, s.metrics, serviceName, "list")
	defer func() { op.End(ctx, err) }()

	if err = validation.Validate(opts); err != nil {
		return nil, 0, err
	}
	items, total, err = s.repo.List(ctx, opts.Normalize())
	if err != nil {
		return nil, 0, apperrors.From(err)
	}
	return items, total, nil
}

// Get returns one conversation or a NotFound AppError.
func (s *Service) Get(ctx context.Context, id uint) (c *Conversation, err error) {
	ctx, op := observability.StartOperation(ctx, s.metrics, serviceName, "get",
		attribute.Int64(observability.AttrConversationID, int64(id)))
	defer func() { op.End(ctx, err) }()

	c, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return c, nil
}

// Document loads a conversation and parses its file_data. A conversation
// without file_data is reported as NoData.
func (s *Service) Document(ctx context.Context, id uint) (*Conversation, *Document, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !c.HasData() {
		return c, nil, apperrors.NoData("conversation", strconv.FormatUint(uint64(id), 10))
	}
	doc, err := c.Document()
	if err != nil {
		s.log.Warn("stored file_data is not a JSON object", logger.Fields(logger.FieldConversationID, id))
		return c, nil, apperrors.NoData("conversation", strconv.FormatUint(uint64(id), 10)).WithCause(err)
	}
	return c, doc, nil
}

// Create validates and stores c, then publishes EventCreated.
func (s *Service) Create(ctx context.Context, c *Conversation) (err error) {
	ctx, op := observability.StartOperation(ctx, s.metrics, serviceName, "create")
	defer func() { op.End(ctx, err) }()

	if err = validation.Validate(c); err != nil {
		return err
	}
	if _, perr := Parse(c.FileData); perr != nil {
		return apperrors.InvalidInput("file_data", "file_data must be a JSON object")
	}
	if err = s.repo.Create(ctx, c); err != nil {
		return apperrors.From(err)
	}

	s.log.WithContext(ctx).Info("conversation stored", logger.Fields(
		logger.FieldConversationID, c.ID,
		"file_name", c.FileName,
	))
	if perr := s.publisher.Publish(EventCreated, CreatedEvent{ID: c.ID, FileName: c.FileName, DateTime: c.DateTime}); perr != nil {
		s.log.Warn("publish failed", logger.ErrorFields(EventCreated, perr))
	}
	return nil
}

func (s *Service) translate(err error, id uint) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("conversation", strconv.FormatUint(uint64(id), 10))
	}
	return apperrors.From(err)
}
