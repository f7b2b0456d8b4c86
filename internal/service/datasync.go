package service

import (
	"context"
	"fmt"
	"strings"

	"wear_relay/internal/logger"
	"wear_relay/internal/metrics"
	"wear_relay/internal/models"
	"wear_relay/internal/platform"
	"wear_relay/internal/protocol"
	"wear_relay/internal/repository"

	"github.com/jonboulle/clockwork"
)

// DataPublisher fans data item updates out to connected nodes.
type DataPublisher interface {
	PublishDataItem(path string, payload []byte, values map[string]any)
}

// DataSyncService keeps the current value per path and pushes every update
// to the connected nodes.
type DataSyncService struct {
	repo  repository.DataItemRepo
	pub   DataPublisher
	clock clockwork.Clock
	log   *logger.Logger
}

var _ platform.DataClient = (*DataSyncService)(nil)

func NewDataSyncService(repo repository.DataItemRepo, pub DataPublisher, clock clockwork.Clock, log *logger.Logger) *DataSyncService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DataSyncService{repo: repo, pub: pub, clock: clock, log: log}
}

func (s *DataSyncService) PutDataItem(ctx context.Context, path string, payload []byte) error {
	if !strings.HasPrefix(path, "/") {
		metrics.DataItemsPutTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("invalid data item path %q", path)
	}
	values, err := protocol.ParseDataMap(payload)
	if err != nil {
		metrics.DataItemsPutTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("decode data item: %w", err)
	}

	item := models.DataItem{Path: path, Payload: payload, UpdatedAt: s.clock.Now().UTC()}
	if err := s.repo.Upsert(ctx, item); err != nil {
		metrics.DataItemsPutTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.DataItemsPutTotal.WithLabelValues("ok").Inc()

	if s.pub != nil {
		s.pub.PublishDataItem(path, payload, values)
	}
	return nil
}

// Get returns the current item under path with its payload decoded.
func (s *DataSyncService) Get(ctx context.Context, path string) (models.DataItem, error) {
	item, err := s.repo.Get(ctx, path)
	if err != nil {
		return models.DataItem{}, err
	}
	values, err := protocol.ParseDataMap(item.Payload)
	if err != nil {
		s.log.Warnw("data_item_decode_failed", "path", path, "err", err)
	}
	item.Values = values
	return item, nil
}
