package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go"

	"ordersvc/internal/domain/order"
)

var _ order.EventSink = (*EventSink)(nil)

// EventSink stores the order audit trail in OpenSearch instead of Postgres.
// Useful when the trail should be queryable outside the service.
type EventSink struct {
	client      *opensearch.Client
	indexOrders string
}

func NewEventSink(ctx context.Context, urls []string, indexOrders string) (*EventSink, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	cfg := opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}
	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	sink := &EventSink{client: client, indexOrders: indexOrders}

	if err := sink.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *EventSink) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.indexOrders}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil // already exists
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"event_id":   map[string]any{"type": "keyword"},
				"order_id":   map[string]any{"type": "keyword"},
				"kind":       map[string]any{"type": "keyword"},
				"created_at": map[string]any{"type": "date"},
				"data":       map[string]any{"type": "object", "enabled": true},
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0, // dev-friendly; change in prod
		},
	}
	buf, _ := json.Marshal(body)
	cr, err := s.client.Indices.Create(
		s.indexOrders,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

type osOrderEventDoc struct {
	EventID   string               `json:"event_id"`
	OrderID   string               `json:"order_id"`
	Kind      order.OrderEventKind `json:"kind"`
	Data      json.RawMessage      `json:"data,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

func (s *EventSink) CreateOrderEvent(ctx context.Context, ev order.NewOrderEvent) (*order.OrderEvent, error) {
	eventID := uuid.NewString()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	doc := osOrderEventDoc{
		EventID:   eventID,
		OrderID:   ev.OrderID,
		Kind:      ev.Kind,
		Data:      ev.Data,
		CreatedAt: ev.CreatedAt.UTC(),
	}
	payload, _ := json.Marshal(doc)
	res, err := s.client.Index(
		s.indexOrders,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(eventID),
		s.client.Index.WithContext(ctx),
		// Force refresh so reads see writes immediately. Remove for prod perf.
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("index error: %s", res.String())
	}
	return &order.OrderEvent{
		EventID:       eventID,
		NewOrderEvent: ev,
	}, nil
}

func (s *EventSink) GetOrderEvents(ctx context.Context, orderID string) ([]order.OrderEvent, error) {
	body := map[string]any{
		"size": 500,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"order_id": orderID}},
				},
			},
		},
		"sort": []map[string]any{
			{"created_at": map[string]any{"order": "asc"}},
		},
	}
	raw, _ := json.Marshal(body)

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.indexOrders),
		s.client.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]order.OrderEvent, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		var doc osOrderEventDoc
		if err := json.Unmarshal(h.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode hit: %w", err)
		}
		evtID := doc.EventID
		if evtID == "" {
			evtID = h.ID
		}
		out = append(out, order.OrderEvent{
			EventID: evtID,
			NewOrderEvent: order.NewOrderEvent{
				OrderID:   doc.OrderID,
				Kind:      doc.Kind,
				Data:      doc.Data,
				CreatedAt: doc.CreatedAt,
			},
		})
	}
	return out, nil
}
