package store

import (
	"context"
	"strings"

	"bank-console/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ValidateEvent rejects journal entries missing any routing field.
func ValidateEvent(ev NewEvent) error {
	if strings.TrimSpace(ev.Type) == "" ||
		strings.TrimSpace(ev.AggregateType) == "" ||
		strings.TrimSpace(ev.AggregateID) == "" ||
		strings.TrimSpace(ev.CorrelationID) == "" {
		return domain.ErrValidation
	}
	return nil
}

// AppendEvent is the single entry point for event_log inserts. Call it from
// inside WithTx so the entry commits with the change it describes.
func (s *Store) AppendEvent(ctx context.Context, ev NewEvent) error {
	if err := ValidateEvent(ev); err != nil {
		return err
	}
	payloadJSON, payloadCanonical, err := CanonicalPayload(ev.Payload)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO event_log(
			event_id, event_type, aggregate_type, aggregate_id, correlation_id, payload_json, payload_canonical
		) VALUES($1,$2,$3,$4,$5,$6::jsonb,$7)`,
		uuid.New(), ev.Type, ev.AggregateType, ev.AggregateID, ev.CorrelationID, string(payloadJSON), payloadCanonical,
	)
	return storageErr(err)
}

func (s *Store) EventsFor(ctx context.Context, aggregateType, aggregateID string) ([]domain.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT event_id, event_type, aggregate_type, aggregate_id, correlation_id,
		        payload_json::text, payload_canonical, created_at
		   FROM event_log
		  WHERE aggregate_type=$1 AND aggregate_id=$2
		  ORDER BY seq`,
		aggregateType, aggregateID,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Event, error) {
		var (
			ev      domain.Event
			payload string
		)
		err := row.Scan(&ev.ID, &ev.Type, &ev.AggregateType, &ev.AggregateID, &ev.CorrelationID,
			&payload, &ev.Canonical, &ev.CreatedAt)
		ev.Payload = []byte(payload)
		return ev, err
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
