package postgres

import (
	"context"
	"database/sql"

	"eventlottery/internal/domain"
)

type factsReader struct {
	DB *sql.DB
}

// NewFactsReader reads an entrant's three facts in one statement, so the tuple
// comes from a single snapshot.
func NewFactsReader(db *sql.DB) domain.FactsReader {
	return &factsReader{DB: db}
}

func (r *factsReader) Facts(ctx context.Context, eventID, userID string) (domain.RegistrationFacts, error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2),
			EXISTS (SELECT 1 FROM invites WHERE event_id = $1 AND user_id = $2),
			EXISTS (SELECT 1 FROM waitlist_entries WHERE event_id = $1 AND user_id = $2 AND status = $3)
	`
	var f domain.RegistrationFacts
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID, domain.WaitlistStatusWaiting).
		Scan(&f.HasRegistration, &f.HasInvite, &f.HasWaiting)
	if err != nil {
		return domain.RegistrationFacts{}, storeError("read entrant facts", err)
	}
	return f, nil
}

func (r *factsReader) ListByUserID(ctx context.Context, userID string) ([]domain.EventFacts, error) {
	query := `
		SELECT event_id,
			bool_or(fact = 'registration'),
			bool_or(fact = 'invite'),
			bool_or(fact = 'waiting')
		FROM (
			SELECT event_id, 'registration' AS fact FROM registrations WHERE user_id = $1
			UNION ALL
			SELECT event_id, 'invite' FROM invites WHERE user_id = $1
			UNION ALL
			SELECT event_id, 'waiting' FROM waitlist_entries WHERE user_id = $1 AND status = $2
		) AS facts
		GROUP BY event_id
		ORDER BY event_id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID, domain.WaitlistStatusWaiting)
	if err != nil {
		return nil, storeError("list entrant facts", err)
	}
	defer rows.Close()

	out := make([]domain.EventFacts, 0)
	for rows.Next() {
		var f domain.EventFacts
		if err := rows.Scan(&f.EventID, &f.HasRegistration, &f.HasInvite, &f.HasWaiting); err != nil {
			return nil, storeError("scan entrant facts", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list entrant facts", err)
	}
	return out, nil
}
