package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stadix/stadix/internal/domain"
)

type AdminRepo struct {
	db DB
}

func (r *AdminRepo) CreateSection(ctx context.Context, s *domain.Section) (int64, error) {
	const op = "postgres.AdminRepo.CreateSection"

	var id int64
	if err := r.db.QueryRow(ctx,
		`INSERT INTO sections(name, type, total_rows, seats_per_row, standing_capacity)
       	 VALUES ($1, $2, $3, $4, $5)
     	 RETURNING id`,
		s.Name, string(s.Type), s.TotalRows, s.SeatsPerRow, s.StandingCapacity,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *AdminRepo) ListSections(ctx context.Context) ([]domain.Section, error) {
	const op = "postgres.AdminRepo.ListSections"

	rows, err := r.db.Query(ctx,
		`SELECT id, name, type, total_rows, seats_per_row, standing_capacity
       	 FROM sections
      	 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Section
	for rows.Next() {
		var s domain.Section
		var typ string
		if err := rows.Scan(
			&s.ID, &s.Name, &typ, &s.TotalRows, &s.SeatsPerRow, &s.StandingCapacity,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		s.Type = domain.SectionType(typ)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *AdminRepo) CreateEvent(ctx context.Context, name string, starts time.Time) (int64, error) {
	const op = "postgres.AdminRepo.CreateEvent"

	var id int64
	if err := r.db.QueryRow(ctx,
		`INSERT INTO events(name, starts_at)
       	 VALUES ($1, $2)
     	 RETURNING id`,
		name, starts,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// AttachEventSection creates the ledger row for (event, section) with
// available seeded to the full total.
func (r *AdminRepo) AttachEventSection(ctx context.Context, es *domain.EventSection) error {
	const op = "postgres.AdminRepo.AttachEventSection"

	if _, err := r.db.Exec(ctx,
		`INSERT INTO event_sections(
			event_id, section_id, title, unit_price_cents, total_capacity, available)
       	 VALUES ($1, $2, $3, $4, $5, $5)`,
		es.EventID, es.SectionID, es.Title, es.UnitPriceCents, es.TotalCapacity,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	es.Available = es.TotalCapacity

	return nil
}
