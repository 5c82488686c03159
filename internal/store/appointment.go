package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/model"
)

const apptColumns = `id, patient_id, doctor_id, appointment_date_time, type, status, notes, created_at`

type apptTx struct {
	tx pgx.Tx
}

func (t *apptTx) AppointmentsAt(ctx context.Context, doctorID string, dateTime time.Time) ([]model.Appointment, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+apptColumns+`
		 FROM appointments
		 WHERE doctor_id = $1 AND appointment_date_time = $2`,
		doctorID, dateTime,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (t *apptTx) Create(ctx context.Context, a *model.Appointment) error {
	id := uuid.New().String()

	var createdAt time.Time
	err := t.tx.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, appointment_date_time, type, status, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at`,
		id, a.PatientID, a.DoctorID, a.DateTime, string(a.Type), string(a.Status), a.Notes,
	).Scan(&createdAt)
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO patient_appointments
		   (patient_id, appointment_id, doctor_id, appointment_date_time, type, status, notes, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.PatientID, id, a.DoctorID, a.DateTime, string(a.Type), string(a.Status), a.Notes, createdAt,
	)
	if err != nil {
		return err
	}

	a.ID = id
	a.CreatedAt = createdAt
	return nil
}

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, booking.ErrNotFound
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	out, err := collect(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, booking.ErrNotFound
	}
	return &out[0], nil
}

func (s *Store) DoctorAppointments(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apptColumns+`
		 FROM appointments
		 WHERE doctor_id = $1
		   AND appointment_date_time >= $2 AND appointment_date_time < $3
		 ORDER BY appointment_date_time`,
		doctorID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) PatientAppointments(ctx context.Context, patientID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	q := `SELECT appointment_id, patient_id, doctor_id, appointment_date_time, type, status, notes, created_at
		FROM patient_appointments
		WHERE patient_id = $1`
	args := []any{patientID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += fmt.Sprintf(` AND appointment_date_time >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += fmt.Sprintf(` AND appointment_date_time <= $%d`, len(args))
	}
	q += ` ORDER BY appointment_date_time`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return booking.ErrNotFound
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var patientID string
	err = tx.QueryRow(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING patient_id`, string(status), id,
	).Scan(&patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.ErrNotFound
	}
	if err != nil {
		return err
	}

	// keep the projection in step
	_, err = tx.Exec(ctx,
		`UPDATE patient_appointments SET status = $1, updated_at = NOW()
		 WHERE patient_id = $2 AND appointment_id = $3`,
		string(status), patientID, id,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func collect(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var (
			a          model.Appointment
			typ, state string
		)
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.DateTime, &typ, &state, &a.Notes, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Type = model.AppointmentType(typ)
		a.Status = model.Status(state)
		out = append(out, a)
	}
	return out, rows.Err()
}
