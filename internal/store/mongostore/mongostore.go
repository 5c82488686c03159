// Package mongostore keeps appointments in MongoDB: a canonical
// "appointments" collection and a "patient_appointments" projection keyed by
// {patientId, appointmentId}. Both are written in one multi-document
// transaction.
//
// Snapshot reads alone do not stop two transactions that both find a slot
// empty and insert different documents. Every conflict read therefore also
// upserts a guard document for the (doctor, timestamp) pair; concurrent
// transactions on the same slot collide on that write and the server aborts
// all but one.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/model"
)

const (
	CollectionAppointments        = "appointments"
	CollectionPatientAppointments = "patient_appointments"
	CollectionSlotGuards          = "slot_guards"

	writeConflictCode       = 112
	namespaceExistsCode     = 48
	transientTxErrorLabel   = "TransientTransactionError"
	unknownCommitErrorLabel = "UnknownTransactionCommitResult"
)

type Fields struct {
	PatientID string    `bson:"patientId"`
	DoctorID  string    `bson:"doctorId"`
	DateTime  time.Time `bson:"appointmentDateTime"`
	Type      string    `bson:"type"`
	Status    string    `bson:"status"`
	Notes     string    `bson:"notes"`
	CreatedAt time.Time `bson:"createdAt"`
}

type appointmentDoc struct {
	ID     string `bson:"_id"`
	Fields `bson:",inline"`
}

type projectionKey struct {
	PatientID     string `bson:"patientId"`
	AppointmentID string `bson:"appointmentId"`
}

type projectionDoc struct {
	Key    projectionKey `bson:"_id"`
	Fields `bson:",inline"`
}

type Store struct {
	client       *mongo.Client
	appointments *mongo.Collection
	projections  *mongo.Collection
	guards       *mongo.Collection
}

var _ booking.Store = (*Store)(nil)

func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:       client,
		appointments: db.Collection(CollectionAppointments),
		projections:  db.Collection(CollectionPatientAppointments),
		guards:       db.Collection(CollectionSlotGuards),
	}
}

// EnsureIndexes creates the collections and indexes the store relies on.
// Collections must exist before they are written inside a transaction on
// older servers.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	db := s.appointments.Database()
	for _, name := range []string{CollectionAppointments, CollectionPatientAppointments, CollectionSlotGuards} {
		err := db.CreateCollection(ctx, name)
		var cmdErr mongo.CommandError
		if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode) {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	_, err := s.appointments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "appointmentDateTime", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("appointments index: %w", err)
	}
	_, err = s.projections.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "_id.patientId", Value: 1}, {Key: "appointmentDateTime", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("patient_appointments index: %w", err)
	}
	return nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	// WithTransaction re-runs the callback on transient errors; a rerun
	// sees the winner's commit and reports a conflict from the query
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &docTx{s: s})
	}, opts)
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) &&
		(se.HasErrorLabel(transientTxErrorLabel) ||
			se.HasErrorLabel(unknownCommitErrorLabel) ||
			se.HasErrorCode(writeConflictCode)) {
		return fmt.Errorf("%w: %v", booking.ErrContention, err)
	}
	return err
}

type docTx struct {
	s *Store
}

func guardID(doctorID string, t time.Time) string {
	return doctorID + "|" + t.UTC().Format(time.RFC3339Nano)
}

func (s *Store) touchGuard(ctx context.Context, doctorID string, t time.Time) error {
	_, err := s.guards.UpdateOne(ctx,
		bson.M{"_id": guardID(doctorID, t)},
		bson.M{"$inc": bson.M{"writes": 1}, "$set": bson.M{"doctorId": doctorID, "appointmentDateTime": t}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (t *docTx) AppointmentsAt(ctx context.Context, doctorID string, dateTime time.Time) ([]model.Appointment, error) {
	if err := t.s.touchGuard(ctx, doctorID, dateTime); err != nil {
		return nil, err
	}
	cur, err := t.s.appointments.Find(ctx, bson.M{
		"doctorId":            doctorID,
		"appointmentDateTime": dateTime,
	})
	if err != nil {
		return nil, err
	}
	return decodeAppointments(ctx, cur)
}

func (t *docTx) Create(ctx context.Context, a *model.Appointment) error {
	id := primitive.NewObjectID().Hex()
	f := fieldsOf(*a)
	f.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := t.s.appointments.InsertOne(ctx, appointmentDoc{ID: id, Fields: f}); err != nil {
		return err
	}
	proj := projectionDoc{Key: projectionKey{PatientID: a.PatientID, AppointmentID: id}, Fields: f}
	if _, err := t.s.projections.InsertOne(ctx, proj); err != nil {
		return err
	}

	a.ID = id
	a.CreatedAt = f.CreatedAt
	return nil
}

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	var doc appointmentDoc
	err := s.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a := doc.Fields.appointment(doc.ID)
	return &a, nil
}

func (s *Store) DoctorAppointments(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	cur, err := s.appointments.Find(ctx, bson.M{
		"doctorId":            doctorID,
		"appointmentDateTime": bson.M{"$gte": from, "$lt": to},
	}, options.Find().SetSort(bson.D{{Key: "appointmentDateTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAppointments(ctx, cur)
}

func (s *Store) PatientAppointments(ctx context.Context, patientID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	filter := bson.M{"_id.patientId": patientID}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	timeRange := bson.M{}
	if !f.From.IsZero() {
		timeRange["$gte"] = f.From
	}
	if !f.To.IsZero() {
		timeRange["$lte"] = f.To
	}
	if len(timeRange) > 0 {
		filter["appointmentDateTime"] = timeRange
	}

	cur, err := s.projections.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "appointmentDateTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []projectionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Fields.appointment(d.Key.AppointmentID))
	}
	return out, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var doc appointmentDoc
		err := s.appointments.FindOneAndUpdate(sc,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"status": string(status)}},
		).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, booking.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		_, err = s.projections.UpdateOne(sc,
			bson.M{"_id": projectionKey{PatientID: doc.PatientID, AppointmentID: id}},
			bson.M{"$set": bson.M{"status": string(status)}},
		)
		if err != nil {
			return nil, err
		}
		return nil, s.touchGuard(sc, doc.DoctorID, doc.DateTime)
	}, options.Transaction().SetWriteConcern(writeconcern.Majority()))
	return err
}

func decodeAppointments(ctx context.Context, cur *mongo.Cursor) ([]model.Appointment, error) {
	defer cur.Close(ctx)
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Fields.appointment(d.ID))
	}
	return out, nil
}

func fieldsOf(a model.Appointment) Fields {
	return Fields{
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		DateTime:  a.DateTime.UTC(),
		Type:      string(a.Type),
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
	}
}

func (f Fields) appointment(id string) model.Appointment {
	return model.Appointment{
		ID:        id,
		PatientID: f.PatientID,
		DoctorID:  f.DoctorID,
		DateTime:  f.DateTime,
		Type:      model.AppointmentType(f.Type),
		Status:    model.Status(f.Status),
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
	}
}
