package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/domain/repository"
	"table-reservation-service/pkg/logger"
)

const (
	mongoNamespaceExists        = 48
	mongoDocumentFailedValidate = 121
)

// MongoReservationRepository implements the ReservationRepository interface
type MongoReservationRepository struct {
	collection *mongo.Collection
}

// NewMongoReservationRepository creates a new MongoDB reservation repository.
// The collection is created with a schema validator and the query indexes.
func NewMongoReservationRepository(ctx context.Context, db *mongo.Database, name string, logger logger.Logger) (repository.ReservationRepository, error) {
	if err := ensureReservationCollection(ctx, db, name); err != nil {
		return nil, err
	}
	collection := db.Collection(name)

	// Compound index backing the date and status queries
	arrivalStatusIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "arrivalTime", Value: 1},
			{Key: "status", Value: 1},
		},
	}

	// Index on status for status-only listings
	statusIndex := mongo.IndexModel{
		Keys: bson.M{"status": 1},
	}

	if _, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{arrivalStatusIndex, statusIndex}); err != nil {
		return nil, fmt.Errorf("failed to create reservation indexes: %w", err)
	}

	logger.Info("Reservation collection ready", "collection", name)

	return &MongoReservationRepository{
		collection: collection,
	}, nil
}

// ensureReservationCollection creates the collection with its validator, or
// refreshes the validator when the collection already exists
func ensureReservationCollection(ctx context.Context, db *mongo.Database, name string) error {
	validator := bson.M{"$jsonSchema": reservationSchema()}

	err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(validator))
	if err == nil {
		return nil
	}

	var se mongo.ServerError
	if !errors.As(err, &se) || !se.HasErrorCode(mongoNamespaceExists) {
		return fmt.Errorf("failed to create reservation collection: %w", err)
	}

	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to update reservation validator: %w", err)
	}
	return nil
}

func reservationSchema() bson.M {
	statuses := make(bson.A, 0, len(entity.Statuses))
	for _, s := range entity.Statuses {
		statuses = append(statuses, string(s))
	}

	return bson.M{
		"bsonType": "object",
		"required": bson.A{"guestName", "contactInfo", "arrivalTime", "tableSize", "status", "createdAt", "updatedAt"},
		"properties": bson.M{
			"guestName": bson.M{"bsonType": "string", "minLength": 1},
			"contactInfo": bson.M{
				"bsonType": "object",
				"required": bson.A{"phone", "email"},
				"properties": bson.M{
					"phone": bson.M{"bsonType": "string", "minLength": 1},
					"email": bson.M{"bsonType": "string", "pattern": `^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`},
				},
			},
			"arrivalTime":     bson.M{"bsonType": "date"},
			"tableSize":       bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 20},
			"status":          bson.M{"enum": statuses},
			"specialRequests": bson.M{"bsonType": "string", "maxLength": 500},
			"createdAt":       bson.M{"bsonType": "date"},
			"updatedAt":       bson.M{"bsonType": "date"},
		},
	}
}

// Create inserts a reservation and assigns its id and timestamps
func (r *MongoReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation.ID = primitive.NewObjectID().Hex()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return mapMongoError(err)
	}
	return nil
}

// FindByID finds a reservation by ID
func (r *MongoReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &entity.NotFoundError{ID: id}
		}
		return nil, err
	}
	return &reservation, nil
}

// Update sets the submitted fields in one atomic round trip
func (r *MongoReservationRepository) Update(ctx context.Context, id string, patch entity.ReservationPatch) (*entity.Reservation, error) {
	set := bson.M{}
	if patch.GuestName != nil {
		set["guestName"] = *patch.GuestName
	}
	if patch.ContactInfo != nil {
		set["contactInfo"] = *patch.ContactInfo
	}
	if patch.ArrivalTime != nil {
		set["arrivalTime"] = *patch.ArrivalTime
	}
	if patch.TableSize != nil {
		set["tableSize"] = *patch.TableSize
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.SpecialRequests != nil {
		set["specialRequests"] = *patch.SpecialRequests
	}
	return r.findAndSet(ctx, id, set)
}

// UpdateStatus sets only the status
func (r *MongoReservationRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Reservation, error) {
	return r.findAndSet(ctx, id, bson.M{"status": status})
}

func (r *MongoReservationRepository) findAndSet(ctx context.Context, id string, set bson.M) (*entity.Reservation, error) {
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reservation entity.Reservation
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &entity.NotFoundError{ID: id}
		}
		return nil, mapMongoError(err)
	}
	return &reservation, nil
}

// Find finds reservations matching filter sorted by arrivalTime then id
func (r *MongoReservationRepository) Find(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	query := bson.M{}
	if filter.ArrivalFrom != nil || filter.ArrivalTo != nil {
		window := bson.M{}
		if filter.ArrivalFrom != nil {
			window["$gte"] = *filter.ArrivalFrom
		}
		if filter.ArrivalTo != nil {
			window["$lt"] = *filter.ArrivalTo
		}
		query["arrivalTime"] = window
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "arrivalTime", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reservations := []*entity.Reservation{}
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, err
	}

	return reservations, nil
}

// Ping checks the server is reachable
func (r *MongoReservationRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

// mapMongoError turns a schema validator rejection into a ValidationError
func mapMongoError(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(mongoDocumentFailedValidate) {
		return &entity.ValidationError{Violations: []entity.FieldViolation{{
			Field:   "document",
			Message: "rejected by store schema validation",
		}}}
	}
	return err
}
