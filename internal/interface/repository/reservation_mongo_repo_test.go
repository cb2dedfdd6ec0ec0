package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/usecase"
)

var fixedArrival = time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC)

func schemaProperty(t *testing.T, schema bson.M, path ...string) bson.M {
	t.Helper()
	node := schema
	for _, p := range path {
		props, ok := node["properties"].(bson.M)
		if !ok {
			t.Fatalf("no properties above %q", p)
		}
		if node, ok = props[p].(bson.M); !ok {
			t.Fatalf("no property %q", p)
		}
	}
	return node
}

func TestReservationSchemaStatusEnum(t *testing.T) {
	enum, ok := schemaProperty(t, reservationSchema(), "status")["enum"].(bson.A)
	if !ok || len(enum) != len(entity.Statuses) {
		t.Fatalf("unexpected status enum %v", enum)
	}
	for i, s := range entity.Statuses {
		if enum[i] != string(s) {
			t.Fatalf("enum[%d] = %v, want %s", i, enum[i], s)
		}
	}
}

func TestReservationSchemaBoundsMatchValidator(t *testing.T) {
	schema := reservationSchema()

	size := schemaProperty(t, schema, "tableSize")
	if size["minimum"] != usecase.MinTableSize || size["maximum"] != usecase.MaxTableSize {
		t.Fatalf("table size bounds %v..%v, validator uses %d..%d", size["minimum"], size["maximum"], usecase.MinTableSize, usecase.MaxTableSize)
	}
	if got := schemaProperty(t, schema, "specialRequests")["maxLength"]; got != usecase.MaxSpecialRequestsLen {
		t.Fatalf("special requests maxLength %v, validator uses %d", got, usecase.MaxSpecialRequestsLen)
	}
}

// The store must accept exactly the emails the service accepts
func TestReservationSchemaEmailMatchesValidator(t *testing.T) {
	raw, ok := schemaProperty(t, reservationSchema(), "contactInfo", "email")["pattern"].(string)
	if !ok {
		t.Fatal("email pattern missing")
	}
	pattern := regexp.MustCompile(raw)
	validator := usecase.NewReservationValidator()

	for _, email := range []string{
		"ada@example.com",
		"first.last-name@mail.example.co",
		"no-at-sign.example.com",
		"ada@example",
		"ada@example.museum",
		"ada @example.com",
	} {
		t.Run(email, func(t *testing.T) {
			res := newReservation("Ada", fixedArrival, entity.StatusRequested)
			res.ContactInfo.Email = email

			serviceAccepts := true
			var verr *entity.ValidationError
			if err := validator.ValidateRecord(res); errors.As(err, &verr) {
				for _, v := range verr.Violations {
					if strings.Contains(v.Field, "email") {
						serviceAccepts = false
					}
				}
			}
			if storeAccepts := pattern.MatchString(email); storeAccepts != serviceAccepts {
				t.Fatalf("store accepts=%v, service accepts=%v", storeAccepts, serviceAccepts)
			}
		})
	}
}

func TestMapMongoError(t *testing.T) {
	plain := fmt.Errorf("connection reset")
	cases := []struct {
		name       string
		err        error
		validation bool
	}{
		{name: "write exception", err: mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: mongoDocumentFailedValidate, Message: "Document failed validation"}}}, validation: true},
		{name: "command error", err: mongo.CommandError{Code: mongoDocumentFailedValidate, Message: "Document failed validation"}, validation: true},
		{name: "duplicate key", err: mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}},
		{name: "plain", err: plain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapMongoError(tc.err)
			if tc.validation {
				if !errors.Is(got, entity.ErrValidation) {
					t.Fatalf("expected validation error, got %v", got)
				}
				return
			}
			if errors.Is(got, entity.ErrValidation) || got.Error() != tc.err.Error() {
				t.Fatalf("expected error passed through, got %v", got)
			}
		})
	}
}
