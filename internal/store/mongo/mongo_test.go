package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/storetest"
)

func TestDocumentRoundTrip(t *testing.T) {
	e := storetest.Expense("12.5", core.Food, "Lunch", 2024, 3, 7)
	doc := toDocument(e)
	doc.ID = primitive.NewObjectID()

	got := doc.expense()
	if got.ID != doc.ID.Hex() {
		t.Fatalf("expected hex id, got %s", got.ID)
	}
	if got.Amount.Fixed() != "12.50" || got.Category != core.Food || got.Date.String() != "2024-03-07" {
		t.Fatalf("unexpected expense: %+v", got)
	}
}

func TestDocumentDateKeepsUTCDay(t *testing.T) {
	// Stored as midnight UTC; decoding into another zone must not shift the day.
	local := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC).In(time.FixedZone("PST", -8*3600))
	got := document{Date: local}.expense()
	if got.Date.String() != "2024-03-07" {
		t.Fatalf("expected 2024-03-07, got %s", got.Date)
	}
}

func TestClassify(t *testing.T) {
	rejected := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
	if err := classify("insert expense", rejected); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	other := errors.New("connection reset")
	err := classify("insert expense", other)
	if !errors.Is(err, core.ErrStoreUnavailable) || !errors.Is(err, other) {
		t.Fatalf("expected store unavailable wrapping cause, got %v", err)
	}
}

func TestOpenWithoutURI(t *testing.T) {
	if _, err := Open(context.Background(), Options{}); !errors.Is(err, ErrNoConnection) {
		t.Fatalf("expected ErrNoConnection, got %v", err)
	}
}

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := Open(ctx, Options{URI: uri, Database: "expensetracker_test", Collection: "expenses_" + primitive.NewObjectID().Hex()})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() {
			_ = s.coll.Drop(context.Background())
			s.Close()
		})
		return s
	})
}
