package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amirhosseinghanipour/authgate/internal/domain"
)

func TestEmailOrPhoneFilter(t *testing.T) {
	if f := emailOrPhoneFilter("", ""); f != nil {
		t.Fatalf("expected nil filter, got %v", f)
	}
	f := emailOrPhoneFilter("a@x.com", "")
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 1 {
		t.Fatalf("unexpected filter %v", f)
	}
	f = emailOrPhoneFilter("a@x.com", "+1555")
	or = f["$or"].(bson.A)
	if len(or) != 2 {
		t.Fatalf("expected two clauses, got %v", or)
	}
	if or[1].(bson.M)["phone"] != "+1555" {
		t.Fatalf("unexpected phone clause %v", or[1])
	}
}

func TestAccountDocOmitsAbsentFields(t *testing.T) {
	acc := &domain.Account{
		ID:                 domain.NewAccountID(uuid.New()),
		Email:              "b@y.com",
		FederatedSubjectID: "sub123",
		DisplayName:        "Bob",
		CreatedAt:          time.Now().UTC().Truncate(time.Millisecond),
	}
	raw, err := bson.Marshal(domainToDoc(acc))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, absent := range []string{"phone", "password"} {
		if _, ok := m[absent]; ok {
			t.Errorf("field %q should be omitted", absent)
		}
	}
	if m["email"] != "b@y.com" || m["google_id"] != "sub123" || m["name"] != "Bob" {
		t.Errorf("unexpected document %v", m)
	}

	var doc accountDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal doc: %v", err)
	}
	back := docToDomain(doc)
	if back.ID != acc.ID || back.Email != acc.Email || back.HasPassword() {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestNullPasswordDecodesAsAbsent(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": uuid.NewString(), "email": "g@x.com", "password": nil})
	if err != nil {
		t.Fatal(err)
	}
	var doc accountDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if docToDomain(doc).HasPassword() {
		t.Fatal("null password must decode as absent")
	}
}

func TestAccountIndexesArePartialAndUnique(t *testing.T) {
	idx := accountIndexes()
	if len(idx) != 2 {
		t.Fatalf("got %d indexes", len(idx))
	}
	for _, m := range idx {
		if m.Options == nil || m.Options.Unique == nil || !*m.Options.Unique {
			t.Errorf("index %v must be unique", m.Keys)
		}
		if m.Options.PartialFilterExpression == nil {
			t.Errorf("index %v must be partial", m.Keys)
		}
	}
}

func TestObjectIDDocumentStaysLinkable(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":      primitive.NewObjectID(),
		"email":    "old@x.com",
		"phone":    nil,
		"password": "$2b$12$abcdefghijklmnopqrstuuJ0pVZ1q7cQbW4Qh8b0Xh8sY9m4oH1e.",
	})
	if err != nil {
		t.Fatal(err)
	}
	var doc accountDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	acc := docToDomain(doc)
	if acc.Email != "old@x.com" || !acc.HasPassword() {
		t.Fatalf("account = %+v", acc)
	}

	set, ok := federatedSet("sub-9", "Old", time.Now())["$set"].(bson.M)
	if !ok {
		t.Fatal("federatedSet must be a $set update")
	}
	if set["google_id"] != "sub-9" || set["name"] != "Old" {
		t.Fatalf("update = %v", set)
	}
	if _, ok := set["password"]; ok {
		t.Fatal("linking must not touch the password")
	}
}
