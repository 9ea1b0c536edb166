package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/domain"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

// accountDoc keeps the field names of the existing users collection
// (email, phone, password, google_id, name). Absent fields are omitted.
type accountDoc struct {
	ID                 string    `bson:"_id"`
	Email              string    `bson:"email,omitempty"`
	Phone              string    `bson:"phone,omitempty"`
	PasswordHash       string    `bson:"password,omitempty"`
	FederatedSubjectID string    `bson:"google_id,omitempty"`
	DisplayName        string    `bson:"name,omitempty"`
	CreatedAt          time.Time `bson:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

// AccountRepository implements ports.AccountRepository on MongoDB.
type AccountRepository struct {
	*DBService
}

func NewAccountRepository(dbService *DBService) *AccountRepository {
	return &AccountRepository{DBService: dbService}
}

// CreateIndexes adds the unique indexes that back identifier uniqueness. The
// partial filter keeps documents without an email (or phone) out of the index.
func (r *AccountRepository) CreateIndexes(ctx context.Context) error {
	ctx, cancel := r.getContext(ctx)
	defer cancel()
	_, err := r.collectionAccounts().Indexes().CreateMany(ctx, accountIndexes())
	return err
}

func accountIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_email").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().
				SetName("uniq_phone").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"phone": bson.M{"$type": "string"}}),
		},
	}
}

func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	if identifier == "" {
		return nil, nil
	}
	return r.findOne(ctx, emailOrPhoneFilter(identifier, identifier))
}

func (r *AccountRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error) {
	filter := emailOrPhoneFilter(email, phone)
	if filter == nil {
		return nil, nil
	}
	return r.findOne(ctx, filter)
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := r.getContext(ctx)
	defer cancel()
	var doc accountDoc
	err := r.collectionAccounts().FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return docToDomain(doc), nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	ctx, cancel := r.getContext(ctx)
	defer cancel()
	_, err := r.collectionAccounts().InsertOne(ctx, domainToDoc(account))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *AccountRepository) UpdateFederatedFields(ctx context.Context, email, subjectID, displayName string) error {
	ctx, cancel := r.getContext(ctx)
	defer cancel()
	res, err := r.collectionAccounts().UpdateOne(ctx,
		bson.M{"email": email},
		federatedSet(subjectID, displayName, time.Now()),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domerrors.ErrAccountNotFound
	}
	return nil
}

// federatedSet never touches password, so linking keeps an existing digest.
func federatedSet(subjectID, displayName string, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"google_id": subjectID,
		"name":      displayName,
		"updatedAt": now,
	}}
}

// emailOrPhoneFilter ORs over the non-empty arguments; nil when both are empty.
func emailOrPhoneFilter(email, phone string) bson.M {
	or := bson.A{}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if len(or) == 0 {
		return nil
	}
	return bson.M{"$or": or}
}

func domainToDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:                 a.ID.String(),
		Email:              a.Email,
		Phone:              a.Phone,
		PasswordHash:       a.PasswordHash,
		FederatedSubjectID: a.FederatedSubjectID,
		DisplayName:        a.DisplayName,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func docToDomain(d accountDoc) *domain.Account {
	// Documents keyed by an ObjectID come back with the zero AccountID. Nothing
	// writes by id, so they stay fully usable.
	id, _ := domain.ParseAccountID(d.ID)
	return &domain.Account{
		ID:                 id,
		Email:              d.Email,
		Phone:              d.Phone,
		PasswordHash:       d.PasswordHash,
		FederatedSubjectID: d.FederatedSubjectID,
		DisplayName:        d.DisplayName,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
