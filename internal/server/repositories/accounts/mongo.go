package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is shared with existing deployments of the service.
const CollectionName = "users"

// accountDocument keeps the field names used by existing user documents.
type accountDocument struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Username   string        `bson:"username"`
	Email      string        `bson:"email"`
	Password   string        `bson:"password"`
	Role       string        `bson:"role"`
	OTP        string        `bson:"otp,omitempty"`
	OTPExpires *time.Time    `bson:"otpExpires,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

func toDocument(a *models.Account) accountDocument {
	d := accountDocument{
		Username:   a.Username,
		Email:      a.Email,
		Password:   a.PasswordHash,
		Role:       string(a.Role),
		OTP:        a.OTP,
		OTPExpires: a.OTPExpiresAt,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if id, err := bson.ObjectIDFromHex(a.ID); err == nil {
		d.ID = id
	}
	return d
}

func (d accountDocument) toModel() *models.Account {
	a := &models.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if a.Role == "" {
		a.Role = models.RoleEmployee
	}
	if d.OTP != "" && d.OTPExpires != nil {
		a.OTP = d.OTP
		exp := *d.OTPExpires
		a.OTPExpiresAt = &exp
	}
	return a
}

// pendingOTPFilter selects the account only while code is its unexpired OTP.
func pendingOTPFilter(email, code string, now time.Time) bson.D {
	return bson.D{
		{Key: "email", Value: email},
		{Key: "otp", Value: code},
		{Key: "otpExpires", Value: bson.D{{Key: "$gt", Value: now}}},
	}
}

// consumeUpdate clears the OTP and, when passwordHash is set, replaces the
// stored hash in the same update.
func consumeUpdate(now time.Time, passwordHash string) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now}}
	if passwordHash != "" {
		set = append(set, bson.E{Key: "password", Value: passwordHash})
	}
	return bson.D{
		{Key: "$unset", Value: bson.D{{Key: "otp", Value: ""}, {Key: "otpExpires", Value: ""}}},
		{Key: "$set", Value: set},
	}
}

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the unique indexes on email and username.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := r.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	doc := toDocument(account)
	doc.ID = bson.NilObjectID
	doc.OTP = ""
	doc.OTPExpires = nil

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, fmt.Errorf("mongo error: unexpected inserted id %v", res.InsertedID)
	}
	account.ID = oid.Hex()
	return account, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoRepository) SetOTP(ctx context.Context, id string, code string, expiresAt time.Time) error {
	return r.updateByID(ctx, id, bson.D{
		{Key: "otp", Value: code},
		{Key: "otpExpires", Value: expiresAt.UTC()},
		{Key: "updatedAt", Value: r.now().UTC()},
	})
}

func (r *MongoRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*models.Account, error) {
	return r.consume(ctx, email, code, now, "")
}

func (r *MongoRepository) ResetPassword(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	return r.consume(ctx, email, code, now, passwordHash)
}

func (r *MongoRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	return r.updateByID(ctx, id, bson.D{
		{Key: "password", Value: passwordHash},
		{Key: "updatedAt", Value: r.now().UTC()},
	})
}

func (r *MongoRepository) consume(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDocument
	err := r.coll.FindOneAndUpdate(ctx,
		pendingOTPFilter(email, code, now.UTC()),
		consumeUpdate(r.now().UTC(), passwordHash),
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.Account, error) {
	var doc accountDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) updateByID(ctx context.Context, id string, set bson.D) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}
