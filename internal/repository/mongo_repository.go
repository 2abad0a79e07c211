package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	UserID        string             `bson:"user_id"`
	Cart          []cartLineDocument `bson:"cart"`
	Wishlist      []wishlistDocument `bson:"wishlist"`
	Version       int64              `bson:"version"`
	CartUpdatedAt time.Time          `bson:"cart_updated_at"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type cartLineDocument struct {
	ProductID string `bson:"product_id"`
	Variant   string `bson:"variant,omitempty"`
	Quantity  int    `bson:"quantity"`
}

type wishlistDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image,omitempty"`
	AddedAt   time.Time            `bson:"added_at"`
}

// MongoRepository stores each user as one document keyed by user_id.
type MongoRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("users"),
		now:        time.Now,
	}
}

func (m *MongoRepository) GetUser(ctx context.Context, userID string) (*domain.UserState, error) {
	var doc userDocument

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return emptyState(userID), nil
		}
		return nil, wrapMongoError("failed to get user state", err)
	}

	return doc.toDomain()
}

func (m *MongoRepository) CompareAndSwap(ctx context.Context, userID string, version int64, next *domain.UserState) (bool, int64, error) {
	now := m.now().UTC()
	doc, err := fromDomain(next)
	if err != nil {
		return false, 0, err
	}
	doc.UserID = userID
	doc.Version = version + 1
	doc.UpdatedAt = now

	if version == 0 {
		// no record yet; the unique index on user_id turns a racing insert into a conflict
		doc.CreatedAt = now
		_, err := m.collection.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return false, 0, nil
			}
			return false, 0, wrapMongoError("failed to create user state", err)
		}
		return true, doc.Version, nil
	}

	filter := bson.M{"user_id": userID, "version": version}
	update := bson.M{
		"$set": bson.M{
			"cart":            doc.Cart,
			"wishlist":        doc.Wishlist,
			"version":         doc.Version,
			"cart_updated_at": doc.CartUpdatedAt,
			"updated_at":      now,
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, 0, wrapMongoError("failed to update user state", err)
	}
	if result.MatchedCount == 0 {
		return false, 0, nil
	}
	return true, doc.Version, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func wrapMongoError(msg string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", msg, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func fromDomain(s *domain.UserState) (*userDocument, error) {
	doc := &userDocument{
		Cart:          make([]cartLineDocument, len(s.Cart)),
		Wishlist:      make([]wishlistDocument, len(s.Wishlist)),
		CartUpdatedAt: s.CartUpdatedAt,
	}
	for i, l := range s.Cart {
		doc.Cart[i] = cartLineDocument{ProductID: l.ProductID, Variant: l.Variant, Quantity: l.Quantity}
	}
	for i, e := range s.Wishlist {
		price, err := primitive.ParseDecimal128(e.Price.String())
		if err != nil {
			return nil, fmt.Errorf("failed to encode wishlist price of %s: %w", e.ProductID, err)
		}
		doc.Wishlist[i] = wishlistDocument{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     price,
			Image:     e.Image,
			AddedAt:   e.AddedAt,
		}
	}
	return doc, nil
}

func (d *userDocument) toDomain() (*domain.UserState, error) {
	s := &domain.UserState{
		UserID:        d.UserID,
		Version:       d.Version,
		CartUpdatedAt: d.CartUpdatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, l := range d.Cart {
		s.Cart = append(s.Cart, domain.CartLine{ProductID: l.ProductID, Variant: l.Variant, Quantity: l.Quantity})
	}
	for _, e := range d.Wishlist {
		price, err := decimal.NewFromString(e.Price.String())
		if err != nil {
			return nil, fmt.Errorf("failed to decode wishlist price of %s: %w", e.ProductID, err)
		}
		s.Wishlist = append(s.Wishlist, domain.WishlistEntry{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     price,
			Image:     e.Image,
			AddedAt:   e.AddedAt,
		})
	}
	return s, nil
}
