package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	IsActive  bool               `bson:"isActive"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
	LastLogin *time.Time         `bson:"lastLogin,omitempty"`
}

func newUserDoc(usr user.User) userDoc {
	oid, _ := objectID(usr.ID)
	return userDoc{
		ID:        oid,
		Username:  usr.Username,
		Email:     usr.Email,
		Password:  string(usr.PasswordHash),
		Role:      usr.Role,
		IsActive:  usr.IsActive,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
		LastLogin: usr.LastLogin,
	}
}

func (d userDoc) user() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: []byte(d.Password),
		Role:         d.Role,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		LastLogin:    d.LastLogin,
	}
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{coll: db.collection(usersCollection)}
}

func userFilter(qf user.QueryFilter) bson.M {
	f := bson.M{}
	if qf.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(qf.Search), Options: "i"}
		f["$or"] = bson.A{bson.M{"username": rx}, bson.M{"email": rx}}
	}
	switch qf.Status {
	case user.StatusActive:
		f["isActive"] = true
	case user.StatusInactive:
		f["isActive"] = false
	}
	role := bson.M{}
	if qf.Role != "" {
		role["$eq"] = qf.Role
	}
	if qf.ExcludeAdmins {
		role["$ne"] = user.RoleAdmin
	}
	if len(role) > 0 {
		f["role"] = role
	}
	if qf.EmailSuffix != "" {
		f["email"] = primitive.Regex{Pattern: regexp.QuoteMeta(qf.EmailSuffix) + "$", Options: "i"}
	}
	created := bson.M{}
	if !qf.CreatedFrom.IsZero() {
		created["$gte"] = qf.CreatedFrom
	}
	if !qf.CreatedTo.IsZero() {
		created["$lt"] = qf.CreatedTo
	}
	if len(created) > 0 {
		f["createdAt"] = created
	}
	return f
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc := newUserDoc(usr)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return doc.user(), nil
}

func (repo *userRepository) getUser(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return doc.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, bson.M{"_id": oid})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"email": email})
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, page *core.Pagination) ([]user.User, error) {
	opts := pageOptions(options.Find().SetSort(newestFirst), page)
	cur, err := repo.coll.Find(ctx, userFilter(filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.user())
	}
	return users, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int64, error) {
	return repo.coll.CountDocuments(ctx, userFilter(filter))
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc := newUserDoc(usr)
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "replacing user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return doc.user(), nil
}

func (repo *userRepository) DeleteUsers(ctx context.Context, filter user.QueryFilter) (int64, error) {
	res, err := repo.coll.DeleteMany(ctx, userFilter(filter))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return res.DeletedCount, nil
}
