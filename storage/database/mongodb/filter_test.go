package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

func TestUserFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name   string
		filter user.QueryFilter
		want   bson.M
	}{
		{name: "empty", want: bson.M{}},
		{
			name:   "search is escaped",
			filter: user.QueryFilter{Search: "j.doe+"},
			want: bson.M{"$or": bson.A{
				bson.M{"username": primitive.Regex{Pattern: `j\.doe\+`, Options: "i"}},
				bson.M{"email": primitive.Regex{Pattern: `j\.doe\+`, Options: "i"}},
			}},
		},
		{name: "active", filter: user.QueryFilter{Status: user.StatusActive}, want: bson.M{"isActive": true}},
		{name: "inactive", filter: user.QueryFilter{Status: user.StatusInactive}, want: bson.M{"isActive": false}},
		{name: "all", filter: user.QueryFilter{Status: user.StatusAll}, want: bson.M{}},
		{
			name:   "learners",
			filter: user.QueryFilter{Role: user.RoleUser, ExcludeAdmins: true},
			want:   bson.M{"role": bson.M{"$eq": user.RoleUser, "$ne": user.RoleAdmin}},
		},
		{
			name:   "email suffix",
			filter: user.QueryFilter{EmailSuffix: "@demo.com"},
			want:   bson.M{"email": primitive.Regex{Pattern: `@demo\.com$`, Options: "i"}},
		},
		{
			name:   "created range",
			filter: user.QueryFilter{CreatedFrom: from, CreatedTo: to},
			want:   bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userFilter(tt.filter))
		})
	}
}

func TestCourseFilter(t *testing.T) {
	published := false
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{}, courseFilter(course.QueryFilter{}))
	assert.Equal(t,
		bson.M{"level": course.LevelAdvanced, "isPublished": false, "name": "Basics", "createdAt": bson.M{"$gte": from}},
		courseFilter(course.QueryFilter{Level: course.LevelAdvanced, IsPublished: &published, Name: "Basics", CreatedFrom: from}),
	)
}

func TestResultFilter(t *testing.T) {
	uid, cid := primitive.NewObjectID(), primitive.NewObjectID()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter result.QueryFilter
		want   bson.M
	}{
		{name: "empty", want: bson.M{}},
		{name: "invalid user", filter: result.QueryFilter{UserID: "lol"}, want: noMatch},
		{name: "invalid course", filter: result.QueryFilter{UserID: uid.Hex(), CourseID: "lol"}, want: noMatch},
		{
			name:   "user & course",
			filter: result.QueryFilter{UserID: uid.Hex(), CourseID: cid.Hex()},
			want:   bson.M{"userId": uid, "courseId": cid},
		},
		{
			name:   "exam ready",
			filter: result.QueryFilter{Status: result.StatusExamReady, MinOverall: result.PassPercentage},
			want:   bson.M{"status": result.StatusExamReady, "progress.overall.percentage": bson.M{"$gte": result.PassPercentage}},
		},
		{
			name:   "completed since",
			filter: result.QueryFilter{CompletedFrom: from},
			want:   bson.M{"completedAt": bson.M{"$ne": nil, "$gte": from}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultFilter(tt.filter))
		})
	}
}

func TestResultSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "lastUpdated", Value: -1}, {Key: "_id", Value: 1}}, resultSort(nil))
	assert.Equal(t,
		bson.D{{Key: "progress.overall.percentage", Value: 1}, {Key: "_id", Value: 1}},
		resultSort(&core.DBOrdering{Field: result.OrderOverall, Ascending: true}),
	)
	assert.Equal(t,
		bson.D{{Key: "completedAt", Value: -1}, {Key: "_id", Value: 1}},
		resultSort(&core.DBOrdering{Field: result.OrderCompletedAt}),
	)
}

func TestVocabularyFilter(t *testing.T) {
	uid := primitive.NewObjectID()

	assert.Equal(t, bson.M{}, vocabularyFilter(vocabulary.QueryFilter{}))
	assert.Equal(t, noMatch, vocabularyFilter(vocabulary.QueryFilter{UserID: "lol"}))
	assert.Equal(t,
		bson.M{
			"$or": bson.A{
				bson.M{"word": primitive.Regex{Pattern: "fruit", Options: "i"}},
				bson.M{"meaning": primitive.Regex{Pattern: "fruit", Options: "i"}},
			},
			"partOfSpeech": "noun",
			"favourite":    true,
			"userId":       uid,
		},
		vocabularyFilter(vocabulary.QueryFilter{Search: "fruit", PartOfSpeech: "noun", Favourite: true, UserID: uid.Hex()}),
	)
}

func TestUserDoc(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	usr := user.User{
		ID:           primitive.NewObjectID().Hex(),
		Username:     "bob",
		Email:        "bob@test.com",
		PasswordHash: []byte("hash"),
		Role:         user.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLogin:    &now,
	}
	assert.Equal(t, usr, newUserDoc(usr).user())

	// new documents get their id from the database
	assert.True(t, newUserDoc(user.User{}).ID.IsZero())
}

func TestPageOptions(t *testing.T) {
	opts := pageOptions(options.Find(), &core.Pagination{Page: 3, Limit: 10})
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)

	opts = pageOptions(options.Find(), nil)
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)
}
