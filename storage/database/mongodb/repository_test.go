package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

// openTestDB connects to the server at MONGODB_TEST_URI, in a database dropped when the test ends.
func openTestDB(t *testing.T) *DB {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conf := core.NewTestConfig()
	conf.Database.URI = uri
	conf.Database.Name = "eduenglish_test_" + primitive.NewObjectID().Hex()
	conf.Database.ConnectTimeout = 5 * time.Second

	db, err := Open(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, db.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = db.db.Drop(context.Background())
		_ = db.Close(context.Background())
	})
	return db
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	create := func(t *testing.T, name, email string) user.User {
		usr, err := repo.CreateUser(ctx, user.User{Username: name, Email: email, Role: user.RoleUser, IsActive: true, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
		return usr
	}
	dotted := create(t, "a.b+c", "a.b+c@test.com")
	create(t, "axbbc", "axbbc@test.com")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, user.User{Username: "again", Email: dotted.Email})
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("search is literal", func(t *testing.T) {
		users, err := repo.FilterUsers(ctx, user.QueryFilter{Search: "A.B+"}, nil)
		require.NoError(t, err)
		if assert.Len(t, users, 1) {
			assert.Equal(t, dotted.ID, users[0].ID)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := repo.GetUserByID(ctx, "lol")
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestVocabularyRepository_search(t *testing.T) {
	db := openTestDB(t)
	repo := NewVocabularyRepository(db)
	ctx := context.Background()

	created, err := repo.CreateVocabularies(ctx,
		vocabulary.Vocabulary{Word: "f(x)", Meaning: "a function", CreatedAt: time.Now().UTC()},
		vocabulary.Vocabulary{Word: "fox", Meaning: "an animal", CreatedAt: time.Now().UTC()},
	)
	require.NoError(t, err)

	vocabs, err := repo.FilterVocabularies(ctx, vocabulary.QueryFilter{Search: "(x"})
	require.NoError(t, err)
	if assert.Len(t, vocabs, 1) {
		assert.Equal(t, created[0].ID, vocabs[0].ID)
	}
}

func TestResultRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	bobID, carolID, courseID := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()
	exam := result.ExamResult{ExamID: "final", TotalQuestions: 5, CorrectAnswers: 3, Percentage: 60, CompletedAt: now}

	_, err := repo.CreateResult(ctx, result.Result{UserID: bobID, CourseID: courseID, ExamResults: []result.ExamResult{exam, exam}, LastUpdated: now})
	require.NoError(t, err)
	_, err = repo.CreateResult(ctx, result.Result{UserID: carolID, CourseID: courseID, LastUpdated: now})
	require.NoError(t, err)

	t.Run("one result per user and course", func(t *testing.T) {
		_, err := repo.CreateResult(ctx, result.Result{UserID: bobID, CourseID: courseID, LastUpdated: now})
		assert.Equal(t, result.ErrExists, err)
	})

	t.Run("exam attempts", func(t *testing.T) {
		tests := []struct {
			name   string
			filter result.QueryFilter
			want   int64
		}{
			{name: "all", want: 2},
			{name: "user", filter: result.QueryFilter{UserID: bobID}, want: 2},
			{name: "user without exams", filter: result.QueryFilter{UserID: carolID}, want: 0},
			{name: "invalid id", filter: result.QueryFilter{UserID: "lol"}, want: 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				n, err := repo.CountExamAttempts(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, n)
			})
		}
	})

	t.Run("get", func(t *testing.T) {
		r, err := repo.GetResult(ctx, bobID, courseID)
		require.NoError(t, err)
		assert.Len(t, r.ExamResults, 2)

		_, err = repo.GetResult(ctx, primitive.NewObjectID().Hex(), courseID)
		assert.Equal(t, result.ErrNotFound, err)
	})
}
