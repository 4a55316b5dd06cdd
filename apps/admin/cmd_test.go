package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/seed"
	"github.com/eduenglish/backend/core/user"
	emailsvc "github.com/eduenglish/backend/services/email"
	logsvc "github.com/eduenglish/backend/services/logger"
	"github.com/eduenglish/backend/storage/database/dummy"
	"github.com/eduenglish/backend/tests"
)

var (
	usrRepo    user.Repository
	courseRepo course.Repository
	resultRepo result.Repository
	out        *bytes.Buffer
)

func setup(t *testing.T) *commandLine {
	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()

	// set up DB & repos
	db := testutil.OpenDB()
	usrRepo = dummydb.NewUserRepository(db)
	courseRepo = dummydb.NewCourseRepository(db)
	resultRepo = dummydb.NewResultRepository(db)

	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf, nil)
	courseSvc := course.NewService(courseRepo, dummydb.NewContentRepository(db), dummydb.NewVocabularyRepository(db))
	out = new(bytes.Buffer)

	// start CLI
	return &commandLine{
		usrSvc:    usrSvc,
		courseSvc: courseSvc,
		resultSvc: result.NewService(resultRepo, courseSvc),
		seeder:    seed.New(conf, usrSvc, courseSvc, logger),
		out:       out,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"seed", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}, nil)
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "old-pass", "", true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "new-pass"}},
		{name: "reset (email is cleaned)", args: []string{"resetpassword", "-email", " AWE@test.cd "}, extra: extra{pwd: "newer-pass"}},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		refreshed, err := usrRepo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword(tt.extra.(extra).pwd))
	})

	t.Run("deactivated account", func(t *testing.T) {
		out.Reset()
		inactive := testutil.CreateUser(t, usrRepo, "gone", "gone@test.cd", "old-pass", "", false)
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("back-again"), nil }

		require.NoError(t, cli.run([]string{"admin", "resetpassword", "-email", inactive.Email}))
		refreshed, err := usrRepo.GetUserByID(ctx, inactive.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("back-again"))
		assert.False(t, refreshed.IsActive)
		assert.Contains(t, out.String(), "account gone@test.cd is deactivated (use -activate)\n")

		require.NoError(t, cli.run([]string{"admin", "resetpassword", "-email", inactive.Email, "-activate"}))
		refreshed, err = usrRepo.GetUserByID(ctx, inactive.ID)
		require.NoError(t, err)
		assert.True(t, refreshed.IsActive)
		assert.Contains(t, out.String(), "account gone@test.cd reactivated\n")
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	inactive := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "old-pass", "", false)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "awe"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "awe", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "create admin", args: []string{"adduser", "-username", "awe", "-email", "AWE@test.cd", "-admin"}, extra: extra{pwd: "adm1n-pass"}},
		{name: "update existing", args: []string{"adduser", "-username", "bobby", "-email", inactive.Email}, extra: extra{pwd: "new-pass"}},
	}
	runCLITests(t, cli, tests, nil)

	admin, err := usrRepo.GetUserByEmail(ctx, "awe@test.cd")
	require.NoError(t, err)
	assert.Equal(t, "awe", admin.Username)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.NoError(t, admin.CheckPassword("adm1n-pass"))

	bob, err := usrRepo.GetUserByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Equal(t, "bobby", bob.Username)
	assert.Equal(t, user.RoleUser, bob.Role)
	assert.True(t, bob.IsActive)
	assert.NoError(t, bob.CheckPassword("new-pass"))

	n, err := usrRepo.CountUsers(ctx, user.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	count := func(t *testing.T, filter user.QueryFilter) int64 {
		n, err := usrRepo.CountUsers(ctx, filter)
		require.NoError(t, err)
		return n
	}
	courses := func(t *testing.T) int64 {
		n, err := courseRepo.CountCourses(ctx, course.QueryFilter{Name: seed.SampleCourseName})
		require.NoError(t, err)
		return n
	}

	t.Run("admin and sample course", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "seed"}))
		assert.Equal(t, int64(1), count(t, user.QueryFilter{Role: user.RoleAdmin}))
		assert.Equal(t, int64(0), count(t, user.QueryFilter{Role: user.RoleUser}))
		assert.Equal(t, int64(1), courses(t))
	})

	t.Run("demo users", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "seed", "-demo"}))
		assert.Equal(t, int64(1), count(t, user.QueryFilter{Role: user.RoleAdmin}))
		assert.Equal(t, int64(5), count(t, user.QueryFilter{EmailSuffix: seed.DemoEmailSuffix}))
		assert.Equal(t, int64(3), count(t, user.QueryFilter{EmailSuffix: seed.DemoEmailSuffix, Status: "active"}))
		assert.Equal(t, int64(1), courses(t))
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "seed", "-demo"}))
		assert.Equal(t, int64(6), count(t, user.QueryFilter{}))
		assert.Equal(t, int64(1), courses(t))
	})

	t.Run("cleanup demo users", func(t *testing.T) {
		testutil.CreateUser(t, usrRepo, "learner", "learner@test.cd", "", "", true)
		out.Reset()

		require.NoError(t, cli.run([]string{"admin", "cleanupdemo"}))
		assert.Equal(t, "5 demo users deleted, 1 learners remaining\n", out.String())
		assert.Equal(t, int64(2), count(t, user.QueryFilter{}))
	})
}

func Test_commandLine_fixOrphans(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", "", true)
	carol := testutil.CreateUser(t, usrRepo, "carol", "carol@test.cd", "", "", true)
	target := testutil.CreateCourse(t, courseRepo, course.Course{Name: "Basics"})
	deleted := course.Course{ID: primitive.NewObjectID().Hex()}

	kept := testutil.CreateResult(t, resultRepo, carol, target, nil)
	bobOrphan := testutil.CreateResult(t, resultRepo, bob, deleted, nil)
	carolOrphan := testutil.CreateResult(t, resultRepo, carol, deleted, nil)

	courseOf := func(t *testing.T, r result.Result) string {
		t.Helper()
		results, err := resultRepo.FilterResults(ctx, result.QueryFilter{UserID: r.UserID}, nil, nil)
		require.NoError(t, err)
		for _, res := range results {
			if res.ID == r.ID {
				return res.CourseID
			}
		}
		return ""
	}

	runCLITests(t, cli, []cliTest{
		{name: "unknown action", args: []string{"fixorphans", "-action", "lol"}, wantErr: errHelp},
		{name: "assign without course", args: []string{"fixorphans", "-action", "assign"}, wantErr: errHelp},
		{name: "assign to unknown course", args: []string{"fixorphans", "-action", "assign", "-course", deleted.ID, "-apply"}, wantErr: course.ErrNotFound},
		{name: "assign to unknown course (dry run)", args: []string{"fixorphans", "-action", "assign", "-course", deleted.ID}, wantErr: course.ErrNotFound},
	}, nil)

	t.Run("report", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "fixorphans"}))
		assert.Contains(t, out.String(), "2 orphaned results\n")
		assert.Contains(t, out.String(), bobOrphan.ID)
		assert.Contains(t, out.String(), carolOrphan.ID)
		assert.NotContains(t, out.String(), kept.ID)
	})

	t.Run("dry run", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "fixorphans", "-action", "delete"}))
		assert.Contains(t, out.String(), "dry run: delete 2 results (use -apply)")
		assert.Equal(t, deleted.ID, courseOf(t, bobOrphan))

		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "fixorphans", "-action", "assign", "-course", target.ID}))
		assert.Contains(t, out.String(), "target course: "+target.ID+" (Basics)\n")
		assert.Contains(t, out.String(), "dry run: assign 2 results (use -apply)")
		assert.Equal(t, deleted.ID, courseOf(t, bobOrphan))
	})

	t.Run("assign", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "fixorphans", "-action", "assign", "-course", target.ID, "-apply"}))
		assert.Contains(t, out.String(), "1 results assigned to course "+target.ID+", 1 skipped")
		assert.Equal(t, target.ID, courseOf(t, bobOrphan))
		assert.Equal(t, deleted.ID, courseOf(t, carolOrphan)) // carol already has a result there
	})

	t.Run("delete", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "fixorphans", "-action", "delete", "-apply"}))
		assert.Contains(t, out.String(), "1 results deleted")
		assert.Empty(t, courseOf(t, carolOrphan))
		assert.Equal(t, target.ID, courseOf(t, bobOrphan))
		assert.Equal(t, target.ID, courseOf(t, kept))
	})
}
