package tests

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	. "github.com/eduenglish/backend/apps/api/echo"
	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/services/email"
	"github.com/eduenglish/backend/tests"
)

func Test_userApi_register(t *testing.T) {
	testutil.ResetDB(t, db)

	existing := testutil.CreateUser(t, usrRepo, "taken", "taken@test.com", "", "", true)
	emailExists := "a user with this email already exists"

	tests := []struct {
		name     string
		data     user.NewUser
		wantCode int
		wantErr  httpErr
	}{
		{
			name:     "password required",
			data:     user.NewUser{Username: "bob", Email: "bob@test.com"},
			wantCode: http.StatusBadRequest,
			wantErr: httpErr{
				Message: "password is required",
				Errors:  map[string]string{"password": "password is required"},
			},
		},
		{
			name:     "password too short",
			data:     user.NewUser{Username: "bob", Email: "bob@test.com", Password: "ab1"},
			wantCode: http.StatusBadRequest,
			wantErr: httpErr{
				Message: "password must contain at least 6 characters",
				Errors:  map[string]string{"password": "password must contain at least 6 characters"},
			},
		},
		{
			name:     "password with whitespace",
			data:     user.NewUser{Username: "bob", Email: "bob@test.com", Password: "abc 12345"},
			wantCode: http.StatusBadRequest,
			wantErr: httpErr{
				Message: "password must not contain whitespace",
				Errors:  map[string]string{"password": "password must not contain whitespace"},
			},
		},
		{
			name:     "password too similar",
			data:     user.NewUser{Username: "johnny", Email: "j@test.com", Password: "johnny1"},
			wantCode: http.StatusBadRequest,
			wantErr: httpErr{
				Message: "password is too similar to the username or email",
				Errors:  map[string]string{"password": "password is too similar to the username or email"},
			},
		},
		{
			name:     "email taken",
			data:     user.NewUser{Username: "other", Email: " TAKEN@test.com ", Password: "Secret-99"},
			wantCode: http.StatusBadRequest,
			wantErr:  httpErr{Message: emailExists, Errors: map[string]string{"email": emailExists}},
		},
		{
			name:     "registered",
			data:     user.NewUser{Username: " alice ", Email: "Alice@Test.com", Password: "Secret-99"},
			wantCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, httpTest{method: http.MethodPost, path: "/api/auth/register", body: marchallObj(t, tt.data)})
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: marchallObj(t, tt.wantErr)}, rec)
				return
			}
			var resp AuthResponse
			unmarshallObj(t, rec.Body.Bytes(), &resp)
			assert.True(t, resp.Success)
			assert.NotEmpty(t, resp.Token)
			assert.NotEmpty(t, resp.User.ID)
			assert.NotEqual(t, existing.ID, resp.User.ID)
			assert.Equal(t, "alice", resp.User.Username)
			assert.Equal(t, "alice@test.com", resp.User.Email)
			assert.Equal(t, user.RoleUser, resp.User.Role)
			assert.True(t, resp.User.IsActive)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}

func Test_userApi_login(t *testing.T) {
	testutil.ResetDB(t, db)

	pwd := "Secret-99"
	usr := testutil.CreateUser(t, usrRepo, "alice", "alice@test.com", pwd, "", true)
	testutil.CreateUser(t, usrRepo, "naughty", "naughty@test.com", pwd, "", false)
	invalid := httpErr{Message: "Invalid email or password"}

	tests := []httpTest{
		{
			name: "email required", body: marchallObj(t, user.LoginUser{Password: pwd}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "email is required", Errors: map[string]string{"email": "email is required"}}),
		},
		{
			name: "unknown email", body: marchallObj(t, user.LoginUser{Email: "bob@test.com", Password: pwd}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, invalid),
		},
		{
			name: "wrong password", body: marchallObj(t, user.LoginUser{Email: usr.Email, Password: "wrong-pass"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, invalid),
		},
		{
			name: "deactivated", body: marchallObj(t, user.LoginUser{Email: "naughty@test.com", Password: pwd}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "Account has been deactivated"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/api/auth/login"
	}
	runHTTPTests(t, tests)

	t.Run("logged in", func(t *testing.T) {
		rec := serve(t, httpTest{
			method: http.MethodPost,
			path:   "/api/auth/login",
			body:   marchallObj(t, user.LoginUser{Email: " ALICE@test.com", Password: pwd}),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		unmarshallObj(t, rec.Body.Bytes(), &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, usr.ID, resp.User.ID)
		assert.NotNil(t, resp.User.LastLogin)

		// the token grants access to the profile
		rec = serve(t, httpTest{path: "/api/auth/profile", token: resp.Token})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_profile(t *testing.T) {
	testutil.ResetDB(t, db)

	usr := testutil.CreateUser(t, usrRepo, "alice", "alice@test.com", "", "", true)
	naughty := testutil.CreateUser(t, usrRepo, "naughty", "naughty@test.com", "", "", false)
	ghost := user.User{ID: primitive.NewObjectID().Hex(), Username: "ghost", Email: "ghost@test.com", Role: user.RoleUser}

	expiredClaims := GetUserClaims(conf, usr)
	expiredClaims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expired, err := GenerateToken(conf, expiredClaims)
	require.NoError(t, err)

	path := "/api/auth/profile"
	tests := []httpTest{
		{name: "no token", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNoToken)},
		{
			name: "invalid token", path: path, token: "not-a-jwt", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Message: "Not authorized, invalid token"}),
		},
		{
			name: "expired token", path: path, token: expired, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Message: "Not authorized, token expired"}),
		},
		{
			name: "unknown user", path: path, token: getToken(t, ghost), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Message: "Not authorized, user not found"}),
		},
		{
			name: "deactivated user", path: path, token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "Account has been deactivated"}),
		},
		{
			name: "profile", path: path, token: getToken(t, usr),
			wantData: marchallObj(t, map[string]interface{}{"success": true, "user": usr}),
		},
	}
	runHTTPTests(t, tests)
}

func Test_userApi_refreshToken(t *testing.T) {
	testutil.ResetDB(t, db)

	usr := testutil.CreateUser(t, usrRepo, "alice", "alice@test.com", "", "", true)
	path := "/api/auth/token-refresh"

	t.Run("refresh expired", func(t *testing.T) {
		oriat := time.Now().Add(-conf.Server.JWTRefreshExpirationDelta - time.Minute).Unix()
		token, err := GenerateToken(conf, GetUserClaims(conf, usr, oriat))
		require.NoError(t, err)

		rec := serve(t, httpTest{method: http.MethodPost, path: path, token: token})
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "Refresh has expired"})}, rec)
	})

	t.Run("refreshed", func(t *testing.T) {
		rec := serve(t, httpTest{method: http.MethodPost, path: path, token: getToken(t, usr)})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool   `json:"success"`
			Token   string `json:"token"`
		}
		unmarshallObj(t, rec.Body.Bytes(), &resp)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Token)

		rec = serve(t, httpTest{path: "/api/auth/profile", token: resp.Token})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	testutil.ResetDB(t, db)
	emailsvc.ClearSentMessages()

	usr := testutil.CreateUser(t, usrRepo, "alice", "alice@test.com", "Secret-99", "", true)
	testutil.CreateUser(t, usrRepo, "naughty", "naughty@test.com", "Secret-99", "", false)

	sentMsg := MessageResponse{
		Success: true,
		Message: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	}
	request := func(t *testing.T, email string) {
		rec := serve(t, httpTest{
			method: http.MethodPost,
			path:   "/api/auth/password-reset",
			body:   marchallObj(t, PasswordResetRequest{Email: email}),
		})
		checkCodeAndData(t, httpTest{wantData: marchallObj(t, sentMsg)}, rec)
	}

	t.Run("unknown and inactive emails send nothing", func(t *testing.T) {
		request(t, "bob@test.com")
		request(t, "naughty@test.com")
		_, ok := emailsvc.LastSentMessage()
		assert.False(t, ok)
	})

	request(t, " Alice@test.com")
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	require.Len(t, msg.To, 1)
	assert.Equal(t, usr.Email, msg.To[0].Address)

	matches := regexp.MustCompile(`uid=([\w-]+)&token=(\S+)`).FindStringSubmatch(msg.TextContent)
	require.Len(t, matches, 3)
	uid, token := matches[1], matches[2]
	newPwd := "N3w-secret"

	path := "/api/auth/password-reset-confirm"
	tests := []httpTest{
		{
			name:     "passwords differ",
			body:     marchallObj(t, user.ResetUserPassword{Token: token, UID: uid, Password: newPwd, PasswordConfirm: "other-pass"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "passwordConfirm must match the password",
				Errors:  map[string]string{"passwordConfirm": "passwordConfirm must match the password"},
			}),
		},
		{
			name:     "bad uid",
			body:     marchallObj(t, user.ResetUserPassword{Token: token, UID: "bad-uid", Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "uid: invalid value", Errors: map[string]string{"uid": "invalid value"}}),
		},
		{
			name:     "bad token",
			body:     marchallObj(t, user.ResetUserPassword{Token: "bad-token", UID: uid, Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "token: invalid value", Errors: map[string]string{"token": "invalid value"}}),
		},
		{
			name:     "reset",
			body:     marchallObj(t, user.ResetUserPassword{Token: token, UID: uid, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, MessageResponse{Success: true, Message: "Password has been reset with the new password."}),
		},
		{
			name:     "token is single use",
			body:     marchallObj(t, user.ResetUserPassword{Token: token, UID: uid, Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "token: invalid value", Errors: map[string]string{"token": "invalid value"}}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = path
	}
	runHTTPTests(t, tests)

	rec := serve(t, httpTest{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   marchallObj(t, user.LoginUser{Email: usr.Email, Password: newPwd}),
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi_query(t *testing.T) {
	testutil.ResetDB(t, db)

	now := time.Now()
	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.com", "", "", true, now.Add(-3*time.Hour))
	carol := testutil.CreateUser(t, usrRepo, "carol", "carol@mail.com", "", "", true, now.Add(-2*time.Hour))
	naughty := testutil.CreateUser(t, usrRepo, "naughty", "naughty@test.com", "", "", false, now.Add(-time.Hour))
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.com", "", user.RoleAdmin, true, now)
	adminToken := getToken(t, admin)

	stats := user.Stats{Total: 3, Active: 2, Inactive: 1}
	page := func(users []user.User, current int, totalPages, total int64, perPage int) []byte {
		return marchallObj(t, DataResponse{
			Success: true,
			Data: user.Page{
				Users: users,
				Pagination: user.PageInfo{
					CurrentPage:  current,
					TotalPages:   totalPages,
					TotalItems:   total,
					ItemsPerPage: perPage,
				},
				Stats: stats,
			},
		})
	}

	tests := []httpTest{
		{name: "auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNoToken)},
		{
			name: "admin required", path: "/api/users", token: getToken(t, bob),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNoAdmin),
		},
		{
			name: "all learners, newest first", path: "/api/users", token: adminToken,
			wantData: page([]user.User{naughty, carol, bob}, 1, 1, 3, 10),
		},
		{
			name: "search", path: "/api/users?search=TEST.COM", token: adminToken,
			wantData: page([]user.User{naughty, bob}, 1, 1, 2, 10),
		},
		{
			name: "search (unknown)", path: "/api/users?search=lol", token: adminToken,
			wantData: page([]user.User{}, 1, 0, 0, 10),
		},
		{
			name: "status=inactive", path: "/api/users?status=inactive", token: adminToken,
			wantData: page([]user.User{naughty}, 1, 1, 1, 10),
		},
		{
			name: "status=active", path: "/api/users?status=active", token: adminToken,
			wantData: page([]user.User{carol, bob}, 1, 1, 2, 10),
		},
		{
			name: "pagination", path: "/api/users?page=2&limit=2", token: adminToken,
			wantData: page([]user.User{bob}, 2, 2, 3, 2),
		},
	}
	runHTTPTests(t, tests)
}

func Test_userApi_manage(t *testing.T) {
	testutil.ResetDB(t, db)

	usr := testutil.CreateUser(t, usrRepo, "bob", "bob@test.com", "", "", true)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.com", "", user.RoleAdmin, true)
	adminToken := getToken(t, admin)
	unknownID := primitive.NewObjectID().Hex()

	notFound := marchallObj(t, httpErr{Message: "User not found"})
	protected := marchallObj(t, httpErr{Message: "Admin accounts cannot be modified"})
	status := func(active bool, msg string) []byte {
		return marchallObj(t, map[string]interface{}{
			"success": true,
			"message": msg,
			"data":    UserStatus{ID: usr.ID, Username: usr.Username, Email: usr.Email, IsActive: active},
		})
	}

	tests := []httpTest{
		{name: "retrieve (invalid id)", path: "/api/users/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "retrieve (unknown)", path: "/api/users/" + unknownID, token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "retrieve", path: "/api/users/" + usr.ID, token: adminToken,
			wantData: marchallObj(t, DataResponse{Success: true, Data: usr}),
		},
		{
			name: "toggle (admin)", method: http.MethodPut, path: "/api/users/" + admin.ID + "/toggle-status", token: adminToken,
			wantCode: http.StatusForbidden, wantData: protected,
		},
		{
			name: "toggle off", method: http.MethodPut, path: "/api/users/" + usr.ID + "/toggle-status", token: adminToken,
			wantData: status(false, "User account has been deactivated"),
		},
		{
			name: "toggle on", method: http.MethodPut, path: "/api/users/" + usr.ID + "/toggle-status", token: adminToken,
			wantData: status(true, "User account has been activated"),
		},
		{
			name: "delete (admin)", method: http.MethodDelete, path: "/api/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: protected,
		},
		{
			name: "delete (unknown)", method: http.MethodDelete, path: "/api/users/" + unknownID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "delete", method: http.MethodDelete, path: "/api/users/" + usr.ID, token: adminToken,
			wantData: marchallObj(t, MessageResponse{Success: true, Message: "User account has been deactivated"}),
		},
		{
			name: "deleted user is locked out", path: "/api/auth/profile", token: getToken(t, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "Account has been deactivated"}),
		},
	}
	runHTTPTests(t, tests)
}
