package user

import (
	"testing"
	"time"

	"github.com/eduenglish/backend/core"
)

func TestMakeVerifyToken(t *testing.T) {
	conf := core.NewTestConfig()
	gen := NewTokenGenerator(conf)

	now := time.Now().UTC()
	usr := User{
		ID:        "5f8d0d55b54764421b7156c3",
		Username:  "t",
		Email:     "t@test.test",
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: &now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := gen.MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	late := conf.PasswordResetTimeoutDelta + time.Minute
	NowFunc = func() time.Time { return time.Now().Add(-late) }
	expiredToken, err := gen.MakeToken(usr)
	NowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// a new login invalidates issued tokens
	later := now.Add(time.Hour)
	loggedAgain := usr
	loggedAgain.LastLogin = &later

	// other key
	otherConf := core.NewTestConfig()
	otherConf.SecretKey = "other-secret"
	otherGen := NewTokenGenerator(otherConf)

	tests := []struct {
		name    string
		gen     *TokenGenerator
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "user logged in again", usr: loggedAgain, token: validToken, wantErr: errInvalidToken},
		{name: "signed with another key", gen: otherGen, usr: usr, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		if tt.gen == nil {
			tt.gen = gen
		}
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.gen.VerifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("VerifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyToken_timeout(t *testing.T) {
	conf := core.NewTestConfig()
	conf.PasswordResetTimeoutDelta = time.Hour
	gen := NewTokenGenerator(conf)
	usr := User{ID: "5f8d0d55b54764421b7156c3", PasswordHash: []byte("hash")}

	issued := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	defer func() { NowFunc = time.Now }()

	NowFunc = func() time.Time { return issued }
	token, err := gen.MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "just issued", elapsed: 0},
		{name: "within timeout", elapsed: 59 * time.Minute},
		{name: "at timeout", elapsed: time.Hour},
		{name: "past timeout", elapsed: time.Hour + time.Second, wantErr: errTokenExpired},
		{name: "next day", elapsed: 24 * time.Hour, wantErr: errTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NowFunc = func() time.Time { return issued.Add(tt.elapsed) }
			if err := gen.VerifyToken(usr, token); err != tt.wantErr {
				t.Errorf("VerifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "5f8d0d55b54764421b7156c3"}
	id, err := decodeUID(EncodeUID(usr))
	if err != nil {
		t.Fatalf("decodeUID(): %v", err)
	}
	if id != usr.ID {
		t.Errorf("decodeUID() = %v; want %v", id, usr.ID)
	}
	if _, err := decodeUID("%%%"); err == nil {
		t.Error("decodeUID() should fail on invalid input")
	}
}
