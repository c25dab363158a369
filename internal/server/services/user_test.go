package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/server/auth"
	"github.com/vtlstk/spacecloud/internal/server/config"
	"github.com/vtlstk/spacecloud/internal/server/models"
)

func newUserService(t *testing.T, rm *fakeRepoManager) *UserService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		AccessSecretKey:              "access-secret",
		RefreshSecretKey:             "refresh-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return string(h)
}

func TestRegister_Success(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}}
	s := newUserService(t, rm)

	u, err := s.Register(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.ID == "" || u.UserName != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "secret" || u.PasswordHash == "" {
		t.Fatalf("password stored unhashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegister_EmptyCredentials(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}}
	s := newUserService(t, rm)

	if _, err := s.Register(context.Background(), "", "secret"); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want validation error for empty username, got %v", err)
	}
	if _, err := s.Register(context.Background(), "alice", ""); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want validation error for empty password, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorAlreadyExists}}
	s := newUserService(t, rm)

	_, err := s.Register(context.Background(), "alice", "secret")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	stored := &models.User{ID: "u-1", UserName: "alice", PasswordHash: hashOf(t, "secret")}
	repo := &fakeUsersRepo{byNameOut: stored}
	rm := &fakeRepoManager{u: repo}
	s := newUserService(t, rm)

	user, pair, err := s.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty token pair: %+v", pair)
	}
	if repo.lastSetToken != pair.RefreshToken {
		t.Fatalf("refresh token not persisted")
	}

	// the two tokens are signed with different secrets
	if _, err := auth.ParseToken(pair.AccessToken, []byte("access-secret")); err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if _, err := auth.ParseToken(pair.RefreshToken, []byte("access-secret")); err == nil {
		t.Fatalf("refresh token verified with access secret")
	}
	if _, err := auth.ParseToken(pair.RefreshToken, []byte("refresh-secret")); err != nil {
		t.Fatalf("refresh token does not verify: %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{byNameErr: common.ErrorNotFound}}
	s := newUserService(t, rm)

	_, _, err := s.Login(context.Background(), "ghost", "secret")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want common.ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	stored := &models.User{ID: "u-1", UserName: "alice", PasswordHash: hashOf(t, "secret")}
	rm := &fakeRepoManager{u: &fakeUsersRepo{byNameOut: stored}}
	s := newUserService(t, rm)

	_, _, err := s.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want common.ErrorUnauthorized, got %v", err)
	}
}

func TestRefresh_Success(t *testing.T) {
	refresh, err := auth.GenerateToken("alice", "u-1", []byte("refresh-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	stored := &models.User{ID: "u-1", UserName: "alice", RefreshToken: refresh}
	rm := &fakeRepoManager{u: &fakeUsersRepo{byIDOut: stored}}
	s := newUserService(t, rm)

	access, err := s.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	claims, err := auth.ParseToken(access, []byte("access-secret"))
	if err != nil {
		t.Fatalf("minted access token does not verify: %v", err)
	}
	if claims.UserID != "u-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefresh_BadSignature(t *testing.T) {
	forged, err := auth.GenerateToken("alice", "u-1", []byte("wrong-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rm := &fakeRepoManager{u: &fakeUsersRepo{}}
	s := newUserService(t, rm)

	_, err = s.Refresh(context.Background(), forged)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}

func TestRefresh_Expired(t *testing.T) {
	expired, err := auth.GenerateToken("alice", "u-1", []byte("refresh-secret"), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rm := &fakeRepoManager{u: &fakeUsersRepo{}}
	s := newUserService(t, rm)

	_, err = s.Refresh(context.Background(), expired)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want common.ErrTokenExpired, got %v", err)
	}
}

func TestRefresh_SupersededBySecondLogin(t *testing.T) {
	old, err := auth.GenerateToken("alice", "u-1", []byte("refresh-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	current, err := auth.GenerateToken("alice", "u-1", []byte("refresh-secret"), 2*time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	// stored token already replaced; the old one is cryptographically valid
	// but no longer active
	stored := &models.User{ID: "u-1", UserName: "alice", RefreshToken: current}
	rm := &fakeRepoManager{u: &fakeUsersRepo{byIDOut: stored}}
	s := newUserService(t, rm)

	_, err = s.Refresh(context.Background(), old)
	if !errors.Is(err, common.ErrTokenSuperseded) {
		t.Fatalf("want common.ErrTokenSuperseded, got %v", err)
	}
}

func TestRefresh_UserDeleted(t *testing.T) {
	refresh, err := auth.GenerateToken("alice", "u-1", []byte("refresh-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rm := &fakeRepoManager{u: &fakeUsersRepo{byIDErr: common.ErrorNotFound}}
	s := newUserService(t, rm)

	_, err = s.Refresh(context.Background(), refresh)
	if !errors.Is(err, common.ErrTokenSuperseded) {
		t.Fatalf("want common.ErrTokenSuperseded, got %v", err)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	repo := &fakeUsersRepo{}
	rm := &fakeRepoManager{u: repo}
	s := newUserService(t, rm)

	if err := s.Logout(context.Background(), "u-1"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if len(repo.cleared) != 1 || repo.cleared[0] != "u-1" {
		t.Fatalf("refresh token not cleared: %+v", repo.cleared)
	}
}

func TestLogout_RepoError(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{clearErr: errors.New("db down")}}
	s := newUserService(t, rm)

	if err := s.Logout(context.Background(), "u-1"); err == nil {
		t.Fatalf("expected error")
	}
}
