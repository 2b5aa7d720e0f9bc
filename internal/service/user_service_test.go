package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/auth"
	"taskflow/internal/domain"
)

type userFixture struct {
	svc     UserService
	users   *memUsers
	relay   *fakeRelay
	revoked *memRevocations
	tokens  *auth.Issuer
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &userFixture{
		users:   newMemUsers(),
		relay:   &fakeRelay{},
		revoked: &memRevocations{},
		tokens: auth.NewIssuer(auth.Config{
			AccessSecret:  "a",
			AccessTTL:     time.Minute,
			RefreshSecret: "r",
			RefreshTTL:    time.Hour,
		}),
	}
	f.svc = NewUserService(f.users, f.relay, f.tokens, f.revoked, logger)
	return f
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FullName:   "  Jane Doe ",
		Email:      " Jane@Example.com",
		Password:   "s3cret!",
		AvatarPath: "/tmp/avatar.png",
	}
}

func TestRegister_Success(t *testing.T) {
	f := newUserFixture(t)

	sess, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", sess.User.FullName)
	assert.Equal(t, "jane@example.com", sess.User.Email)
	assert.Equal(t, "https://cdn.test/avatars/1.png", sess.User.Avatar)
	assert.Empty(t, sess.User.PasswordHash)
	assert.Empty(t, sess.User.RefreshToken)
	assert.NotEmpty(t, sess.Tokens.AccessToken)
	assert.NotEmpty(t, sess.Tokens.RefreshToken)

	stored, err := f.users.GetByID(context.Background(), sess.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", stored.PasswordHash)
	assert.Equal(t, sess.Tokens.RefreshToken, stored.RefreshToken)
	assert.Equal(t, []string{"/tmp/avatar.png"}, f.relay.uploads)
}

func TestRegister_BlankFields(t *testing.T) {
	cases := map[string]func(*RegisterInput){
		"fullname": func(in *RegisterInput) { in.FullName = "   " },
		"email":    func(in *RegisterInput) { in.Email = "" },
		"password": func(in *RegisterInput) { in.Password = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newUserFixture(t)
			in := validRegistration()
			mutate(&in)

			_, err := f.svc.Register(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Empty(t, f.relay.uploads)
		})
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newUserFixture(t)
	in := validRegistration()
	in.Email = "not-an-email"

	_, err := f.svc.Register(context.Background(), in)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	in := validRegistration()
	in.Email = "JANE@example.com"
	_, err = f.svc.Register(ctx, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserAlreadyExists))
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Len(t, f.relay.uploads, 1, "no upload for a rejected registration")
}

func TestRegister_AvatarRequired(t *testing.T) {
	f := newUserFixture(t)
	in := validRegistration()
	in.AvatarPath = ""

	_, err := f.svc.Register(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Empty(t, f.users.byID)
}

func TestRegister_RelayFailureCreatesNoUser(t *testing.T) {
	f := newUserFixture(t)
	f.relay.uploadErr = errors.New("cdn down")

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Empty(t, f.users.byID)
}

func TestRegister_TokenPersistFailureIsInternal(t *testing.T) {
	f := newUserFixture(t)
	f.users.setErr = errors.New("write failed")

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Equal(t, 1, f.users.setCalls, "no retry")
}

func TestLogin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	sess, err := f.svc.Login(ctx, "JANE@example.com ", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sess.User.ID)
	assert.Empty(t, sess.User.PasswordHash)
	assert.Empty(t, sess.User.RefreshToken)
	assert.NotEqual(t, reg.Tokens.RefreshToken, sess.Tokens.RefreshToken)

	stored, err := f.users.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Tokens.RefreshToken, stored.RefreshToken, "login overwrites the stored refresh token")

	_, err = f.svc.Login(ctx, "jane@example.com", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = f.svc.Login(ctx, "ghost@example.com", "s3cret!")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = f.svc.Login(ctx, "", "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestAuthenticateAndLogout(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	sess, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, claims, err := f.svc.Authenticate(ctx, sess.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.RefreshToken)

	require.NoError(t, f.svc.Logout(ctx, user.ID, claims))
	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	_, _, err = f.svc.Authenticate(ctx, sess.Tokens.AccessToken)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
}

func TestAuthenticate_Rejections(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Authenticate(ctx, "")
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))

	_, _, err = f.svc.Authenticate(ctx, "garbage")
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))

	// a token for a user that no longer exists
	pair, err := f.tokens.IssuePair(&domain.User{ID: "deleted"})
	require.NoError(t, err)
	_, _, err = f.svc.Authenticate(ctx, pair.AccessToken)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))

	// refresh tokens are signed with another key
	sess, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, _, err = f.svc.Authenticate(ctx, sess.Tokens.RefreshToken)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
}

func TestGetByID(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	sess, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := f.svc.GetByID(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Empty(t, user.RefreshToken)

	_, err = f.svc.GetByID(ctx, "missing")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
