package user_test

import (
	"context"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func TestMain(m *testing.M) {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	os.Exit(m.Run())
}

func setup(t *testing.T) user.Service {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)
	return user.NewService(inmemdb.NewUserRepository(db))
}

func validNewUser() user.NewUser {
	return user.NewUser{
		Name:            "Jane Poe",
		Username:        "janepoe",
		Email:           "jane@test.cd",
		Password:        "G0od.Pa$$wd",
		PasswordConfirm: "G0od.Pa$$wd",
		Role:            user.RoleTeacher,
	}
}

func Test_NewUser_Validate(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(nu *user.NewUser)
		wantErr bool
	}{
		{name: "valid", mutate: func(nu *user.NewUser) {}},
		{name: "missing name", mutate: func(nu *user.NewUser) { nu.Name = "" }, wantErr: true},
		{
			name: "missing username and email",
			mutate: func(nu *user.NewUser) {
				nu.Username = ""
				nu.Email = ""
			},
			wantErr: true,
		},
		{name: "username too short", mutate: func(nu *user.NewUser) { nu.Username = "jane" }, wantErr: true},
		{name: "bad email", mutate: func(nu *user.NewUser) { nu.Email = "lol" }, wantErr: true},
		{name: "unknown role", mutate: func(nu *user.NewUser) { nu.Role = "principal" }, wantErr: true},
		{
			name: "password mismatch",
			mutate: func(nu *user.NewUser) {
				nu.PasswordConfirm = "something else"
			},
			wantErr: true,
		},
		{name: "password too short", mutate: func(nu *user.NewUser) { nu.Password = "G0od.P$"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{name: "password all numeric", mutate: func(nu *user.NewUser) { nu.Password = "30571842"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{name: "password no complexity", mutate: func(nu *user.NewUser) { nu.Password = "goodpassword"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{name: "password with space", mutate: func(nu *user.NewUser) { nu.Password = "G0od Pa$$wd"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{
			name: "password similar to email",
			mutate: func(nu *user.NewUser) {
				nu.Password = "jane@test.cd1A!"
				nu.PasswordConfirm = nu.Password
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := validNewUser()
			tt.mutate(&nu)

			err := nu.Validate(ctx, svc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_NewUser_Validate_uniqueness(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nu := validNewUser()
	require.NoError(t, nu.Validate(ctx, svc))
	_, err := svc.Create(ctx, nu)
	require.NoError(t, err)

	dup := validNewUser()
	err = dup.Validate(ctx, svc)
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected *core.ValidationError, got %T", err)
	require.NotEmpty(t, vErr.Fields)
	assert.Equal(t, "username", vErr.Fields[0].Field)
}

type uniquenessSpyRepo struct {
	user.Repository
	lastCtx context.Context
}

func (r *uniquenessSpyRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	r.lastCtx = ctx
	return r.Repository.CheckUsernameUniqueness(ctx, username, email, excludedUsers...)
}

func Test_NewUser_Validate_propagatesContext(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := &uniquenessSpyRepo{Repository: inmemdb.NewUserRepository(db)}
	svc := user.NewService(repo)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")

	nu := validNewUser()
	require.NoError(t, nu.Validate(ctx, svc))
	require.NotNil(t, repo.lastCtx)
	assert.Equal(t, "req-42", repo.lastCtx.Value(ctxKey{}))
}

func Test_User_SetCheckPassword(t *testing.T) {
	var usr user.User
	require.NoError(t, usr.SetPassword("G0od.Pa$$wd"))
	assert.NoError(t, usr.CheckPassword("G0od.Pa$$wd"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func Test_service_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	nu := validNewUser()
	require.NoError(t, nu.Validate(ctx, svc))

	usr, err := svc.Create(ctx, nu)
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsTeacher())
	assert.NoError(t, usr.CheckPassword(nu.Password))

	got, err := svc.GetByUsernameOrEmail(ctx, "JANEPOE")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	teachers, err := svc.QueryActiveTeachers(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, usr.ID, teachers[0].ID)
}
