package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pharmacart/internal/domain"
	apperror "pharmacart/internal/errors"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/service/userservice"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(subjectID string, role string) (string, error) {
	args := m.Called(subjectID, role)
	return args.String(0), args.Error(1)
}

func TestRegister_HashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := userservice.NewService(repo, new(MockTokenService), logger.NewNop())

	var saved domain.User
	repo.On("Save", mock.Anything, mock.AnythingOfType("domain.User")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.User) }).
		Return(nil)

	user, err := svc.Register(context.Background(), domain.UserRegistration{
		Email: " Maria@Example.com ", Password: "segredo123", Name: "Maria",
	})

	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("segredo123")))
}

func TestRegister_Validation(t *testing.T) {
	svc := userservice.NewService(new(MockUserRepository), new(MockTokenService), logger.NewNop())

	cases := map[string]domain.UserRegistration{
		"email inválido": {Email: "nao-e-email", Password: "segredo123"},
		"senha curta":    {Email: "a@b.com", Password: "1234567"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			var ve *apperror.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := userservice.NewService(repo, new(MockTokenService), logger.NewNop())
	repo.On("Save", mock.Anything, mock.Anything).Return(apperror.NewConflictError("O email já está em uso."))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "a@b.com", Password: "segredo123"})

	var ce *apperror.ConflictError
	assert.True(t, errors.As(err, &ce))
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.User{ID: "u-1", Email: "a@b.com", PasswordHash: string(hash), Role: domain.RoleUser}

	t.Run("sucesso", func(t *testing.T) {
		repo, tok := new(MockUserRepository), new(MockTokenService)
		svc := userservice.NewService(repo, tok, logger.NewNop())
		repo.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)
		tok.On("GenerateToken", "u-1", "user").Return("jwt", nil)

		out, err := svc.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "segredo123"})

		require.NoError(t, err)
		assert.Equal(t, domain.AuthToken{Token: "jwt", Role: domain.RoleUser}, out)
	})

	t.Run("senha errada", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := userservice.NewService(repo, new(MockTokenService), logger.NewNop())
		repo.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)

		_, err := svc.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "errada"})

		var ue *apperror.UnauthorizedError
		assert.True(t, errors.As(err, &ue))
	})

	t.Run("usuário inexistente vira 401", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := userservice.NewService(repo, new(MockTokenService), logger.NewNop())
		repo.On("FindByEmail", mock.Anything, "x@b.com").Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))

		_, err := svc.Login(context.Background(), domain.Credentials{Email: "x@b.com", Password: "segredo123"})

		var ue *apperror.UnauthorizedError
		assert.True(t, errors.As(err, &ue))
	})
}
