package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
	"github.com/agrismart/agrismart-iam/internal/repository"
)

// FederatedAuthMode selects between signup and login semantics for the
// Google and Facebook flows. Signup refuses existing accounts; login
// refuses unknown ones.
type FederatedAuthMode string

const (
	FederatedModeSignup FederatedAuthMode = "signup"
	FederatedModeLogin  FederatedAuthMode = "login"
)

// AuthResult is the outcome of any successful authentication flow.
type AuthResult struct {
	Token string
	User  domain.User
	Role  string
}

// AuthService coordinates credential and federated authentication flows.
type AuthService struct {
	users    port.UserRepository
	roles    port.RoleRepository
	tokens   *security.TokenService
	google   port.IdentityVerifier
	facebook port.IdentityVerifier
	events   port.EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	roles port.RoleRepository,
	tokens *security.TokenService,
	google port.IdentityVerifier,
	facebook port.IdentityVerifier,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		users:    users,
		roles:    roles,
		tokens:   tokens,
		google:   google,
		facebook: facebook,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login validates credentials and issues an access token. The account
// status gate runs before the password check so a suspended account is
// reported as such even with a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return AuthResult{}, ErrEmailRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrUserNotFound
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if !user.IsActive() {
		return AuthResult{}, ErrAccountInactive
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return AuthResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return AuthResult{}, ErrInvalidPassword
	}

	return s.completeLogin(ctx, *user)
}

// Register creates an account immediately, without email verification.
func (s *AuthService) Register(ctx context.Context, req domain.SignupRequest) (AuthResult, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if req.Email == "" {
		return AuthResult{}, ErrEmailRequired
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return AuthResult{}, ErrEmailAlreadyExists
	}

	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return AuthResult{}, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RoleID:       role.ID,
		Organization: req.Organization,
		Status:       domain.AccountStatusActive,
		AccountType:  domain.AccountOriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return AuthResult{}, ErrEmailAlreadyExists
		}
		return AuthResult{}, fmt.Errorf("save user: %w", err)
	}

	roleName := domain.NormalizeRole(role.Name)
	s.publishRegistered(ctx, user, roleName)

	token, err := s.tokens.Issue(user.Email, roleName)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{Token: token, User: user, Role: roleName}, nil
}

// GoogleAuth verifies a Google ID token and either creates an account
// (signup) or authenticates an existing one (login).
func (s *AuthService) GoogleAuth(ctx context.Context, idToken string, mode FederatedAuthMode) (AuthResult, error) {
	if s.google == nil {
		return AuthResult{}, ErrGoogleTokenInvalid
	}

	profile, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return AuthResult{}, ErrGoogleTokenInvalid
	}
	if profile.Email == "" {
		if mode == FederatedModeSignup {
			return AuthResult{}, ErrGoogleEmailRequired
		}
		return AuthResult{}, ErrGoogleTokenInvalid
	}

	user, err := s.users.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if mode == FederatedModeSignup {
			return AuthResult{}, ErrGoogleAccountExists
		}
		if !user.IsActive() {
			return AuthResult{}, ErrAccountInactive
		}
		return s.completeLogin(ctx, *user)

	case errors.Is(err, repository.ErrNotFound):
		if mode == FederatedModeLogin {
			return AuthResult{}, ErrGoogleNoAccount
		}
		return s.createFederatedUser(ctx, profile, domain.AccountOriginGoogle, "Google")

	default:
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}
}

// FacebookAuth verifies a Facebook access token and either creates an
// account (signup) or authenticates an existing one (login). Accounts
// are matched by email first and by linked Facebook ID as a fallback
// for profiles that hide their email.
func (s *AuthService) FacebookAuth(ctx context.Context, accessToken string, mode FederatedAuthMode) (AuthResult, error) {
	if s.facebook == nil {
		return AuthResult{}, ErrFacebookTokenInvalid
	}

	profile, err := s.facebook.Verify(ctx, accessToken)
	if err != nil {
		return AuthResult{}, ErrFacebookTokenInvalid
	}

	if mode == FederatedModeSignup {
		// An account needs an email; reject before any existence lookup.
		if profile.Email == "" {
			return AuthResult{}, ErrFacebookEmailRequired
		}

		user, err := s.lookupFacebookUser(ctx, profile)
		if err != nil {
			return AuthResult{}, err
		}
		if user != nil {
			return AuthResult{}, ErrFacebookAccountExists
		}
		return s.createFederatedUser(ctx, profile, domain.AccountOriginFacebook, "Facebook")
	}

	user, err := s.lookupFacebookUser(ctx, profile)
	if err != nil {
		return AuthResult{}, err
	}
	if user == nil {
		return AuthResult{}, ErrFacebookNoAccount
	}

	if !user.IsActive() {
		return AuthResult{}, ErrAccountInactive
	}

	// Back-fill the Facebook link and picture for accounts created
	// through another path.
	if user.FacebookID == nil || *user.FacebookID == "" {
		id := profile.ProviderUserID
		user.FacebookID = &id
	}
	if user.ProfilePictureURL == "" && profile.PictureURL != "" {
		user.ProfilePictureURL = profile.PictureURL
	}

	return s.completeLogin(ctx, *user)
}

func (s *AuthService) lookupFacebookUser(ctx context.Context, profile domain.ExternalProfile) (*domain.User, error) {
	if profile.Email != "" {
		user, err := s.users.GetByEmail(ctx, profile.Email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
	}

	user, err := s.users.GetByFacebookID(ctx, profile.ProviderUserID)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("load user by facebook id: %w", err)
}

// createFederatedUser provisions an account from an external profile.
// Federated accounts start as viewers with a random local password.
func (s *AuthService) createFederatedUser(ctx context.Context, profile domain.ExternalProfile, origin domain.AccountOrigin, providerLabel string) (AuthResult, error) {
	role, err := s.resolveRole(ctx, domain.RoleViewer)
	if err != nil {
		return AuthResult{}, err
	}

	password, err := security.GenerateRandomPassword()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate password: %w", err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	firstName := profile.FirstName
	if firstName == "" {
		firstName = "Utilisateur"
	}
	lastName := profile.LastName
	if lastName == "" {
		lastName = providerLabel
	}

	now := s.now().UTC()
	user := domain.User{
		ID:                uuid.NewString(),
		Email:             profile.Email,
		PasswordHash:      hash,
		FirstName:         firstName,
		LastName:          lastName,
		RoleID:            role.ID,
		Status:            domain.AccountStatusActive,
		AccountType:       origin,
		ProfilePictureURL: profile.PictureURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if origin == domain.AccountOriginFacebook {
		id := profile.ProviderUserID
		user.FacebookID = &id
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			switch origin {
			case domain.AccountOriginGoogle:
				return AuthResult{}, ErrGoogleAccountExists
			case domain.AccountOriginFacebook:
				return AuthResult{}, ErrFacebookAccountExists
			default:
				return AuthResult{}, ErrEmailAlreadyExists
			}
		}
		return AuthResult{}, fmt.Errorf("save user: %w", err)
	}

	roleName := domain.NormalizeRole(role.Name)
	s.publishRegistered(ctx, user, roleName)

	token, err := s.tokens.Issue(user.Email, roleName)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{Token: token, User: user, Role: roleName}, nil
}

// completeLogin stamps the login time, persists the user, publishes the
// event, and issues a token.
func (s *AuthService) completeLogin(ctx context.Context, user domain.User) (AuthResult, error) {
	user.MarkLoggedIn(s.now())

	if err := s.users.Save(ctx, user); err != nil {
		return AuthResult{}, fmt.Errorf("save user: %w", err)
	}

	roleName := s.roleName(ctx, user.RoleID)

	if s.events != nil {
		event := domain.UserLoggedInEvent{
			EventID:  uuid.NewString(),
			UserID:   user.ID,
			Email:    user.Email,
			Origin:   user.AccountType,
			LoggedAt: s.now().UTC(),
		}
		if err := s.events.PublishUserLoggedIn(ctx, event); err != nil {
			s.log.Warn("publish login event failed",
				zap.String("email", logger.MaskEmail(user.Email)),
				zap.Error(err),
			)
		}
	}

	token, err := s.tokens.Issue(user.Email, roleName)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{Token: token, User: user, Role: roleName}, nil
}

func (s *AuthService) publishRegistered(ctx context.Context, user domain.User, roleName string) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		Role:         roleName,
		Origin:       user.AccountType,
		RegisteredAt: user.CreatedAt,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.log.Warn("publish registration event failed",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}

// resolveRole maps a free-form role name onto a stored role. An empty
// name defaults to VIEWER.
func (s *AuthService) resolveRole(ctx context.Context, name string) (*domain.Role, error) {
	canonical := domain.NormalizeRole(name)
	if canonical == "" {
		canonical = domain.RoleViewer
	}

	role, err := s.roles.GetByName(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("load role: %w", err)
	}

	return role, nil
}

func (s *AuthService) roleName(ctx context.Context, roleID string) string {
	if roleID == "" {
		return ""
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		s.log.Warn("resolve role failed", zap.String("role_id", roleID), zap.Error(err))
		return ""
	}

	return domain.NormalizeRole(role.Name)
}
