package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"
)

type authFixture struct {
	accounts *stubAccounts
	audit    *stubAudit
	clock    *fakeClock
	svc      service.AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{accounts: newStubAccounts(), audit: &stubAudit{}, clock: newClock()}
	cfg := newTestCfg()
	tokens := service.NewTokenService(cfg, service.WithClock(f.clock.Now))
	f.svc = service.NewAuthService(f.accounts, f.audit, tokens, cfg, service.WithClock(f.clock.Now))
	return f
}

func (f *authFixture) login(username, password string) (*dto.LoginResponse, error) {
	return f.svc.Login(context.Background(), dto.LoginRequest{Username: username, Password: password})
}

func wrongCode(code string) string {
	b := []byte(code)
	b[0] = '0' + (b[0]-'0'+1)%10
	return string(b)
}

// ── Tests: Login ──────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture()
	seed(f.accounts, "dana", model.RoleDriver, "correct-horse")

	resp, err := f.login("dana", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, model.RoleDriver, resp.User.Role)
	assert.Equal(t, "/driver/dashboard", resp.Redirect)
	assert.Nil(t, resp.Impersonator)
	assert.Len(t, f.audit.ofType(model.EventLogin), 1)
}

func TestLogin_ByEmailCaseInsensitive(t *testing.T) {
	f := newAuthFixture()
	seed(f.accounts, "acme", model.RoleSponsor, "sponsor-pass")

	resp, err := f.login("ACME@Example.com", "sponsor-pass")
	require.NoError(t, err)
	assert.Equal(t, "/sponsor/dashboard", resp.Redirect)
}

func TestLogin_UnknownUserIsAudited(t *testing.T) {
	f := newAuthFixture()

	_, err := f.login("ghost", "whatever1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	entries := f.audit.ofType(model.EventLogin)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Details, "ghost")
}

func TestLogin_DisabledAccountLooksUnknown(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "gone", model.RoleDriver, "password1")
	require.NoError(t, f.accounts.SetActive(context.Background(), nil, a.Code, false))

	_, err := f.login("gone", "password1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

// Three wrong passwords lock the account; the right one is refused until the
// window passes, after which the counter starts from zero.
func TestLogin_LockoutAfterThreeFailures(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "dana", model.RoleDriver, "correct-horse")

	_, err := f.login("dana", "nope-1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.login("dana", "nope-2")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.login("dana", "nope-3")
	var locked *service.LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, model.LockoutFailedAttempts, locked.Reason)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), locked.Until)
	assert.Len(t, f.audit.ofType(model.EventLockout), 1)

	f.clock.Advance(5 * time.Minute)
	_, err = f.login("dana", "correct-horse")
	assert.ErrorIs(t, err, service.ErrAccountLocked, "correct password is refused while locked")

	stored, _ := f.accounts.FindByCode(context.Background(), a.Code)
	assert.Equal(t, 3, stored.FailedAttempts, "attempts while locked are not counted")

	f.clock.Advance(10 * time.Minute)
	_, err = f.login("dana", "correct-horse")
	require.NoError(t, err)

	stored, _ = f.accounts.FindByCode(context.Background(), a.Code)
	assert.Equal(t, model.Lockout{}, stored.Lockout)
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "dana", model.RoleDriver, "correct-horse")

	_, _ = f.login("dana", "nope-1")
	_, _ = f.login("dana", "nope-2")
	_, err := f.login("dana", "correct-horse")
	require.NoError(t, err)

	_, err = f.login("dana", "nope-3")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "counter restarted after success")
	stored, _ := f.accounts.FindByCode(context.Background(), a.Code)
	assert.Equal(t, 1, stored.FailedAttempts)
}

func TestLogin_AdminTimeoutExpiresOnItsOwn(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "dana", model.RoleDriver, "correct-horse")
	require.NoError(t, f.accounts.SaveLockout(context.Background(), nil, a.Code,
		model.Lockout{}.AdminLock(f.clock.Now(), time.Hour)))

	_, err := f.login("dana", "correct-horse")
	var locked *service.LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, model.LockoutAdmin, locked.Reason)
	assert.Contains(t, locked.Error(), "administrator")

	f.clock.Advance(time.Hour)
	_, err = f.login("dana", "correct-horse")
	assert.NoError(t, err)
}

// ── Tests: second factor ──────────────────────────────────────────────────────

func enableTOTP(t *testing.T, f *authFixture, a *model.Account) string {
	t.Helper()
	secret := gotp.RandomSecret(16)
	require.NoError(t, f.accounts.UpdateTOTP(context.Background(), a.Code, &secret, true))
	return secret
}

func TestLogin_TOTPRequiredDoesNotCount(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "root", model.RoleAdministrator, "admin-pass")
	enableTOTP(t, f, a)

	_, err := f.login("root", "admin-pass")
	assert.ErrorIs(t, err, service.ErrTOTPRequired)

	stored, _ := f.accounts.FindByCode(context.Background(), a.Code)
	assert.Zero(t, stored.FailedAttempts)
}

func TestLogin_WrongTOTPCountsAsFailure(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "root", model.RoleAdministrator, "admin-pass")
	secret := enableTOTP(t, f, a)

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "root", Password: "admin-pass", TOTPCode: wrongCode(gotp.NewDefaultTOTP(secret).Now()),
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	stored, _ := f.accounts.FindByCode(context.Background(), a.Code)
	assert.Equal(t, 1, stored.FailedAttempts)

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "root", Password: "admin-pass", TOTPCode: gotp.NewDefaultTOTP(secret).Now(),
	})
	require.NoError(t, err)
	assert.True(t, resp.User.TOTPEnabled)
}

func TestTOTP_SetupEnableDisable(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "root", model.RoleAdministrator, "")
	ctx := context.Background()

	err := f.svc.EnableTOTP(ctx, a.Code, "123456")
	assert.ErrorIs(t, err, service.ErrValidation, "setup must come first")

	setup, err := f.svc.SetupTOTP(ctx, a.Code)
	require.NoError(t, err)
	assert.Contains(t, setup.ProvisioningURI, "otpauth://totp/")

	assert.ErrorIs(t, f.svc.EnableTOTP(ctx, a.Code, wrongCode(gotp.NewDefaultTOTP(setup.Secret).Now())), service.ErrValidation)
	require.NoError(t, f.svc.EnableTOTP(ctx, a.Code, gotp.NewDefaultTOTP(setup.Secret).Now()))

	_, err = f.svc.SetupTOTP(ctx, a.Code)
	assert.ErrorIs(t, err, service.ErrConflict)

	otp := gotp.NewDefaultTOTP(setup.Secret)
	assert.ErrorIs(t, f.svc.DisableTOTP(ctx, actorOf(a), wrongCode(otp.Now())), service.ErrValidation)
	require.NoError(t, f.svc.DisableTOTP(ctx, actorOf(a), otp.Now()))
	stored, _ := f.accounts.FindByCode(ctx, a.Code)
	assert.False(t, stored.TOTPEnabled)
	assert.Nil(t, stored.TOTPSecret)
}

func TestDisableTOTP_RefusedWhileImpersonating(t *testing.T) {
	f := newAuthFixture()
	driver := seed(f.accounts, "dana", model.RoleDriver, "")
	sponsor := seed(f.accounts, "acme", model.RoleSponsor, "")
	secret := enableTOTP(t, f, driver)
	ctx := context.Background()

	err := f.svc.DisableTOTP(ctx, impersonated(driver, sponsor), gotp.NewDefaultTOTP(secret).Now())
	assert.ErrorIs(t, err, service.ErrAuthorizationDenied)

	stored, _ := f.accounts.FindByCode(ctx, driver.Code)
	assert.True(t, stored.TOTPEnabled, "second factor stays on")
	require.NotNil(t, stored.TOTPSecret)

	assert.ErrorIs(t, f.svc.DisableTOTP(ctx, actorOf(sponsor), "123456"), service.ErrConflict, "nothing to disable")
}

// ── Tests: Refresh / session checks ───────────────────────────────────────────

func TestRefresh_Success(t *testing.T) {
	f := newAuthFixture()
	seed(f.accounts, "dana", model.RoleDriver, "correct-horse")
	login, err := f.login("dana", "correct-horse")
	require.NoError(t, err)

	resp, err := f.svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "dana", resp.User.Username)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture()
	seed(f.accounts, "dana", model.RoleDriver, "correct-horse")
	login, err := f.login("dana", "correct-horse")
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), login.AccessToken)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefresh_Garbage(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.Refresh(context.Background(), "this.is.garbage")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefresh_DisabledAccountDenied(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "dana", model.RoleDriver, "correct-horse")
	login, err := f.login("dana", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, f.accounts.SetActive(context.Background(), nil, a.Code, false))
	_, err = f.svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, service.ErrAuthorizationDenied)
}

func TestSessionBlocked(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	driver := seed(f.accounts, "dana", model.RoleDriver, "")
	admin := seed(f.accounts, "root", model.RoleAdministrator, "")

	reason, err := f.svc.SessionBlocked(ctx, actorOf(driver))
	require.NoError(t, err)
	assert.Empty(t, reason)

	reason, _ = f.svc.SessionBlocked(ctx, model.ActingIdentity{Effective: model.Identity{Code: 999, Role: model.RoleDriver}})
	assert.Equal(t, "account no longer exists", reason)

	require.NoError(t, f.accounts.SaveLockout(ctx, nil, driver.Code, model.Lockout{}.AdminLock(f.clock.Now(), time.Hour)))
	reason, _ = f.svc.SessionBlocked(ctx, actorOf(driver))
	assert.Contains(t, reason, "locked")

	reason, _ = f.svc.SessionBlocked(ctx, impersonated(driver, admin))
	assert.Empty(t, reason, "an administrator may act as a locked account")

	require.NoError(t, f.accounts.SetActive(ctx, nil, admin.Code, false))
	reason, _ = f.svc.SessionBlocked(ctx, impersonated(driver, admin))
	assert.Equal(t, "impersonating account is disabled", reason)
}

// ── Tests: Register / password change ─────────────────────────────────────────

func TestRegister(t *testing.T) {
	f := newAuthFixture()
	req := dto.RegisterRequest{
		Username: "newbie", Email: "newbie@example.com", FirstName: "New", LastName: "Driver",
		Password: "long-enough", LicenseNumber: "D-123",
	}

	resp, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDriver, resp.Role)
	require.NotNil(t, resp.LicenseNumber)
	assert.Equal(t, "D-123", *resp.LicenseNumber)
	assert.Len(t, f.audit.ofType(model.EventRegistration), 1)

	_, err = f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrConflict)

	req.Username, req.Email, req.Password = "other", "other@example.com", "short"
	_, err = f.svc.Register(context.Background(), req)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "dana", model.RoleDriver, "correct-horse")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, actorOf(a), dto.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "brand-new-pass"})
	assert.ErrorIs(t, err, service.ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, actorOf(a), dto.ChangePasswordRequest{
		CurrentPassword: "correct-horse", NewPassword: "brand-new-pass",
	}))
	_, err = f.login("dana", "brand-new-pass")
	assert.NoError(t, err)
}

func TestChangePassword_DeniedWhileImpersonating(t *testing.T) {
	f := newAuthFixture()
	driver := seed(f.accounts, "dana", model.RoleDriver, "correct-horse")
	admin := seed(f.accounts, "root", model.RoleAdministrator, "")

	err := f.svc.ChangePassword(context.Background(), impersonated(driver, admin), dto.ChangePasswordRequest{
		CurrentPassword: "correct-horse", NewPassword: "brand-new-pass",
	})
	assert.True(t, errors.Is(err, service.ErrAuthorizationDenied))
}

func TestUpdateContact(t *testing.T) {
	f := newAuthFixture()
	driver := seed(f.accounts, "dana", model.RoleDriver, "")
	other := seed(f.accounts, "erin", model.RoleDriver, "")
	ctx := context.Background()

	taken := "ERIN@example.com"
	_, err := f.svc.UpdateContact(ctx, actorOf(driver), dto.UpdateContactRequest{Email: &taken})
	assert.ErrorIs(t, err, service.ErrConflict, "another account's email, any case")

	email, phone, license := "dana.new@example.com", "555-0100", "D1234567"
	resp, err := f.svc.UpdateContact(ctx, actorOf(driver), dto.UpdateContactRequest{
		Email: &email, Phone: &phone, LicenseNumber: &license,
	})
	require.NoError(t, err)
	assert.Equal(t, email, resp.Email)
	require.NotNil(t, resp.Phone)
	assert.Equal(t, phone, *resp.Phone)
	require.NotNil(t, resp.LicenseNumber)
	assert.Equal(t, license, *resp.LicenseNumber)
	assert.Equal(t, "Dana", resp.FirstName, "omitted fields are kept")

	stored, _ := f.accounts.FindByCode(ctx, driver.Code)
	assert.Equal(t, email, stored.Email)
	assert.Len(t, f.audit.ofType(model.EventContactUpdate), 1)

	same := "Dana.New@example.com"
	_, err = f.svc.UpdateContact(ctx, actorOf(driver), dto.UpdateContactRequest{Email: &same})
	require.NoError(t, err, "re-submitting the caller's own email is fine")

	_, err = f.svc.UpdateContact(ctx, impersonated(other, driver), dto.UpdateContactRequest{Email: &email})
	assert.ErrorIs(t, err, service.ErrAuthorizationDenied)
}

func TestUpdateNotificationSettings_PartialUpdate(t *testing.T) {
	f := newAuthFixture()
	a := seed(f.accounts, "dana", model.RoleDriver, "")
	off := false

	resp, err := f.svc.UpdateNotificationSettings(context.Background(), a.Code, dto.NotificationSettingsRequest{WantsOrderNotifications: &off})
	require.NoError(t, err)
	assert.True(t, resp.WantsPointNotifications)
	assert.False(t, resp.WantsOrderNotifications)
}
