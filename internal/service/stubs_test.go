package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// ── Clock ─────────────────────────────────────────────────────────────────────

// fakeClock starts at the real current time so issued JWTs stay valid.
type fakeClock struct{ t time.Time }

func newClock() *fakeClock { return &fakeClock{t: time.Now().UTC().Truncate(time.Second)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ── Accounts ──────────────────────────────────────────────────────────────────

type stubAccounts struct {
	mu   sync.Mutex
	seq  uint
	rows map[uint]*model.Account
}

func newStubAccounts() *stubAccounts {
	return &stubAccounts{rows: make(map[uint]*model.Account)}
}

var _ repository.AccountRepository = (*stubAccounts)(nil)

func (r *stubAccounts) get(code uint) (*model.Account, error) {
	a, ok := r.rows[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAccounts) Create(_ context.Context, _ *gorm.DB, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if strings.EqualFold(x.Username, a.Username) || strings.EqualFold(x.Email, a.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.seq++
	a.Code = r.seq
	cp := *a
	r.rows[a.Code] = &cp
	return nil
}

func (r *stubAccounts) FindByCode(_ context.Context, code uint) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(code)
}

func (r *stubAccounts) FindByCodeForUpdate(ctx context.Context, _ *gorm.DB, code uint) (*model.Account, error) {
	return r.FindByCode(ctx, code)
}

func (r *stubAccounts) FindByLoginForUpdate(_ context.Context, _ *gorm.DB, login string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, a := range r.rows {
		if a.Active && (strings.EqualFold(a.Username, login) || strings.EqualFold(a.Email, login)) {
			return r.get(code)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAccounts) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, a := range r.rows {
		if strings.EqualFold(a.Email, email) {
			return r.get(code)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAccounts) FindByResetToken(_ context.Context, token string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, a := range r.rows {
		if a.ResetToken != nil && *a.ResetToken == token {
			return r.get(code)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAccounts) FindByResetTokenForUpdate(ctx context.Context, _ *gorm.DB, token string) (*model.Account, error) {
	return r.FindByResetToken(ctx, token)
}

func (r *stubAccounts) UsernameOrEmailTaken(_ context.Context, username, email string, exceptCode uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, a := range r.rows {
		if code == exceptCode {
			continue
		}
		if strings.EqualFold(a.Username, username) || strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAccounts) sorted(keep func(*model.Account) bool) []model.Account {
	out := []model.Account{}
	for _, a := range r.rows {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *stubAccounts) List(_ context.Context, f dto.AccountFilter) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a *model.Account) bool {
		if f.Role != "" && string(a.Role) != f.Role {
			return false
		}
		if !f.IncludeInactive && !a.Active {
			return false
		}
		return f.Query == "" || strings.Contains(strings.ToLower(a.Username), strings.ToLower(f.Query))
	}), nil
}

func (r *stubAccounts) ListLocked(_ context.Context, now time.Time) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a *model.Account) bool { return a.IsLocked(now) }), nil
}

func (r *stubAccounts) ListSponsors(_ context.Context, status model.SponsorStatus) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a *model.Account) bool {
		return a.Role == model.RoleSponsor && a.Sponsor != nil && (status == "" || a.Sponsor.Status == status)
	}), nil
}

func (r *stubAccounts) ActiveDriverCodes(_ context.Context) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var codes []uint
	for _, a := range r.sorted(func(a *model.Account) bool { return a.Role == model.RoleDriver && a.Active }) {
		codes = append(codes, a.Code)
	}
	return codes, nil
}

func (r *stubAccounts) update(code uint, fn func(a *model.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(a)
	return nil
}

func (r *stubAccounts) UpdateDetails(_ context.Context, _ *gorm.DB, a *model.Account) error {
	return r.update(a.Code, func(row *model.Account) {
		row.Username, row.Email = a.Username, a.Email
		row.FirstName, row.LastName, row.Phone = a.FirstName, a.LastName, a.Phone
		row.Driver, row.Sponsor, row.Admin = a.Driver, a.Sponsor, a.Admin
	})
}

func (r *stubAccounts) SaveLockout(_ context.Context, _ *gorm.DB, code uint, l model.Lockout) error {
	return r.update(code, func(a *model.Account) { a.Lockout = l })
}

func (r *stubAccounts) SaveResetToken(_ context.Context, _ *gorm.DB, code uint, token *string, issuedAt *time.Time) error {
	return r.update(code, func(a *model.Account) { a.ResetToken, a.ResetTokenIssuedAt = token, issuedAt })
}

func (r *stubAccounts) TakeResetToken(_ context.Context, _ *gorm.DB, code uint, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[code]
	if !ok || a.ResetToken == nil || *a.ResetToken != token {
		return false, nil
	}
	a.ResetToken, a.ResetTokenIssuedAt = nil, nil
	return true, nil
}

func (r *stubAccounts) UpdatePassword(_ context.Context, _ *gorm.DB, code uint, hash string) error {
	return r.update(code, func(a *model.Account) { a.PasswordHash = &hash })
}

func (r *stubAccounts) SetActive(_ context.Context, _ *gorm.DB, code uint, active bool) error {
	return r.update(code, func(a *model.Account) { a.Active = active })
}

func (r *stubAccounts) UpdateNotificationPrefs(_ context.Context, code uint, wantsPoints, wantsOrders bool) error {
	return r.update(code, func(a *model.Account) {
		a.WantsPointNotifications, a.WantsOrderNotifications = wantsPoints, wantsOrders
	})
}

func (r *stubAccounts) UpdateTOTP(_ context.Context, code uint, secret *string, enabled bool) error {
	return r.update(code, func(a *model.Account) { a.TOTPSecret, a.TOTPEnabled = secret, enabled })
}

func (r *stubAccounts) UpdateSponsorStatus(_ context.Context, _ *gorm.DB, code uint, status model.SponsorStatus) error {
	return r.update(code, func(a *model.Account) {
		if a.Sponsor == nil {
			a.Sponsor = &model.SponsorProfile{Code: code}
		}
		a.Sponsor.Status = status
	})
}

func (r *stubAccounts) ClearAllLockouts(_ context.Context, _ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.rows {
		if a.LockoutUntil != nil || a.FailedAttempts != 0 {
			a.Lockout = model.Lockout{}
			n++
		}
	}
	return n, nil
}

func (r *stubAccounts) ClearLapsedLockouts(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.rows {
		if a.Lapsed(now) {
			a.Lockout = model.Lockout{}
			n++
		}
	}
	return n, nil
}

func (r *stubAccounts) ClearResetTokensIssuedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.rows {
		if a.ResetTokenIssuedAt != nil && a.ResetTokenIssuedAt.Before(cutoff) {
			a.ResetToken, a.ResetTokenIssuedAt = nil, nil
			n++
		}
	}
	return n, nil
}

func (r *stubAccounts) DB() *gorm.DB { return nil }

// ── Associations ──────────────────────────────────────────────────────────────

type assocKey struct{ driver, sponsor uint }

type stubAssociations struct {
	mu       sync.Mutex
	rows     map[assocKey]*model.Association
	accounts *stubAccounts
}

func newStubAssociations(accounts *stubAccounts) *stubAssociations {
	return &stubAssociations{rows: make(map[assocKey]*model.Association), accounts: accounts}
}

var _ repository.AssociationRepository = (*stubAssociations)(nil)

func (r *stubAssociations) Create(_ context.Context, _ *gorm.DB, a *model.Association) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := assocKey{a.DriverCode, a.SponsorCode}
	if _, ok := r.rows[k]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *a
	r.rows[k] = &cp
	return nil
}

func (r *stubAssociations) Find(_ context.Context, driverCode, sponsorCode uint) (*model.Association, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[assocKey{driverCode, sponsorCode}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAssociations) FindForUpdate(ctx context.Context, _ *gorm.DB, driverCode, sponsorCode uint) (*model.Association, error) {
	return r.Find(ctx, driverCode, sponsorCode)
}

func (r *stubAssociations) Credit(_ context.Context, _ *gorm.DB, driverCode, sponsorCode uint, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[assocKey{driverCode, sponsorCode}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Points += amount
	return nil
}

func (r *stubAssociations) Debit(_ context.Context, _ *gorm.DB, driverCode, sponsorCode uint, amount int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[assocKey{driverCode, sponsorCode}]
	if !ok || a.Points < amount {
		return false, nil
	}
	a.Points -= amount
	return true, nil
}

func (r *stubAssociations) withAccounts(a model.Association) model.Association {
	if r.accounts != nil {
		a.Driver, _ = r.accounts.FindByCode(context.Background(), a.DriverCode)
		a.Sponsor, _ = r.accounts.FindByCode(context.Background(), a.SponsorCode)
	}
	return a
}

func (r *stubAssociations) list(keep func(*model.Association) bool) []model.Association {
	r.mu.Lock()
	var out []model.Association
	for _, a := range r.rows {
		if keep(a) {
			out = append(out, *a)
		}
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DriverCode != out[j].DriverCode {
			return out[i].DriverCode < out[j].DriverCode
		}
		return out[i].SponsorCode < out[j].SponsorCode
	})
	for i := range out {
		out[i] = r.withAccounts(out[i])
	}
	return out
}

func (r *stubAssociations) ListByDriver(_ context.Context, driverCode uint) ([]model.Association, error) {
	return r.list(func(a *model.Association) bool { return a.DriverCode == driverCode }), nil
}

func (r *stubAssociations) ListBySponsor(_ context.Context, sponsorCode uint) ([]model.Association, error) {
	return r.list(func(a *model.Association) bool { return a.SponsorCode == sponsorCode }), nil
}

func (r *stubAssociations) DB() *gorm.DB { return nil }

func (r *stubAssociations) points(driverCode, sponsorCode uint) int {
	a, err := r.Find(context.Background(), driverCode, sponsorCode)
	if err != nil {
		return -1
	}
	return a.Points
}

// ── Carts / purchases ─────────────────────────────────────────────────────────

type stubCarts struct {
	mu    sync.Mutex
	items []model.CartItem
}

var _ repository.CartRepository = (*stubCarts)(nil)

func (r *stubCarts) ListBySponsor(_ context.Context, _ *gorm.DB, accountCode, sponsorCode uint) ([]model.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CartItem
	for _, it := range r.items {
		if it.AccountCode == accountCode && it.SponsorCode == sponsorCode {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *stubCarts) Add(_ context.Context, item *model.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.AccountCode == item.AccountCode && it.SponsorCode == item.SponsorCode && it.ItemID == item.ItemID {
			r.items[i].Quantity = min(r.items[i].Quantity+item.Quantity, model.MaxCartQuantity)
			r.items[i].Price, r.items[i].Points = item.Price, item.Points
			return nil
		}
	}
	r.items = append(r.items, *item)
	return nil
}

func (r *stubCarts) UpdateQuantity(_ context.Context, accountCode, sponsorCode uint, itemID string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.AccountCode == accountCode && it.SponsorCode == sponsorCode && it.ItemID == itemID {
			r.items[i].Quantity = qty
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCarts) Remove(_ context.Context, accountCode, sponsorCode uint, itemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.AccountCode == accountCode && it.SponsorCode == sponsorCode && it.ItemID == itemID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCarts) DeleteBySponsor(_ context.Context, _ *gorm.DB, accountCode, sponsorCode uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, it := range r.items {
		if it.AccountCode != accountCode || it.SponsorCode != sponsorCode {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

type stubPurchases struct {
	mu   sync.Mutex
	rows []model.Purchase
}

var _ repository.PurchaseRepository = (*stubPurchases)(nil)

func (r *stubPurchases) CreateBatch(_ context.Context, _ *gorm.DB, purchases []model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range purchases {
		purchases[i].ID = uint(len(r.rows) + 1)
		r.rows = append(r.rows, purchases[i])
	}
	return nil
}

func (r *stubPurchases) ListByAccount(_ context.Context, accountCode uint) ([]model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Purchase
	for _, p := range r.rows {
		if p.AccountCode == accountCode {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPurchases) ListBySponsor(_ context.Context, sponsorCode uint) ([]model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Purchase
	for _, p := range r.rows {
		if p.SponsorCode == sponsorCode {
			out = append(out, p)
		}
	}
	return out, nil
}

// ── Audit / logs / notifications ──────────────────────────────────────────────

type stubAudit struct {
	mu      sync.Mutex
	entries []service.AuditEntry
}

func (a *stubAudit) Record(_ context.Context, _ *gorm.DB, e service.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *stubAudit) ofType(eventType string) []service.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []service.AuditEntry
	for _, e := range a.entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type stubImpersonationLogs struct{ rows []model.ImpersonationLog }

func (r *stubImpersonationLogs) Append(_ context.Context, e *model.ImpersonationLog) error {
	r.rows = append(r.rows, *e)
	return nil
}

type stubNotifications struct {
	mu   sync.Mutex
	rows []model.Notification
}

var _ repository.NotificationRepository = (*stubNotifications)(nil)

func (r *stubNotifications) CreateBatch(_ context.Context, list []model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range list {
		n.ID = uint(len(r.rows) + 1)
		r.rows = append(r.rows, n)
	}
	return nil
}

func (r *stubNotifications) ListForRecipient(_ context.Context, recipientCode uint, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].RecipientCode == recipientCode {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *stubNotifications) MarkAllRead(_ context.Context, recipientCode uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].RecipientCode == recipientCode {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *stubNotifications) CountUnread(_ context.Context, recipientCode uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.RecipientCode == recipientCode && !row.IsRead {
			n++
		}
	}
	return n, nil
}

// mockNotifier records Notify calls.
type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, recipient uint, sender *uint, message string) error {
	args := m.Called(ctx, recipient, sender, message)
	return args.Error(0)
}

type stubMail struct {
	jobs []worker.EmailJobPayload
	err  error
}

func (m *stubMail) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, p)
	return nil
}

var errBoom = errors.New("boom")

// ── Fixtures ──────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		PublicURL:          "https://rewards.example.com/",
		TOTPIssuer:         "Rewards Test",
	}
}

// seed stores an account with the given password; bcrypt makes this the slow
// part of most tests, so callers pass "" when no login is needed.
func seed(accounts *stubAccounts, username string, role model.Role, password string) *model.Account {
	a := &model.Account{
		Username:                username,
		Email:                   username + "@example.com",
		FirstName:               strings.ToUpper(username[:1]) + username[1:],
		LastName:                "Test",
		Role:                    role,
		Active:                  true,
		WantsPointNotifications: true,
		WantsOrderNotifications: true,
	}
	if password != "" {
		hash, err := service.HashPassword(password)
		if err != nil {
			panic(err)
		}
		a.PasswordHash = &hash
	}
	switch role {
	case model.RoleDriver:
		a.Driver = &model.DriverProfile{}
	case model.RoleSponsor:
		a.Sponsor = &model.SponsorProfile{OrgName: username + " Logistics", Status: model.SponsorApproved}
	case model.RoleAdministrator:
		a.Admin = &model.AdminProfile{RoleTitle: "Ops"}
	}
	if err := accounts.Create(context.Background(), nil, a); err != nil {
		panic(err)
	}
	return a
}

func actorOf(a *model.Account) model.ActingIdentity {
	return model.ActingIdentity{Effective: a.Identity()}
}

func impersonated(target, by *model.Account) model.ActingIdentity {
	orig := by.Identity()
	return model.ActingIdentity{Effective: target.Identity(), Original: &orig}
}
