package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spades-sales-engine/backend/internal/cache"
	invdomain "spades-sales-engine/backend/internal/invitation/domain"
	"spades-sales-engine/backend/internal/notify"
	orgdomain "spades-sales-engine/backend/internal/organization/domain"
	policyengine "spades-sales-engine/backend/internal/policy/engine"
	"spades-sales-engine/backend/internal/security"
	sessiondomain "spades-sales-engine/backend/internal/session/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

type memInviteRepo struct {
	mu sync.Mutex
	m  map[string]*invdomain.Invitation // by id
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{m: make(map[string]*invdomain.Invitation)}
}

func (r *memInviteRepo) GetByToken(ctx context.Context, token string) (*invdomain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.m {
		if i.Token == token {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memInviteRepo) GetByTokenForUpdate(ctx context.Context, token string) (*invdomain.Invitation, error) {
	return r.GetByToken(ctx, token)
}

func (r *memInviteRepo) GetByIDInOrg(ctx context.Context, id, orgID string) (*invdomain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.m[id]
	if !ok || i.OrgID != orgID {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *memInviteRepo) ListPendingByOrg(ctx context.Context, orgID string) ([]*invdomain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var out []*invdomain.Invitation
	for _, i := range r.m {
		if i.OrgID == orgID && i.Pending(now) {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memInviteRepo) CountPendingByOrg(ctx context.Context, orgID string) (int64, error) {
	list, _ := r.ListPendingByOrg(ctx, orgID)
	return int64(len(list)), nil
}

func (r *memInviteRepo) Create(ctx context.Context, i *invdomain.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *i
	r.m[i.ID] = &cp
	return nil
}

func (r *memInviteRepo) MarkUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.m[id]; ok {
		i.Used = true
	}
	return nil
}

func (r *memInviteRepo) Delete(ctx context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.m[id]; ok && i.OrgID == orgID {
		delete(r.m, id)
	}
	return nil
}

type memUserRepo struct {
	mu sync.Mutex
	m  map[string]*userdomain.User // by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{m: make(map[string]*userdomain.User)}
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.m {
		if u.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.m[u.ID] = &cp
	return nil
}

func (r *memUserRepo) countByEmail(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.m {
		if u.Email == email {
			n++
		}
	}
	return n
}

type memOrgRepo struct {
	mu sync.Mutex
	m  map[string]*orgdomain.Org
}

func newMemOrgRepo(orgs ...*orgdomain.Org) *memOrgRepo {
	r := &memOrgRepo{m: make(map[string]*orgdomain.Org)}
	for _, o := range orgs {
		cp := *o
		r.m[o.ID] = &cp
	}
	return r
}

func (r *memOrgRepo) GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memOrgRepo) rename(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.m[id]; ok {
		o.Name = name
	}
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[string]*sessiondomain.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.m[s.ID] = &cp
	return nil
}

type auditEntry struct {
	OrgID, UserID, Action, Resource, Metadata string
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *memAudit) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{orgID, userID, action, resource, metadata})
}

func (a *memAudit) last() (auditEntry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return auditEntry{}, false
	}
	return a.entries[len(a.entries)-1], true
}

type memNotifier struct {
	mu   sync.Mutex
	sent []notify.InviteEmail
	err  error
}

func (n *memNotifier) SendInvite(ctx context.Context, msg notify.InviteEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// fakeTx runs fn against the shared in-memory repos. A mutex serializes
// the whole callback, modelling the FOR UPDATE row lock: concurrent
// acceptances see each other's writes in order. Rollback behavior is
// covered by database-level tests.
type fakeTx struct {
	mu      sync.Mutex
	invites *memInviteRepo
	users   *memUserRepo
}

func (t *fakeTx) Run(ctx context.Context, fn func(r TxRepos) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(TxRepos{Invites: t.invites, Users: t.users})
}

type fixture struct {
	svc      *InviteService
	invites  *memInviteRepo
	users    *memUserRepo
	orgs     *memOrgRepo
	sessions *memSessionRepo
	audit    *memAudit
	notifier *memNotifier
	tokens   *security.TokenProvider
}

func newFixture(t *testing.T, org *orgdomain.Org) *fixture {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	f := &fixture{
		invites:  newMemInviteRepo(),
		users:    newMemUserRepo(),
		orgs:     newMemOrgRepo(org),
		sessions: newMemSessionRepo(),
		audit:    &memAudit{},
		notifier: &memNotifier{},
		tokens:   tokens,
	}
	f.svc = NewInviteService(
		&fakeTx{invites: f.invites, users: f.users},
		f.invites,
		f.users,
		f.orgs,
		f.sessions,
		policyengine.NewOPAEvaluator(),
		f.audit,
		f.notifier,
		cache.NewMemoryStore(),
		security.NewHasher(4),
		tokens,
		"https://app.example.com",
		7*24*time.Hour,
		7*24*time.Hour,
	)
	return f
}

func testOrg() *orgdomain.Org {
	return &orgdomain.Org{ID: "org-1", Name: "Acme", CreatedAt: time.Now().UTC()}
}

func testActor(role userdomain.Role) *userdomain.User {
	return &userdomain.User{ID: "actor-1", OrgID: "org-1", Email: "actor@acme.com", Role: role, Active: true}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, link, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.OrgID != "org-1" {
		t.Errorf("org_id = %q, want org-1", inv.OrgID)
	}
	if inv.Email != "new@acme.com" {
		t.Errorf("email = %q, want new@acme.com", inv.Email)
	}
	if inv.Used {
		t.Error("new invitation should not be used")
	}
	if len(inv.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(inv.Token))
	}
	if want := "https://app.example.com/invite/" + inv.Token; link != want {
		t.Errorf("link = %q, want %q", link, want)
	}
	if !inv.ExpiresAt.After(inv.CreatedAt) {
		t.Error("expires_at should be after created_at")
	}

	entry, ok := f.audit.last()
	if !ok || entry.Action != "CREATE_INVITE" {
		t.Errorf("audit action = %+v, want CREATE_INVITE", entry)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("notifier sent %d emails, want 1", len(f.notifier.sent))
	}
	if f.notifier.sent[0].To != "new@acme.com" || f.notifier.sent[0].Link != link {
		t.Errorf("notification = %+v", f.notifier.sent[0])
	}
}

func TestCreate_NormalizesEmail(t *testing.T) {
	f := newFixture(t, testOrg())

	inv, _, err := f.svc.Create(context.Background(), testActor(userdomain.RoleAdmin), "  New@Acme.COM ", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.Email != "new@acme.com" {
		t.Errorf("email = %q, want normalized new@acme.com", inv.Email)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()
	actor := testActor(userdomain.RoleOwner)

	if _, _, err := f.svc.Create(ctx, actor, "", userdomain.RoleMember); err == nil {
		t.Error("expected error for empty email")
	}
	if _, _, err := f.svc.Create(ctx, actor, "not-an-email", userdomain.RoleMember); err == nil {
		t.Error("expected error for malformed email")
	}
	if _, _, err := f.svc.Create(ctx, actor, "new@acme.com", userdomain.RoleOwner); err == nil {
		t.Error("expected error for owner role")
	}
}

func TestCreate_PolicyDenied_Domain(t *testing.T) {
	org := testOrg()
	org.Settings.AllowedInviteDomains = []string{"acme.com"}
	f := newFixture(t, org)

	_, _, err := f.svc.Create(context.Background(), testActor(userdomain.RoleOwner), "out@other.com", userdomain.RoleMember)
	if !errors.Is(err, ErrPolicyDenied) {
		t.Fatalf("err = %v, want ErrPolicyDenied", err)
	}
	if !strings.Contains(err.Error(), "email domain not allowed") {
		t.Errorf("err = %v, want domain reason", err)
	}
}

func TestCreate_PolicyDenied_SeatCap(t *testing.T) {
	org := testOrg()
	org.Settings.MaxMembers = 2
	f := newFixture(t, org)
	ctx := context.Background()

	// One member plus one pending invite fills the cap of two.
	_ = f.users.Create(ctx, testActor(userdomain.RoleOwner))
	if _, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "a@acme.com", userdomain.RoleMember); err != nil {
		t.Fatalf("Create under cap: %v", err)
	}

	_, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "b@acme.com", userdomain.RoleMember)
	if !errors.Is(err, ErrPolicyDenied) {
		t.Fatalf("err = %v, want ErrPolicyDenied", err)
	}
}

func TestCreate_NotifierFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, testOrg())
	f.notifier.err = errors.New("smtp down")

	_, link, err := f.svc.Create(context.Background(), testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if link == "" {
		t.Error("link should still be returned when email delivery fails")
	}
}

func TestValidate_UnknownToken(t *testing.T) {
	f := newFixture(t, testOrg())

	res, err := f.svc.Validate(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Error("unknown token should not validate")
	}
}

func TestValidate_EmptyToken(t *testing.T) {
	f := newFixture(t, testOrg())

	res, err := f.svc.Validate(context.Background(), "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Error("empty token should not validate")
	}
}

func TestValidate_Pending(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := f.svc.Validate(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid {
		t.Fatal("pending invite should validate")
	}
	if res.Email != "new@acme.com" {
		t.Errorf("email = %q", res.Email)
	}
	if res.OrgName != "Acme" {
		t.Errorf("org name = %q, want Acme", res.OrgName)
	}
	if res.Role != userdomain.RoleAdmin {
		t.Errorf("role = %q, want admin", res.Role)
	}
}

func TestValidate_Expired(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv := &invdomain.Invitation{
		ID: "inv-1", OrgID: "org-1", Email: "new@acme.com", Role: userdomain.RoleMember,
		Token: "tok-expired", CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	_ = f.invites.Create(ctx, inv)

	res, err := f.svc.Validate(ctx, "tok-expired")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Error("expired invite should not validate")
	}
}

func TestValidate_Used(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv := &invdomain.Invitation{
		ID: "inv-1", OrgID: "org-1", Email: "new@acme.com", Role: userdomain.RoleMember,
		Token: "tok-used", Used: true, CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	_ = f.invites.Create(ctx, inv)

	res, err := f.svc.Validate(ctx, "tok-used")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Error("used invite should not validate")
	}
}

func TestValidate_OrgNameIsCached(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Validate(ctx, inv.Token); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	f.orgs.rename("org-1", "Renamed")
	res, err := f.svc.Validate(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.OrgName != "Acme" {
		t.Errorf("org name = %q, want cached Acme", res.OrgName)
	}
}

func TestAccept_Success(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := f.svc.Accept(ctx, inv.Token, "New Person", "supersecret1", "")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if res.OrgID != "org-1" {
		t.Errorf("org_id = %q", res.OrgID)
	}

	u, err := f.users.GetByEmail(ctx, "new@acme.com")
	if err != nil || u == nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Role != userdomain.RoleAdmin {
		t.Errorf("role = %q, want admin", u.Role)
	}
	if !u.Active || !u.IsVerified {
		t.Errorf("user active=%v verified=%v, want both true", u.Active, u.IsVerified)
	}
	if u.ID != res.UserID {
		t.Errorf("result user id = %q, want %q", res.UserID, u.ID)
	}

	stored, _ := f.invites.GetByToken(ctx, inv.Token)
	if stored == nil || !stored.Used {
		t.Error("invitation should be marked used")
	}

	claims, err := f.tokens.ValidateAccess(res.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if claims.Subject != u.ID || claims.OrgID != "org-1" {
		t.Errorf("claims = sub %q org %q", claims.Subject, claims.OrgID)
	}
	if len(f.sessions.m) != 1 {
		t.Errorf("sessions = %d, want 1", len(f.sessions.m))
	}

	entry, ok := f.audit.last()
	if !ok || entry.Action != "ACCEPT_INVITE" {
		t.Errorf("audit = %+v, want ACCEPT_INVITE", entry)
	}
}

func TestAccept_EmailMatch(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Accept(ctx, inv.Token, "Mallory", "supersecret1", "mallory@evil.com")
	if !errors.Is(err, ErrEmailMismatch) {
		t.Fatalf("err = %v, want ErrEmailMismatch", err)
	}

	// A case-insensitive match of the bound email is accepted.
	if _, err := f.svc.Accept(ctx, inv.Token, "New Person", "supersecret1", "New@Acme.com"); err != nil {
		t.Fatalf("Accept with matching email: %v", err)
	}
}

func TestAccept_UserExists(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	// The email is taken in a different org; invite acceptance never merges.
	_ = f.users.Create(ctx, &userdomain.User{
		ID: "u-existing", OrgID: "org-2", Email: "new@acme.com", Role: userdomain.RoleMember, Active: true,
	})

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Accept(ctx, inv.Token, "New Person", "supersecret1", "")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}

	stored, _ := f.invites.GetByToken(ctx, inv.Token)
	if stored.Used {
		t.Error("failed acceptance must not consume the invitation")
	}
}

func TestAccept_InvalidStates(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	if _, err := f.svc.Accept(ctx, "unknown", "N", "supersecret1", ""); !errors.Is(err, ErrInviteUnknown) {
		t.Errorf("unknown token: err = %v, want ErrInviteUnknown", err)
	}
	if _, err := f.svc.Accept(ctx, "", "N", "supersecret1", ""); !errors.Is(err, ErrInviteUnknown) {
		t.Errorf("empty token: err = %v, want ErrInviteUnknown", err)
	}

	expired := &invdomain.Invitation{
		ID: "inv-exp", OrgID: "org-1", Email: "late@acme.com", Role: userdomain.RoleMember,
		Token: "tok-exp", CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	_ = f.invites.Create(ctx, expired)
	if _, err := f.svc.Accept(ctx, "tok-exp", "N", "supersecret1", ""); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("expired token: err = %v, want ErrInviteExpired", err)
	}

	used := &invdomain.Invitation{
		ID: "inv-used", OrgID: "org-1", Email: "gone@acme.com", Role: userdomain.RoleMember,
		Token: "tok-used", Used: true, CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	_ = f.invites.Create(ctx, used)
	if _, err := f.svc.Accept(ctx, "tok-used", "N", "supersecret1", ""); !errors.Is(err, ErrInviteUsed) {
		t.Errorf("used token: err = %v, want ErrInviteUsed", err)
	}
}

func TestAccept_UsedWinsOverExpired(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv := &invdomain.Invitation{
		ID: "inv-both", OrgID: "org-1", Email: "both@acme.com", Role: userdomain.RoleMember,
		Token: "tok-both", Used: true, CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	_ = f.invites.Create(ctx, inv)

	_, err := f.svc.Accept(ctx, "tok-both", "N", "supersecret1", "")
	if !errors.Is(err, ErrInviteUsed) {
		t.Errorf("used and expired: err = %v, want ErrInviteUsed", err)
	}
}

func TestAccept_SecondAcceptanceFails(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Accept(ctx, inv.Token, "First", "supersecret1", ""); err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	_, err = f.svc.Accept(ctx, inv.Token, "Second", "supersecret1", "")
	if !errors.Is(err, ErrInviteUsed) {
		t.Errorf("err = %v, want ErrInviteUsed", err)
	}
}

func TestAccept_SingleUseUnderConcurrency(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const racers = 8
	errs := make(chan error, racers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		go func() {
			start.Wait()
			_, err := f.svc.Accept(ctx, inv.Token, "Racer", "supersecret1", "")
			errs <- err
		}()
	}
	start.Done()

	var won, lost int
	for i := 0; i < racers; i++ {
		switch err := <-errs; {
		case err == nil:
			won++
		case errors.Is(err, ErrInviteUsed):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("successful acceptances = %d, want exactly 1", won)
	}
	if lost != racers-1 {
		t.Errorf("used-token failures = %d, want %d", lost, racers-1)
	}

	created, _ := f.users.GetByEmail(ctx, "new@acme.com")
	if created == nil {
		t.Fatal("winning acceptance should have created the user")
	}
	if n := f.users.countByEmail("new@acme.com"); n != 1 {
		t.Errorf("users with invited email = %d, want 1", n)
	}
}

func TestAccept_WeakPassword(t *testing.T) {
	f := newFixture(t, testOrg())

	_, err := f.svc.Accept(context.Background(), "any", "N", "short", "")
	if err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestRevoke_Success(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	inv, _, err := f.svc.Create(ctx, testActor(userdomain.RoleOwner), "new@acme.com", userdomain.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Revoke(ctx, testActor(userdomain.RoleAdmin), inv.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if got, _ := f.invites.GetByToken(ctx, inv.Token); got != nil {
		t.Error("revoked invitation should be deleted")
	}
	entry, ok := f.audit.last()
	if !ok || entry.Action != "REVOKE_INVITE" {
		t.Errorf("audit = %+v, want REVOKE_INVITE", entry)
	}
}

func TestRevoke_NotFound(t *testing.T) {
	f := newFixture(t, testOrg())

	err := f.svc.Revoke(context.Background(), testActor(userdomain.RoleOwner), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRevoke_CrossTenantLooksMissing(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	other := &invdomain.Invitation{
		ID: "inv-other", OrgID: "org-2", Email: "x@other.com", Role: userdomain.RoleMember,
		Token: "tok-other", CreatedAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	_ = f.invites.Create(ctx, other)

	err := f.svc.Revoke(ctx, testActor(userdomain.RoleOwner), "inv-other")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got, _ := f.invites.GetByIDInOrg(ctx, "inv-other", "org-2"); got == nil {
		t.Error("cross-tenant invitation must not be deleted")
	}
}

func TestListPending_SkipsUsedAndExpired(t *testing.T) {
	f := newFixture(t, testOrg())
	ctx := context.Background()

	now := time.Now().UTC()
	_ = f.invites.Create(ctx, &invdomain.Invitation{
		ID: "a", OrgID: "org-1", Email: "a@acme.com", Role: userdomain.RoleMember,
		Token: "t-a", CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	})
	_ = f.invites.Create(ctx, &invdomain.Invitation{
		ID: "b", OrgID: "org-1", Email: "b@acme.com", Role: userdomain.RoleMember,
		Token: "t-b", Used: true, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	})
	_ = f.invites.Create(ctx, &invdomain.Invitation{
		ID: "c", OrgID: "org-1", Email: "c@acme.com", Role: userdomain.RoleMember,
		Token: "t-c", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	})

	list, err := f.svc.ListPending(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a" {
		t.Errorf("pending = %+v, want only invite a", list)
	}
}
