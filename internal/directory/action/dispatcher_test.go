package action_test

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/action"
	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/form"
	"github.com/backdeskhq/backdesk/internal/directory/mail"
	"github.com/backdeskhq/backdesk/internal/directory/service"
	"github.com/backdeskhq/backdesk/internal/directory/store/drivers/sqlite"
	"github.com/backdeskhq/backdesk/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "directory-action-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type sentMail struct {
	Template mail.Template
	To       string
	Data     mail.Data
}

// captureMailer records outgoing mail so tests can pull tokens out of
// the emailed links.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (c *captureMailer) Send(_ context.Context, tpl mail.Template, to string, data mail.Data) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{Template: tpl, To: to, Data: data})
	return nil
}

func (c *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "expected at least one mail")
	return c.sent[len(c.sent)-1]
}

func (c *captureMailer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// tokenFromLink extracts the token query parameter from an emailed link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token, "link should carry a token")
	return token
}

func newDispatcher(t *testing.T) (*action.Dispatcher, *captureMailer) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mailer := &captureMailer{}

	return &action.Dispatcher{
		Accounts: &service.AccountService{
			Store:     st,
			Mailer:    mailer,
			BaseURL:   "http://localhost:8080",
			VerifyTTL: 24 * time.Hour,
		},
		Auth:    &service.AuthService{Store: st},
		Profile: &service.ProfileService{Store: st},
		Reset: &service.PasswordResetService{
			Store:    st,
			Mailer:   mailer,
			BaseURL:  "http://localhost:8080",
			ResetTTL: time.Hour,
		},
	}, mailer
}

func values(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v
}

func createAdminValues(name, email, password string) url.Values {
	return values(
		"name", name,
		"email", email,
		"password", password,
		"password_confirmation", password,
	)
}

// mustCreateAdmin registers an admin through the dispatcher and returns
// the caller identity it would get after sign-in.
func mustCreateAdmin(t *testing.T, d *action.Dispatcher, email, password string) action.Identity {
	t.Helper()

	account, res := d.CreateAdmin(context.Background(), createAdminValues("Admin "+email, email, password))
	require.True(t, res.OK(), "create-admin should succeed: %+v", res)
	require.Equal(t, domain.RoleAdmin, account.Role)

	return action.Identity{AccountID: account.ID, Role: account.Role}
}

func TestCreateAdmin(t *testing.T) {
	d, mailer := newDispatcher(t)
	ctx := context.Background()

	t.Run("success issues account and verification mail", func(t *testing.T) {
		account, res := d.CreateAdmin(ctx, createAdminValues("Ada", "ada@example.com", "correct-horse"))
		require.Equal(t, domain.Committed(action.MsgAccountCreated), res)
		require.NotEmpty(t, account.ID)
		require.Equal(t, "ada@example.com", account.Email)

		sent := mailer.last(t)
		require.Equal(t, mail.TemplateVerifyEmail, sent.Template)
		require.Equal(t, "ada@example.com", sent.To)
	})

	t.Run("validation failure returns field errors untouched", func(t *testing.T) {
		_, res := d.CreateAdmin(ctx, values("name", "", "email", "bad", "password", "short"))
		require.False(t, res.OK())
		require.Empty(t, res.Warning)
		require.Equal(t, []string{form.NameRequired}, res.Errors["name"])
		require.Equal(t, []string{form.EmailInvalid}, res.Errors["email"])
	})

	t.Run("duplicate email denied and no second row", func(t *testing.T) {
		_, res := d.CreateAdmin(ctx, createAdminValues("Ada Again", "ada@example.com", "correct-horse"))
		require.Equal(t, domain.Denied(action.WarnEmailAlreadyRegistered), res)

		admins, err := d.Accounts.List(ctx, domain.RoleAdmin)
		require.NoError(t, err)
		require.Len(t, admins, 1)
	})

	t.Run("email matching is case-insensitive", func(t *testing.T) {
		_, res := d.CreateAdmin(ctx, createAdminValues("Ada Upper", "ADA@Example.Com", "correct-horse"))
		require.Equal(t, domain.Denied(action.WarnEmailAlreadyRegistered), res)
	})
}

func TestSignIn(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()
	mustCreateAdmin(t, d, "ada@example.com", "correct-horse")

	t.Run("correct credentials", func(t *testing.T) {
		account, res := d.SignIn(ctx, values("email", "ada@example.com", "password", "correct-horse"))
		require.Equal(t, domain.Committed(action.MsgSignedIn), res)
		require.Equal(t, domain.RoleAdmin, account.Role)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, wrongPass := d.SignIn(ctx, values("email", "ada@example.com", "password", "wrong-horse!"))
		_, unknown := d.SignIn(ctx, values("email", "ghost@example.com", "password", "correct-horse"))

		require.Equal(t, domain.Denied(action.WarnCredentialsInvalid), wrongPass)
		require.Equal(t, wrongPass, unknown)
	})
}

func TestSaveAccount(t *testing.T) {
	d, mailer := newDispatcher(t)
	ctx := context.Background()
	admin := mustCreateAdmin(t, d, "admin@example.com", "correct-horse")

	t.Run("non-admin caller denied", func(t *testing.T) {
		user := action.Identity{AccountID: "someone", Role: domain.RoleUser}
		res := d.SaveAccount(ctx, user, values())
		require.Equal(t, domain.Denied(action.WarnAdminRequired), res)
	})

	t.Run("create dispatches account-created mail", func(t *testing.T) {
		res := d.SaveAccount(ctx, admin, values(
			"name", "Grace",
			"email", "grace@example.com",
			"role", "USER",
			"password", "first-password",
			"password_confirmation", "first-password",
		))
		require.Equal(t, domain.Committed(action.MsgAccountCreated), res)

		sent := mailer.last(t)
		require.Equal(t, mail.TemplateAccountCreated, sent.Template)
		require.Equal(t, "grace@example.com", sent.To)
	})

	t.Run("edit by id without password", func(t *testing.T) {
		users, err := d.Accounts.List(ctx, domain.RoleUser)
		require.NoError(t, err)
		require.Len(t, users, 1)

		res := d.SaveAccount(ctx, admin, values(
			"id", users[0].ID,
			"name", "Grace Hopper",
			"email", "grace@example.com",
			"role", "ADMIN",
		))
		require.Equal(t, domain.Committed(action.MsgAccountSaved), res)

		got, err := d.Accounts.Get(ctx, users[0].ID)
		require.NoError(t, err)
		require.Equal(t, "Grace Hopper", got.Name)
		require.Equal(t, domain.RoleAdmin, got.Role)

		// The original password still signs in
		_, signin := d.SignIn(ctx, values("email", "grace@example.com", "password", "first-password"))
		require.True(t, signin.OK())
	})

	t.Run("malformed id denied before validation", func(t *testing.T) {
		res := d.SaveAccount(ctx, admin, values("id", "not-a-ulid"))
		require.Equal(t, domain.Denied(action.WarnAccountNotFound), res)
	})

	t.Run("edit to a taken email denied", func(t *testing.T) {
		users, err := d.Accounts.List(ctx, domain.RoleAdmin)
		require.NoError(t, err)

		var graceID string
		for _, u := range users {
			if u.Email == "grace@example.com" {
				graceID = u.ID
			}
		}
		require.NotEmpty(t, graceID)

		res := d.SaveAccount(ctx, admin, values(
			"id", graceID,
			"name", "Grace Hopper",
			"email", "admin@example.com",
			"role", "ADMIN",
		))
		require.Equal(t, domain.Denied(action.WarnEmailAlreadyRegistered), res)
	})
}

func TestDeleteUser(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()
	admin := mustCreateAdmin(t, d, "admin@example.com", "correct-horse")

	res := d.SaveAccount(ctx, admin, values(
		"name", "Grace",
		"email", "grace@example.com",
		"role", "USER",
		"password", "first-password",
		"password_confirmation", "first-password",
	))
	require.True(t, res.OK())

	users, err := d.Accounts.List(ctx, domain.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 1)

	t.Run("non-admin caller denied", func(t *testing.T) {
		user := action.Identity{AccountID: users[0].ID, Role: domain.RoleUser}
		res := d.DeleteUser(ctx, user, values("id", users[0].ID))
		require.Equal(t, domain.Denied(action.WarnAdminRequired), res)
	})

	t.Run("admin deleting own account denied and record remains", func(t *testing.T) {
		res := d.DeleteUser(ctx, admin, values("id", admin.AccountID))
		require.Equal(t, domain.Denied(action.WarnSelfDeleteNotAllowed), res)

		_, err := d.Accounts.Get(ctx, admin.AccountID)
		require.NoError(t, err, "the admin account should survive")
	})

	t.Run("deleting another account succeeds", func(t *testing.T) {
		res := d.DeleteUser(ctx, admin, values("id", users[0].ID))
		require.Equal(t, domain.Committed(action.MsgAccountDeleted), res)

		_, err := d.Accounts.Get(ctx, users[0].ID)
		require.ErrorIs(t, err, service.ErrAccountNotFound)
	})

	t.Run("deleting an unknown account reports not found", func(t *testing.T) {
		res := d.DeleteUser(ctx, admin, values("id", users[0].ID))
		require.Equal(t, domain.Denied(action.WarnAccountNotFound), res)
	})
}

func TestUpdateProfile(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()
	ada := mustCreateAdmin(t, d, "ada@example.com", "correct-horse")
	mustCreateAdmin(t, d, "grace@example.com", "correct-horse")

	t.Run("success", func(t *testing.T) {
		res := d.UpdateProfile(ctx, ada, values("name", "Ada L", "email", "ada.l@example.com"))
		require.Equal(t, domain.Committed(action.MsgProfileSaved), res)

		got, err := d.Accounts.Get(ctx, ada.AccountID)
		require.NoError(t, err)
		require.Equal(t, "Ada L", got.Name)
		require.Equal(t, "ada.l@example.com", got.Email)
	})

	t.Run("taken email denied", func(t *testing.T) {
		res := d.UpdateProfile(ctx, ada, values("name", "Ada L", "email", "grace@example.com"))
		require.Equal(t, domain.Denied(action.WarnEmailAlreadyRegistered), res)
	})

	t.Run("keeping own email is not a conflict", func(t *testing.T) {
		res := d.UpdateProfile(ctx, ada, values("name", "Ada Lovelace", "email", "ada.l@example.com"))
		require.True(t, res.OK())
	})
}

func TestUpdatePassword(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()
	ada := mustCreateAdmin(t, d, "ada@example.com", "correct-horse")

	t.Run("wrong current password denied", func(t *testing.T) {
		res := d.UpdatePassword(ctx, ada, values(
			"current_password", "wrong-horse!",
			"password", "new-password",
			"password_confirmation", "new-password",
		))
		require.Equal(t, domain.Denied(action.WarnPasswordCurrentIncorrect), res)
	})

	t.Run("success rotates the credential", func(t *testing.T) {
		res := d.UpdatePassword(ctx, ada, values(
			"current_password", "correct-horse",
			"password", "new-password",
			"password_confirmation", "new-password",
		))
		require.Equal(t, domain.Committed(action.MsgPasswordUpdated), res)

		_, old := d.SignIn(ctx, values("email", "ada@example.com", "password", "correct-horse"))
		require.Equal(t, domain.Denied(action.WarnCredentialsInvalid), old)

		_, fresh := d.SignIn(ctx, values("email", "ada@example.com", "password", "new-password"))
		require.True(t, fresh.OK())
	})
}

func TestDeleteSelf(t *testing.T) {
	d, _ := newDispatcher(t)
	ctx := context.Background()
	ada := mustCreateAdmin(t, d, "ada@example.com", "correct-horse")

	t.Run("wrong password denied", func(t *testing.T) {
		res := d.DeleteSelf(ctx, ada, values("password", "wrong-horse!"))
		require.Equal(t, domain.Denied(action.WarnPasswordCurrentIncorrect), res)

		_, err := d.Accounts.Get(ctx, ada.AccountID)
		require.NoError(t, err)
	})

	t.Run("correct password removes the account", func(t *testing.T) {
		res := d.DeleteSelf(ctx, ada, values("password", "correct-horse"))
		require.Equal(t, domain.Committed(action.MsgAccountDeleted), res)

		_, signin := d.SignIn(ctx, values("email", "ada@example.com", "password", "correct-horse"))
		require.Equal(t, domain.Denied(action.WarnCredentialsInvalid), signin)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	d, mailer := newDispatcher(t)
	ctx := context.Background()
	mustCreateAdmin(t, d, "ada@example.com", "correct-horse")

	t.Run("unknown email succeeds without sending mail", func(t *testing.T) {
		before := mailer.count()
		res := d.ForgotPassword(ctx, values("email", "ghost@example.com"))
		require.Equal(t, domain.Committed(action.MsgResetLinkSent), res)
		require.Equal(t, before, mailer.count(), "no mail for unknown addresses")
	})

	res := d.ForgotPassword(ctx, values("email", "ada@example.com"))
	require.True(t, res.OK())

	sent := mailer.last(t)
	require.Equal(t, mail.TemplateResetPassword, sent.Template)
	token := tokenFromLink(t, sent.Data.Link)

	t.Run("redemption replaces the password once", func(t *testing.T) {
		res := d.ResetPassword(ctx, values(
			"email", "ada@example.com",
			"token", token,
			"password", "reset-password",
			"password_confirmation", "reset-password",
		))
		require.Equal(t, domain.Committed(action.MsgPasswordReset), res)

		_, signin := d.SignIn(ctx, values("email", "ada@example.com", "password", "reset-password"))
		require.True(t, signin.OK())
	})

	t.Run("second redemption of the same token denied", func(t *testing.T) {
		res := d.ResetPassword(ctx, values(
			"email", "ada@example.com",
			"token", token,
			"password", "another-password",
			"password_confirmation", "another-password",
		))
		require.Equal(t, domain.Denied(action.WarnTokenInvalidOrUsed), res)

		// The failed redemption changed nothing
		_, signin := d.SignIn(ctx, values("email", "ada@example.com", "password", "reset-password"))
		require.True(t, signin.OK())
	})

	t.Run("garbage token denied", func(t *testing.T) {
		res := d.ResetPassword(ctx, values(
			"email", "ada@example.com",
			"token", "not-a-real-token",
			"password", "another-password",
			"password_confirmation", "another-password",
		))
		require.Equal(t, domain.Denied(action.WarnTokenInvalidOrUsed), res)
	})
}

func TestVerifyEmailFlow(t *testing.T) {
	d, mailer := newDispatcher(t)
	ctx := context.Background()
	ada := mustCreateAdmin(t, d, "ada@example.com", "correct-horse")

	sent := mailer.last(t)
	require.Equal(t, mail.TemplateVerifyEmail, sent.Template)
	token := tokenFromLink(t, sent.Data.Link)

	t.Run("redemption stamps the account", func(t *testing.T) {
		res := d.VerifyEmail(ctx, values("email", "ada@example.com", "token", token))
		require.Equal(t, domain.Committed(action.MsgEmailVerified), res)

		got, err := d.Accounts.Get(ctx, ada.AccountID)
		require.NoError(t, err)
		require.True(t, got.Verified())
	})

	t.Run("second redemption denied", func(t *testing.T) {
		res := d.VerifyEmail(ctx, values("email", "ada@example.com", "token", token))
		require.Equal(t, domain.Denied(action.WarnTokenInvalidOrUsed), res)
	})
}
