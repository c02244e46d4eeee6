package formsdk

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormControllerValues(t *testing.T) {
	f := NewFormController(OpSignIn, nil)

	f.Set("email", "ada@example.com")
	f.Set("password", "correct-horse")

	require.Equal(t, "ada@example.com", f.Value("email"))

	// Values returns a copy; mutating it does not leak back
	snapshot := f.Values()
	snapshot.Set("email", "evil@example.com")
	require.Equal(t, "ada@example.com", f.Value("email"))
}

func TestFormControllerSubmit(t *testing.T) {
	t.Run("success clears sensitive fields only", func(t *testing.T) {
		submit := func(_ context.Context, op Operation, fields url.Values) (ActionResult, error) {
			require.Equal(t, OpUpdatePassword, op)
			return ActionResult{Success: true, Message: "PasswordUpdated"}, nil
		}

		f := NewFormController(OpUpdatePassword, submit)
		f.Set("current_password", "old-password")
		f.Set("password", "new-password")
		f.Set("password_confirmation", "new-password")
		f.Set("email", "ada@example.com")

		res, err := f.Submit(context.Background())
		require.NoError(t, err)
		require.True(t, res.OK())

		require.Empty(t, f.Value("password"))
		require.Empty(t, f.Value("password_confirmation"))
		require.Empty(t, f.Value("current_password"))
		require.Equal(t, "ada@example.com", f.Value("email"))

		got, ok := f.Result()
		require.True(t, ok)
		require.Equal(t, res, got)
	})

	t.Run("field errors retain entered values", func(t *testing.T) {
		submit := func(_ context.Context, _ Operation, _ url.Values) (ActionResult, error) {
			return ActionResult{Errors: map[string][]string{"email": {"EmailInvalid"}}}, nil
		}

		f := NewFormController(OpSignIn, submit)
		f.Set("email", "bad")
		f.Set("password", "correct-horse")

		res, err := f.Submit(context.Background())
		require.NoError(t, err)
		require.False(t, res.OK())
		require.True(t, res.HasFieldErrors())

		// Corrections are additive; nothing was wiped
		require.Equal(t, "bad", f.Value("email"))
		require.Equal(t, "correct-horse", f.Value("password"))
	})

	t.Run("transport failure leaves state untouched", func(t *testing.T) {
		boom := errors.New("connection refused")
		submit := func(_ context.Context, _ Operation, _ url.Values) (ActionResult, error) {
			return ActionResult{}, boom
		}

		f := NewFormController(OpSignIn, submit)
		f.Set("email", "ada@example.com")
		f.Set("password", "correct-horse")

		_, err := f.Submit(context.Background())
		require.ErrorIs(t, err, boom)

		require.Equal(t, "correct-horse", f.Value("password"))
		_, ok := f.Result()
		require.False(t, ok, "a failed transport leaves no result")
	})

	t.Run("submission while pending is dropped", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})

		submit := func(_ context.Context, _ Operation, _ url.Values) (ActionResult, error) {
			close(started)
			<-release
			return ActionResult{Success: true}, nil
		}

		f := NewFormController(OpSignIn, submit)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Submit(context.Background())
			require.NoError(t, err)
		}()

		<-started
		require.True(t, f.Pending())

		_, err := f.Submit(context.Background())
		require.ErrorIs(t, err, ErrSubmissionPending)

		close(release)
		wg.Wait()
		require.False(t, f.Pending())

		// The first submission completed normally
		res, ok := f.Result()
		require.True(t, ok)
		require.True(t, res.OK())
	})

	t.Run("snapshot is taken at submit time", func(t *testing.T) {
		var seen url.Values
		submit := func(_ context.Context, _ Operation, fields url.Values) (ActionResult, error) {
			seen = fields
			return ActionResult{Success: true}, nil
		}

		f := NewFormController(OpUpdateProfile, submit)
		f.Set("name", "Ada")

		_, err := f.Submit(context.Background())
		require.NoError(t, err)
		require.Equal(t, "Ada", seen.Get("name"))
	})
}

func TestFormControllerReset(t *testing.T) {
	submit := func(_ context.Context, _ Operation, _ url.Values) (ActionResult, error) {
		return ActionResult{Success: true}, nil
	}

	f := NewFormController(OpSignIn, submit)
	f.Set("email", "ada@example.com")

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	f.Reset()
	require.Empty(t, f.Value("email"))
	_, ok := f.Result()
	require.False(t, ok)
}
