package terminal

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caspomat/internal/account/models"
	"caspomat/internal/account/service"
	"caspomat/internal/account/store"
	"caspomat/internal/session"
)

// runSession feeds a scripted exchange (one line per prompt) through a fresh
// terminal and returns everything it printed plus the final controller state.
func runSession(t *testing.T, script ...string) (string, session.State) {
	t.Helper()

	st := store.NewInMemoryAccountStoreWith(map[string]models.Account{
		"Avi Cohen": {Identity: "Avi Cohen", PIN: "1234", Balance: 1000},
	})
	log := logrus.New()
	log.SetOutput(io.Discard)
	entry := logrus.NewEntry(log)

	svc, err := service.New(st, service.WithLogger(entry))
	require.NoError(t, err)
	ctrl := session.New(svc, entry)

	var out bytes.Buffer
	term := New(strings.NewReader(strings.Join(script, "\n")+"\n"), &out, ctrl, entry)
	require.NoError(t, term.Run(context.Background()))
	return out.String(), ctrl.State()
}

func TestFullSession(t *testing.T) {
	out, state := runSession(t, "Avi Cohen", "1234", "d", "40", "c", "q")

	assert.Contains(t, out, "Welcome, Avi Cohen")
	assert.Contains(t, out, "Deposit successful!")
	assert.Contains(t, out, "Your current balance is 1040 NIS")
	assert.Contains(t, out, "GOODBYE Avi Cohen, HAVE A NICE DAY")
	assert.Equal(t, session.Terminated, state)
}

func TestUnknownUser(t *testing.T) {
	out, state := runSession(t, "Unknown Person")

	assert.Contains(t, out, "User not found!")
	assert.NotContains(t, out, "Enter your PIN")
	assert.Equal(t, session.Terminated, state)
}

func TestWrongPIN(t *testing.T) {
	out, state := runSession(t, "Avi Cohen", "9999")

	assert.Contains(t, out, "Invalid PIN! Access denied.")
	assert.NotContains(t, out, "ATM MENU")
	assert.Equal(t, session.Terminated, state)
}

func TestUnknownOptionReprompts(t *testing.T) {
	out, state := runSession(t, "Avi Cohen", "1234", "x", "q")

	assert.Contains(t, out, "Invalid option! Try again.")
	assert.Contains(t, out, "GOODBYE", "session continues after a bad option")
	assert.Equal(t, session.Terminated, state)
}

func TestDeposit(t *testing.T) {
	t.Run("non-numeric amount aborts the operation only", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "d", "abc", "c", "q")

		assert.Contains(t, out, "Invalid input! Please enter a valid number.")
		assert.Contains(t, out, "Your current balance is 1000 NIS")
	})

	t.Run("non-multiple is rejected", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "d", "35", "c", "q")

		assert.Contains(t, out, "Invalid amount! Must be a multiple of 20.")
		assert.Contains(t, out, "Your current balance is 1000 NIS")
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("preset amount", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "w", "1", "c", "q")

		assert.Contains(t, out, "Withdrawal successful!")
		assert.Contains(t, out, "Your current balance is 950 NIS")
	})

	t.Run("custom amount", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "w", "5", "200", "c", "q")

		assert.Contains(t, out, "Withdrawal successful!")
		assert.Contains(t, out, "Your current balance is 800 NIS")
	})

	t.Run("insufficient balance", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "w", "5", "1100", "c", "q")

		assert.Contains(t, out, "Transaction failed! Insufficient balance.")
		assert.Contains(t, out, "Your current balance is 1000 NIS")
	})

	t.Run("three bad custom amounts return to the menu", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "w", "5", "30", "30", "30", "c", "q")

		assert.Contains(t, out, "You have 2 attempts left.")
		assert.Contains(t, out, "Too many invalid attempts. Returning to ATM menu.")
		assert.Contains(t, out, "Your current balance is 1000 NIS")
	})

	t.Run("bad preset choice", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "w", "9", "q")

		assert.Contains(t, out, "Invalid choice!")
	})
}

func TestChangePIN(t *testing.T) {
	t.Run("accepts four digits and rotates", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "p", "8642", "q")

		assert.Contains(t, out, "PIN changed successfully!")
	})

	t.Run("rejects malformed PIN", func(t *testing.T) {
		out, _ := runSession(t, "Avi Cohen", "1234", "p", "12a", "q")

		assert.Contains(t, out, "Invalid PIN format!")
	})
}

func TestReceipt(t *testing.T) {
	out, _ := runSession(t, "Avi Cohen", "1234", "r", "q")

	assert.Contains(t, out, "Hello Avi Cohen,")
	assert.Contains(t, out, "You have 1000 NIS in your account.")
	assert.Contains(t, out, "Ref: ")
	assert.Contains(t, out, "Thank you for using the ATM!")
}

func TestEndOfInputEndsSessionCleanly(t *testing.T) {
	out, state := runSession(t, "Avi Cohen", "1234")

	assert.Contains(t, out, "ATM MENU")
	assert.Equal(t, session.Authenticated, state, "EOF leaves no way to quit explicitly")
}

func TestBoxPadsMultilineMessages(t *testing.T) {
	var out bytes.Buffer
	term := &Terminal{out: &out}
	term.box("short\na much longer line")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Len(t, line, len("a much longer line")+4)
	}
}
