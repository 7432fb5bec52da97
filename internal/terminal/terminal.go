// Package terminal drives the interactive exchange: it owns all prompts,
// menus and boxed status output, parses raw text into typed values, and
// forwards them to the session controller. Nothing here mutates account state
// directly, and no business rejection ever surfaces as anything but a boxed
// message.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"caspomat/internal/account/store"
	"caspomat/internal/account/validation"
	"caspomat/internal/session"
)

// ErrNotNumeric is reported when an amount prompt receives text that does not
// parse as an integer. It is an input error: the operation is abandoned and
// the session continues.
var ErrNotNumeric = errors.New("input is not a number")

// errAborted ends an amount entry after repeated bad input.
var errAborted = errors.New("amount entry abandoned")

// receiptTimeLayout renders timestamps as DD/MM/YYYY HH:MM:SS.
const receiptTimeLayout = "02/01/2006 15:04:05"

var withdrawalPresets = map[string]int64{"1": 50, "2": 100, "3": 150, "4": 300}

type Terminal struct {
	in     *bufio.Scanner
	out    io.Writer
	ctrl   *session.Controller
	logger *logrus.Entry
}

func New(in io.Reader, out io.Writer, ctrl *session.Controller, logger *logrus.Entry) *Terminal {
	return &Terminal{
		in:     bufio.NewScanner(in),
		out:    out,
		ctrl:   ctrl,
		logger: logger,
	}
}

// Run executes one complete customer session: a single login attempt followed
// by the menu loop. It returns nil on a normal quit, a failed login, or end
// of input.
func (t *Terminal) Run(ctx context.Context) error {
	name, ok := t.prompt("Enter your name (First Last): ")
	if !ok {
		return nil
	}
	if !t.ctrl.Recognizes(ctx, name) {
		// Drive the state machine through its one failed attempt.
		_ = t.ctrl.Login(ctx, name, "")
		t.box("User not found!")
		return nil
	}
	t.box(fmt.Sprintf("Welcome, %s", name))
	pin, ok := t.prompt("Enter your PIN: ")
	if !ok {
		return nil
	}
	if err := t.ctrl.Login(ctx, name, pin); err != nil {
		t.box("Invalid PIN! Access denied.")
		return nil
	}
	return t.menuLoop(ctx)
}

func (t *Terminal) menuLoop(ctx context.Context) error {
	for t.ctrl.State() == session.Authenticated {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.printMenu()
		raw, ok := t.prompt("Select an option: ")
		if !ok {
			return nil
		}
		op, err := session.ParseOp(raw)
		if err != nil {
			t.box("Invalid option! Try again.")
			continue
		}
		switch op {
		case session.OpDeposit:
			t.deposit(ctx)
		case session.OpWithdraw:
			t.withdraw(ctx)
		case session.OpBalance:
			t.balance(ctx)
		case session.OpChangePIN:
			t.changePIN(ctx)
		case session.OpReceipt:
			t.receipt(ctx)
		case session.OpQuit:
			identity := t.ctrl.Identity()
			t.ctrl.Quit()
			t.box(fmt.Sprintf("GOODBYE %s, HAVE A NICE DAY", identity))
		}
	}
	return nil
}

func (t *Terminal) deposit(ctx context.Context) {
	amount, err := t.promptAmount("How much would you like to deposit? ")
	if err != nil {
		t.box("Invalid input! Please enter a valid number.")
		return
	}
	_, err = t.ctrl.Deposit(ctx, amount)
	switch {
	case errors.Is(err, validation.ErrNotMultiple):
		t.box("Invalid amount! Must be a multiple of 20.")
	case errors.Is(err, store.ErrWriteFailed):
		t.box("Deposit successful!")
		t.warnNotSaved()
	case err != nil:
		t.fail("deposit", err)
	default:
		t.box("Deposit successful!")
	}
}

func (t *Terminal) withdraw(ctx context.Context) {
	t.box("Choose amount: 1 - 50, 2 - 100, 3 - 150, 4 - 300, 5 - Other")
	choice, ok := t.prompt("Select an option: ")
	if !ok {
		return
	}

	var (
		amount int64
		err    error
	)
	if preset, found := withdrawalPresets[choice]; found {
		_, err = t.ctrl.WithdrawPreset(ctx, preset)
	} else if choice == "5" {
		amount, err = t.customAmount()
		if err != nil {
			return
		}
		_, err = t.ctrl.Withdraw(ctx, amount)
	} else {
		t.box("Invalid choice!")
		return
	}

	switch {
	case errors.Is(err, validation.ErrNotMultiple):
		t.box("Invalid amount! Must be a multiple of 20.")
	case errors.Is(err, validation.ErrInsufficientFunds):
		t.box("Transaction failed! Insufficient balance.")
	case errors.Is(err, store.ErrWriteFailed):
		t.box("Withdrawal successful!")
		t.warnNotSaved()
	case err != nil:
		t.fail("withdraw", err)
	default:
		t.box("Withdrawal successful!")
	}
}

// customAmount gives the customer three tries to enter a well-formed amount.
// Non-numeric input abandons the withdrawal immediately.
func (t *Terminal) customAmount() (int64, error) {
	attempts := 3
	for attempts > 0 {
		amount, err := t.promptAmount("Enter amount (must be a multiple of 20): ")
		if err != nil {
			t.box("Invalid input! Please enter a valid number.")
			return 0, err
		}
		if validation.Amount(amount) == nil {
			return amount, nil
		}
		attempts--
		if attempts > 0 {
			t.box(fmt.Sprintf("Invalid amount! You have %d attempts left.", attempts))
		}
	}
	t.box("Too many invalid attempts. Returning to ATM menu.")
	return 0, errAborted
}

func (t *Terminal) balance(ctx context.Context) {
	balance, err := t.ctrl.Balance(ctx)
	if err != nil {
		t.fail("balance", err)
		return
	}
	t.box(fmt.Sprintf("Your current balance is %d NIS", balance))
}

func (t *Terminal) changePIN(ctx context.Context) {
	newPIN, ok := t.prompt("Enter new 4-digit PIN: ")
	if !ok {
		return
	}
	err := t.ctrl.ChangePIN(ctx, newPIN)
	switch {
	case errors.Is(err, validation.ErrBadPINFormat):
		t.box("Invalid PIN format!")
	case errors.Is(err, store.ErrWriteFailed):
		t.box("PIN changed successfully!")
		t.warnNotSaved()
	case err != nil:
		t.fail("change PIN", err)
	default:
		t.box("PIN changed successfully!")
	}
}

func (t *Terminal) receipt(ctx context.Context) {
	rec, err := t.ctrl.Receipt(ctx)
	if err != nil {
		t.fail("receipt", err)
		return
	}
	t.box(fmt.Sprintf("Hello %s,\nAt this moment DATE: %s\nYou have %d NIS in your account.\nRef: %s\nThank you for using the ATM!",
		rec.Identity, rec.IssuedAt.Format(receiptTimeLayout), rec.Balance, rec.Reference))
}

func (t *Terminal) printMenu() {
	t.box("ATM MENU")
	fmt.Fprintln(t.out, "| d - Deposit Money   |")
	fmt.Fprintln(t.out, "| w - Withdraw Money  |")
	fmt.Fprintln(t.out, "| c - Check Balance   |")
	fmt.Fprintln(t.out, "| p - Change PIN      |")
	fmt.Fprintln(t.out, "| r - Print Receipt   |")
	fmt.Fprintln(t.out, "| q - Quit            |")
	fmt.Fprintln(t.out, strings.Repeat("=", 25))
}

// box renders a bordered status message. Multi-line messages pad every line
// to the widest one.
func (t *Terminal) box(message string) {
	lines := strings.Split(message, "\n")
	width := 0
	for _, line := range lines {
		if len(line) > width {
			width = len(line)
		}
	}
	border := strings.Repeat("=", width+4)
	fmt.Fprintln(t.out, border)
	for _, line := range lines {
		fmt.Fprintf(t.out, "| %-*s |\n", width, line)
	}
	fmt.Fprintln(t.out, border)
}

func (t *Terminal) warnNotSaved() {
	t.box("Warning: changes were not saved to durable storage.")
}

// fail covers unexpected (non-business) errors: the customer gets a generic
// box, the operator gets the log line.
func (t *Terminal) fail(operation string, err error) {
	t.logger.WithError(err).Errorf("%s failed", operation)
	t.box("Something went wrong! Please try again.")
}

func (t *Terminal) prompt(label string) (string, bool) {
	fmt.Fprint(t.out, label)
	if !t.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.in.Text()), true
}

func (t *Terminal) promptAmount(label string) (int64, error) {
	raw, ok := t.prompt(label)
	if !ok {
		return 0, io.EOF
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrNotNumeric)
	}
	return amount, nil
}
