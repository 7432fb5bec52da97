package session

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"caspomat/internal/account/models"
	"caspomat/internal/account/service"
	"caspomat/internal/account/store"
	"caspomat/internal/account/validation"
)

type ControllerSuite struct {
	suite.Suite
	ctrl *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	st := store.NewInMemoryAccountStoreWith(map[string]models.Account{
		"Avi Cohen": {Identity: "Avi Cohen", PIN: "1234", Balance: 1000},
	})
	svc, err := service.New(st, service.WithLogger(discardLogger()))
	s.Require().NoError(err)
	s.ctrl = New(svc, discardLogger())
}

func discardLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func (s *ControllerSuite) login() {
	s.Require().NoError(s.ctrl.Login(context.Background(), "Avi Cohen", "1234"))
}

func (s *ControllerSuite) TestLogin() {
	ctx := context.Background()

	s.Run("success reaches Authenticated", func() {
		s.Equal(Unauthenticated, s.ctrl.State())
		s.login()
		s.Equal(Authenticated, s.ctrl.State())
		s.Equal("Avi Cohen", s.ctrl.Identity())
	})

	s.Run("second login attempt is rejected", func() {
		s.Require().ErrorIs(s.ctrl.Login(ctx, "Avi Cohen", "1234"), ErrTerminated)
	})
}

func (s *ControllerSuite) TestLoginFailureTerminates() {
	ctx := context.Background()

	s.Run("unknown identity", func() {
		err := s.ctrl.Login(ctx, "Unknown Person", "0000")
		s.Require().ErrorIs(err, service.ErrUnknownIdentity)
		s.Equal(Terminated, s.ctrl.State())
	})

	s.Run("no retry after failure", func() {
		s.Require().ErrorIs(s.ctrl.Login(ctx, "Avi Cohen", "1234"), ErrTerminated)
		s.Equal(Terminated, s.ctrl.State())
	})
}

func (s *ControllerSuite) TestWrongPINTerminates() {
	err := s.ctrl.Login(context.Background(), "Avi Cohen", "4321")
	s.Require().ErrorIs(err, service.ErrWrongPIN)
	s.Equal(Terminated, s.ctrl.State())
}

func (s *ControllerSuite) TestOperationsRequireAuthentication() {
	ctx := context.Background()

	_, err := s.ctrl.Deposit(ctx, 40)
	s.Require().ErrorIs(err, ErrNotAuthenticated)
	_, err = s.ctrl.Withdraw(ctx, 40)
	s.Require().ErrorIs(err, ErrNotAuthenticated)
	_, err = s.ctrl.Balance(ctx)
	s.Require().ErrorIs(err, ErrNotAuthenticated)
	s.Require().ErrorIs(s.ctrl.ChangePIN(ctx, "8642"), ErrNotAuthenticated)
	_, err = s.ctrl.Receipt(ctx)
	s.Require().ErrorIs(err, ErrNotAuthenticated)
}

func (s *ControllerSuite) TestAuthenticatedOperations() {
	ctx := context.Background()
	s.login()

	s.Run("deposit routes to the account service", func() {
		balance, err := s.ctrl.Deposit(ctx, 40)
		s.Require().NoError(err)
		s.Equal(int64(1040), balance)
	})

	s.Run("rejected operations keep the session alive", func() {
		_, err := s.ctrl.Withdraw(ctx, 35)
		s.Require().ErrorIs(err, validation.ErrNotMultiple)
		s.Equal(Authenticated, s.ctrl.State())
	})

	s.Run("receipt carries the session identity", func() {
		receipt, err := s.ctrl.Receipt(ctx)
		s.Require().NoError(err)
		s.Equal("Avi Cohen", receipt.Identity)
	})
}

func (s *ControllerSuite) TestQuit() {
	ctx := context.Background()
	s.login()

	s.ctrl.Quit()
	s.Equal(Terminated, s.ctrl.State())

	_, err := s.ctrl.Balance(ctx)
	s.Require().ErrorIs(err, ErrNotAuthenticated)
}

func (s *ControllerSuite) TestRecognizes() {
	ctx := context.Background()

	s.True(s.ctrl.Recognizes(ctx, "Avi Cohen"))
	s.False(s.ctrl.Recognizes(ctx, "Unknown Person"))
	s.Equal(Unauthenticated, s.ctrl.State(), "recognition is not authentication")
}

func (s *ControllerSuite) TestParseOp() {
	for raw, want := range map[string]Op{
		"d": OpDeposit, "w": OpWithdraw, "c": OpBalance,
		"p": OpChangePIN, "r": OpReceipt, "q": OpQuit,
		"D": OpDeposit, " q ": OpQuit,
	} {
		op, err := ParseOp(raw)
		s.Require().NoError(err, "input %q", raw)
		s.Equal(want, op)
	}

	for _, raw := range []string{"", "x", "dd", "1"} {
		_, err := ParseOp(raw)
		s.Require().ErrorIs(err, ErrUnknownOperation, "input %q", raw)
	}
}

func (s *ControllerSuite) TestStateString() {
	s.Equal("unauthenticated", Unauthenticated.String())
	s.Equal("authenticated", Authenticated.String())
	s.Equal("terminated", Terminated.String())
}
