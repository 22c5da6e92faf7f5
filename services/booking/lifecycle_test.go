package booking

import (
	"context"
	"errors"
	"testing"

	"fixserv/config"
	"fixserv/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptedBooking drives a fresh booking to ASSIGNED (self-performed by p1)
// and returns it with its secrets still set.
func acceptedBooking(t *testing.T, svc *DefaultBookingService, repo *memBookingRepo) *models.Booking {
	t.Helper()
	b, err := svc.CreateBooking(context.Background(), createReq("c1"))
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), b.ID, "p1")
	require.NoError(t, err)
	_, err = svc.AssignWorker(context.Background(), b.ID, "p1", "")
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	return got
}

func provider(id string) Actor {
	return Actor{Role: models.RoleProvider, ID: id}
}

func customer(id string) Actor {
	return Actor{Role: models.RoleCustomer, ID: id}
}

// workDoneBooking drives a booking through the milestones to WORK_DONE.
func workDoneBooking(t *testing.T, svc *DefaultBookingService, repo *memBookingRepo, paymentMethod string) *models.Booking {
	t.Helper()
	req := createReq("c1")
	req.PaymentMethod = paymentMethod
	b, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), b.ID, "p1")
	require.NoError(t, err)
	_, err = svc.AssignWorker(context.Background(), b.ID, "p1", "")
	require.NoError(t, err)
	full, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)

	_, err = svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), full.VisitCode)
	require.NoError(t, err)
	_, err = svc.MarkWorkDone(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)
	return full
}

func TestVisitVerificationFlow(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := acceptedBooking(t, svc, repo)

	_, err := svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)

	// Wrong code leaves the booking untouched.
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), "000000")
	var badCode *InvalidVerificationCodeError
	require.ErrorAs(t, err, &badCode)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusJourneyStarted, got.Status)
	assert.NotEmpty(t, got.VisitCode)

	// Right code advances and clears the secret in the same step.
	visited, err := svc.VerifyVisit(context.Background(), b.ID, provider("p1"), b.VisitCode)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVisited, visited.Status)
	assert.Empty(t, visited.VisitCode)
	assert.NotNil(t, visited.VisitedAt)

	// A consumed code never verifies again.
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), b.VisitCode)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestVisitVerificationOnlyByPerformer(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := acceptedBooking(t, svc, repo)

	_, err := svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)

	// A worker is not assigned on a self-performed job.
	_, err = svc.VerifyVisit(context.Background(), b.ID, Actor{Role: models.RoleWorker, ID: "w1"}, b.VisitCode)
	var notParty *NotPartyError
	require.ErrorAs(t, err, &notParty)
}

func TestDelegatedJobMilestonesBelongToWorker(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, nearbyProviders("p1", "p2"))

	b, err := svc.CreateBooking(context.Background(), createReq("c1"))
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), b.ID, "p1")
	require.NoError(t, err)
	_, err = svc.AssignWorker(context.Background(), b.ID, "p1", "w1")
	require.NoError(t, err)

	// The provider delegated the job, so the worker drives milestones.
	_, err = svc.StartJourney(context.Background(), b.ID, provider("p1"))
	var notParty *NotPartyError
	require.ErrorAs(t, err, &notParty)

	_, err = svc.StartJourney(context.Background(), b.ID, Actor{Role: models.RoleWorker, ID: "w1"})
	require.NoError(t, err)
}

func TestCollectCashFlow(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := acceptedBooking(t, svc, repo)

	_, err := svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), b.VisitCode)
	require.NoError(t, err)
	_, err = svc.StartWork(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)
	_, err = svc.MarkWorkDone(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)

	// Wrong payment code: no ledger effect, no completion.
	_, err = svc.CollectCash(context.Background(), b.ID, provider("p1"), "000000")
	var badCode *InvalidVerificationCodeError
	require.ErrorAs(t, err, &badCode)
	assert.Empty(t, wallet.cashCalls)

	done, err := svc.CollectCash(context.Background(), b.ID, provider("p1"), b.PaymentCode)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Empty(t, done.PaymentCode)
	assert.Equal(t, []string{b.ID}, wallet.cashCalls)
}

func TestCollectCashRejectsCardBooking(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))

	req := createReq("c1")
	req.PaymentMethod = "card"
	b, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), b.ID, "p1")
	require.NoError(t, err)
	_, err = svc.AssignWorker(context.Background(), b.ID, "p1", "")
	require.NoError(t, err)
	full, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)

	_, err = svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), full.VisitCode)
	require.NoError(t, err)
	_, err = svc.MarkWorkDone(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)

	_, err = svc.CollectCash(context.Background(), b.ID, provider("p1"), full.PaymentCode)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, wallet.cashCalls)
}

func TestCompleteOnlineByCustomerAfterPayment(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := workDoneBooking(t, svc, repo, "card")

	_, err := svc.CompleteOnline(context.Background(), b.ID, customer("c1"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr, "no gateway result recorded yet")
	assert.Empty(t, wallet.creditCalls)

	require.NoError(t, repo.SetPaymentResult(context.Background(), b.ID, "succeeded", "pi_test"))

	// The paying customer closes out the job once the charge succeeded.
	done, err := svc.CompleteOnline(context.Background(), b.ID, customer("c1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, []string{b.ID}, wallet.creditCalls)
}

func TestCompleteOnlineRejectsOtherCustomers(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := workDoneBooking(t, svc, repo, "card")
	require.NoError(t, repo.SetPaymentResult(context.Background(), b.ID, "succeeded", "pi_test"))

	_, err := svc.CompleteOnline(context.Background(), b.ID, customer("c2"))
	var notParty *NotPartyError
	require.ErrorAs(t, err, &notParty)
	assert.Empty(t, wallet.creditCalls)
}

func TestCompleteOnlineByPerformer(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := workDoneBooking(t, svc, repo, "card")
	require.NoError(t, repo.SetPaymentResult(context.Background(), b.ID, "succeeded", "pi_test"))

	done, err := svc.CompleteOnline(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, []string{b.ID}, wallet.creditCalls)
}

func TestCollectCashAfterCancelHasNoLedgerEffect(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := workDoneBooking(t, svc, repo, "cash")

	_, err := svc.Cancel(context.Background(), b.ID, customer("c1"), "changed my mind")
	require.NoError(t, err)

	// The handover lost the race: no completion, no credit.
	_, err = svc.CollectCash(context.Background(), b.ID, provider("p1"), b.PaymentCode)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, wallet.cashCalls)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestCollectCashRetriesLedgerAfterWalletError(t *testing.T) {
	repo := newMemBookingRepo()
	svc, wallet, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := workDoneBooking(t, svc, repo, "cash")

	wallet.setErr(errors.New("wallet store unavailable"))
	_, err := svc.CollectCash(context.Background(), b.ID, provider("p1"), b.PaymentCode)
	require.Error(t, err)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status, "the handover itself stood")
	assert.Empty(t, wallet.cashCalls)

	// A retry skips the consumed code and just replays the ledger call.
	wallet.setErr(nil)
	done, err := svc.CollectCash(context.Background(), b.ID, provider("p1"), "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, []string{b.ID}, wallet.cashCalls)
}

func TestCodeAttemptsLockOut(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	svc.Attempts = newMemAttemptGuard()
	svc.MaxCodeAttempts = 3
	b := acceptedBooking(t, svc, repo)

	_, err := svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)

	var badCode *InvalidVerificationCodeError
	for i := 0; i < 3; i++ {
		_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), "000000")
		require.ErrorAs(t, err, &badCode)
	}

	// At the cap even the right code is refused.
	var tooMany *TooManyAttemptsError
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), b.VisitCode)
	require.ErrorAs(t, err, &tooMany)
}

func TestCodeAttemptsResetOnSuccess(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	guard := newMemAttemptGuard()
	svc.Attempts = guard
	svc.MaxCodeAttempts = 3
	b := acceptedBooking(t, svc, repo)

	_, err := svc.StartJourney(context.Background(), b.ID, provider("p1"))
	require.NoError(t, err)

	var badCode *InvalidVerificationCodeError
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), "000000")
	require.ErrorAs(t, err, &badCode)
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), "111111")
	require.ErrorAs(t, err, &badCode)

	visited, err := svc.VerifyVisit(context.Background(), b.ID, provider("p1"), b.VisitCode)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVisited, visited.Status)

	n, err := guard.Failures(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "a successful verification clears the counter")
}

func TestOTPBypassOnlyWhenEnabled(t *testing.T) {
	config.AppConfig.OTPBypassEnabled = false
	config.AppConfig.OTPBypassCode = "999999"
	assert.False(t, codeMatches("123456", "999999"))

	config.AppConfig.OTPBypassEnabled = true
	assert.True(t, codeMatches("123456", "999999"))
	assert.True(t, codeMatches("123456", "123456"))
	assert.False(t, codeMatches("123456", "111111"))

	// A cleared secret only matches the bypass, never the empty string.
	assert.False(t, codeMatches("", ""))
	config.AppConfig.OTPBypassEnabled = false
	config.AppConfig.OTPBypassCode = ""
}

func TestMilestoneOutOfOrderFails(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, nearbyProviders("p1", "p2"))
	b := acceptedBooking(t, svc, repo)

	// Cannot mark work done before visiting.
	_, err := svc.MarkWorkDone(context.Background(), b.ID, provider("p1"))
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	// Cannot verify the visit before the journey started.
	_, err = svc.VerifyVisit(context.Background(), b.ID, provider("p1"), b.VisitCode)
	require.ErrorAs(t, err, &invalid)
}
