package scheduler

import (
	"context"
	"errors"
	"testing"

	notifmodels "go-standings/internal/notifications/models"
	standingsmodels "go-standings/internal/standings/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStandings struct {
	updateVersion string
	updateErr     error
	manager       *standingsmodels.SyncManager
	contactCount  int64
}

func (s *stubStandings) ListManagers(ctx context.Context) ([]*standingsmodels.SyncManager, error) {
	return nil, nil
}

func (s *stubStandings) GetManager(ctx context.Context, organizationID int64) (*standingsmodels.SyncManager, error) {
	return s.manager, nil
}

func (s *stubStandings) UpdateManager(ctx context.Context, organizationID int64, force bool) (string, error) {
	return s.updateVersion, s.updateErr
}

func (s *stubStandings) UpdateCharacter(ctx context.Context, characterID int64, force bool) (bool, error) {
	return true, nil
}

func (s *stubStandings) StaleCharacters(ctx context.Context, organizationID int64) ([]*standingsmodels.SyncedCharacter, error) {
	return nil, nil
}

func (s *stubStandings) ContactCount(ctx context.Context, organizationID int64) (int64, error) {
	return s.contactCount, nil
}

type notification struct {
	userID  string
	title   string
	message string
	level   string
}

type recordingNotifier struct {
	sent []notification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, title, message, level string) error {
	n.sent = append(n.sent, notification{userID: userID, title: title, message: message, level: level})
	return nil
}

func TestRunManagerSync_FailureReportOnFinalAttempt(t *testing.T) {
	standings := &stubStandings{
		updateErr: errors.New("esi is down"),
		manager: &standingsmodels.SyncManager{
			OrganizationID: 99000001,
			LastError:      standingsmodels.SyncErrorUnknown,
		},
	}
	notifier := &recordingNotifier{}
	x := &Executors{standings: standings, notifier: notifier}

	task := &Task{
		Type:           TaskManagerSync,
		OrganizationID: 99000001,
		NotifyUserID:   "user-1",
		Attempt:        maxAttempts - 1,
	}

	err := x.runManagerSync(context.Background(), task)
	require.Error(t, err, "the failure still propagates")

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "user-1", notifier.sent[0].userID)
	assert.Equal(t, notifmodels.LevelDanger, notifier.sent[0].level)
	assert.Contains(t, notifier.sent[0].message, standingsmodels.SyncErrorUnknown.String())
}

func TestRunManagerSync_NoReportWhileRetriesRemain(t *testing.T) {
	standings := &stubStandings{updateErr: errors.New("esi is down")}
	notifier := &recordingNotifier{}
	x := &Executors{standings: standings, notifier: notifier}

	task := &Task{
		Type:           TaskManagerSync,
		OrganizationID: 99000001,
		NotifyUserID:   "user-1",
		Attempt:        0,
	}

	err := x.runManagerSync(context.Background(), task)
	require.Error(t, err)
	assert.Empty(t, notifier.sent, "the engine will retry, no report yet")
}

func TestRunManagerSync_FailureReportOnAuthFailure(t *testing.T) {
	standings := &stubStandings{
		updateVersion: "",
		manager: &standingsmodels.SyncManager{
			OrganizationID: 99000001,
			LastError:      standingsmodels.SyncErrorTokenInvalid,
		},
	}
	notifier := &recordingNotifier{}
	x := &Executors{standings: standings, notifier: notifier}

	task := &Task{
		Type:           TaskManagerSync,
		OrganizationID: 99000001,
		NotifyUserID:   "user-1",
	}

	err := x.runManagerSync(context.Background(), task)
	require.NoError(t, err, "auth failures are terminal, not retried")

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notifmodels.LevelDanger, notifier.sent[0].level)
	assert.Contains(t, notifier.sent[0].message, standingsmodels.SyncErrorTokenInvalid.String())
}

func TestRunManagerSync_SuccessReport(t *testing.T) {
	standings := &stubStandings{
		updateVersion: "v1",
		contactCount:  42,
		manager:       &standingsmodels.SyncManager{OrganizationID: 99000001},
	}
	notifier := &recordingNotifier{}
	x := &Executors{standings: standings, notifier: notifier}

	task := &Task{
		Type:           TaskManagerSync,
		OrganizationID: 99000001,
		NotifyUserID:   "user-1",
	}

	err := x.runManagerSync(context.Background(), task)
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notifmodels.LevelSuccess, notifier.sent[0].level)
	assert.Contains(t, notifier.sent[0].message, "42")
}

func TestRunManagerSync_NoReportWithoutRequester(t *testing.T) {
	standings := &stubStandings{
		updateErr: errors.New("esi is down"),
		manager:   &standingsmodels.SyncManager{OrganizationID: 99000001},
	}
	notifier := &recordingNotifier{}
	x := &Executors{standings: standings, notifier: notifier}

	task := &Task{
		Type:           TaskManagerSync,
		OrganizationID: 99000001,
		Attempt:        maxAttempts - 1,
	}

	err := x.runManagerSync(context.Background(), task)
	require.Error(t, err)
	assert.Empty(t, notifier.sent)
}
