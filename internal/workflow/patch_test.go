package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

func ptr[T any](v T) *T { return &v }

func draftRecord() *models.BlacklistRecord {
	return NewRecord(spamSubmission(models.RiskLow, "spam1", "user_report"), actorWith(models.RoleReporter), testNow, time.Hour)
}

func plan(t *testing.T, rec *models.BlacklistRecord, req *models.UpdateRequest, role models.Role) ([]Event, error) {
	t.Helper()
	patch, err := BuildPatch(req)
	require.NoError(t, err)
	return PlanUpdate(rec, patch, actorWith(role), testNow.Add(time.Hour))
}

func TestBuildPatchValidates(t *testing.T) {
	tests := []struct {
		name string
		req  *models.UpdateRequest
	}{
		{"unknown status", &models.UpdateRequest{Status: ptr(models.Status("archived"))}},
		{"unknown risk level", &models.UpdateRequest{RiskLevel: ptr(models.RiskLevel("extreme"))}},
		{"bad reason code", &models.UpdateRequest{ReasonCode: ptr("Spam")}},
		{"empty value", &models.UpdateRequest{Value: ptr("")}},
		{"unknown type", &models.UpdateRequest{Type: ptr(models.EntityType("car"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPatch(tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestBuildPatchNormalizesRegion(t *testing.T) {
	patch, err := BuildPatch(&models.UpdateRequest{Region: ptr("  ")})
	require.NoError(t, err)

	next := ApplyEvent(&models.BlacklistRecord{Region: regionPtr("CN")}, Event{Changes: patch.Changes})
	assert.Nil(t, next.Region)
}

func TestReporterCannotPublishDraft(t *testing.T) {
	_, err := plan(t, draftRecord(), &models.UpdateRequest{Status: ptr(models.StatusPublished)}, models.RoleReporter)

	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.NotErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestAdminPublishesDraftDirectly(t *testing.T) {
	rec := draftRecord()
	events, err := plan(t, rec, &models.UpdateRequest{Status: ptr(models.StatusPublished)}, models.RoleAdmin)
	require.NoError(t, err)

	next := ApplyEvents(rec, events)
	assert.Equal(t, models.StatusPublished, next.Status)
	last := next.Timeline[len(next.Timeline)-1]
	assert.Equal(t, models.ActionPublish, last.Action)
	assert.Equal(t, "draft -> published", last.Note)
}

func TestPublishedRecordLockedForNonAdmins(t *testing.T) {
	rec := draftRecord()
	rec.Status = models.StatusPublished

	for _, role := range []models.Role{models.RoleReporter, models.RoleReviewer} {
		_, err := plan(t, rec, &models.UpdateRequest{Value: ptr("new")}, role)
		assert.ErrorIs(t, err, apperrors.ErrPermission, role)
	}

	events, err := plan(t, rec, &models.UpdateRequest{Value: ptr("new")}, models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, "new", ApplyEvents(rec, events).Value)
}

func TestIllegalTransitionLeavesNoEvents(t *testing.T) {
	rec := draftRecord()
	rec.Status = models.StatusRetracted

	events, err := plan(t, rec, &models.UpdateRequest{Status: ptr(models.StatusPending)}, models.RoleSuperAdmin)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Nil(t, events)
}

func TestSourceAndStatusProduceTwoEntries(t *testing.T) {
	rec := draftRecord()
	events, err := plan(t, rec, &models.UpdateRequest{
		Status: ptr(models.StatusPending),
		Source: ptr("partner_feed"),
		Reason: ptr("more detail"),
	}, models.RoleReporter)
	require.NoError(t, err)
	require.Len(t, events, 2)

	next := ApplyEvents(rec, events)
	assert.Equal(t, models.StatusPending, next.Status)
	assert.Equal(t, "more detail", next.Reason)
	assert.Equal(t, []string{"user_report", "partner_feed"}, next.Sources)
	actions := []string{next.Timeline[1].Action, next.Timeline[2].Action}
	assert.Equal(t, []string{models.ActionMergeSource, models.ActionSubmit}, actions)
}

func TestFieldUpdateWithoutStatus(t *testing.T) {
	rec := draftRecord()
	events, err := plan(t, rec, &models.UpdateRequest{
		Status:    ptr(models.StatusDraft),
		RiskLevel: ptr(models.RiskHigh),
	}, models.RoleReporter)
	require.NoError(t, err)
	require.Len(t, events, 1)

	next := ApplyEvents(rec, events)
	assert.Equal(t, models.StatusDraft, next.Status)
	assert.Equal(t, models.RiskHigh, next.RiskLevel)
	assert.Equal(t, models.ActionUpdate, next.Timeline[1].Action)
	assert.Equal(t, "fields: risk_level", next.Timeline[1].Note)
}

func TestEmptyPatchStillRecordsUpdate(t *testing.T) {
	rec := draftRecord()
	events, err := plan(t, rec, &models.UpdateRequest{}, models.RoleReporter)
	require.NoError(t, err)
	require.Len(t, events, 1)

	next := ApplyEvents(rec, events)
	require.Len(t, next.Timeline, len(rec.Timeline)+1)
	assert.Equal(t, rec.Timeline, next.Timeline[:len(rec.Timeline)])
	assert.Equal(t, models.ActionUpdate, next.Timeline[1].Action)
	assert.Equal(t, "no field changes", next.Timeline[1].Note)
}

func TestSameStatusIsAnUpdate(t *testing.T) {
	rec := draftRecord()
	events, err := plan(t, rec, &models.UpdateRequest{Status: ptr(models.StatusDraft)}, models.RoleReporter)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionUpdate, events[0].Action)
	assert.Equal(t, models.StatusDraft, ApplyEvents(rec, events).Status)
}

func TestSourceOnlyPatchAddsUpdateEntry(t *testing.T) {
	rec := draftRecord()
	events, err := plan(t, rec, &models.UpdateRequest{Source: ptr("partner_feed")}, models.RoleReporter)
	require.NoError(t, err)

	next := ApplyEvents(rec, events)
	actions := []string{next.Timeline[1].Action, next.Timeline[2].Action}
	assert.Equal(t, []string{models.ActionMergeSource, models.ActionUpdate}, actions)
	assert.Equal(t, []string{"user_report", "partner_feed"}, next.Sources)
}

func TestMovesKey(t *testing.T) {
	tests := []struct {
		name string
		req  *models.UpdateRequest
		want bool
	}{
		{"value", &models.UpdateRequest{Value: ptr("x@y.com")}, true},
		{"type", &models.UpdateRequest{Type: ptr(models.EntityDomain)}, true},
		{"reason code", &models.UpdateRequest{ReasonCode: ptr("fraud.payment")}, true},
		{"region cleared", &models.UpdateRequest{Region: ptr("")}, true},
		{"risk only", &models.UpdateRequest{RiskLevel: ptr(models.RiskHigh)}, false},
		{"status only", &models.UpdateRequest{Status: ptr(models.StatusPending)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := BuildPatch(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, patch.MovesKey())
		})
	}
}

func TestKeyFor(t *testing.T) {
	rec := draftRecord()
	patch, err := BuildPatch(&models.UpdateRequest{Value: ptr(" x@y.com ")})
	require.NoError(t, err)

	key := patch.KeyFor(rec)
	assert.Equal(t, models.MergeKey{Type: rec.Type, Value: "x@y.com", ReasonCode: rec.ReasonCode}, key)
	assert.Equal(t, "spam1", rec.Reason)
	assert.Len(t, rec.Timeline, 1)
}
