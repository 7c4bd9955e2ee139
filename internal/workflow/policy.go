package workflow

import "github.com/blacklisthub/blacklisthub-backend/internal/models"

// TransitionKind classifies a requested status change
type TransitionKind int

const (
	TransitionIllegal TransitionKind = iota
	TransitionAllowed
	// TransitionFastPath is draft -> published, reserved for admins
	TransitionFastPath
)

var transitions = map[models.Status][]models.Status{
	models.StatusDraft:     {models.StatusPending, models.StatusRetracted},
	models.StatusPending:   {models.StatusPublished, models.StatusRejected},
	models.StatusPublished: {models.StatusRetracted},
	models.StatusRejected:  {models.StatusPending, models.StatusRetracted},
	models.StatusRetracted: {},
}

// privileged target states require a reviewer or higher
var privilegedTargets = map[models.Status]bool{
	models.StatusPublished: true,
	models.StatusRejected:  true,
	models.StatusRetracted: true,
}

var actionByTarget = map[models.Status]string{
	models.StatusPending:   models.ActionSubmit,
	models.StatusPublished: models.ActionPublish,
	models.StatusRejected:  models.ActionReject,
	models.StatusRetracted: models.ActionRetract,
}

// Classify looks up from -> to in the transition table
func Classify(from, to models.Status) TransitionKind {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return TransitionAllowed
		}
	}
	if from == models.StatusDraft && to == models.StatusPublished {
		return TransitionFastPath
	}
	return TransitionIllegal
}

// AllowedTargets returns the statuses reachable from from through the table
func AllowedTargets(from models.Status) []models.Status {
	return append([]models.Status(nil), transitions[from]...)
}

// CanEnter reports whether role may move a record into status to
func CanEnter(role models.Role, to models.Status) bool {
	if !privilegedTargets[to] {
		return role.Valid()
	}
	return role.CanReview()
}

// CanUseFastPath reports whether role may publish a draft directly
func CanUseFastPath(role models.Role) bool {
	return role.IsAdmin()
}

// CanEditPublished reports whether role may modify a published record at all
func CanEditPublished(role models.Role) bool {
	return role.IsAdmin()
}

// CheckEditable rejects any modification of a published record by a non-admin
func CheckEditable(record *models.BlacklistRecord, actor *models.Actor) error {
	if record.Status == models.StatusPublished && !CanEditPublished(actor.Role) {
		return forbidden("published records can only be modified by administrators")
	}
	return nil
}

// CanDelete reports whether role may hard-delete records
func CanDelete(role models.Role) bool {
	return role.IsAdmin()
}

// ActionFor maps a target status to its timeline action
func ActionFor(to models.Status) string {
	if action, ok := actionByTarget[to]; ok {
		return action
	}
	return models.ActionUpdate
}

// Authorize checks a status change by actor against the table and the role gates.
// The returned error is an *apperrors.Error.
func Authorize(actor *models.Actor, from, to models.Status) error {
	switch Classify(from, to) {
	case TransitionIllegal:
		return illegal(from, to)
	case TransitionFastPath:
		if !CanUseFastPath(actor.Role) {
			return forbidden("role %s cannot publish a draft directly", actor.Role)
		}
	}
	if !CanEnter(actor.Role, to) {
		return forbidden("role %s cannot move a record to %s", actor.Role, to)
	}
	return nil
}
