// Package policy decides which caller may run which operation.
package policy

import (
	"taskhub/internal/common"
	"taskhub/internal/models"
)

type Action string

const (
	Register       Action = "register"
	Login          Action = "login"
	RefreshToken   Action = "refresh"
	CheckToken     Action = "check_token"
	ResetPassword  Action = "reset_password"
	SetNewPassword Action = "set_new_password"
	ValidateMail   Action = "validate_mail"
	Me             Action = "me"
	UpdateMe       Action = "update_me"
	ChangePassword Action = "change_password"
	ChangeEmail    Action = "change_email"
	ListUsers      Action = "user_list"
	RetrieveUser   Action = "user_retrieve"
	UpdateUser     Action = "user_update"
	PartialUpdate  Action = "user_partial_update"
	DestroyUser    Action = "user_destroy"
	CreateTask     Action = "task_create"
	ListTasks      Action = "task_list"
	RetrieveTask   Action = "task_retrieve"
	UpdateTask     Action = "task_update"
	DestroyTask    Action = "task_destroy"
	TaskDashboard  Action = "task_dashboard"
	TaskEvents     Action = "task_events"
)

type level int

const (
	anonymous level = iota
	authenticated
	superuser
)

var requirements = map[Action]level{
	Register:       anonymous,
	Login:          anonymous,
	RefreshToken:   anonymous,
	CheckToken:     anonymous,
	ResetPassword:  anonymous,
	SetNewPassword: anonymous,
	ValidateMail:   anonymous,

	Me:             authenticated,
	UpdateMe:       authenticated,
	ChangePassword: authenticated,
	ChangeEmail:    authenticated,

	ListUsers:     superuser,
	RetrieveUser:  superuser,
	UpdateUser:    superuser,
	PartialUpdate: superuser,
	DestroyUser:   superuser,

	CreateTask:    authenticated,
	ListTasks:     authenticated,
	RetrieveTask:  authenticated,
	UpdateTask:    authenticated,
	DestroyTask:   authenticated,
	TaskDashboard: authenticated,
	TaskEvents:    authenticated,
}

// Caller is the identity behind a request. A nil Caller is anonymous.
type Caller struct {
	UserID      string
	IsSuperuser bool
}

// CallerOf returns the Caller for an authenticated user.
func CallerOf(u *models.User) *Caller {
	if u == nil {
		return nil
	}
	return &Caller{UserID: u.ID, IsSuperuser: u.IsSuperuser}
}

// Allow returns nil when caller may run action, common.ErrUnauthorized when
// the action needs a login it does not have and common.ErrForbidden otherwise.
// Unknown actions are refused.
func Allow(action Action, caller *Caller) error {
	req, ok := requirements[action]
	if !ok {
		return common.ErrForbidden
	}
	switch req {
	case anonymous:
		return nil
	case authenticated:
		if caller == nil {
			return common.ErrUnauthorized
		}
		return nil
	default:
		if caller == nil {
			return common.ErrUnauthorized
		}
		if !caller.IsSuperuser {
			return common.ErrForbidden
		}
		return nil
	}
}

// CanModifyTask reports whether caller may update or delete task. Tasks whose
// owner was deleted belong to nobody.
func CanModifyTask(caller *Caller, task *models.Task) error {
	if caller == nil {
		return common.ErrUnauthorized
	}
	if !task.OwnedBy(caller.UserID) {
		return common.ErrForbidden
	}
	return nil
}
