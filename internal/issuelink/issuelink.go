// Package issuelink links issue groups to tickets in externally integrated
// trackers on behalf of an installed app.
package issuelink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrValidation marks a malformed link request. Detected before any
// downstream call is made.
var ErrValidation = errors.New("invalid issue link request")

// ErrGroupNotFound marks a group that does not exist or is not visible to
// the installation's organization.
var ErrGroupNotFound = errors.New("group not found")

// ErrCommunication is the single error surfaced for any downstream
// failure. Downstream details are logged, never propagated: the remote
// service's errors are not this API's contract.
var ErrCommunication = errors.New("error communicating with app service")

// Installation is an app install scoped to one organization.
type Installation struct {
	ID             int64
	OrganizationID int64
	AppSlug        string
}

// Request carries one link request. GroupID, Action and URI are required;
// Fields passes through to the external tracker untouched.
type Request struct {
	GroupID int64
	Action  string
	URI     string
	Fields  map[string]interface{}
}

// ExternalIssue is the persisted link between a group and a tracker issue.
type ExternalIssue struct {
	ID          int64
	GroupID     int64
	InstallID   int64
	Key         string
	Title       string
	Description string
	WebURL      string
}

// GroupChecker verifies that a group exists within one organization's
// projects.
type GroupChecker interface {
	GroupInOrganization(ctx context.Context, groupID, orgID int64) (bool, error)
}

// Creator performs the downstream link creation against the app service.
type Creator interface {
	CreateIssueLink(ctx context.Context, install *Installation, req Request) (*ExternalIssue, error)
}

// Service validates and scopes link requests before handing them to the
// downstream creator.
type Service struct {
	groups  GroupChecker
	creator Creator
}

func NewService(groups GroupChecker, creator Creator) *Service {
	return &Service{groups: groups, creator: creator}
}

// Link creates an external issue link for the installation. Validation and
// the organization scope check both happen before the downstream call;
// a request that fails either never leaves the process.
func (s *Service) Link(ctx context.Context, install *Installation, req Request) (*ExternalIssue, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	ok, err := s.groups.GroupInOrganization(ctx, req.GroupID, install.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group visibility: %w", err)
	}
	if !ok {
		return nil, ErrGroupNotFound
	}

	issue, err := s.creator.CreateIssueLink(ctx, install, req)
	if err != nil {
		slog.Error("[IssueLink] Downstream link creation failed",
			"install_id", install.ID,
			"group_id", req.GroupID,
			"action", req.Action,
			"error", err)
		return nil, ErrCommunication
	}
	return issue, nil
}

func validate(req Request) error {
	var missing []string
	if req.GroupID == 0 {
		missing = append(missing, "groupId")
	}
	if req.Action == "" {
		missing = append(missing, "action")
	}
	if req.URI == "" {
		missing = append(missing, "uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrValidation, missing)
	}
	return nil
}
