package event

import (
	"context"
	"regexp"
	"strings"
)

// defaultSubjectTemplate renders like "BACKEND-4K - connection reset".
const defaultSubjectTemplate = "$shortID - $title"

// subjectMaxLength caps rendered subjects for mail transports.
const subjectMaxLength = 128

// subjectVarPattern matches $name and ${name}, where name may carry a
// "tag:" prefix for tag lookups.
var subjectVarPattern = regexp.MustCompile(`\$(?:\{((?:tag:)?[_a-zA-Z][_a-zA-Z0-9]*)\}|((?:tag:)?[_a-zA-Z][_a-zA-Z0-9]*))`)

// subjectTagAliases maps short tag names in templates onto their internal
// keys.
var subjectTagAliases = map[string]string{
	"release": "sentry:release",
	"dist":    "sentry:dist",
	"user":    "sentry:user",
}

// EmailSubject renders the notification subject line from the project's
// subject template (option "mail:subject_template"), or the default
// template when the project has none. Unresolvable variables are left in
// place; the result is truncated to 128 characters.
func (e *Event) EmailSubject(ctx context.Context) (string, error) {
	project, err := e.Project(ctx)
	if err != nil {
		return "", err
	}

	template := project.Options["mail:subject_template"]
	if template == "" {
		template = defaultSubjectTemplate
	}

	var resolveErr error
	rendered := subjectVarPattern.ReplaceAllStringFunc(template, func(match string) string {
		groups := subjectVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}

		value, ok, err := e.subjectVar(ctx, project, name)
		if err != nil {
			resolveErr = err
			return match
		}
		if !ok {
			return match
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}

	return truncate(rendered, subjectMaxLength), nil
}

func (e *Event) subjectVar(ctx context.Context, project *Project, name string) (string, bool, error) {
	if tag, ok := strings.CutPrefix(name, "tag:"); ok {
		if alias, ok := subjectTagAliases[tag]; ok {
			tag = alias
		}
		value, err := e.GetTag(ctx, tag)
		if err != nil {
			return "", false, err
		}
		return value, value != "", nil
	}

	switch name {
	case "project":
		return project.Name, true, nil
	case "projectID":
		return project.Slug, true, nil
	case "orgID":
		return project.OrgSlug, true, nil
	case "shortID":
		group, err := e.Group(ctx)
		if err != nil {
			return "", false, err
		}
		return group.ShortID, true, nil
	case "title":
		title, err := e.Title(ctx)
		if err != nil {
			return "", false, err
		}
		return title, true, nil
	}
	return "", false, nil
}
