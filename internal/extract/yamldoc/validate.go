package yamldoc

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one lint finding.
type Issue struct {
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

var yamlErrLineRe = regexp.MustCompile(`line (\d+)`)

// Validate lints content: decode errors, tab indentation and indentation that
// is not a multiple of two.
func Validate(content string) []Issue {
	issues := []Issue{}
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		issues = append(issues, Issue{Line: errorLine(err), Message: err.Error(), Severity: SeverityError})
	}
	for i, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if strings.Contains(indent, "\t") {
			issues = append(issues, Issue{Line: i + 1, Message: "tab used for indentation", Severity: SeverityError})
			continue
		}
		if len(indent)%2 != 0 {
			issues = append(issues, Issue{Line: i + 1, Message: "indentation is not a multiple of two spaces", Severity: SeverityWarning})
		}
	}
	return issues
}

func errorLine(err error) int {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		err = errors.New(te.Errors[0])
	}
	if m := yamlErrLineRe.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
