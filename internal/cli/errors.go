package cli

import (
	"fmt"
	"strings"
)

type invalidArgError struct {
	name  string
	value string
	want  []string
}

func (e invalidArgError) Error() string {
	return fmt.Sprintf("invalid %s %q (want one of %s)", e.name, e.value, strings.Join(e.want, ", "))
}

func errInvalidArg(name, value string, want ...string) error {
	return invalidArgError{name: name, value: value, want: want}
}

type jobFailedError struct {
	jobID   string
	status  string
	message string
}

func (e jobFailedError) Error() string {
	if e.message == "" || e.message == e.status {
		return fmt.Sprintf("job %s ended %s", e.jobID, e.status)
	}
	return fmt.Sprintf("job %s ended %s: %s", e.jobID, e.status, e.message)
}
