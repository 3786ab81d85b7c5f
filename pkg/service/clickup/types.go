package clickup

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
)

// Service provides interface to the ClickUp API
type Service interface {
	// Identity returns the user ID of the token's own principal
	Identity(ctx context.Context) (types.UserID, error)
	// TeamMembers returns the members of the configured team
	TeamMembers(ctx context.Context) ([]model.Member, error)
	// TimeEntries lists time entries for one assignee within [start, end]
	TimeEntries(ctx context.Context, assignee types.UserID, start, end time.Time) ([]*TimeEntry, error)
	// CurrentTimeEntry returns the running entry of the authenticated user,
	// or nil if no timer is running. Only reliable for the token's own user.
	CurrentTimeEntry(ctx context.Context) (*TimeEntry, error)
	// TimeEntry fetches full detail of a single entry
	TimeEntry(ctx context.Context, id string) (*TimeEntry, error)
}

// TimeEntry represents one ClickUp time entry. Scalar fields use Millis
// because the API has returned them as numbers in some revisions and as
// decimal strings in others.
type TimeEntry struct {
	ID          string   `json:"id"`
	Task        *TaskRef `json:"task"`
	TaskName    string   `json:"task_name"`
	Description string   `json:"description"`
	Start       Millis   `json:"start"`
	End         Millis   `json:"end"`
	Stop        Millis   `json:"stop"`
	Duration    Millis   `json:"duration"`
}

// TaskRef is the task linked to a time entry
type TaskRef struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// Millis is a Unix-milliseconds (or plain integer) value that tolerates
// number, decimal-string, and null encodings. OK reports whether the field
// was present and non-null.
type Millis struct {
	Value int64
	OK    bool
}

// NewMillis returns a present Millis with the given value.
func NewMillis(v int64) Millis {
	return Millis{Value: v, OK: true}
}

func (x *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*x = Millis{}
		return nil
	}

	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return goerr.Wrap(err, "invalid string value", goerr.V("raw", string(data)))
		}
		if s == "" {
			*x = Millis{}
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return goerr.Wrap(err, "invalid numeric string", goerr.V("raw", s))
		}
		*x = Millis{Value: v, OK: true}
		return nil
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid number", goerr.V("raw", string(data)))
	}
	*x = Millis{Value: v, OK: true}
	return nil
}

// Time converts the value to a time.Time. Zero time if not present.
func (x Millis) Time() time.Time {
	if !x.OK {
		return time.Time{}
	}
	return time.UnixMilli(x.Value)
}

// FlexString accepts both JSON strings and bare numbers, coercing numbers
// to their decimal string form. ClickUp IDs appear in both encodings.
type FlexString string

func (x *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*x = ""
		return nil
	}

	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return goerr.Wrap(err, "invalid string value", goerr.V("raw", string(data)))
		}
		*x = FlexString(s)
		return nil
	}

	*x = FlexString(data)
	return nil
}

func (x FlexString) String() string {
	return string(x)
}

// RateLimitError indicates the upstream responded with HTTP 429.
// RetryAfter is zero when the response carried no Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (x *RateLimitError) Error() string {
	if x.RetryAfter > 0 {
		return fmt.Sprintf("clickup rate limited (retry after %s)", x.RetryAfter)
	}
	return "clickup rate limited"
}
