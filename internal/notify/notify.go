// Package notify derives task statistics and the transient notices shown
// from them.
package notify

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"taskdeck/internal/model"
)

// DefaultDuration is how long a notice stays up without being dismissed.
const DefaultDuration = 5 * time.Second

type Summary struct {
	Total                int
	Completed            int
	IncompleteCount      int
	Overdue              []model.Task
	Upcoming             []model.Task
	CompletionPercentage int
}

// Summarize computes the statistics of tasks at now. A due date is a UTC
// midnight, so a task due today is overdue once that instant has passed.
func Summarize(tasks []model.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
			continue
		}
		s.IncompleteCount++
		if !t.DueDate.Valid {
			continue
		}
		if t.DueDate.Before(now) {
			s.Overdue = append(s.Overdue, t)
		} else {
			s.Upcoming = append(s.Upcoming, t)
		}
	}
	if s.Total > 0 {
		pct := int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
		s.CompletionPercentage = min(max(pct, 0), 100)
	}
	return s
}

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Kind string

const (
	KindOverdue    Kind = "overdue"
	KindIncomplete Kind = "incomplete"
)

// Notice is one transient message. ID is derived from the data it
// describes, so recomputing from unchanged tasks yields the same ID.
type Notice struct {
	ID       string
	Kind     Kind
	Severity Severity
	Message  string
}

// Notices returns the notices for s, overdue first.
func Notices(s Summary) []Notice {
	var out []Notice
	if n := len(s.Overdue); n > 0 {
		out = append(out, notice(KindOverdue, Warning, n, "overdue"))
	}
	if n := s.IncompleteCount; n > 0 {
		out = append(out, notice(KindIncomplete, Info, n, "incomplete"))
	}
	return out
}

func notice(kind Kind, sev Severity, n int, adjective string) Notice {
	noun := "tasks"
	if n == 1 {
		noun = "task"
	}
	return Notice{
		ID:       fmt.Sprintf("%s:%d", kind, n),
		Kind:     kind,
		Severity: sev,
		Message:  fmt.Sprintf("%d %s %s", n, adjective, noun),
	}
}

type shown struct {
	Notice
	expires time.Time
}

// Board holds the notices currently on screen. A notice that was dismissed
// or expired is not shown again for the same ID.
type Board struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	live    map[string]shown
	retired map[string]struct{}
}

// NewBoard returns a board whose notices last ttl. A nil clock means
// time.Now; a non-positive ttl means DefaultDuration.
func NewBoard(ttl time.Duration, clock func() time.Time) *Board {
	if ttl <= 0 {
		ttl = DefaultDuration
	}
	if clock == nil {
		clock = time.Now
	}
	return &Board{
		ttl:     ttl,
		now:     clock,
		live:    map[string]shown{},
		retired: map[string]struct{}{},
	}
}

// Sync makes notices the current set. New IDs are shown until now+ttl;
// IDs already on the board keep their first expiry. Live notices
// missing from the set are dropped since the data they describe changed.
func (b *Board) Sync(notices []Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	current := make(map[string]struct{}, len(notices))
	for _, n := range notices {
		current[n.ID] = struct{}{}
		if _, ok := b.live[n.ID]; ok {
			continue
		}
		if _, ok := b.retired[n.ID]; ok {
			continue
		}
		b.live[n.ID] = shown{Notice: n, expires: now.Add(b.ttl)}
	}
	for id := range b.live {
		if _, ok := current[id]; !ok {
			delete(b.live, id)
		}
	}
}

// Dismiss hides id. Dismissing an unknown or already dismissed id is a
// no-op.
func (b *Board) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.live, id)
	b.retired[id] = struct{}{}
}

// Prune retires expired notices and reports whether any were removed.
func (b *Board) Prune() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	removed := false
	for id, s := range b.live {
		if !now.Before(s.expires) {
			delete(b.live, id)
			b.retired[id] = struct{}{}
			removed = true
		}
	}
	return removed
}

// Active returns the unexpired notices, highest severity first.
func (b *Board) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	out := make([]Notice, 0, len(b.live))
	for _, s := range b.live {
		if now.Before(s.expires) {
			out = append(out, s.Notice)
		}
	}
	slices.SortFunc(out, func(x, y Notice) int {
		if c := cmp.Compare(y.Severity, x.Severity); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

// Reset forgets every notice, including dismissed ones.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.live)
	clear(b.retired)
}
