package archive

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// SyncReport summarizes one Sync run.
type SyncReport struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Users     map[string]*UserReport
}

// UserReport is the outcome of a Sync run for one player.
type UserReport struct {
	// CatalogErr is set when the player's months could not be listed.
	CatalogErr error
	// Planned are the months selected for download.
	Planned []string
	// Months maps each attempted month to its error, nil on success.
	Months map[string]error
}

// Fetched returns the months written successfully, sorted.
func (u *UserReport) Fetched() []string {
	var out []string
	for m, err := range u.Months {
		if err == nil {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// Failure is one failed unit of a Sync run. Month is empty for catalog
// failures.
type Failure struct {
	Username string
	Month    string
	Err      error
}

func (f Failure) Error() string {
	if f.Month == "" {
		return fmt.Sprintf("%s: %v", f.Username, f.Err)
	}
	return fmt.Sprintf("%s %s: %v", f.Username, f.Month, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Failed lists every failure, ordered by username then month.
func (r *SyncReport) Failed() []Failure {
	var out []Failure
	for username, u := range r.Users {
		if u.CatalogErr != nil {
			out = append(out, Failure{Username: username, Err: u.CatalogErr})
		}
		for m, err := range u.Months {
			if err != nil {
				out = append(out, Failure{Username: username, Month: m, Err: err})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// Err joins every failure, or returns nil when the run was clean.
func (r *SyncReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	for i, f := range failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}
