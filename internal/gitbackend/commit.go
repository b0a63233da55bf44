package gitbackend

import (
	"github.com/go-git/go-git/v5"

	"github.com/implexa/implexa/internal/plmerr"
)

// Commit stages the listed paths (or every pending change if files is
// empty) and produces a commit on the currently checked-out branch,
// returning the new commit hash.
func (b *Backend) Commit(message string, files []string) (string, error) {
	wt, err := b.repo.Worktree()
	if err != nil {
		return "", plmerr.Backend(plmerr.BackendRepository, "commit", "", err)
	}

	if len(files) == 0 {
		if _, err := wt.Add("."); err != nil {
			return "", plmerr.Backend(plmerr.BackendIO, "stage all changes", "", err)
		}
	} else {
		for _, f := range files {
			if _, err := wt.Add(f); err != nil {
				return "", plmerr.Backend(plmerr.BackendIO, "stage file", f, err)
			}
		}
	}

	status, err := wt.Status()
	if err != nil {
		return "", plmerr.Backend(plmerr.BackendIO, "check worktree status", "", err)
	}
	if status.IsClean() {
		head, err := b.repo.Head()
		if err != nil {
			return "", plmerr.Backend(plmerr.BackendRepository, "commit (no changes)", "", err)
		}
		return head.Hash().String(), nil
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: b.committer()})
	if err != nil {
		return "", plmerr.Backend(plmerr.BackendRepository, "commit", "", err)
	}
	return hash.String(), nil
}
