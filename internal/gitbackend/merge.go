package gitbackend

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/implexa/implexa/internal/plmerr"
)

// MergeBranch merges source into target. If target's tip is an
// ancestor of source's tip, the target ref is simply fast-forwarded.
// Otherwise the two trees are diffed against their merge-base; any
// path changed on both sides is a conflict unless strategy resolves it
// (Ours/Theirs).
func (b *Backend) MergeBranch(source, target, message string, strategy ConflictStrategy) (MergeResult, error) {
	sourceRef, err := b.repo.Reference(plumbing.NewBranchReferenceName(source), true)
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "merge_branch", source, err)
	}
	targetRef, err := b.repo.Reference(plumbing.NewBranchReferenceName(target), true)
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "merge_branch", target, err)
	}

	sourceCommit, err := b.repo.CommitObject(sourceRef.Hash())
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "merge_branch", source, err)
	}
	targetCommit, err := b.repo.CommitObject(targetRef.Hash())
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "merge_branch", target, err)
	}

	isAncestor, err := targetCommit.IsAncestor(sourceCommit)
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "merge_branch ancestor check", source, err)
	}
	if isAncestor {
		newTarget := plumbing.NewHashReference(targetRef.Name(), sourceCommit.Hash)
		if err := b.repo.Storer.SetReference(newTarget); err != nil {
			return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "fast-forward", target, err)
		}
		return MergeResult{Outcome: FastForwarded, CommitHash: sourceCommit.Hash.String()}, nil
	}

	bases, err := sourceCommit.MergeBase(targetCommit)
	if err != nil || len(bases) == 0 {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "find merge base", source+".."+target, err)
	}
	base := bases[0]

	baseTree, err := base.Tree()
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "read merge-base tree", "", err)
	}
	sourceTree, err := sourceCommit.Tree()
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "read source tree", source, err)
	}
	targetTree, err := targetCommit.Tree()
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "read target tree", target, err)
	}

	sourceChanges, err := changedPaths(baseTree, sourceTree)
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "diff base..source", source, err)
	}
	targetChanges, err := changedPaths(baseTree, targetTree)
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "diff base..target", target, err)
	}

	var conflicts []string
	for path, sourceHash := range sourceChanges {
		if targetHash, also := targetChanges[path]; also && sourceHash != targetHash {
			conflicts = append(conflicts, path)
		}
	}

	if len(conflicts) > 0 && strategy == Manual {
		return MergeResult{Outcome: ConflictsDetected, ConflictPaths: conflicts}, nil
	}

	// No conflicts, or a non-Manual strategy resolved them: check out
	// target and materialize source's changed paths on top of it
	// (Theirs semantics for conflicts), then commit a two-parent merge.
	// The engine only uses Ours for its own metadata remerges, where
	// target and source never actually diverge on real content, so
	// skipping source's write there is equivalent to keeping target's.
	if err := b.CheckoutBranch(target); err != nil {
		return MergeResult{}, err
	}
	wt, err := b.repo.Worktree()
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "merge_branch", target, err)
	}

	for path, hash := range sourceChanges {
		if strategy == Ours {
			if _, conflicted := targetChanges[path]; conflicted {
				continue // keep target's version of conflicting paths
			}
		}
		if hash == deletedMarker {
			if targetChanges[path] == deletedMarker {
				continue // already gone on target
			}
			if _, err := wt.Remove(path); err != nil {
				return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "apply merged deletion", path, err)
			}
			continue
		}
		if err := writeTreeFile(wt, sourceTree, path); err != nil {
			return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "apply merged file", path, err)
		}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:  b.committer(),
		Parents: []plumbing.Hash{targetCommit.Hash, sourceCommit.Hash},
	})
	if err != nil {
		return MergeResult{}, plmerr.Backend(plmerr.BackendMerge, "commit merge", target, err)
	}
	return MergeResult{Outcome: NormalMerge, CommitHash: hash.String()}, nil
}

// deletedMarker stands in for a blob hash when a path was removed.
const deletedMarker = "<deleted>"

// changedPaths returns, for every path whose blob hash differs between
// from and to (including deletions, marked by deletedMarker), a map of
// path -> new blob hash string.
func changedPaths(from, to *object.Tree) (map[string]string, error) {
	changes, err := from.Diff(to)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(changes))
	for _, c := range changes {
		_, toFile, err := c.Files()
		if err != nil {
			return nil, err
		}
		name := c.To.Name
		if name == "" {
			name = c.From.Name
		}
		if toFile == nil {
			out[name] = deletedMarker
			continue
		}
		out[name] = toFile.Hash.String()
	}
	return out, nil
}

// writeTreeFile writes path's blob content from tree into wt's
// filesystem and stages it, creating parent directories as needed.
func writeTreeFile(wt *git.Worktree, tree *object.Tree, path string) error {
	file, err := tree.File(path)
	if err != nil {
		return err
	}
	reader, err := file.Reader()
	if err != nil {
		return err
	}
	defer reader.Close()

	fullPath := filepath.Join(wt.Filesystem.Root(), path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, reader); err != nil {
		return err
	}
	_, err = wt.Add(path)
	return err
}
