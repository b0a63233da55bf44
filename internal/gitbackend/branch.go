package gitbackend

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/implexa/implexa/internal/plmerr"
)

// CreateBranch creates a new branch named name pointing at the current
// tip of from. It does not check the new branch out.
func (b *Backend) CreateBranch(name, from string) error {
	fromRef, err := b.repo.Reference(plumbing.NewBranchReferenceName(from), true)
	if err != nil {
		return plmerr.Backend(plmerr.BackendBranch, "create_branch", name, err)
	}
	newRef := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), fromRef.Hash())
	if err := b.repo.Storer.SetReference(newRef); err != nil {
		return plmerr.Backend(plmerr.BackendBranch, "create_branch", name, err)
	}
	return nil
}

// CheckoutBranch switches the working tree to branch name.
func (b *Backend) CheckoutBranch(name string) error {
	wt, err := b.repo.Worktree()
	if err != nil {
		return plmerr.Backend(plmerr.BackendBranch, "checkout_branch", name, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return plmerr.Backend(plmerr.BackendBranch, "checkout_branch", name, err)
	}
	return nil
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (b *Backend) CurrentBranch() (string, error) {
	head, err := b.repo.Head()
	if err != nil {
		return "", plmerr.Backend(plmerr.BackendBranch, "current_branch", "", err)
	}
	return head.Name().Short(), nil
}

// BranchExists reports whether a branch of this name has a ref.
func (b *Backend) BranchExists(name string) bool {
	_, err := b.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	return err == nil
}

// BranchHead returns the commit hash a branch currently points at.
func (b *Backend) BranchHead(name string) (string, error) {
	ref, err := b.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return "", plmerr.Backend(plmerr.BackendBranch, "branch_head", name, err)
	}
	return ref.Hash().String(), nil
}
