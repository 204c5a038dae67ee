// Package gitrepo derives repository identities from Git remotes.
//
// ParseRemoteURL understands SSH and HTTPS remotes, and IdentityResolver asks git for the
// origin remote of a working tree, falling back to a placeholder identity when none is available.
package gitrepo
