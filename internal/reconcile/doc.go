// Package reconcile joins the central canon inventory with a local scan and computes the
// compliance snapshot of a repository.
//
// Reconcile performs no I/O and never fails. Mandatoriness and priority come from an
// injected MandatoryPolicy so repository archetypes can differ without changing the join.
package reconcile
