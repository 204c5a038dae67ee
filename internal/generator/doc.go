// Package generator rebuilds the central canon inventory from the governance documents of a
// governance repository.
//
// Every markdown document below governance/canon and governance/policy is fingerprinted and its
// header block is searched for version, effective date, layering classification and the first
// sentence of its purpose section. Classifications already recorded in the previous inventory win
// over header declarations.
package generator
