// Package policyscan validates root cause analysis evidence produced after a failed merge gate.
//
// An RCA must carry a schema version, report time, incident summary and non-empty lists of root
// causes, corrective actions and preventative actions. Its narrative is screened against an
// externally maintained catalog of minimizing-language expressions.
package policyscan
