// Package triage is the business boundary for Acuity's hybrid triage
// decision engine. It defines the ordered severity scale, the vitals and
// complaint rule evaluators, the Engine (rule/ML consolidation), the
// Service (ids, persistence, notification) and the Store interface.
package triage
