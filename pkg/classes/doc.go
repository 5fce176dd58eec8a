/*
Package classes implements the Class Context component: the live set of
currently-true class names (each with a scope and optional tags), a small
boolean expression evaluator over that set, and a persistent subset backed
by pkg/kvstore that survives across runs until its expiry passes.
*/
package classes
