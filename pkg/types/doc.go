/*
Package types defines the shared data model of the promise evaluation
engine: variable references, bindings, class facts, promises and their
typed attribute bags, item lists, and the records the last-seen index and
stat cache carry between connections.

Every other package in this module imports types for its nouns and adds
its own behavior on top; types itself stays free of algorithms beyond
small constructors and predicates.

# Core Types

Variable Table:
  - VarRef: a fully-qualified (namespace, scope, lval, indices) reference
  - RVal: a tagged value — scalar, list, function call, or JSON container
  - Variable: a ref/value/type/tags/origin binding

Class Context:
  - ClassScope: Bundle or Namespace
  - PersistedClass: a class with an expiry and a reset/preserve policy

Promises:
  - Promise: handle, promiser, promisee, type, attrs, class guard, bundle
  - Attributes: the per-promise-type typed attribute bag
  - PromiseResult: the outcome severity enum (Fail .. Skipped)

Item lists:
  - Item, ItemList: the ordered, duplicate-tolerant sequence used for
    in-memory file content (File Actuator); the Process Actuator keeps
    process-table rows in its own Entry type, not in an ItemList

Last-seen and stat cache:
  - Direction, LastSeenRecord
  - StatCacheEntry

# Design Patterns

RVal is a closed tagged union (Scalar/List/FnCall/Container) rather than an
interface hierarchy — the iteration engine and variable table both need to
switch exhaustively on its kind, which a sealed set of variants makes a
straightforward type switch instead of an interface-method dispatch.

Attributes uses one pointer field per promise-type family (FileAttrs,
ProcessAttrs, StorageAttrs, ACLAttrs); a nil pointer means "this promise
doesn't carry that family". TransactionAttrs is held by value in the
Transaction field since every promise type carries it.
*/
package types
