/*
Package vars implements the Variable Table component: parsing and
mangling of variable references, and the table itself (Put/Get/Remove/
Count/Clear/Iter/CopyLocalized).

Reference grammar: a qualified reference is namespace:scope.lval[idx]...;
all three separators are optional, found by first locating the index list
(the first '['), then the last namespace separator before it, and then the
first scope separator after that. Mangling substitutes ':' -> '*' and '.' -> '#' so a
reference can be embedded in a context (an iteration wheel's internal
variable name) where it must no longer look qualified; demangling parses
the same grammar with the substituted separators.
*/
package vars
