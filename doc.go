/*
Package selfcore implements the runtime core of a prototype-based,
message-passing, dynamically typed object language: tagged values, a
maps-and-objects memory layout, a generational moving garbage collector,
slot-based lookup over a prototype chain, an activation stack with
non-local return, and a tree-walking expression evaluator.

The lexer and parser that produce an AST, command-line argument handling,
and the concrete catalog of built-in primitives beyond their dispatch
contract are external collaborators; this package consumes an already-built
Script through NewVM, PrepareWorld, and ExecuteScript.

Object Primer

Programs are sequences of expressions that construct objects from slots and
send messages to receivers. A slots object literal

	(| x = 3. y = 4 |)

allocates a fresh object with two constant slots, x and y. Sending x to it
resolves the slot and returns 3. Slots can also be mutable (x <- 1, written
with a left arrow) or parents, which participate in lookup when a selector
isn't found directly:

	(| parent = SomeProto. x <- 1 |)

A method literal looks like a slots object that also carries a statement
list and argument names:

	(| add: a With: b = (a + b) |) add: 2 With: 3

Sending add:With: activates the method with the receiver bound as self,
copies the arguments into its argument slots, evaluates its body, and
returns the final statement's value. Blocks are written the same way but
close over the activation they were created in; invoking one outside that
activation's lifetime (e.g. after the enclosing method has returned) is a
runtime error, since a block's parent and non-local-return targets are weak
references into the activation stack.

The ^ operator performs a non-local return: it unwinds activations up to
and including the enclosing method's, discarding any work still pending in
intervening block activations:

	(| foo = ([ ^ 7 ] value + 1000) |) foo

evaluates to 7; the block's body returns from foo directly, so + 1000 never
runs.

Assignment to a mutable slot is itself a message send, using the keyword
selector name: — (| x <- 1 |) x: 42 sets x to 42 and returns 42.

Selectors beginning with an underscore are primitives: they bypass slot
lookup entirely and are dispatched through a static registry keyed by
selector name (see primitive.go, traits.go, bytearray.go for the concrete
catalog this implementation supplies).
*/
package selfcore
