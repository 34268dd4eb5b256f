/*
Package sampling provides a mutable weighted multiset that supports drawing an
element with probability proportional to its weight.

The Tree type keeps its elements in the leaves of a binary tree whose internal
(relay) nodes cache the summed weight and leaf count of their subtrees. New
leaves are attached below the least-populated leaf, so sampling, insertion and
removal all run in time proportional to the depth of the tree, which stays
logarithmic for the usual workload of many similarly weighted insertions.

A Tree is not safe for concurrent use. Randomness is always supplied by the
caller through the Rand interface, which makes every draw reproducible under a
fixed seed.
*/
package sampling
