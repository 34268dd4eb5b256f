/*
Package wordgraph builds a word-adjacency graph from tokenized sentences and
generates new sentences by walking it.

Every distinct word becomes one Node. While the corpus is read, each node
counts how often every other word directly precedes it; once all sentences
are processed those counts are baked into a sampling.Tree per node (the
backward distribution) and mirrored into a forward distribution on the
predecessor. The Graph is read-only after Build returns.

A Walker starts at a sentence-terminal node, repeatedly samples a predecessor
and stops on a length-biased coin flip whenever it reaches a word that has
been seen at the start of a sentence. The path is then reversed into a
sentence in reading order.
*/
package wordgraph
