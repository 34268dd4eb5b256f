/*
Package corpus turns raw text into the tokenized sentences consumed by
package wordgraph, and keeps a library of such sentences in SQLite so a corpus
only has to be tokenized once.

Tokenization is stream-based and pluggable through the Tokenizer interface.
DefaultTokenizer splits words and punctuation with regular expressions and
marks sentence-terminal punctuation as end-of-chain (EOC) tokens; ReadSentences
groups the stream into sentences that end with their terminal token.

Only sentences are stored. Word graphs are always rebuilt in memory from them.
*/
package corpus
