// Command gazette is the CLI for the gazette content pipeline. It triggers
// pipeline runs, manages feed sources, works the review queue, and inspects
// the run ledger.
package main
