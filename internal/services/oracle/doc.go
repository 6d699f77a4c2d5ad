// Package oracle wraps the chat-completions API gazette uses for
// scoring, generation, and validation. The client retries transient
// failures with capped backoff. Model output is decoded in stages: code
// fences are stripped and the first JSON object is extracted before
// unmarshalling. Callers own the fail-soft defaults applied when a
// response still cannot be parsed.
package oracle
