// Package services holds cross-cutting helpers shared by the pipeline
// stages: context annotation for structured logging and the error
// taxonomy used to classify stage failures.
package services
