// Package generation contains the vendor-independent core of the content
// generation pipeline: the gateway boundary to the generative backend,
// prompt construction per generation kind, and response sanitization.
// This package has no knowledge of any specific model SDK; concrete
// backends live under internal/platform.
package generation
