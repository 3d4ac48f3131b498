// Package service provides application-level services for users,
// credentials, credits, content generation and quiz grading. Services
// coordinate the store layer, the credential vault and the model gateway,
// and own all transactional boundaries.
package service
