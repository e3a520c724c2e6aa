// Package domain defines the core study entities (notes and the topics they
// belong to) together with their validation rules and errors.
package domain
