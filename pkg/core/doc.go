// Package core defines the vocabulary shared by the document model, the rule
// engine and the outer surfaces of cptcheck: diagnostic severities and rule
// descriptions.
//
// pkg/core imports only the standard library. Everything else depends on core,
// not the reverse.
package core
