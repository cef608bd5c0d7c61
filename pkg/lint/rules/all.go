package rules

// Import all rule subpackages to register them with the global registry.
import (
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules/cpt"
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules/dissipation"
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules/penetrometer"
)
