package registry

func rules(patterns ...string) []Rule {
	out := make([]Rule, len(patterns))
	for i, p := range patterns {
		out[i] = Rule{Pattern: p}
	}
	return out
}

// canonicalSignatures is the built-in N-V-N-N archetype table.
func canonicalSignatures() []Signature {
	return []Signature{
		{
			ID:       "USER_VALIDATE_INPUT_SECURITY",
			Category: "validation",
			Patterns: rules(
				`fn\s+validate`,
				`Result<.*,\s*\w*Error>`,
				`if\s+\w+\.is_empty\(\)`,
			),
			AntiPatterns: rules(`println!`, `eprintln!`, `std::io`, `tokio::fs`),
			Constraints:  []string{"deterministic", "no_io", "single_responsibility"},
		},
		{
			ID:       "SYSTEM_WRITE_IDEMPOTENT_RECORD",
			Category: "persistence",
			Patterns: rules(
				`fn\s+write|fn\s+save|fn\s+persist`,
				`idempotent|upsert|insert_or_update`,
			),
			AntiPatterns: rules(`println!`, `log::`),
			Constraints:  []string{"deterministic", "no_logging"},
		},
		{
			ID:       "WORKER_PROCESS_TASK_BOUNDED",
			Category: "concurrency",
			Patterns: rules(
				`fn\s+process|fn\s+handle|fn\s+execute`,
				`bounded|limit|max_`,
			),
			// unbounded loop: a loop block with no break after it
			AntiPatterns: []Rule{{Pattern: `loop\s*\{[^}]*\}`, NotFollowedBy: `[^}]*break`}},
			Constraints:  []string{"deterministic", "bounded"},
		},
		{
			ID:       "SERVICE_ROTATE_TOKEN_SECURE",
			Category: "security",
			Patterns: rules(
				`fn\s+rotate|fn\s+refresh|fn\s+renew`,
				`token|secret|credential`,
			),
			AntiPatterns: rules(`println!.*token`, `dbg!.*secret`),
			Constraints:  []string{"deterministic", "no_logging"},
		},
		{
			ID:       "RESOURCE_CLOSE_GRACEFUL",
			Category: "lifecycle",
			Patterns: rules(
				`fn\s+close|fn\s+shutdown|fn\s+cleanup`,
				`Drop|drop|dispose`,
			),
			AntiPatterns: []Rule{
				{Pattern: `panic!`},
				{Pattern: `unwrap\(\)`, NotFollowedBy: `\s*//\s*safe`},
			},
			Constraints: []string{"graceful"},
		},
		{
			ID:       "SERVICE_ADAPTER_IO_WRAPPER",
			Category: "design",
			Patterns: rules(
				`trait\s+\w+Adapter|impl\s+\w+Adapter`,
				`wrap|delegate|proxy`,
			),
			Constraints: []string{"declares_side_effects"},
		},
	}
}

// Default returns a freshly built registry of the canonical archetypes.
func Default() *Registry {
	r, err := New(canonicalSignatures())
	if err != nil {
		panic("registry: canonical signatures do not compile: " + err.Error())
	}
	return r
}
