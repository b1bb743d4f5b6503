package config

// mergeTenants merges the built-in default tenant into every
// user-defined tenant, section by section: a tenants entry that
// sets only "budget" still gets the built-in compressor/approval/
// policy sections rather than leaving them nil. User-defined tenants
// with no entry at all are not created — every tenant must be named
// explicitly in the config file.
func mergeTenants(builtinDefault *TenantConfig, userTenants map[string]*TenantConfig) map[string]*TenantConfig {
	result := make(map[string]*TenantConfig, len(userTenants))

	for id, user := range userTenants {
		merged := &TenantConfig{
			Budget:     user.Budget,
			Compressor: user.Compressor,
			Approval:   user.Approval,
			Policy:     user.Policy,
		}
		if merged.Budget == nil {
			merged.Budget = builtinDefault.Budget
		}
		if merged.Compressor == nil {
			merged.Compressor = builtinDefault.Compressor
		}
		if merged.Approval == nil {
			merged.Approval = builtinDefault.Approval
		}
		if merged.Policy == nil {
			merged.Policy = builtinDefault.Policy
		}
		result[id] = merged
	}

	return result
}

// mergeCollaborators overlays a user-supplied CollaboratorsConfig onto
// the built-in defaults field by field, treating an empty EndpointConfig
// as "not set" rather than as a user choice to point at an empty URL.
func mergeCollaborators(builtin, user *CollaboratorsConfig) *CollaboratorsConfig {
	if user == nil {
		return builtin
	}
	merged := *builtin
	if user.LLM.BaseURL != "" {
		merged.LLM = user.LLM
	}
	if user.Vector.BaseURL != "" {
		merged.Vector = user.Vector
	}
	if user.KnowledgeRepoRoot != "" {
		merged.KnowledgeRepoRoot = user.KnowledgeRepoRoot
	}
	return &merged
}
