package shared

// Backoffice resource paths declared for authorization.
const (
	PathBackofficeUsers   = "backoffice.users"
	PathBackofficeUnits   = "backoffice.units"
	PathBackofficeFactors = "backoffice.factors"
	PathBackofficeImports = "backoffice.imports"
	PathBackofficeAudit   = "backoffice.audit"
)

// BackofficePaths lists all backoffice resource paths.
func BackofficePaths() []string {
	return []string{
		PathBackofficeUsers,
		PathBackofficeUnits,
		PathBackofficeFactors,
		PathBackofficeImports,
		PathBackofficeAudit,
	}
}
