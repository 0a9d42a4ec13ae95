package shared

// Data-collection module resource paths declared for authorization.
const (
	PathProfessionalTravel = "modules.professional_travel"
	PathHeadcount          = "modules.headcount"
	PathEquipment          = "modules.equipment"
	PathInventories        = "modules.inventories"
)

// ModulePaths lists all resource paths of the data-collection modules.
func ModulePaths() []string {
	return []string{
		PathProfessionalTravel,
		PathHeadcount,
		PathEquipment,
		PathInventories,
	}
}
