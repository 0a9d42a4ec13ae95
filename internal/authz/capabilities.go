package authz

import "github.com/carbonledger/carbonledger/internal/shared"

// Action names used across the capability table.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionExport = "export"
	ActionClose  = "close"
	ActionRun    = "run"
)

// DefaultCapabilities returns the deployment's role -> permission table.
// This table is the authoritative access-control policy and is meant to be
// reviewed as a whole; keep grants here, never as scattered conditionals.
// Grants merge additively when a principal holds several roles.
func DefaultCapabilities() CapabilityTable {
	return CapabilityTable{
		RoleUserStd: {
			shared.PathProfessionalTravel: {ActionView: true, ActionCreate: true, ActionEdit: true},
			shared.PathHeadcount:          {ActionView: true, ActionCreate: true, ActionEdit: true},
			shared.PathEquipment:          {ActionView: true, ActionCreate: true, ActionEdit: true},
			shared.PathInventories:        {ActionView: true},
		},
		RoleUserSecondary: {
			shared.PathProfessionalTravel: {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true},
			shared.PathHeadcount:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true},
			shared.PathEquipment:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true},
			shared.PathInventories:        {ActionView: true, ActionEdit: true},
		},
		RoleUserPrincipal: {
			shared.PathProfessionalTravel: {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathHeadcount:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathEquipment:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathInventories:        {ActionView: true, ActionEdit: true, ActionCreate: true, ActionClose: true, ActionExport: true},
		},
		RoleBackoffice: {
			shared.PathProfessionalTravel: {ActionView: true, ActionExport: true},
			shared.PathHeadcount:          {ActionView: true, ActionExport: true},
			shared.PathEquipment:          {ActionView: true, ActionExport: true},
			shared.PathInventories:        {ActionView: true, ActionExport: true},
			shared.PathBackofficeUsers:    {ActionView: true},
			shared.PathBackofficeUnits:    {ActionView: true},
			shared.PathBackofficeAudit:    {ActionView: true},
		},
		RoleServiceManager: {
			shared.PathProfessionalTravel: {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathHeadcount:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathEquipment:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathInventories:        {ActionView: true, ActionEdit: true, ActionCreate: true, ActionClose: true, ActionExport: true},
			shared.PathBackofficeUnits:    {ActionView: true, ActionEdit: true},
			shared.PathBackofficeFactors:  {ActionView: true, ActionEdit: true},
			shared.PathBackofficeImports:  {ActionView: true, ActionRun: true},
			shared.PathBackofficeAudit:    {ActionView: true, ActionExport: true},
		},
		RoleSuperadmin: {
			shared.PathProfessionalTravel: {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathHeadcount:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathEquipment:          {ActionView: true, ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionExport: true},
			shared.PathInventories:        {ActionView: true, ActionEdit: true, ActionCreate: true, ActionClose: true, ActionExport: true},
			shared.PathBackofficeUsers:    {ActionView: true, ActionEdit: true, ActionExport: true},
			shared.PathBackofficeUnits:    {ActionView: true, ActionEdit: true},
			shared.PathBackofficeFactors:  {ActionView: true, ActionEdit: true},
			shared.PathBackofficeImports:  {ActionView: true, ActionRun: true},
			shared.PathBackofficeAudit:    {ActionView: true, ActionExport: true},
		},
	}
}
